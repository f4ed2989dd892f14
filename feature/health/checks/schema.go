package checks

import (
	"fmt"
	"time"

	"calsync/core/database"
	"calsync/feature/calendar/history"

	"gorm.io/gorm"
)

// CheckSchema verifies that the run history table has every column the store uses.
func CheckSchema(db *gorm.DB) Result {
	const name = "history"
	if db == nil {
		return disabled(name)
	}

	started := time.Now()
	table := history.SyncRun{}.TableName()

	missing, err := database.MissingColumns(db, table, history.Columns)
	if err != nil {
		return finish(name, started, err)
	}

	r := finish(name, started, nil)
	if len(missing) > 0 {
		r.Status = StatusError
		r.Missing = missing
		if len(missing) == len(history.Columns) {
			r.Error = fmt.Sprintf("table %s does not exist", table)
		} else {
			r.Error = fmt.Sprintf("table %s is missing %d columns", table, len(missing))
		}
	}
	return r
}
