package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"calsync/core/reconcile"
	"calsync/core/storage"
	"calsync/feature/calendar/history"

	"github.com/minio/minio-go/v7"
)

// Report is the JSON document archived for every run.
type Report struct {
	Trigger string                `json:"trigger"`
	Filter  string                `json:"filter,omitempty"`
	Fatal   string                `json:"fatal,omitempty"`
	Result  *reconcile.SyncResult `json:"result"`
}

// ReportKey returns the object key of the report for row, e.g. runs/2024/03/10/<run-id>.json.
func ReportKey(row history.SyncRun) string {
	return fmt.Sprintf("runs/%s/%s.json", row.StartedAt.UTC().Format("2006/01/02"), row.RunID)
}

func archiveReport(ctx context.Context, client storage.Client, bucket string, row history.SyncRun, result *reconcile.SyncResult) (string, error) {
	data, err := json.MarshalIndent(Report{
		Trigger: row.Trigger,
		Filter:  row.Filter,
		Fatal:   row.Fatal,
		Result:  result,
	}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode report: %w", err)
	}

	key := ReportKey(row)
	_, err = client.PutObject(ctx, bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return key, nil
}
