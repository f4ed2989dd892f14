package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// calendarsCmd lists the calendars available on the CalDAV server.
var calendarsCmd = &cobra.Command{
	Use:   "calendars",
	Short: "List the calendars of the CalDAV account",
	Long:  `Discovers the calendars of the configured CalDAV user. Use one of the printed paths as SOURCE_CALENDAR_PATH.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, l, err := loadConfig()
		if err != nil {
			return err
		}
		defer l.Sync()

		source, err := newSource(cfg, l)
		if err != nil {
			return err
		}

		cals, err := source.DiscoverCalendars(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to discover calendars: %w", err)
		}

		return yaml.NewEncoder(os.Stdout).Encode(cals)
	},
}

func init() {
	RootCmd.AddCommand(calendarsCmd)
}
