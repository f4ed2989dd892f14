package cmd

import (
	"fmt"
	"os"

	"calsync/core/reconcile"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var linksWindowDays int

// linksCmd prints the Google events currently linked to CalDAV events.
var linksCmd = &cobra.Command{
	Use:   "links",
	Short: "Show the Google events created by calsync",
	Long:  `Lists the provenance-tagged Google events within the window as YAML, keyed by CalDAV uid.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, l, err := loadConfig()
		if err != nil {
			return err
		}

		d, err := newDeps(cmd.Context(), cfg, l)
		if err != nil {
			return err
		}
		defer d.close()

		days := cfg.Sync.WindowDays
		if cmd.Flags().Changed("window-days") {
			days = linksWindowDays
		}

		window, links, err := d.service.Links(cmd.Context(), days)
		if err != nil {
			return fmt.Errorf("failed to list links: %w", err)
		}

		return yaml.NewEncoder(os.Stdout).Encode(struct {
			Window reconcile.Window `yaml:"window"`
			Count  int              `yaml:"count"`
			Links  []reconcile.Link `yaml:"links"`
		}{window, len(links), links})
	},
}

func init() {
	linksCmd.Flags().IntVar(&linksWindowDays, "window-days", 0, "Days after today to scan (default from sync.window_days)")
	RootCmd.AddCommand(linksCmd)
}
