package cmd

import (
	"bufio"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"calsync/core/reconcile"
	"calsync/feature/calendar"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Flags for the sync command
	syncWindowDays int
	syncDryRun     bool
	syncFilter     string
	yesConfirm     bool
)

// syncCmd runs one reconciliation from the command line.
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync the CalDAV calendar into Google Calendar once",
	Long: `Plan the reconciliation, print the report and apply it.

Creates and updates are applied directly. Deletions of Google events require
confirmation unless --yes is given. --dry-run never changes anything.

Examples:
  # Report only
  calsync sync --dry-run

  # Sync the next 7 days, confirming deletions interactively
  calsync sync --window-days 7

  # Non-interactive, only events mentioning "standup"
  calsync sync --filter standup --yes`,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().IntVar(&syncWindowDays, "window-days", 0, "Days after today to sync (default from sync.window_days)")
	syncCmd.Flags().BoolVar(&syncDryRun, "dry-run", false, "Compute decisions without changing Google Calendar")
	syncCmd.Flags().StringVar(&syncFilter, "filter", "", "Only sync events whose summary, description or location contains this text")
	syncCmd.Flags().BoolVar(&yesConfirm, "yes", false, "Auto-confirm deletions (non-interactive)")

	RootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	cfg, l, err := loadConfig()
	if err != nil {
		return err
	}

	// Interrupting defers the remaining actions to the next run
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	d, err := newDeps(ctx, cfg, l)
	if err != nil {
		return err
	}
	defer d.close()

	days := cfg.Sync.WindowDays
	if cmd.Flags().Changed("window-days") {
		days = syncWindowDays
	}
	filter := cfg.Sync.Filter
	if cmd.Flags().Changed("filter") {
		filter = syncFilter
	}

	// Step 1: Plan
	l.Info("Planning sync...", zap.Int("window_days", days), zap.String("filter", filter))
	prepared, err := d.service.Prepare(ctx, calendar.RunRequest{
		WindowDays: days,
		DryRun:     syncDryRun,
		Filter:     filter,
		Trigger:    calendar.TriggerCLI,
	})
	if err != nil {
		return fmt.Errorf("failed to plan sync: %w", err)
	}

	// Step 2: Report
	printPlanReport(l, prepared)

	if prepared.Plan.Mutations() == 0 && len(prepared.Plan.Rejected) == 0 {
		l.Info("Google Calendar is up to date. No changes needed.")
		return nil
	}

	// Step 3: Confirm deletions
	if !syncDryRun && prepared.Plan.HasDeletes() && !confirmDestructiveAction(prepared.Plan.Summary.Deletes) {
		l.Warn("Operation cancelled by user. No changes were made.")
		return nil
	}

	// Step 4: Apply
	result, err := d.service.Apply(ctx, prepared, syncDryRun, calendar.TriggerCLI)
	if err != nil {
		return err
	}
	printResult(l, result)

	if result.Failed() {
		return fmt.Errorf("sync finished with %d errors", len(result.Errors))
	}
	return nil
}

// printPlanReport prints the planned decisions using the logger.
func printPlanReport(l *zap.Logger, prepared *calendar.Prepared) {
	s := prepared.Plan.Summary

	l.Info("Sync plan",
		zap.Stringer("window", prepared.Window),
		zap.Int("processed", s.Processed),
		zap.Int("creates", s.Creates),
		zap.Int("updates", s.Updates),
		zap.Int("deletes", s.Deletes),
		zap.Int("unchanged", s.Unchanged),
		zap.Int("duplicate_uids", s.DuplicateUIDs),
	)

	for _, rejected := range prepared.Plan.Rejected {
		l.Warn("Rejected source event", zap.String("reason", rejected))
	}

	// Show a sample of the mutating actions
	const maxShow = 10
	shown := 0
	for _, action := range prepared.Plan.Actions {
		if !action.Mutates() {
			continue
		}
		if shown == maxShow {
			l.Info("Additional actions not shown", zap.Int("count", prepared.Plan.Mutations()-maxShow))
			break
		}
		l.Info("Planned action",
			zap.String("type", string(action.Type)),
			zap.String("uid", action.SourceUID),
			zap.String("destination_id", action.DestinationID),
			zap.String("reason", action.Reason),
		)
		shown++
	}
}

func printResult(l *zap.Logger, result *reconcile.SyncResult) {
	msg := "Sync applied"
	if result.DryRun {
		msg = "Dry-run: no changes were made"
	}
	l.Info(msg,
		zap.String("run_id", result.RunID),
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
		zap.Int("deleted", result.Deleted),
		zap.Int("unchanged", result.Unchanged),
		zap.Int("deferred", result.Deferred),
		zap.Duration("duration", result.Duration()),
	)
	for _, e := range result.Errors {
		l.Warn("Sync error", zap.String("error", e))
	}
}

// confirmDestructiveAction prompts the user for confirmation or uses --yes flag.
func confirmDestructiveAction(deletes int) bool {
	if yesConfirm {
		fmt.Println("\n✓ Auto-confirmed via --yes flag")
		return true
	}

	fmt.Printf("\n⚠️  %d Google events will be deleted. Type 'yes' to confirm: ", deletes)
	reader := bufio.NewReader(os.Stdin)
	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	return strings.TrimSpace(response) == "yes"
}
