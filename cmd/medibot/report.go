package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"medi-plus/internal/analytics"
	"medi-plus/internal/storage"
)

var (
	reportDate string
	reportJSON bool
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Summarise one day of recorded interactions",
	Long: `Summarise one day (UTC) of recorded interactions: turns, sessions,
rule hits and how often nothing matched. Reads EVENT_DB_PATH when set,
otherwise EVENT_LOG_PATH.

Examples:
  medibot report
  medibot report --date 2024-01-15 --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, _, err := setup()
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		day := time.Now().UTC()
		if reportDate != "" {
			day, err = time.Parse("2006-01-02", reportDate)
			if err != nil {
				return fmt.Errorf("bad --date: %w", err)
			}
		}

		sinks, err := storage.Open(storage.Paths{EventLog: cfg.EventLogPath, EventDB: cfg.EventDBPath})
		if err != nil {
			return err
		}
		defer sinks.Close()
		if sinks.Store == nil {
			return errors.New("no event log configured (EVENT_LOG_PATH or EVENT_DB_PATH)")
		}

		events, err := sinks.Store.LoadInteractions()
		if err != nil {
			return err
		}
		stats := analytics.AnalyzeDailyLogs(events, day)

		out := cmd.OutOrStdout()
		if reportJSON {
			s, err := stats.ToJSON()
			if err != nil {
				return err
			}
			fmt.Fprintln(out, s)
			return nil
		}
		fmt.Fprint(out, stats.GenerateReportSummary())
		return nil
	},
}

func init() {
	reportCmd.Flags().StringVar(&reportDate, "date", "", "day to report, YYYY-MM-DD (default today, UTC)")
	reportCmd.Flags().BoolVar(&reportJSON, "json", false, "print the statistics as JSON")
}
