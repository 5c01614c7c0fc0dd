package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/sentinel/internal/cli"
	"github.com/Veraticus/sentinel/internal/model"
	"github.com/Veraticus/sentinel/internal/service"
	"github.com/Veraticus/sentinel/internal/storage"
)

const historyDateLayout = "2006-01-02"

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the activity log",
		Long: `Show what happened to each message, newest first.

Examples:
  sentinel history --since 2025-06-01
  sentinel history --action forwarded,manual_forwarded --limit 20
  sentinel history --sender amazon`,
		RunE: runHistory,
	}

	cmd.Flags().String("since", "", "Only entries on or after this date (YYYY-MM-DD)")
	cmd.Flags().String("until", "", "Only entries before this date (YYYY-MM-DD)")
	cmd.Flags().String("sender", "", "Only entries whose sender contains this text")
	cmd.Flags().StringSlice("action", nil, "Only these actions (forwarded, blocked, processed, failed, manual_forwarded, reply, ...)")
	cmd.Flags().Int("limit", 50, "Maximum number of entries (0 for all)")
	cmd.Flags().Int("offset", 0, "Skip this many entries")

	return cmd
}

func runHistory(cmd *cobra.Command, _ []string) error {
	filter, err := historyFilter(cmd)
	if err != nil {
		return err
	}

	return withStorage(cmd, func(store *storage.SQLiteStorage) error {
		records, err := store.QueryActivity(cmd.Context(), filter)
		if err != nil {
			return fmt.Errorf("failed to query activity: %w", err)
		}
		if len(records) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), cli.InfoStyle.Render("No activity found."))
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), cli.FormatTitle("Activity"))
		fmt.Fprintln(cmd.OutOrStdout(), renderActivity(records))
		return nil
	})
}

func historyFilter(cmd *cobra.Command) (service.ActivityFilter, error) {
	var filter service.ActivityFilter

	since, _ := cmd.Flags().GetString("since")
	until, _ := cmd.Flags().GetString("until")
	var err error
	if filter.Since, err = parseDateFlag("since", since); err != nil {
		return filter, err
	}
	if filter.Until, err = parseDateFlag("until", until); err != nil {
		return filter, err
	}

	filter.Sender, _ = cmd.Flags().GetString("sender")
	filter.Limit, _ = cmd.Flags().GetInt("limit")
	filter.Offset, _ = cmd.Flags().GetInt("offset")
	if filter.Limit < 0 || filter.Offset < 0 {
		return filter, fmt.Errorf("--limit and --offset must not be negative")
	}

	actions, _ := cmd.Flags().GetStringSlice("action")
	filter.Actions, err = parseActions(actions)
	return filter, err
}

func parseDateFlag(name, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(historyDateLayout, value, time.Local)
	if err != nil {
		return nil, fmt.Errorf("invalid --%s date %q (expected YYYY-MM-DD)", name, value)
	}
	return &t, nil
}

var knownActions = []model.ActivityAction{
	model.ActivityForwarded,
	model.ActivityBlocked,
	model.ActivityProcessed,
	model.ActivityFailed,
	model.ActivityError,
	model.ActivityManualForwarded,
	model.ActivityManualForwardFailed,
	model.ActivityReply,
}

func parseActions(values []string) ([]model.ActivityAction, error) {
	var out []model.ActivityAction
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" {
			continue
		}
		found := false
		for _, a := range knownActions {
			if string(a) == v {
				out = append(out, a)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("unknown action %q", v)
		}
	}
	return out, nil
}

func renderActivity(records []model.ActivityRecord) string {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		amount := ""
		if r.Amount != nil {
			amount = fmt.Sprintf("$%.2f", *r.Amount)
		}
		rows = append(rows, []string{
			r.Timestamp.Local().Format("2006-01-02 15:04"),
			string(r.Action),
			truncate(r.Sender, 30),
			truncate(r.Subject, 40),
			string(r.Category),
			amount,
			truncate(r.Reason, 40),
		})
	}
	return cli.RenderTable([]string{"When", "Action", "Sender", "Subject", "Category", "Amount", "Reason"}, rows)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
