package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Veraticus/sentinel/internal/cli"
	"github.com/Veraticus/sentinel/internal/model"
	"github.com/Veraticus/sentinel/internal/preferences"
)

func prefsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "prefs",
		Aliases: []string{"preferences"},
		Short:   "Manage forwarding preferences",
		Long: `View and edit the block lists and whitelist that decide which receipts
are forwarded. These are the same lists the recipient edits by replying.

List types: senders, categories, keywords, whitelist.`,
	}

	cmd.AddCommand(prefsListCmd())
	cmd.AddCommand(prefsMutateCmd("add", "Add a value to a preference list"))
	cmd.AddCommand(prefsMutateCmd("remove", "Remove a value from a preference list"))
	cmd.AddCommand(prefsPauseCmd("pause", true))
	cmd.AddCommand(prefsPauseCmd("resume", false))

	return cmd
}

// withPreferences opens storage and hands fn a preference store over it.
func withPreferences(cmd *cobra.Command, fn func(*preferences.Store) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := initStorage(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer closeStorage(store)

	return fn(preferences.NewStore(store))
}

func prefsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show all preference lists",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withPreferences(cmd, func(s *preferences.Store) error {
				fmt.Fprintln(cmd.OutOrStdout(), renderPreferences(s.Load(cmd.Context())))
				return nil
			})
		},
	}
}

func prefsMutateCmd(verb, short string) *cobra.Command {
	return &cobra.Command{
		Use:   verb + " <type> <value>",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := model.ParsePreferenceType(args[0])
			if err != nil {
				return err
			}
			return withPreferences(cmd, func(s *preferences.Store) error {
				apply := s.Add
				if verb == "remove" {
					apply = s.Remove
				}
				changed, err := apply(cmd.Context(), t, args[1])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), mutationMessage(verb, t, args[1], changed))
				return nil
			})
		},
	}
}

func prefsPauseCmd(use string, paused bool) *cobra.Command {
	short := "Resume forwarding after STOP ALL"
	if paused {
		short = "Pause all forwarding except whitelisted senders"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withPreferences(cmd, func(s *preferences.Store) error {
				changed, err := s.SetPaused(cmd.Context(), paused)
				if err != nil {
					return err
				}
				state := "resumed"
				if paused {
					state = "paused"
				}
				if !changed {
					fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("Forwarding already "+state))
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Forwarding "+state))
				return nil
			})
		},
	}
}

func mutationMessage(verb string, t model.PreferenceType, value string, changed bool) string {
	value = model.NormalizeValue(value)
	if !changed {
		if verb == "remove" {
			return cli.FormatInfo(fmt.Sprintf("%q is not in %s", value, t))
		}
		return cli.FormatInfo(fmt.Sprintf("%q is already in %s", value, t))
	}
	if verb == "remove" {
		return cli.FormatSuccess(fmt.Sprintf("Removed %q from %s", value, t))
	}
	return cli.FormatSuccess(fmt.Sprintf("Added %q to %s", value, t))
}

func renderPreferences(prefs model.Preferences) string {
	stats := preferences.Summarize(prefs)
	status := cli.SuccessStyle.Render("active")
	if stats.Paused {
		status = cli.WarningStyle.Render("paused (STOP ALL)")
	}

	pairs := [][2]string{
		{"Forwarding", status},
		{"Blocked senders", listOrNone(prefs.BlockedSenders)},
		{"Blocked categories", listOrNone(prefs.BlockedCategories)},
		{"Blocked keywords", listOrNone(prefs.BlockedKeywords)},
		{"Whitelist", listOrNone(prefs.Whitelist)},
	}
	return cli.FormatTitle("Preferences") + "\n" + cli.RenderKeyValues(pairs)
}

func listOrNone(values []string) string {
	if len(values) == 0 {
		return cli.SubtleStyle.Render("none")
	}
	return strings.Join(values, ", ")
}
