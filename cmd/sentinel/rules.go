package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Veraticus/sentinel/internal/cli"
	"github.com/Veraticus/sentinel/internal/common"
	"github.com/Veraticus/sentinel/internal/model"
	"github.com/Veraticus/sentinel/internal/pattern"
	"github.com/Veraticus/sentinel/internal/storage"
)

func rulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Manage manual forwarding rules",
		Long: `Manual rules forward matching mail even when it is not a receipt or was
blocked by a preference. Patterns accept "*" as a wildcard and match the
whole field, case-insensitively. Lower priority values are checked first.`,
	}

	cmd.AddCommand(rulesListCmd())
	cmd.AddCommand(rulesCreateCmd())
	cmd.AddCommand(rulesDeleteCmd())
	cmd.AddCommand(rulesToggleCmd("enable", "Enable a manual rule", true))
	cmd.AddCommand(rulesToggleCmd("disable", "Disable a manual rule", false))
	cmd.AddCommand(rulesTestCmd())

	return cmd
}

func withStorage(cmd *cobra.Command, fn func(*storage.SQLiteStorage) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := initStorage(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer closeStorage(store)

	return fn(store)
}

func rulesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all manual rules",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStorage(cmd, func(store *storage.SQLiteStorage) error {
				rules, err := store.GetAllManualRules(cmd.Context())
				if err != nil {
					return fmt.Errorf("failed to get manual rules: %w", err)
				}
				if len(rules) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), cli.InfoStyle.Render("No manual rules found. Use 'sentinel rules create' to add one."))
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatTitle("Manual Rules"))
				fmt.Fprintln(cmd.OutOrStdout(), renderRules(rules))
				return nil
			})
		},
	}
}

func renderRules(rules []model.ManualRule) string {
	rows := make([][]string, 0, len(rules))
	for _, r := range rules {
		rows = append(rows, []string{
			strconv.Itoa(r.ID),
			r.Name,
			orAny(r.SenderPattern),
			orAny(r.SubjectPattern),
			orDefault(r.ForwardTo),
			strconv.Itoa(r.Priority),
			yesNo(r.Active),
		})
	}
	return cli.RenderTable([]string{"ID", "Name", "Sender", "Subject", "Forward To", "Priority", "Active"}, rows)
}

func orAny(p string) string {
	if p == "" {
		return "*"
	}
	return p
}

func orDefault(addr string) string {
	if addr == "" {
		return "(recipient)"
	}
	return addr
}

func rulesCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a manual rule",
		Long: `Create a manual forwarding rule.

Examples:
  sentinel rules create --name "School" --sender "*@school.edu"
  sentinel rules create --name "Invoices" --subject "invoice*" --forward-to books@example.com`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rule, err := ruleFromFlags(cmd)
			if err != nil {
				return err
			}
			return withStorage(cmd, func(store *storage.SQLiteStorage) error {
				if err := store.CreateManualRule(cmd.Context(), &rule); err != nil {
					return fmt.Errorf("failed to create rule: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Created rule %d (%s)", rule.ID, rule.Name)))
				return nil
			})
		},
	}

	cmd.Flags().String("name", "", "Rule name (required)")
	cmd.Flags().String("sender", "", "Sender pattern")
	cmd.Flags().String("subject", "", "Subject pattern")
	cmd.Flags().String("forward-to", "", "Recipient override (default: the configured recipient)")
	cmd.Flags().String("purpose", "", "Free-form note")
	cmd.Flags().Int("priority", model.DefaultManualRulePriority, "Lower values are checked first")
	cmd.Flags().Bool("inactive", false, "Create the rule disabled")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func ruleFromFlags(cmd *cobra.Command) (model.ManualRule, error) {
	var rule model.ManualRule
	rule.Name, _ = cmd.Flags().GetString("name")
	rule.SenderPattern, _ = cmd.Flags().GetString("sender")
	rule.SubjectPattern, _ = cmd.Flags().GetString("subject")
	rule.ForwardTo, _ = cmd.Flags().GetString("forward-to")
	rule.Purpose, _ = cmd.Flags().GetString("purpose")
	rule.Priority, _ = cmd.Flags().GetInt("priority")
	inactive, _ := cmd.Flags().GetBool("inactive")
	rule.Active = !inactive

	if err := pattern.ValidateRule(&rule); err != nil {
		return rule, common.NewUserError(fmt.Sprintf("Invalid rule: %v", err), err)
	}
	return rule, nil
}

func parseRuleID(arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid rule ID %q", arg)
	}
	return id, nil
}

func rulesDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a manual rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseRuleID(args[0])
			if err != nil {
				return err
			}
			return withStorage(cmd, func(store *storage.SQLiteStorage) error {
				if err := store.DeleteManualRule(cmd.Context(), id); err != nil {
					if errors.Is(err, common.ErrNotFound) {
						return fmt.Errorf("rule %d not found", id)
					}
					return fmt.Errorf("failed to delete rule: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Deleted rule %d", id)))
				return nil
			})
		},
	}
}

func rulesToggleCmd(use, short string, active bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseRuleID(args[0])
			if err != nil {
				return err
			}
			return withStorage(cmd, func(store *storage.SQLiteStorage) error {
				rule, err := store.GetManualRule(cmd.Context(), id)
				if err != nil {
					if errors.Is(err, common.ErrNotFound) {
						return fmt.Errorf("rule %d not found", id)
					}
					return err
				}
				rule.Active = active
				if err := store.UpdateManualRule(cmd.Context(), rule); err != nil {
					return fmt.Errorf("failed to update rule: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Rule %d %sd", id, use)))
				return nil
			})
		},
	}
}

func rulesTestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "test",
		Short: "Show which active rule a message would match",
		RunE: func(cmd *cobra.Command, _ []string) error {
			from, _ := cmd.Flags().GetString("from")
			subject, _ := cmd.Flags().GetString("subject")
			if from == "" && subject == "" {
				return errors.New("provide --from, --subject or both")
			}
			msg := model.NormalizeMessage(model.Message{From: from, Subject: subject})

			return withStorage(cmd, func(store *storage.SQLiteStorage) error {
				rules, err := store.GetActiveManualRules(cmd.Context())
				if err != nil {
					return fmt.Errorf("failed to get manual rules: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), describeMatch(pattern.NewMatcher(rules).FindMatch(msg)))
				return nil
			})
		},
	}

	cmd.Flags().String("from", "", "Sender to test")
	cmd.Flags().String("subject", "", "Subject to test")

	return cmd
}

func describeMatch(rule *model.ManualRule) string {
	if rule == nil {
		return cli.FormatInfo("No active rule matches")
	}
	return cli.FormatSuccess(fmt.Sprintf("Matches rule %d (%s), forwarding to %s",
		rule.ID, rule.Name, orDefault(rule.ForwardTo)))
}
