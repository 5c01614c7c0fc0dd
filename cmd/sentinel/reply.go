package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Veraticus/sentinel/internal/cli"
	"github.com/Veraticus/sentinel/internal/engine"
	"github.com/Veraticus/sentinel/internal/model"
)

func replyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reply [text]",
		Short: "Apply reply commands as if the recipient had sent them",
		Long: `Parse reply text the same way an emailed reply is parsed and apply the
resulting commands to the stored preferences.

Examples:
  sentinel reply "STOP uber"
  sentinel reply "MORE amazon"
  sentinel reply --file reply.txt`,
		Args: cobra.MaximumNArgs(1),
		RunE: runReply,
	}

	cmd.Flags().String("file", "", "Read the reply body from a file ('-' for stdin)")
	cmd.Flags().Bool("dry-run", false, "Apply commands without sending a confirmation email")

	return cmd
}

func runReply(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	file, _ := cmd.Flags().GetString("file")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	body, err := replyBody(args, file, cmd.InOrStdin())
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.SMTP.Host == "" && !dryRun {
		slog.Warn("smtp.host is not configured; confirmation will not be sent")
		dryRun = true
	}
	if !dryRun {
		if err := resolveSecrets(cfg); err != nil {
			return err
		}
	}

	transport, err := newTransport(cfg, dryRun)
	if err != nil {
		return err
	}

	store, err := initStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStorage(store)

	pipeline, err := newPipeline(ctx, cfg, store, nil, transport, nil)
	if err != nil {
		return err
	}

	out := pipeline.HandleReply(ctx, model.NormalizeMessage(model.Message{
		ID:         "cli:" + uuid.NewString(),
		ReceivedAt: time.Now(),
		From:       cfg.Mail.Recipient,
		Subject:    "Re: " + firstLine(body),
		Body:       body,
		Source:     "cli",
	}))

	fmt.Fprintln(cmd.OutOrStdout(), renderOutcome(out))
	return nil
}

func replyBody(args []string, file string, stdin io.Reader) (string, error) {
	switch {
	case file == "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", file, err)
		}
		return string(data), nil
	case len(args) == 1 && strings.TrimSpace(args[0]) != "":
		return args[0], nil
	default:
		return "", errors.New("reply text is required (pass it as an argument or use --file)")
	}
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

func renderOutcome(out engine.ReplyOutcome) string {
	if out.Empty() {
		return cli.FormatWarning("No command found. Reply HELP for the list of commands.")
	}

	var b strings.Builder
	for _, line := range out.Applied {
		b.WriteString(cli.FormatSuccess(line) + "\n")
	}
	for _, section := range []string{out.Clarification, out.Settings, out.Help} {
		if section != "" {
			b.WriteString("\n" + section + "\n")
		}
	}
	if out.Confirmed {
		b.WriteString("\n" + cli.SubtleStyle.Render("Confirmation sent to the recipient."))
	}
	return strings.TrimRight(b.String(), "\n")
}
