package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/sentinel/internal/cli"
	"github.com/Veraticus/sentinel/internal/engine"
	"github.com/Veraticus/sentinel/internal/mail"
	"github.com/Veraticus/sentinel/internal/service"
)

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Process one batch of mail",
		Long: `Fetch recent mail from every configured channel, forward receipts to the
recipient and apply any commands found in the recipient's replies.

Messages already handled by an earlier run are skipped.`,
		RunE: runBatch,
	}

	cmd.Flags().Bool("dry-run", false, "Classify and record without sending mail")
	cmd.Flags().Bool("no-progress", false, "Disable the progress bar")

	return cmd
}

func runBatch(cmd *cobra.Command, _ []string) error {
	interrupts := cli.NewInterruptHandler(cmd.ErrOrStderr())
	ctx, cancel := interrupts.HandleInterrupts(cmd.Context())
	defer cancel()
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	noProgress, _ := cmd.Flags().GetBool("no-progress")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.RequireMail(); err != nil {
		return err
	}
	if err := resolveSecrets(cfg); err != nil {
		return err
	}

	retrievers := make([]service.Retriever, 0, len(cfg.Channels))
	for _, ch := range cfg.Channels {
		r, err := mail.NewIMAPRetriever(ch, cfg.Mail.FetchLimit)
		if err != nil {
			return fmt.Errorf("channel %q: %w", ch.Name, err)
		}
		retrievers = append(retrievers, r)
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

	var progress engine.ProgressFunc
	if !noProgress {
		progress = func(total int) engine.Progress {
			return cli.NewBatchProgress(os.Stderr, total)
		}
	}

	pipeline, err := newPipeline(ctx, cfg, store, retrievers, transport, progress)
	if err != nil {
		return err
	}

	slog.Debug("Pipeline ready", "channels", len(retrievers), "dry_run", dryRun)
	stats, err := pipeline.Run(ctx)
	if err != nil && !interrupts.WasInterrupted() {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), cli.RenderBox("Batch complete", renderStats(stats)))
	return nil
}

func renderStats(s engine.RunStats) string {
	return cli.RenderKeyValues([][2]string{
		{"Fetched", strconv.Itoa(s.Fetched)},
		{"Forwarded", strconv.Itoa(s.Forwarded)},
		{"Manual forwards", strconv.Itoa(s.ManualForwarded)},
		{"Blocked", strconv.Itoa(s.Blocked)},
		{"Not receipts", strconv.Itoa(s.Ignored)},
		{"Already seen", strconv.Itoa(s.Skipped)},
		{"Replies", strconv.Itoa(s.Replies)},
		{"Failed", strconv.Itoa(s.Failed)},
		{"Duration", s.Duration.Round(time.Millisecond).String()},
	})
}
