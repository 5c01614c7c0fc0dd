package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/viper"

	"github.com/Veraticus/sentinel/internal/classification"
	"github.com/Veraticus/sentinel/internal/common"
	"github.com/Veraticus/sentinel/internal/config"
	"github.com/Veraticus/sentinel/internal/credential"
	"github.com/Veraticus/sentinel/internal/engine"
	"github.com/Veraticus/sentinel/internal/mail"
	"github.com/Veraticus/sentinel/internal/model"
	"github.com/Veraticus/sentinel/internal/service"
	"github.com/Veraticus/sentinel/internal/storage"
)

var smtpRetry = service.RetryOptions{
	MaxAttempts:  3,
	InitialDelay: 2 * time.Second,
	MaxDelay:     30 * time.Second,
	Multiplier:   2,
}

// loadConfig decodes the global viper state.
func loadConfig() (*config.Config, error) {
	return config.Load(viper.GetViper())
}

// initStorage opens the configured database and applies migrations.
func initStorage(ctx context.Context, cfg *config.Config) (*storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := store.Migrate(ctx); err != nil {
		closeStorage(store)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

func closeStorage(store service.Storage) {
	if err := store.Close(); err != nil {
		slog.Error("failed to close storage", "error", err)
	}
}

// newClassifier builds the classifier from the configured tables file, or
// the built-in tables when none is set.
func newClassifier(cfg *config.Config) (*classification.Classifier, error) {
	if cfg.Classifier.TablesFile == "" {
		return classification.NewDefaultClassifier(cfg.ExcludedSenders()...), nil
	}

	tables, err := classification.LoadTables(cfg.Classifier.TablesFile)
	if err != nil {
		return nil, err
	}
	return classification.NewClassifier(tables, cfg.ExcludedSenders())
}

// resolveSecrets fills missing passwords from the system keyring.
func resolveSecrets(cfg *config.Config) error {
	lookup := func(key string) (string, error) {
		secret, err := credential.Get(key)
		if errors.Is(err, credential.ErrNotFound) {
			return "", common.NewUserError(
				fmt.Sprintf("No password stored for %s. Run 'sentinel credentials set' first.", key), err)
		}
		return secret, err
	}
	return cfg.ResolveSecrets(lookup, credential.IMAPKey, credential.SMTPKey)
}

// newTransport returns the SMTP transport, or a transport that only logs
// when dryRun is set.
func newTransport(cfg *config.Config, dryRun bool) (service.Transport, error) {
	if dryRun {
		return dryRunTransport{}, nil
	}
	return mail.NewSMTPTransport(cfg.SMTP, smtpRetry)
}

type dryRunTransport struct{}

func (dryRunTransport) Send(_ context.Context, req model.ForwardRequest) bool {
	slog.Info("Dry run: not sending", "recipient", req.Recipient, "subject", req.Subject)
	return true
}

// newPipeline wires the engine for cfg.
func newPipeline(ctx context.Context, cfg *config.Config, store service.Storage,
	retrievers []service.Retriever, transport service.Transport, progress engine.ProgressFunc) (*engine.Pipeline, error) {
	classifier, err := newClassifier(cfg)
	if err != nil {
		return nil, err
	}

	return engine.New(ctx, store, retrievers, transport, classifier, engine.Config{
		Now:            time.Now,
		Progress:       progress,
		Recipient:      cfg.Mail.Recipient,
		FetchTimeout:   cfg.Mail.FetchTimeout,
		Lookback:       cfg.Mail.Lookback,
		LedgerCapacity: cfg.Ledger.Capacity,
	})
}
