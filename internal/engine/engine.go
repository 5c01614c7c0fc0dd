// Package engine implements the decision pipeline that turns fetched mail
// into forwards, suppressions and preference changes.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Veraticus/sentinel/internal/classification"
	"github.com/Veraticus/sentinel/internal/command"
	"github.com/Veraticus/sentinel/internal/common"
	"github.com/Veraticus/sentinel/internal/ledger"
	"github.com/Veraticus/sentinel/internal/mail"
	"github.com/Veraticus/sentinel/internal/model"
	"github.com/Veraticus/sentinel/internal/pattern"
	"github.com/Veraticus/sentinel/internal/preferences"
	"github.com/Veraticus/sentinel/internal/service"
)

// Config holds configuration options for the pipeline.
type Config struct {
	Now            func() time.Time
	Progress       ProgressFunc
	Recipient      string
	FetchTimeout   time.Duration
	Lookback       time.Duration
	LedgerCapacity int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Now:            time.Now,
		FetchTimeout:   25 * time.Second,
		Lookback:       7 * 24 * time.Hour,
		LedgerCapacity: ledger.DefaultCapacity,
	}
}

// Pipeline orchestrates classification, preference evaluation, the
// processed ledger and manual rules for each message and reply.
type Pipeline struct {
	store      service.Storage
	transport  service.Transport
	classifier Classifier
	prefs      *preferences.Store
	evaluator  *preferences.Evaluator
	parser     *command.Parser
	messages   *ledger.Ledger
	replies    *ledger.Ledger
	retrievers []service.Retriever
	cfg        Config
}

// New creates a pipeline and loads both ledgers from store.
func New(ctx context.Context, store service.Storage, retrievers []service.Retriever,
	transport service.Transport, classifier Classifier, cfg Config) (*Pipeline, error) {
	if store == nil || transport == nil || classifier == nil {
		return nil, fmt.Errorf("%w: store, transport and classifier are required", common.ErrInvalidConfig)
	}

	defaults := DefaultConfig()
	if cfg.Now == nil {
		cfg.Now = defaults.Now
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = defaults.FetchTimeout
	}
	if cfg.Lookback <= 0 {
		cfg.Lookback = defaults.Lookback
	}
	if cfg.LedgerCapacity <= 0 {
		cfg.LedgerCapacity = defaults.LedgerCapacity
	}
	cfg.Recipient = strings.ToLower(strings.TrimSpace(cfg.Recipient))

	messages, err := ledger.New(ctx, store, ledger.NamespaceMessages, cfg.LedgerCapacity)
	if err != nil {
		return nil, err
	}
	replies, err := ledger.New(ctx, store, ledger.NamespaceReplies, cfg.LedgerCapacity)
	if err != nil {
		return nil, err
	}

	return &Pipeline{
		store:      store,
		transport:  transport,
		classifier: classifier,
		prefs:      preferences.NewStore(store),
		evaluator:  preferences.NewEvaluator(classifier),
		parser:     command.NewParser(),
		messages:   messages,
		replies:    replies,
		retrievers: retrievers,
		cfg:        cfg,
	}, nil
}

// Preferences exposes the preference store used by the pipeline.
func (p *Pipeline) Preferences() *preferences.Store {
	return p.prefs
}

// snapshot is the read-only state a run decides against.
type snapshot struct {
	matcher pattern.RuleMatcher
	prefs   model.Preferences
}

func (p *Pipeline) loadSnapshot(ctx context.Context) snapshot {
	var rules []model.ManualRule
	tolerate("load manual rules", nil, func() error {
		var err error
		rules, err = p.store.GetActiveManualRules(ctx)
		return err
	})
	return snapshot{
		prefs:   p.prefs.Load(ctx),
		matcher: pattern.NewMatcher(rules),
	}
}

// Run fetches every channel, then decides each message in turn. Replies
// from the recipient are applied as commands. Preferences and rules are
// read once at the start, so replies in this batch affect the next one.
func (p *Pipeline) Run(ctx context.Context) (RunStats, error) {
	start := p.cfg.Now()
	var stats RunStats

	snap := p.loadSnapshot(ctx)
	msgs := p.fetchAll(ctx, start.Add(-p.cfg.Lookback))
	stats.Fetched = len(msgs)

	slog.Info("Starting batch",
		"messages", len(msgs),
		"channels", len(p.retrievers),
		"paused", snap.prefs.Paused,
		"rules", len(snap.matcher.Rules()))

	var progress Progress
	if p.cfg.Progress != nil && len(msgs) > 0 {
		progress = p.cfg.Progress(len(msgs))
	}

	var runErr error
	for _, msg := range msgs {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}

		if p.isReply(msg) {
			p.processReply(ctx, msg, &stats)
		} else {
			p.process(ctx, msg, snap, &stats)
		}

		if progress != nil {
			_ = progress.Add(1)
		}
	}
	if progress != nil {
		_ = progress.Finish()
	}

	stats.Duration = p.cfg.Now().Sub(start)
	slog.Info("Batch complete",
		"fetched", stats.Fetched,
		"forwarded", stats.Forwarded,
		"blocked", stats.Blocked,
		"ignored", stats.Ignored,
		"skipped", stats.Skipped,
		"manual_forwarded", stats.ManualForwarded,
		"failed", stats.Failed,
		"replies", stats.Replies,
		"duration", stats.Duration)

	return stats, runErr
}

// fetchAll queries every retriever concurrently. A channel that fails or
// exceeds the fetch timeout contributes no messages.
func (p *Pipeline) fetchAll(ctx context.Context, since time.Time) []model.Message {
	results := make([][]model.Message, len(p.retrievers))

	g, gctx := errgroup.WithContext(ctx)
	for i, r := range p.retrievers {
		i, r := i, r
		g.Go(func() error {
			fctx, cancel := context.WithTimeout(gctx, p.cfg.FetchTimeout)
			defer cancel()

			msgs, err := r.Fetch(fctx, since)
			if err != nil {
				if errors.Is(err, context.DeadlineExceeded) || errors.Is(fctx.Err(), context.DeadlineExceeded) {
					err = fmt.Errorf("%w after %s: %w", common.ErrChannelTimeout, p.cfg.FetchTimeout, err)
				} else {
					err = fmt.Errorf("%w: %w", common.ErrChannelFailed, err)
				}
				common.LogError(err, "Channel fetch failed", common.Fields{"channel": r.Name()})
				return nil
			}
			results[i] = msgs
			return nil
		})
	}
	_ = g.Wait()

	var all []model.Message
	for _, msgs := range results {
		all = append(all, msgs...)
	}
	slices.SortStableFunc(all, func(a, b model.Message) int {
		return a.ReceivedAt.Compare(b.ReceivedAt)
	})
	return all
}

// isReply reports whether msg was sent by the human recipient.
func (p *Pipeline) isReply(msg model.Message) bool {
	return p.cfg.Recipient != "" && strings.Contains(strings.ToLower(msg.From), p.cfg.Recipient)
}

func (p *Pipeline) process(ctx context.Context, msg model.Message, snap snapshot, stats *RunStats) {
	if !p.messages.Claim(msg.ID) {
		slog.Debug("Skipping processed message", "id", msg.ID)
		stats.Skipped++
		return
	}
	defer tolerate("mark processed", common.Fields{"id": msg.ID}, func() error {
		return p.messages.MarkProcessed(ctx, msg.ID)
	})

	d := p.decide(msg, snap.prefs)
	switch d.action {
	case model.ActivityForwarded:
		if !p.forward(ctx, msg, d) {
			d.action, d.reason = model.ActivityFailed, "Send failed"
		}
	case model.ActivityBlocked:
		slog.Info("Message blocked", "id", msg.ID, "sender", msg.From, "reason", d.reason)
	}
	p.record(ctx, msg, d.action, d.result.Category, d.reason, d.amount)

	switch d.action {
	case model.ActivityForwarded:
		stats.Forwarded++
	case model.ActivityFailed:
		stats.Failed++
	case model.ActivityBlocked:
		stats.Blocked++
	default:
		stats.Ignored++
	}

	if d.action == model.ActivityProcessed || (d.action == model.ActivityBlocked && !snap.prefs.Paused) {
		p.manualForward(ctx, msg, snap, stats)
	}
}

// decision is the outcome of the receipt path for one message.
type decision struct {
	amount *float64
	action model.ActivityAction
	reason string
	result model.ClassificationResult
}

// decide applies classification and preferences without side effects.
func (p *Pipeline) decide(msg model.Message, prefs model.Preferences) decision {
	d := decision{result: p.classifier.Classify(msg)}
	if v, ok := classification.ExtractAmount(msg.Subject + " " + msg.Body); ok {
		d.amount = &v
	}

	if !d.result.IsReceipt {
		d.action, d.reason = model.ActivityProcessed, "Not a receipt"
		return d
	}

	if prefs.Paused && !preferences.IsWhitelisted(msg, prefs) {
		d.action, d.reason = model.ActivityBlocked, "Paused"
		return d
	}

	if blocked, why := p.evaluator.Decide(msg, prefs); blocked {
		d.action, d.reason = model.ActivityBlocked, "Matches block rule: "+why
		return d
	}

	d.action = model.ActivityForwarded
	d.reason = "Category: " + string(d.result.Category)
	if d.amount != nil {
		d.reason += fmt.Sprintf(", Amount: %.2f", *d.amount)
	}
	return d
}

func (p *Pipeline) forward(ctx context.Context, msg model.Message, d decision) bool {
	body, err := mail.RenderForward(mail.ForwardView{
		ReceivedAt:  msg.ReceivedAt,
		Amount:      d.amount,
		From:        msg.From,
		Subject:     msg.Subject,
		Category:    d.result.Category,
		Body:        msg.Body,
		Suggestions: command.SuggestedCommands(msg.From, d.result.Category),
	})
	if err != nil {
		common.LogError(err, "Failed to render forward", common.Fields{"id": msg.ID})
		return false
	}

	ok := p.transport.Send(ctx, model.ForwardRequest{
		Recipient: p.cfg.Recipient,
		Subject:   mail.ForwardSubjectPrefix + msg.Subject,
		HTMLBody:  body,
	})
	if ok {
		slog.Info("Message forwarded",
			"id", msg.ID,
			"category", d.result.Category,
			"confidence", d.result.Confidence)
	}
	return ok
}

// manualForward sends msg through the first matching manual rule.
func (p *Pipeline) manualForward(ctx context.Context, msg model.Message, snap snapshot, stats *RunStats) {
	rule := snap.matcher.FindMatch(msg)
	if rule == nil {
		return
	}

	recipient := rule.ForwardTo
	if recipient == "" {
		recipient = p.cfg.Recipient
	}
	reason := "Manual rule: " + rule.Name

	note := "Forwarded by manual rule " + rule.Name
	if rule.Purpose != "" {
		note += " (" + rule.Purpose + ")"
	}
	body, err := mail.RenderForward(mail.ForwardView{
		ReceivedAt: msg.ReceivedAt,
		From:       msg.From,
		Subject:    msg.Subject,
		Body:       msg.Body,
		Note:       note,
	})

	ok := err == nil && p.transport.Send(ctx, model.ForwardRequest{
		Recipient: recipient,
		Subject:   mail.ManualForwardPrefix + msg.Subject,
		HTMLBody:  body,
	})

	if ok {
		stats.ManualForwarded++
		slog.Info("Message forwarded by manual rule", "id", msg.ID, "rule", rule.Name, "recipient", recipient)
		p.record(ctx, msg, model.ActivityManualForwarded, "", reason, nil)
		return
	}
	if err != nil {
		common.LogError(err, "Failed to render manual forward", common.Fields{"id": msg.ID})
	}
	stats.Failed++
	p.record(ctx, msg, model.ActivityManualForwardFailed, "", reason, nil)
}

// record appends an activity entry, logging instead of failing.
func (p *Pipeline) record(ctx context.Context, msg model.Message, action model.ActivityAction,
	category model.Category, reason string, amount *float64) {
	rec := &model.ActivityRecord{
		ID:        uuid.NewString(),
		Timestamp: p.cfg.Now(),
		MessageID: msg.ID,
		Subject:   msg.Subject,
		Sender:    msg.From,
		Action:    action,
		Category:  category,
		Reason:    reason,
		Amount:    amount,
		Source:    msg.Source,
	}
	tolerate("append activity", common.Fields{"id": msg.ID, "action": action}, func() error {
		return p.store.AppendActivity(ctx, rec)
	})
}
