package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/sentinel/internal/mail"
	"github.com/Veraticus/sentinel/internal/model"
	"github.com/Veraticus/sentinel/internal/service"
	"github.com/Veraticus/sentinel/internal/storage"
)

func replyMsg(id, body string) model.Message {
	return msgAt(10, id, "Partner <"+testRecipient+">", "Re: Receipt: Your Tuesday trip with Uber", body)
}

func TestHandleReply(t *testing.T) {
	tests := []struct {
		check func(t *testing.T, out ReplyOutcome, prefs model.Preferences)
		name  string
		body  string
	}{
		{
			name: "block sender",
			body: "STOP uber",
			check: func(t *testing.T, out ReplyOutcome, prefs model.Preferences) {
				assert.Equal(t, []string{"uber"}, prefs.BlockedSenders)
				assert.Equal(t, 1, out.Changed)
				assert.Equal(t, []string{"blocked sender: uber"}, out.Applied)
			},
		},
		{
			name: "block category",
			body: "stop restaurants please",
			check: func(t *testing.T, _ ReplyOutcome, prefs model.Preferences) {
				assert.Contains(t, prefs.BlockedCategories, "restaurants")
			},
		},
		{
			name: "whitelist",
			body: "MORE starbucks",
			check: func(t *testing.T, _ ReplyOutcome, prefs model.Preferences) {
				assert.Equal(t, []string{"starbucks"}, prefs.Whitelist)
			},
		},
		{
			name: "stop all pauses without blocking a sender named all",
			body: "STOP ALL",
			check: func(t *testing.T, out ReplyOutcome, prefs model.Preferences) {
				assert.True(t, prefs.Paused)
				assert.Empty(t, prefs.BlockedSenders)
				assert.Equal(t, []string{"paused all forwarding"}, out.Applied)
			},
		},
		{
			name: "bare stop asks for clarification",
			body: "stop",
			check: func(t *testing.T, out ReplyOutcome, prefs model.Preferences) {
				assert.True(t, out.NeedsClarification)
				assert.NotEmpty(t, out.Clarification)
				assert.Empty(t, prefs.BlockedSenders)
				assert.False(t, prefs.Paused)
			},
		},
		{
			name: "settings summary",
			body: "SETTINGS",
			check: func(t *testing.T, out ReplyOutcome, _ model.Preferences) {
				assert.Contains(t, out.Settings, "No active preferences.")
			},
		},
		{
			name: "help",
			body: "help",
			check: func(t *testing.T, out ReplyOutcome, _ model.Preferences) {
				assert.Contains(t, out.Help, "STOP ALL")
			},
		},
		{
			name: "quoted text ignored",
			body: "STOP lyft\n\nOn Tue, Jun 4, 2024 at 9:00 AM Sentinel wrote:\n> STOP uber\n> MORE starbucks",
			check: func(t *testing.T, _ ReplyOutcome, prefs model.Preferences) {
				assert.Equal(t, []string{"lyft"}, prefs.BlockedSenders)
				assert.Empty(t, prefs.Whitelist)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			ctx := context.Background()

			out := h.pipeline.HandleReply(ctx, replyMsg("r-1", tt.body))
			prefs, err := h.store.GetPreferences(ctx)
			require.NoError(t, err)
			tt.check(t, out, prefs)

			assert.True(t, out.Confirmed)
			require.Len(t, h.transport.sent, 1)
			assert.Equal(t, mail.ConfirmationSubject, h.transport.sent[0].Subject)
			assert.Equal(t, testRecipient, h.transport.sent[0].Recipient)

			recs := h.activity(t)
			require.Len(t, recs, 1)
			assert.Equal(t, model.ActivityReply, recs[0].Action)
		})
	}
}

func TestHandleReplyIsIdempotent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	first := h.pipeline.HandleReply(ctx, replyMsg("r-1", "STOP uber"))
	second := h.pipeline.HandleReply(ctx, replyMsg("r-2", "STOP uber"))
	assert.Equal(t, 1, first.Changed)
	assert.Equal(t, 0, second.Changed)

	prefs, err := h.store.GetPreferences(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"uber"}, prefs.BlockedSenders)
}

func TestHandleReplyWithoutCommand(t *testing.T) {
	h := newHarness(t)

	out := h.pipeline.HandleReply(context.Background(), replyMsg("r-1", "thanks!"))
	assert.True(t, out.Empty())
	assert.False(t, out.Confirmed)
	assert.Empty(t, h.transport.sent)

	recs := h.activity(t)
	require.Len(t, recs, 1)
	assert.Equal(t, "No command found", recs[0].Reason)
}

func TestRunRoutesRepliesAndKeepsSnapshot(t *testing.T) {
	store := storage.NewMemoryStorage()
	reply := replyMsg("reply-1", "STOP uber")
	reply.ReceivedAt = baseTime.Add(-time.Minute)

	h := newHarnessWithStore(t, store, &fakeRetriever{name: "inbox", msgs: []model.Message{reply, uberReceipt}})
	stats, err := h.pipeline.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Replies)
	// The reply was applied, but this batch decided against the preferences
	// loaded at its start.
	assert.Equal(t, 1, stats.Forwarded)

	prefs, err := store.GetPreferences(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"uber"}, prefs.BlockedSenders)

	next := uberReceipt
	next.ID = "uber-2"
	h2 := newHarnessWithStore(t, store, &fakeRetriever{name: "inbox", msgs: []model.Message{reply, next}})
	stats, err = h2.pipeline.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Blocked)
	assert.Equal(t, 1, stats.Skipped)
	assert.Equal(t, 0, stats.Replies)
}

func TestReplyText(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "plain", body: "STOP uber\n", want: "STOP uber"},
		{name: "quoted lines", body: "MORE lyft\n> STOP lyft", want: "MORE lyft"},
		{name: "gmail header", body: "stop\nOn Mon, Jan 1 Sentinel <bot@x.com> wrote:\nSTOP uber", want: "stop"},
		{name: "outlook header", body: "settings\n-----Original Message-----\nSTOP all", want: "settings"},
		{name: "empty", body: "", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ReplyText(tt.body))
		})
	}
}

func TestSettingsSummary(t *testing.T) {
	got := SettingsSummary(model.Preferences{
		BlockedSenders:    []string{"uber", "lyft"},
		BlockedCategories: []string{"retail"},
		Paused:            true,
	})
	assert.Contains(t, got, "Forwarding is paused")
	assert.Contains(t, got, "Blocked senders: uber, lyft")
	assert.Contains(t, got, "Blocked categories: retail")
	assert.NotContains(t, got, "No active preferences")
}

func TestRuleSuggestionAdapter(t *testing.T) {
	store := storage.NewMemoryStorage()
	adapter := NewRuleSuggestionAdapter(store, newTestClassifier())
	ctx := context.Background()

	var sink service.SuggestionSink = adapter
	rule, err := sink.AcceptRule(ctx, model.ManualRule{Name: "Bills", SenderPattern: "*@utility.example"})
	require.NoError(t, err)
	assert.NotZero(t, rule.ID)
	assert.True(t, rule.Active)
	assert.Equal(t, model.DefaultManualRulePriority, rule.Priority)

	active, err := store.GetActiveManualRules(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 1)

	_, err = sink.AcceptRule(ctx, model.ManualRule{Name: "Empty"})
	assert.Error(t, err)

	signal := sink.ClassificationSignal(orderReceipt)
	assert.True(t, signal.IsReceipt)
	assert.GreaterOrEqual(t, signal.Confidence, 40)
}
