package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/sentinel/internal/model"
	"github.com/Veraticus/sentinel/internal/service"
	"github.com/Veraticus/sentinel/internal/testutil"
)

func TestRunAgainstSQLite(t *testing.T) {
	store := testutil.SetupTestDB(t, testutil.TestDBOptions{
		Preferences: &model.Preferences{BlockedSenders: []string{"uber.com"}},
		Rules: []model.ManualRule{{
			Name:          "Friends",
			SenderPattern: "*@friends.example",
			ForwardTo:     "me@example.com",
			Priority:      model.DefaultManualRulePriority,
			Active:        true,
		}},
	})
	retriever := &fakeRetriever{name: "inbox", msgs: []model.Message{orderReceipt, uberReceipt, promoMail, friendMail}}

	h := newHarnessWithStore(t, store, retriever)
	stats, err := h.pipeline.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Forwarded)
	assert.Equal(t, 1, stats.Blocked)
	assert.Equal(t, 1, stats.ManualForwarded)
	assert.Equal(t, 2, stats.Ignored)

	recipients := map[string]string{}
	for _, req := range h.transport.sent {
		recipients[req.Subject] = req.Recipient
	}
	assert.Equal(t, "me@example.com", recipients["[Manual Forward] "+friendMail.Subject])

	forwarded, err := store.QueryActivity(context.Background(), service.ActivityFilter{
		Actions: []model.ActivityAction{model.ActivityForwarded},
	})
	require.NoError(t, err)
	require.Len(t, forwarded, 1)
	assert.Equal(t, orderReceipt.ID, forwarded[0].MessageID)

	// A fresh pipeline reloads the ledger from the database.
	again := newHarnessWithStore(t, store, retriever)
	stats, err = again.pipeline.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Skipped)
	assert.Empty(t, again.transport.sent)
}
