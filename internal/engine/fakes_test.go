package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Veraticus/sentinel/internal/classification"
	"github.com/Veraticus/sentinel/internal/model"
	"github.com/Veraticus/sentinel/internal/service"
	"github.com/Veraticus/sentinel/internal/storage"
)

const testRecipient = "partner@example.com"

var baseTime = time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

type fakeRetriever struct {
	err   error
	name  string
	msgs  []model.Message
	block bool
}

func (f *fakeRetriever) Name() string { return f.name }

func (f *fakeRetriever) Fetch(ctx context.Context, _ time.Time) ([]model.Message, error) {
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.msgs, nil
}

type fakeTransport struct {
	sent []model.ForwardRequest
	fail bool
	mu   sync.Mutex
}

func (f *fakeTransport) Send(_ context.Context, req model.ForwardRequest) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return false
	}
	f.sent = append(f.sent, req)
	return true
}

func (f *fakeTransport) subjects() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.sent))
	for i, r := range f.sent {
		out[i] = r.Subject
	}
	return out
}

func msgAt(i int, id, from, subject, body string) model.Message {
	return model.Message{
		ID:         id,
		From:       from,
		Subject:    subject,
		Body:       body,
		Source:     "test",
		ReceivedAt: baseTime.Add(time.Duration(i) * time.Minute),
	}
}

var (
	orderReceipt = msgAt(0, "order-1", "Shop <orders@shop.example>", "Order Confirmation #AB12345", "Total: $49.99")
	uberReceipt  = msgAt(1, "uber-1", "Uber Receipts <no-reply@uber.com>", "Your Tuesday trip with Uber", "You were charged on your Visa.")
	promoMail    = msgAt(2, "promo-1", "deals@shop.example", "20% off your next order!", "...order confirmation...")
	friendMail   = msgAt(3, "friend-1", "friend@friends.example", "Lunch tomorrow?", "Are we still on?")
)

type harness struct {
	store     service.Storage
	transport *fakeTransport
	pipeline  *Pipeline
}

func newHarness(t *testing.T, retrievers ...*fakeRetriever) *harness {
	t.Helper()
	return newHarnessWithStore(t, storage.NewMemoryStorage(), retrievers...)
}

func newHarnessWithStore(t *testing.T, store service.Storage, retrievers ...*fakeRetriever) *harness {
	t.Helper()
	transport := &fakeTransport{}
	rs := make([]service.Retriever, len(retrievers))
	for i, r := range retrievers {
		rs[i] = r
	}
	cfg := DefaultConfig()
	cfg.Recipient = testRecipient
	cfg.Now = func() time.Time { return baseTime }
	cfg.FetchTimeout = 50 * time.Millisecond

	p, err := New(context.Background(), store, rs, transport,
		classification.NewDefaultClassifier(testRecipient), cfg)
	require.NoError(t, err)
	return &harness{store: store, transport: transport, pipeline: p}
}

func (h *harness) activity(t *testing.T) []model.ActivityRecord {
	t.Helper()
	recs, err := h.store.QueryActivity(context.Background(), service.ActivityFilter{})
	require.NoError(t, err)
	return recs
}

func newTestClassifier() *classification.Classifier {
	return classification.NewDefaultClassifier(testRecipient)
}
