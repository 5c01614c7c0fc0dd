package mail

import (
	"testing"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/sentinel/internal/model"
)

func TestIMAPRetrieverToMessage(t *testing.T) {
	r, err := NewIMAPRetriever(ChannelConfig{Name: "personal", Host: "imap.example.com", Username: "me"}, 0)
	require.NoError(t, err)
	assert.Equal(t, "personal", r.Name())

	sent := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		buf  *imapclient.FetchMessageBuffer
		want model.Message
		name string
		raw  []byte
	}{
		{
			name: "envelope with display name",
			buf: &imapclient.FetchMessageBuffer{
				UID: 7,
				Envelope: &imap.Envelope{
					Date:      sent,
					Subject:   "Your receipt",
					MessageID: "abc@shop.com",
					From:      []imap.Address{{Name: "Shop", Mailbox: "orders", Host: "shop.com"}},
				},
			},
			raw: []byte(htmlOnlyMessage),
			want: model.Message{
				ID: "abc@shop.com", Subject: "Your receipt", From: "Shop <orders@shop.com>",
				Body: "Receipt for order #9", ReceivedAt: sent, Source: "personal",
			},
		},
		{
			name: "missing fields fall back",
			buf:  &imapclient.FetchMessageBuffer{UID: 42, InternalDate: sent, Envelope: &imap.Envelope{}},
			want: model.Message{
				ID: "personal:42", Subject: model.DefaultSubject, From: model.DefaultSender,
				ReceivedAt: sent, Source: "personal",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.toMessage(tt.buf, tt.raw))
		})
	}
}
