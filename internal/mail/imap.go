package mail

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"

	"github.com/Veraticus/sentinel/internal/model"
	"github.com/Veraticus/sentinel/internal/service"
)

var _ service.Retriever = (*IMAPRetriever)(nil)

// IMAPRetriever fetches messages from a single IMAP mailbox.
type IMAPRetriever struct {
	cfg   ChannelConfig
	limit int
}

// NewIMAPRetriever creates a retriever for one channel. limit caps the
// number of messages fetched per run (most recent first); zero means no cap.
func NewIMAPRetriever(cfg ChannelConfig, limit int) (*IMAPRetriever, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &IMAPRetriever{cfg: cfg, limit: limit}, nil
}

// Name returns the channel name.
func (r *IMAPRetriever) Name() string {
	return r.cfg.Name
}

func (r *IMAPRetriever) connect() (*imapclient.Client, error) {
	addr := r.cfg.Addr()

	var (
		client *imapclient.Client
		err    error
	)
	if r.cfg.TLS {
		client, err = imapclient.DialTLS(addr, nil)
	} else {
		client, err = imapclient.DialStartTLS(addr, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("connecting to IMAP %s: %w", addr, err)
	}

	if err := client.Login(r.cfg.Username, r.cfg.Password).Wait(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("IMAP login for %s: %w", r.cfg.Username, err)
	}
	return client, nil
}

// Fetch returns normalized messages received on or after since. The IMAP
// connection is closed when ctx is done so a slow server cannot hold the
// batch past its deadline.
func (r *IMAPRetriever) Fetch(ctx context.Context, since time.Time) ([]model.Message, error) {
	client, err := r.connect()
	if err != nil {
		return nil, err
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = client.Close()
		case <-done:
		}
	}()
	defer func() { _ = client.Logout().Wait() }()

	if _, err := client.Select(r.cfg.Mailbox, &imap.SelectOptions{ReadOnly: true}).Wait(); err != nil {
		return nil, fmt.Errorf("selecting %s: %w", r.cfg.Mailbox, err)
	}

	searchData, err := client.UIDSearch(&imap.SearchCriteria{Since: since}, nil).Wait()
	if err != nil {
		return nil, fmt.Errorf("searching messages: %w", err)
	}

	uids := searchData.AllUIDs()
	if len(uids) == 0 {
		return []model.Message{}, nil
	}
	if r.limit > 0 && len(uids) > r.limit {
		uids = uids[len(uids)-r.limit:]
	}

	bodySection := &imap.FetchItemBodySection{Peek: true}
	fetchCmd := client.Fetch(imap.UIDSetNum(uids...), &imap.FetchOptions{
		Envelope:     true,
		UID:          true,
		InternalDate: true,
		BodySection:  []*imap.FetchItemBodySection{bodySection},
	})
	defer fetchCmd.Close()

	messages := make([]model.Message, 0, len(uids))
	for {
		msg := fetchCmd.Next()
		if msg == nil {
			break
		}
		buf, err := msg.Collect()
		if err != nil {
			slog.Warn("Skipping unreadable message", "channel", r.cfg.Name, "error", err)
			continue
		}
		messages = append(messages, r.toMessage(buf, buf.FindBodySection(bodySection)))
	}

	if err := fetchCmd.Close(); err != nil {
		return messages, fmt.Errorf("fetching messages: %w", err)
	}

	slog.Debug("Fetched messages", "channel", r.cfg.Name, "count", len(messages))
	return messages, nil
}

func (r *IMAPRetriever) toMessage(buf *imapclient.FetchMessageBuffer, raw []byte) model.Message {
	msg := model.Message{
		Source:     r.cfg.Name,
		ReceivedAt: buf.InternalDate,
	}

	if env := buf.Envelope; env != nil {
		msg.ID = strings.TrimSpace(env.MessageID)
		msg.Subject = env.Subject
		if !env.Date.IsZero() {
			msg.ReceivedAt = env.Date
		}
		if len(env.From) > 0 {
			from := env.From[0]
			msg.From = from.Addr()
			if from.Name != "" {
				msg.From = fmt.Sprintf("%s <%s>", from.Name, from.Addr())
			}
		}
	}
	if msg.ID == "" {
		msg.ID = fmt.Sprintf("%s:%d", r.cfg.Name, buf.UID)
	}

	if raw != nil {
		msg.Body = ExtractText(raw)
	}

	return model.NormalizeMessage(msg)
}
