package mail

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"net/textproto"
	"time"

	"github.com/emersion/go-message/mail"

	"github.com/Veraticus/sentinel/internal/common"
	"github.com/Veraticus/sentinel/internal/model"
	"github.com/Veraticus/sentinel/internal/service"
)

const dialTimeout = 30 * time.Second

var _ service.Transport = (*SMTPTransport)(nil)

type deliverFunc func(ctx context.Context, from, to string, msg []byte) error

// SMTPTransport sends forward requests through an SMTP relay.
type SMTPTransport struct {
	deliver deliverFunc
	cfg     SMTPConfig
	retry   service.RetryOptions
}

// NewSMTPTransport creates a transport for cfg.
func NewSMTPTransport(cfg SMTPConfig, retry service.RetryOptions) (*SMTPTransport, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	t := &SMTPTransport{cfg: cfg, retry: retry}
	t.deliver = t.deliverSMTP
	return t, nil
}

// Send composes and delivers req. Failures are logged and reported as false.
func (t *SMTPTransport) Send(ctx context.Context, req model.ForwardRequest) bool {
	if req.Recipient == "" {
		common.LogError(common.ErrMissingConfig, "Forward request has no recipient",
			common.Fields{"subject": req.Subject})
		return false
	}

	msg, err := ComposeHTML(t.cfg.From, req)
	if err != nil {
		common.LogError(err, "Failed to compose message", common.Fields{"subject": req.Subject})
		return false
	}

	err = common.WithRetry(ctx, func() error {
		if sendErr := t.deliver(ctx, t.cfg.From, req.Recipient, msg); sendErr != nil {
			return classifySendError(sendErr)
		}
		return nil
	}, t.retry)
	if err != nil {
		common.LogError(fmt.Errorf("%w: %w", common.ErrTransportFailed, err), "Failed to send message",
			common.Fields{"recipient": req.Recipient, "subject": req.Subject})
		return false
	}

	common.LogDebug("Message sent", common.Fields{"recipient": req.Recipient, "subject": req.Subject})
	return true
}

// ComposeHTML renders req as a single-part text/html RFC 5322 message.
func ComposeHTML(from string, req model.ForwardRequest) ([]byte, error) {
	var h mail.Header
	h.SetDate(time.Now())
	h.SetAddressList("From", []*mail.Address{{Address: from}})
	h.SetAddressList("To", []*mail.Address{{Address: req.Recipient}})
	h.SetSubject(req.Subject)
	h.SetContentType("text/html", map[string]string{"charset": "utf-8"})
	if err := h.GenerateMessageID(); err != nil {
		return nil, fmt.Errorf("generating message id: %w", err)
	}

	var buf bytes.Buffer
	w, err := mail.CreateSingleInlineWriter(&buf, h)
	if err != nil {
		return nil, fmt.Errorf("creating message writer: %w", err)
	}
	if _, err := w.Write([]byte(req.HTMLBody)); err != nil {
		return nil, fmt.Errorf("writing message body: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("closing message writer: %w", err)
	}
	return buf.Bytes(), nil
}

// classifySendError marks permanent SMTP rejections (5xx) as not retryable.
func classifySendError(err error) error {
	var protoErr *textproto.Error
	if errors.As(err, &protoErr) {
		return &common.RetryableError{Err: err, Retryable: protoErr.Code < 500}
	}
	return &common.RetryableError{Err: err, Retryable: true}
}

func (t *SMTPTransport) deliverSMTP(ctx context.Context, from, to string, msg []byte) error {
	dialer := &net.Dialer{Timeout: dialTimeout}

	var (
		conn net.Conn
		err  error
	)
	if t.cfg.TLS {
		conn, err = (&tls.Dialer{NetDialer: dialer, Config: &tls.Config{ServerName: t.cfg.Host}}).
			DialContext(ctx, "tcp", t.cfg.Addr())
	} else {
		conn, err = dialer.DialContext(ctx, "tcp", t.cfg.Addr())
	}
	if err != nil {
		return fmt.Errorf("dial to %s: %w", t.cfg.Addr(), err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, t.cfg.Host)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("creating SMTP client: %w", err)
	}
	defer func() { _ = client.Close() }()

	if !t.cfg.TLS {
		if err := client.StartTLS(&tls.Config{ServerName: t.cfg.Host}); err != nil {
			return fmt.Errorf("SMTP STARTTLS: %w", err)
		}
	}

	if t.cfg.Username != "" {
		auth := smtp.PlainAuth("", t.cfg.Username, t.cfg.Password, t.cfg.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP auth: %w", err)
		}
	}

	if err := client.Mail(from); err != nil {
		return fmt.Errorf("SMTP MAIL FROM: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("SMTP RCPT TO: %w", err)
	}

	writer, err := client.Data()
	if err != nil {
		return fmt.Errorf("SMTP DATA: %w", err)
	}
	if _, err := writer.Write(msg); err != nil {
		return fmt.Errorf("writing email body: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("closing email body: %w", err)
	}

	return client.Quit()
}
