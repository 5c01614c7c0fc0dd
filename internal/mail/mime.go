package mail

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/emersion/go-message/mail"

	"github.com/Veraticus/sentinel/internal/model"
)

// ParseMessage reads a saved RFC 5322 message, such as an .eml export, into
// a normalized Message tagged with source.
func ParseMessage(raw []byte, source string) (model.Message, error) {
	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		return model.Message{}, fmt.Errorf("parsing message: %w", err)
	}
	h := mr.Header
	_ = mr.Close()

	msg := model.Message{Source: source}
	msg.ID, _ = h.MessageID()
	msg.Subject, _ = h.Subject()
	msg.ReceivedAt, _ = h.Date()
	if from, err := h.AddressList("From"); err == nil && len(from) > 0 {
		msg.From = from[0].Address
		if from[0].Name != "" {
			msg.From = fmt.Sprintf("%s <%s>", from[0].Name, from[0].Address)
		}
	}
	msg.Body = ExtractText(raw)

	return model.NormalizeMessage(msg), nil
}

// ExtractText returns the readable body of a raw RFC 5322 message. The
// text/plain part is preferred; an HTML-only message is converted to text.
func ExtractText(raw []byte) string {
	textBody, htmlBody := parseMIMEBody(raw)
	if strings.TrimSpace(textBody) != "" {
		return textBody
	}
	if htmlBody != "" {
		return HTMLToText(htmlBody)
	}
	return ""
}

func parseMIMEBody(raw []byte) (textBody string, htmlBody string) {
	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		return string(raw), ""
	}
	defer func() { _ = mr.Close() }()

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			break
		}

		h, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		contentType, _, _ := h.ContentType()
		body, readErr := io.ReadAll(part.Body)
		if readErr != nil {
			continue
		}

		switch {
		case strings.HasPrefix(contentType, "text/plain") && textBody == "":
			textBody = string(body)
		case strings.HasPrefix(contentType, "text/html") && htmlBody == "":
			htmlBody = string(body)
		}
	}

	return textBody, htmlBody
}
