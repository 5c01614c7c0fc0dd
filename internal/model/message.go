// Package model defines the core domain models used throughout the application.
package model

import (
	"strings"
	"time"
)

// Fallback values applied to messages with missing fields.
const (
	DefaultSubject = "No Subject"
	DefaultSender  = "Unknown Sender"
)

// Message is a normalized inbound email. It is immutable once fetched.
type Message struct {
	ReceivedAt time.Time `json:"received_at"`
	ID         string    `json:"id"`
	Subject    string    `json:"subject"`
	From       string    `json:"from"`
	Body       string    `json:"body"`
	Source     string    `json:"source"`
}

// NormalizeMessage fills in defaults for missing fields so downstream
// stages never see an empty subject or sender.
func NormalizeMessage(msg Message) Message {
	if strings.TrimSpace(msg.Subject) == "" {
		msg.Subject = DefaultSubject
	}
	if strings.TrimSpace(msg.From) == "" {
		msg.From = DefaultSender
	}
	if msg.ReceivedAt.IsZero() {
		msg.ReceivedAt = time.Now()
	}
	return msg
}

// SenderAddress returns the bare address of the sender, stripping any
// display name ("Amazon <orders@amazon.com>" becomes "orders@amazon.com").
func (m Message) SenderAddress() string {
	from := strings.TrimSpace(m.From)
	if start := strings.LastIndex(from, "<"); start >= 0 {
		if end := strings.LastIndex(from, ">"); end > start {
			return strings.ToLower(strings.TrimSpace(from[start+1 : end]))
		}
	}
	return strings.ToLower(from)
}
