package model

import (
	"time"
)

// DefaultManualRulePriority is assigned to rules created without an explicit priority.
const DefaultManualRulePriority = 10

// ManualRule is a user-authored forwarding rule. Patterns may contain "*"
// as a wildcard and are matched against the whole field. An empty pattern
// matches everything. Lower priority values take precedence.
type ManualRule struct {
	CreatedAt      time.Time `json:"created_at"`
	Name           string    `json:"name"`
	SenderPattern  string    `json:"sender_pattern,omitempty"`
	SubjectPattern string    `json:"subject_pattern,omitempty"`
	ForwardTo      string    `json:"forward_to,omitempty"`
	Purpose        string    `json:"purpose,omitempty"`
	ID             int       `json:"id"`
	Priority       int       `json:"priority"`
	Active         bool      `json:"active"`
}
