package model

import "time"

// ActivityAction records what the pipeline did with an item.
type ActivityAction string

// Activity actions.
const (
	ActivityForwarded           ActivityAction = "forwarded"
	ActivityBlocked             ActivityAction = "blocked"
	ActivityProcessed           ActivityAction = "processed"
	ActivityFailed              ActivityAction = "failed"
	ActivityError               ActivityAction = "error"
	ActivityManualForwarded     ActivityAction = "manual_forwarded"
	ActivityManualForwardFailed ActivityAction = "manual_forward_failed"
	ActivityReply               ActivityAction = "reply"
)

// ActivityRecord is one entry of the activity log.
type ActivityRecord struct {
	Timestamp time.Time      `json:"timestamp"`
	Amount    *float64       `json:"amount,omitempty"`
	ID        string         `json:"id"`
	MessageID string         `json:"message_id,omitempty"`
	Subject   string         `json:"subject"`
	Sender    string         `json:"sender"`
	Action    ActivityAction `json:"action"`
	Category  Category       `json:"category,omitempty"`
	Reason    string         `json:"reason"`
	Source    string         `json:"source,omitempty"`
}

// ForwardRequest is handed to the mail transport.
type ForwardRequest struct {
	Recipient string `json:"recipient"`
	Subject   string `json:"subject"`
	HTMLBody  string `json:"html_body"`
}
