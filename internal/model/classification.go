package model

// ClassificationResult is the outcome of classifying a single message.
// It is derived purely from the message and has no side effects.
type ClassificationResult struct {
	Category   Category `json:"category"`
	Confidence int      `json:"confidence"`
	IsReceipt  bool     `json:"is_receipt"`
}
