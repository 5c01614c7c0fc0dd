package engine

import (
	"github.com/Veraticus/sentinel/internal/model"
)

// Classifier defines the contract for receipt detection and categorization.
type Classifier interface {
	Classify(msg model.Message) model.ClassificationResult
	Categorize(msg model.Message) model.Category
}

// Progress receives per-message progress during a run.
type Progress interface {
	Add(n int) error
	Finish() error
}

// ProgressFunc creates a Progress for a batch of total messages.
type ProgressFunc func(total int) Progress
