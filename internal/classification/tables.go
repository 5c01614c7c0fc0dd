package classification

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Veraticus/sentinel/internal/common"
	"github.com/Veraticus/sentinel/internal/model"
)

// ScoreRule adds Weight to the transactional score when Pattern matches.
type ScoreRule struct {
	Pattern string `yaml:"pattern"`
	Weight  int    `yaml:"weight"`
}

// ConfidenceWeights controls how the confidence figure is assembled.
type ConfidenceWeights struct {
	StrongIndicator int `yaml:"strong_indicator"`
	PerScorePoint   int `yaml:"per_score_point"`
	KnownSender     int `yaml:"known_sender"`
	Confirmation    int `yaml:"confirmation"`
}

// CategoryRule assigns Category when the sender contains any Sender entry
// or the subject contains any Subject entry.
type CategoryRule struct {
	Category model.Category `yaml:"category"`
	Sender   []string       `yaml:"sender"`
	Subject  []string       `yaml:"subject"`
}

// Tables holds every keyword list, pattern and weight the classifier uses.
// Patterns are Go regular expressions and always match case-insensitively.
type Tables struct {
	ReplyPatterns        []string          `yaml:"reply_patterns"`
	PromotionalKeywords  []string          `yaml:"promotional_keywords"`
	MarketingPatterns    []string          `yaml:"marketing_patterns"`
	TrackingMarkers      []string          `yaml:"tracking_markers"`
	DealsPatterns        []string          `yaml:"deals_patterns"`
	StrongKeywords       []string          `yaml:"strong_keywords"`
	EvidencePatterns     []string          `yaml:"evidence_patterns"`
	ScoreRules           []ScoreRule       `yaml:"score_rules"`
	KnownSenders         []string          `yaml:"known_senders"`
	ConfirmationPatterns []string          `yaml:"confirmation_patterns"`
	Categories           []CategoryRule    `yaml:"categories"`
	Weights              ConfidenceWeights `yaml:"weights"`
	Version              int               `yaml:"version"`
	ReceiptThreshold     int               `yaml:"receipt_threshold"`
}

// LoadTables reads tables from a YAML file. Sections left out of the file
// keep their built-in values.
func LoadTables(path string) (Tables, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from user configuration
	if err != nil {
		return Tables{}, fmt.Errorf("failed to read classifier tables: %w", err)
	}
	return ParseTables(data)
}

// ParseTables decodes YAML tables on top of the defaults.
func ParseTables(data []byte) (Tables, error) {
	tables := DefaultTables()
	var override Tables
	if err := yaml.Unmarshal(data, &override); err != nil {
		return Tables{}, fmt.Errorf("%w: classifier tables: %v", common.ErrInvalidConfig, err)
	}
	tables.merge(override)
	if err := tables.Validate(); err != nil {
		return Tables{}, err
	}
	return tables, nil
}

// Validate checks that the tables can drive a classifier.
func (t Tables) Validate() error {
	if t.Version <= 0 {
		return fmt.Errorf("%w: classifier tables version must be positive", common.ErrInvalidConfig)
	}
	if t.ReceiptThreshold <= 0 {
		return fmt.Errorf("%w: receipt threshold must be positive", common.ErrInvalidConfig)
	}
	for _, rule := range t.Categories {
		if _, ok := model.ParseCategory(string(rule.Category)); !ok {
			return fmt.Errorf("%w: unknown category %q", common.ErrInvalidConfig, rule.Category)
		}
	}
	return nil
}

func (t *Tables) merge(o Tables) {
	if o.Version != 0 {
		t.Version = o.Version
	}
	if o.ReceiptThreshold != 0 {
		t.ReceiptThreshold = o.ReceiptThreshold
	}
	if o.Weights != (ConfidenceWeights{}) {
		t.Weights = o.Weights
	}
	replace(&t.ReplyPatterns, o.ReplyPatterns)
	replace(&t.PromotionalKeywords, o.PromotionalKeywords)
	replace(&t.MarketingPatterns, o.MarketingPatterns)
	replace(&t.TrackingMarkers, o.TrackingMarkers)
	replace(&t.DealsPatterns, o.DealsPatterns)
	replace(&t.StrongKeywords, o.StrongKeywords)
	replace(&t.EvidencePatterns, o.EvidencePatterns)
	replace(&t.KnownSenders, o.KnownSenders)
	replace(&t.ConfirmationPatterns, o.ConfirmationPatterns)
	if o.ScoreRules != nil {
		t.ScoreRules = o.ScoreRules
	}
	if o.Categories != nil {
		t.Categories = o.Categories
	}
}

func replace(dst *[]string, src []string) {
	if src != nil {
		*dst = src
	}
}
