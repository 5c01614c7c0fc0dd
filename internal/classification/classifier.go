// Package classification decides whether an email is a purchase receipt and
// which merchant category it belongs to.
package classification

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Veraticus/sentinel/internal/common"
	"github.com/Veraticus/sentinel/internal/model"
)

// Stage names the classifier stage that settled a decision.
type Stage string

// Classifier stages, in evaluation order.
const (
	StageReplyOrForward Stage = "reply_or_forward"
	StagePromotional    Stage = "promotional"
	StageStrong         Stage = "strong_indicator"
	StageScore          Stage = "transactional_score"
	StageKnownSender    Stage = "known_sender"
	StageNone           Stage = "no_match"
)

type scoreRule struct {
	re     *regexp.Regexp
	weight int
}

// Classifier applies the staged receipt heuristic. It holds only compiled,
// read-only tables and is safe for concurrent use.
type Classifier struct {
	tables          Tables
	excludedSenders []string
	reply           []*regexp.Regexp
	marketing       []*regexp.Regexp
	deals           []*regexp.Regexp
	evidence        []*regexp.Regexp
	confirmation    []*regexp.Regexp
	scores          []scoreRule
	promoKeywords   []string
	trackingMarkers []string
	strongKeywords  []string
	knownSenders    []string
}

// NewClassifier compiles the tables. excludedSenders lists addresses whose
// mail is never a receipt: the human recipient and the system's own accounts.
func NewClassifier(tables Tables, excludedSenders []string) (*Classifier, error) {
	if err := tables.Validate(); err != nil {
		return nil, err
	}

	c := &Classifier{
		tables:          tables,
		excludedSenders: lowerAll(excludedSenders),
		promoKeywords:   lowerAll(tables.PromotionalKeywords),
		trackingMarkers: lowerAll(tables.TrackingMarkers),
		strongKeywords:  lowerAll(tables.StrongKeywords),
		knownSenders:    lowerAll(tables.KnownSenders),
	}

	var err error
	groups := []struct {
		dst  *[]*regexp.Regexp
		src  []string
		name string
	}{
		{&c.reply, tables.ReplyPatterns, "reply"},
		{&c.marketing, tables.MarketingPatterns, "marketing"},
		{&c.deals, tables.DealsPatterns, "deals"},
		{&c.evidence, tables.EvidencePatterns, "evidence"},
		{&c.confirmation, tables.ConfirmationPatterns, "confirmation"},
	}
	for _, g := range groups {
		if *g.dst, err = common.CompileAll(g.src); err != nil {
			return nil, fmt.Errorf("failed to compile %s patterns: %w", g.name, err)
		}
	}

	for _, rule := range tables.ScoreRules {
		res, err := common.CompileAll([]string{rule.Pattern})
		if err != nil {
			return nil, fmt.Errorf("failed to compile score patterns: %w", err)
		}
		c.scores = append(c.scores, scoreRule{re: res[0], weight: rule.Weight})
	}

	return c, nil
}

// NewDefaultClassifier builds a classifier from the built-in tables.
func NewDefaultClassifier(excludedSenders ...string) *Classifier {
	c, err := NewClassifier(DefaultTables(), excludedSenders)
	if err != nil {
		panic(fmt.Sprintf("built-in classifier tables are invalid: %v", err))
	}
	return c
}

// Tables returns the tables the classifier was built from.
func (c *Classifier) Tables() Tables {
	return c.tables
}

// Classify returns the receipt decision, confidence and category.
func (c *Classifier) Classify(msg model.Message) model.ClassificationResult {
	e := c.Explain(msg)
	return model.ClassificationResult{
		IsReceipt:  e.IsReceipt,
		Confidence: e.Confidence,
		Category:   e.Category,
	}
}

// IsReceipt reports only the boolean decision.
func (c *Classifier) IsReceipt(msg model.Message) bool {
	return c.Explain(msg).IsReceipt
}

// Confidence returns the 0-100 detection confidence for msg.
func (c *Classifier) Confidence(msg model.Message) int {
	return c.Explain(msg).Confidence
}

// Explanation records how each stage saw a message.
type Explanation struct {
	Stage             Stage
	Reason            string
	Category          model.Category
	Confidence        int
	Score             int
	IsReceipt         bool
	ReplyOrForward    bool
	Promotional       bool
	StrongIndicator   bool
	KnownSender       bool
	HasConfirmation   bool
	ScoreAboveMinimum bool
}

// Explain runs every stage and reports which one decided the outcome.
func (c *Classifier) Explain(msg model.Message) Explanation {
	subject := strings.ToLower(msg.Subject)
	body := strings.ToLower(msg.Body)
	from := strings.ToLower(msg.From)
	joined := subject + " " + body

	e := Explanation{Category: c.Categorize(msg)}

	e.ReplyOrForward, e.Reason = c.replyOrForward(subject, from)
	if e.ReplyOrForward {
		e.Stage = StageReplyOrForward
		return e
	}

	var promoReason string
	e.Promotional, promoReason = c.promotional(subject, body, from)
	e.StrongIndicator = c.strongIndicator(subject, body, joined)
	e.Score = c.score(joined)
	e.ScoreAboveMinimum = e.Score >= c.tables.ReceiptThreshold
	e.KnownSender = c.knownSender(from)
	e.HasConfirmation = common.AnyMatch(c.confirmation, subject) || common.AnyMatch(c.confirmation, body)
	e.Confidence = c.confidence(e)

	switch {
	case e.Promotional:
		e.Stage, e.Reason = StagePromotional, promoReason
	case e.StrongIndicator:
		e.Stage, e.IsReceipt, e.Reason = StageStrong, true, "strong receipt keyword with supporting evidence"
	case e.ScoreAboveMinimum:
		e.Stage, e.IsReceipt = StageScore, true
		e.Reason = fmt.Sprintf("transactional score %d", e.Score)
	case e.KnownSender && e.HasConfirmation:
		e.Stage, e.IsReceipt, e.Reason = StageKnownSender, true, "known receipt sender with confirmation"
	default:
		e.Stage, e.Reason = StageNone, "not a receipt"
	}
	return e
}

// Categorize maps a message to a category using the ordered category table.
func (c *Classifier) Categorize(msg model.Message) model.Category {
	from := strings.ToLower(msg.From)
	subject := strings.ToLower(msg.Subject)
	for _, rule := range c.tables.Categories {
		if containsAny(from, rule.Sender) || containsAny(subject, rule.Subject) {
			return rule.Category
		}
	}
	return model.CategoryOther
}

func (c *Classifier) replyOrForward(subject, from string) (bool, string) {
	if common.AnyMatch(c.reply, subject) {
		return true, "reply or forward subject"
	}
	for _, addr := range c.excludedSenders {
		if addr != "" && strings.Contains(from, addr) {
			return true, "sent by recipient or own account"
		}
	}
	return false, ""
}

func (c *Classifier) promotional(subject, body, from string) (bool, string) {
	for _, kw := range c.promoKeywords {
		if strings.Contains(subject, kw) || strings.Contains(body, kw) {
			return true, fmt.Sprintf("promotional keyword %q", kw)
		}
	}
	for _, re := range c.marketing {
		if re.MatchString(subject) || re.MatchString(body) {
			return true, "marketing pattern " + re.String()
		}
	}
	for _, marker := range c.trackingMarkers {
		if strings.Contains(body, marker) {
			return true, fmt.Sprintf("tracking marker %q", marker)
		}
	}
	for _, re := range c.deals {
		if re.MatchString(from) || re.MatchString(subject) || re.MatchString(body) {
			return true, "deals pattern " + re.String()
		}
	}
	return false, ""
}

func (c *Classifier) strongIndicator(subject, body, joined string) bool {
	if !containsAny(subject, c.strongKeywords) && !containsAny(body, c.strongKeywords) {
		return false
	}
	return common.AnyMatch(c.evidence, joined)
}

func (c *Classifier) score(joined string) int {
	total := 0
	for _, rule := range c.scores {
		if rule.re.MatchString(joined) {
			total += rule.weight
		}
	}
	return total
}

func (c *Classifier) knownSender(from string) bool {
	return containsAny(from, c.knownSenders)
}

func (c *Classifier) confidence(e Explanation) int {
	if e.Promotional {
		return 0
	}
	w := c.tables.Weights
	conf := w.PerScorePoint * e.Score
	if e.StrongIndicator {
		conf += w.StrongIndicator
	}
	if e.KnownSender {
		conf += w.KnownSender
	}
	if e.HasConfirmation {
		conf += w.Confirmation
	}
	return max(0, min(conf, 100))
}

var amountPattern = regexp.MustCompile(`\$([0-9,]+\.?[0-9]*)`)

// ExtractAmount returns the first dollar amount found in text.
func ExtractAmount(text string) (float64, bool) {
	m := amountPattern.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if n != "" && strings.Contains(s, strings.ToLower(n)) {
			return true
		}
	}
	return false
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}
