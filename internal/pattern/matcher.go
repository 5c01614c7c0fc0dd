package pattern

import (
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/Veraticus/sentinel/internal/model"
)

type compiledRule struct {
	sender  *regexp.Regexp
	subject *regexp.Regexp
	rule    Rule
	broken  bool
}

// MatcherImpl holds a rule set compiled once for a run.
type MatcherImpl struct {
	rules []compiledRule
}

// NewMatcher keeps the active rules, orders them by ascending priority
// (registration order breaks ties) and compiles their patterns.
func NewMatcher(rules []Rule) *MatcherImpl {
	active := make([]Rule, 0, len(rules))
	for _, r := range rules {
		if r.Active {
			active = append(active, r)
		}
	}
	sort.SliceStable(active, func(i, j int) bool {
		return active[i].Priority < active[j].Priority
	})

	m := &MatcherImpl{rules: make([]compiledRule, 0, len(active))}
	for _, r := range active {
		cr := compiledRule{rule: r}
		var err error
		if r.SenderPattern != "" {
			if cr.sender, err = Compile(r.SenderPattern); err != nil {
				cr.broken = true
			}
		}
		if r.SubjectPattern != "" && !cr.broken {
			if cr.subject, err = Compile(r.SubjectPattern); err != nil {
				cr.broken = true
			}
		}
		if cr.broken {
			slog.Warn("Manual rule has an invalid pattern and will be skipped",
				"rule_id", r.ID, "rule", r.Name, "error", err)
		}
		m.rules = append(m.rules, cr)
	}

	return m
}

// FindMatch returns the first rule, in precedence order, whose present
// patterns all match msg.
func (m *MatcherImpl) FindMatch(msg model.Message) *Rule {
	for i := range m.rules {
		cr := &m.rules[i]
		if cr.broken {
			continue
		}
		if cr.sender != nil && !matchesSender(cr.sender, msg) {
			continue
		}
		if cr.subject != nil && !cr.subject.MatchString(strings.TrimSpace(msg.Subject)) {
			continue
		}
		rule := cr.rule
		return &rule
	}
	return nil
}

// Rules returns the active rules in precedence order.
func (m *MatcherImpl) Rules() []Rule {
	out := make([]Rule, len(m.rules))
	for i, cr := range m.rules {
		out[i] = cr.rule
	}
	return out
}

// FindMatch is a one-shot helper for callers without a prepared matcher.
func FindMatch(msg model.Message, rules []Rule) *Rule {
	return NewMatcher(rules).FindMatch(msg)
}

// matchesSender accepts either the raw From header or the bare address, so
// "*@amazon.com" matches "Amazon <orders@amazon.com>".
func matchesSender(re *regexp.Regexp, msg model.Message) bool {
	return re.MatchString(strings.TrimSpace(msg.From)) || re.MatchString(msg.SenderAddress())
}
