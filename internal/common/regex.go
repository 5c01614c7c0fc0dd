package common

import (
	"fmt"
	"regexp"
	"strings"
)

// CompileAll compiles every expression case-insensitively. The first
// invalid expression aborts compilation.
func CompileAll(exprs []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(exprs))
	for _, expr := range exprs {
		if !strings.HasPrefix(expr, "(?i)") {
			expr = "(?i)" + expr
		}
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrInvalidPattern, expr, err)
		}
		out = append(out, re)
	}
	return out, nil
}

// AnyMatch reports whether any expression matches text.
func AnyMatch(res []*regexp.Regexp, text string) bool {
	for _, re := range res {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// CountMatches returns how many expressions match text.
func CountMatches(res []*regexp.Regexp, text string) int {
	n := 0
	for _, re := range res {
		if re.MatchString(text) {
			n++
		}
	}
	return n
}
