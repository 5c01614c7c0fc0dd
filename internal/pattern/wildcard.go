package pattern

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/Veraticus/sentinel/internal/common"
)

// Compile turns a wildcard pattern into a case-insensitive regexp anchored
// to the whole input. "*" matches zero or more characters; every other
// character is literal.
func Compile(pattern string) (*regexp.Regexp, error) {
	if !utf8.ValidString(pattern) {
		return nil, fmt.Errorf("%w: not valid UTF-8", common.ErrInvalidPattern)
	}

	parts := strings.Split(strings.TrimSpace(pattern), "*")
	for i, part := range parts {
		parts[i] = regexp.QuoteMeta(part)
	}

	re, err := regexp.Compile("(?is)^" + strings.Join(parts, ".*") + "$")
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", common.ErrInvalidPattern, pattern, err)
	}
	return re, nil
}

// Match reports whether text matches the wildcard pattern. An invalid
// pattern never matches.
func Match(pattern, text string) bool {
	re, err := Compile(pattern)
	if err != nil {
		return false
	}
	return re.MatchString(strings.TrimSpace(text))
}
