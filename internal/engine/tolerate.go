package engine

import (
	"github.com/Veraticus/sentinel/internal/common"
)

// tolerate runs fn and logs a failure instead of propagating it. It
// reports whether fn succeeded.
func tolerate(op string, fields common.Fields, fn func() error) bool {
	if err := fn(); err != nil {
		common.LogError(err, op+" failed", fields)
		return false
	}
	return true
}
