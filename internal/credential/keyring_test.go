package credential

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeys(t *testing.T) {
	assert.Equal(t, "imap:me@example.com", IMAPKey("me@example.com"))
	assert.Equal(t, "smtp:relay@example.com", SMTPKey("relay@example.com"))
	assert.NotEqual(t, IMAPKey("a"), SMTPKey("a"))
}
