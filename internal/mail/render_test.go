package mail

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/sentinel/internal/model"
)

func TestRenderForward(t *testing.T) {
	amount := 23.5
	body, err := RenderForward(ForwardView{
		ReceivedAt:  time.Date(2024, 1, 2, 3, 4, 0, 0, time.UTC),
		Amount:      &amount,
		From:        "Uber <receipts@uber.com>",
		Subject:     "Your trip",
		Category:    model.CategoryTransportation,
		Body:        "Trip total <b>$23.50</b> https://click.uber.com/x " + strings.Repeat("x", 3000),
		Suggestions: []string{"STOP receipts", "STOP transportation"},
	})
	require.NoError(t, err)

	assert.Contains(t, body, "Uber &lt;receipts@uber.com&gt;")
	assert.Contains(t, body, "$23.50")
	assert.Contains(t, body, "transportation")
	assert.Contains(t, body, "[Link Removed]")
	assert.Contains(t, body, "&lt;b&gt;")
	assert.Contains(t, body, "<code>STOP transportation</code>")
	assert.Contains(t, body, "[Content truncated]")
}

func TestRenderForwardWithoutOptionalFields(t *testing.T) {
	body, err := RenderForward(ForwardView{From: "a@b.com", Subject: "s", Body: "text"})
	require.NoError(t, err)
	assert.NotContains(t, body, "Amount:")
	assert.NotContains(t, body, "Category:")
	assert.NotContains(t, body, "<hr>")
}

func TestRenderText(t *testing.T) {
	body, err := RenderText("  a < b  ")
	require.NoError(t, err)
	assert.Contains(t, body, "<pre style=\"white-space: pre-wrap;\">a &lt; b</pre>")
}
