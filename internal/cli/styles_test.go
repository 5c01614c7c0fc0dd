package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderTable(t *testing.T) {
	out := RenderTable([]string{"ID", "Name"}, [][]string{{"1", "Bills"}, {"2", "Friends"}})
	for _, want := range []string{"ID", "Name", "Bills", "Friends"} {
		assert.Contains(t, out, want)
	}
	assert.Less(t, strings.Index(out, "Bills"), strings.Index(out, "Friends"))
}

func TestRenderKeyValues(t *testing.T) {
	out := RenderKeyValues([][2]string{{"stage", "strong_indicator"}, {"confidence", "70"}})
	assert.Contains(t, out, "strong_indicator")
	assert.Contains(t, out, "confidence:")
	assert.Len(t, strings.Split(out, "\n"), 2)
}

func TestFormatters(t *testing.T) {
	assert.Contains(t, FormatSuccess("done"), "done")
	assert.Contains(t, FormatError("bad"), ErrorIcon)
	assert.Contains(t, FormatTitle("Run"), SentinelIcon)
	assert.Contains(t, RenderBox("Title", "content"), "content")
}

func TestNewBatchProgress(t *testing.T) {
	var buf bytes.Buffer
	bar := NewBatchProgress(&buf, 3)
	for i := 0; i < 3; i++ {
		require.NoError(t, bar.Add(1))
	}
	require.NoError(t, bar.Finish())
	assert.Contains(t, buf.String(), "3/3")
}
