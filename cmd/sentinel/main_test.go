package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/sentinel/internal/engine"
	"github.com/Veraticus/sentinel/internal/model"
)

// execute runs the root command against a throwaway home and database.
func execute(t *testing.T, db string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--database", db, "--log-level", "error"}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func TestCommandsRoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	db := filepath.Join(t.TempDir(), "sentinel.db")

	_, err := execute(t, db, "prefs", "add", "senders", "Uber.com")
	require.NoError(t, err)
	_, err = execute(t, db, "prefs", "add", "categories", "retail")
	require.NoError(t, err)

	out, err := execute(t, db, "prefs", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "uber.com")
	assert.Contains(t, out, "retail")

	_, err = execute(t, db, "prefs", "add", "categories", "groceries")
	require.Error(t, err)

	_, err = execute(t, db, "rules", "create", "--name", "School", "--sender", "*@school.edu")
	require.NoError(t, err)

	out, err = execute(t, db, "rules", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "School")
	assert.Contains(t, out, "*@school.edu")

	out, err = execute(t, db, "rules", "test", "--from", "office@school.edu", "--subject", "")
	require.NoError(t, err)
	assert.Contains(t, out, "Matches rule 1")

	out, err = execute(t, db, "reply", "--dry-run", "STOP ALL")
	require.NoError(t, err)
	assert.Contains(t, out, "paused all forwarding")

	out, err = execute(t, db, "prefs", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "paused")

	out, err = execute(t, db, "history", "--action", "reply")
	require.NoError(t, err)
	assert.Contains(t, out, "reply")
}

func TestReplyBody(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		file    string
		stdin   string
		want    string
		wantErr bool
	}{
		{name: "argument", args: []string{"STOP uber"}, want: "STOP uber"},
		{name: "stdin", file: "-", stdin: "MORE amazon\n", want: "MORE amazon\n"},
		{name: "blank argument", args: []string{"  "}, wantErr: true},
		{name: "nothing", wantErr: true},
		{name: "missing file", file: filepath.Join(t.TempDir(), "none.txt"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := replyBody(tt.args, tt.file, strings.NewReader(tt.stdin))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFirstLine(t *testing.T) {
	assert.Equal(t, "STOP uber", firstLine("  STOP uber  \nthanks"))
	assert.Equal(t, "", firstLine(""))
}

func TestParseActions(t *testing.T) {
	got, err := parseActions([]string{"Forwarded", " blocked ", ""})
	require.NoError(t, err)
	assert.Equal(t, []model.ActivityAction{model.ActivityForwarded, model.ActivityBlocked}, got)

	_, err = parseActions([]string{"deleted"})
	require.Error(t, err)
}

func TestParseDateFlag(t *testing.T) {
	got, err := parseDateFlag("since", "")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = parseDateFlag("since", "2025-06-01")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, time.June, got.Month())

	_, err = parseDateFlag("since", "06/01/2025")
	require.Error(t, err)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
	assert.Equal(t, "héll…", truncate("héllo wörld", 5))
}

func TestCredentialKey(t *testing.T) {
	key, err := credentialKey("IMAP", "me@example.com")
	require.NoError(t, err)
	assert.Equal(t, "imap:me@example.com", key)

	key, err = credentialKey("smtp", "relay")
	require.NoError(t, err)
	assert.Equal(t, "smtp:relay", key)

	_, err = credentialKey("pop3", "me")
	require.Error(t, err)
}

func TestRequirePassword(t *testing.T) {
	got, err := requirePassword("secret\r\n")
	require.NoError(t, err)
	assert.Equal(t, "secret", got)

	_, err = requirePassword("\n")
	require.Error(t, err)
}

func TestRenderOutcome(t *testing.T) {
	assert.Contains(t, renderOutcome(engine.ReplyOutcome{}), "No command found")

	out := renderOutcome(engine.ReplyOutcome{
		Commands: []model.ReplyCommand{{Action: model.ActionBlock}},
		Applied:  []string{"Blocked sender uber"},
		Settings: "Current preferences:",
	})
	assert.Contains(t, out, "Blocked sender uber")
	assert.Contains(t, out, "Current preferences:")
	assert.NotContains(t, out, "Confirmation sent")
}

func TestDescribeMatch(t *testing.T) {
	assert.Contains(t, describeMatch(nil), "No active rule")
	assert.Contains(t, describeMatch(&model.ManualRule{ID: 3, Name: "Bills"}), "(recipient)")
	assert.Contains(t, describeMatch(&model.ManualRule{ID: 3, Name: "Bills", ForwardTo: "a@b.c"}), "a@b.c")
}

func TestRenderStats(t *testing.T) {
	out := renderStats(engine.RunStats{Fetched: 4, Forwarded: 2, Duration: 1500 * time.Millisecond})
	assert.Contains(t, out, "Fetched")
	assert.Contains(t, out, "1.5s")
}
