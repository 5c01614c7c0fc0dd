package engine

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/Veraticus/sentinel/internal/command"
	"github.com/Veraticus/sentinel/internal/common"
	"github.com/Veraticus/sentinel/internal/mail"
	"github.com/Veraticus/sentinel/internal/model"
	"github.com/Veraticus/sentinel/internal/preferences"
)

// ReplyOutcome reports what a reply did.
type ReplyOutcome struct {
	Commands           []model.ReplyCommand
	Applied            []string
	Settings           string
	Help               string
	Clarification      string
	Changed            int
	NeedsClarification bool
	Confirmed          bool
}

// Empty reports whether the reply contained no recognizable command.
func (o ReplyOutcome) Empty() bool {
	return len(o.Commands) == 0
}

var quoteHeader = regexp.MustCompile(`(?i)^(on\s.+wrote:|-+\s*original message\s*-+|from:\s.+)$`)

// ReplyText returns the part of a reply body written by the sender, dropping
// quoted lines and anything after a quote header.
func ReplyText(body string) string {
	var kept []string
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if quoteHeader.MatchString(trimmed) {
			break
		}
		if strings.HasPrefix(trimmed, ">") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

func (p *Pipeline) processReply(ctx context.Context, msg model.Message, stats *RunStats) {
	if !p.replies.Claim(msg.ID) {
		stats.Skipped++
		return
	}
	defer tolerate("mark reply processed", common.Fields{"id": msg.ID}, func() error {
		return p.replies.MarkProcessed(ctx, msg.ID)
	})

	p.HandleReply(ctx, msg)
	stats.Replies++
}

// HandleReply parses the reply text of msg, applies each command in order
// and sends a confirmation to the recipient. Failures applying a single
// command are logged and do not stop the rest.
func (p *Pipeline) HandleReply(ctx context.Context, msg model.Message) ReplyOutcome {
	text := ReplyText(msg.Body)
	if text == "" {
		text = msg.Subject
	}

	out := ReplyOutcome{Commands: p.parser.Parse(text)}
	stopAll := hasAction(out.Commands, model.ActionStopAll)

	for _, cmd := range out.Commands {
		fields := common.Fields{"action": cmd.Action, "value": cmd.Value}
		var changed bool

		switch cmd.Action {
		case model.ActionBlock:
			if stopAll && cmd.TargetType == model.TargetSenders && isEverything(cmd.Value) {
				continue
			}
			t := model.PreferenceSenders
			if cmd.TargetType == model.TargetCategories {
				t = model.PreferenceCategories
			}
			if !tolerate("apply block", fields, func() (err error) {
				changed, err = p.prefs.Add(ctx, t, cmd.Value)
				return err
			}) {
				continue
			}
		case model.ActionWhitelist:
			if !tolerate("apply whitelist", fields, func() (err error) {
				changed, err = p.prefs.AddWhitelist(ctx, cmd.Value)
				return err
			}) {
				continue
			}
		case model.ActionStopAll:
			if !tolerate("pause forwarding", fields, func() (err error) {
				changed, err = p.prefs.SetPaused(ctx, true)
				return err
			}) {
				continue
			}
		case model.ActionSettings:
			out.Settings = SettingsSummary(p.prefs.Load(ctx))
			continue
		case model.ActionHelp:
			out.Help = command.HelpMessage()
			continue
		case model.ActionGenericStop:
			out.NeedsClarification = true
			out.Clarification = command.ClarificationMessage("", "")
			continue
		}

		out.Applied = append(out.Applied, command.Describe(cmd))
		if changed {
			out.Changed++
		}
	}

	reason := "No command found"
	if len(out.Applied) > 0 {
		reason = strings.Join(out.Applied, "; ")
	} else if !out.Empty() {
		reason = string(out.Commands[0].Action)
	}
	p.record(ctx, msg, model.ActivityReply, "", reason, nil)

	slog.Info("Reply handled",
		"id", msg.ID,
		"commands", len(out.Commands),
		"changed", out.Changed,
		"needs_clarification", out.NeedsClarification)

	if !out.Empty() {
		out.Confirmed = p.confirm(ctx, out)
	}
	return out
}

func (p *Pipeline) confirm(ctx context.Context, out ReplyOutcome) bool {
	if p.cfg.Recipient == "" {
		return false
	}

	var b strings.Builder
	for _, line := range out.Applied {
		fmt.Fprintf(&b, "%s\n", line)
	}
	for _, section := range []string{out.Clarification, out.Settings, out.Help} {
		if section != "" {
			if b.Len() > 0 {
				b.WriteString("\n")
			}
			b.WriteString(section + "\n")
		}
	}

	body, err := mail.RenderText(b.String())
	if err != nil {
		common.LogError(err, "Failed to render confirmation", nil)
		return false
	}
	return p.transport.Send(ctx, model.ForwardRequest{
		Recipient: p.cfg.Recipient,
		Subject:   mail.ConfirmationSubject,
		HTMLBody:  body,
	})
}

// SettingsSummary renders the current preferences for a confirmation.
func SettingsSummary(prefs model.Preferences) string {
	var b strings.Builder
	b.WriteString("Current preferences:\n")
	if prefs.Paused {
		b.WriteString("- Forwarding is paused (STOP ALL)\n")
	}
	lists := []struct {
		label  string
		values []string
	}{
		{"Blocked senders", prefs.BlockedSenders},
		{"Blocked categories", prefs.BlockedCategories},
		{"Blocked keywords", prefs.BlockedKeywords},
		{"Always forward", prefs.Whitelist},
	}
	stats := preferences.Summarize(prefs)
	empty := stats.BlockedSenders+stats.BlockedCategories+stats.BlockedKeywords+stats.Whitelisted == 0
	for _, l := range lists {
		if len(l.values) > 0 {
			fmt.Fprintf(&b, "- %s: %s\n", l.label, strings.Join(l.values, ", "))
		}
	}
	if empty && !prefs.Paused {
		b.WriteString("No active preferences.\n")
	}
	return strings.TrimSpace(b.String())
}

func hasAction(cmds []model.ReplyCommand, action model.CommandAction) bool {
	for _, c := range cmds {
		if c.Action == action {
			return true
		}
	}
	return false
}

func isEverything(v string) bool {
	return v == "all" || v == "everything"
}
