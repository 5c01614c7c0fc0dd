package command

import (
	"fmt"
	"strings"

	"github.com/Veraticus/sentinel/internal/model"
)

// HelpMessage lists the commands a recipient can reply with.
func HelpMessage() string {
	var b strings.Builder
	b.WriteString("Receipt forwarder commands\n\n")
	b.WriteString("Blocking:\n")
	b.WriteString("  STOP amazon        block a sender\n")
	b.WriteString("  STOP restaurants   block a category\n")
	b.WriteString("  STOP ALL           pause all forwarding\n\n")
	b.WriteString("Allowing:\n")
	b.WriteString("  MORE starbucks     always forward a sender\n\n")
	b.WriteString("Info:\n")
	b.WriteString("  SETTINGS           show current preferences\n")
	b.WriteString("  HELP               show this message\n\n")
	fmt.Fprintf(&b, "Categories: %s\n", strings.Join(categoryNames(), ", "))
	b.WriteString("Reply to any forwarded email with these commands.")
	return b.String()
}

// ClarificationMessage asks the recipient to say what a bare STOP meant.
func ClarificationMessage(sender string, category model.Category) string {
	var b strings.Builder
	b.WriteString("Your STOP reply did not say what to stop. Try one of:\n")
	for _, s := range SuggestedCommands(sender, category) {
		fmt.Fprintf(&b, "  %s\n", s)
	}
	b.WriteString("  STOP ALL (pause everything)")
	return b.String()
}

// SuggestedCommands proposes reply commands for mail from sender.
func SuggestedCommands(sender string, category model.Category) []string {
	var out []string

	addr := strings.ToLower(strings.TrimSpace(sender))
	if i := strings.LastIndex(addr, "<"); i >= 0 {
		addr = strings.TrimSuffix(addr[i+1:], ">")
	}
	if user, _, ok := strings.Cut(addr, "@"); ok && user != "" {
		out = append(out, "STOP "+user)
	}

	if category != "" && category != model.CategoryOther {
		out = append(out, "STOP "+string(category))
	}
	return out
}

// Describe renders a command for confirmations and logs.
func Describe(cmd model.ReplyCommand) string {
	switch cmd.Action {
	case model.ActionBlock:
		if cmd.TargetType == model.TargetCategories {
			return "blocked category: " + cmd.Value
		}
		return "blocked sender: " + cmd.Value
	case model.ActionWhitelist:
		return "always forwarding: " + cmd.Value
	case model.ActionStopAll:
		return "paused all forwarding"
	case model.ActionGenericStop:
		return "stop without a target, clarification needed"
	default:
		return string(cmd.Action)
	}
}

func categoryNames() []string {
	cats := model.BlockableCategories()
	names := make([]string, len(cats))
	for i, c := range cats {
		names[i] = string(c)
	}
	return names
}
