// Package command turns free-text replies into structured preference commands.
package command

import (
	"regexp"
	"strings"

	"github.com/Veraticus/sentinel/internal/model"
)

var (
	genericStop = []*regexp.Regexp{
		regexp.MustCompile(`^stop[.!]?$`),
		regexp.MustCompile(`^please stop[.!]?$`),
		regexp.MustCompile(`^stop (this|these)[.!]?$`),
		regexp.MustCompile(`^no more[.!]?$`),
		regexp.MustCompile(`^unsubscribe[.!]?$`),
	}

	stopTarget = regexp.MustCompile(`\bstop\s+([\w.@-]+)`)
	moreTarget = regexp.MustCompile(`\b(no\s+)?more\s+([\w.@-]+)`)
	stopAll    = regexp.MustCompile(`\bstop\s+(all|everything)\b`)
	settings   = regexp.MustCompile(`\bsettings\b`)
	help       = regexp.MustCompile(`\b(help|commands)\b`)

	categoryStops = compileCategoryStops()
)

type categoryStop struct {
	re       *regexp.Regexp
	category model.Category
}

func compileCategoryStops() []categoryStop {
	cats := model.BlockableCategories()
	out := make([]categoryStop, len(cats))
	for i, c := range cats {
		out[i] = categoryStop{
			re:       regexp.MustCompile(`\bstop\s+` + regexp.QuoteMeta(string(c)) + `\b`),
			category: c,
		}
	}
	return out
}

// Parser extracts reply commands. The zero value is ready to use.
type Parser struct{}

// NewParser creates a parser.
func NewParser() *Parser {
	return &Parser{}
}

// Parse returns the commands found in text, in application order.
//
// A bare stop ("stop", "please stop", "no more", ...) yields a single
// generic_stop and nothing else. Otherwise every "stop <x>" becomes a
// sender block, every "more <x>" a whitelist entry, every "stop <category>"
// a category block, followed by settings, help and stop_all.
func (p *Parser) Parse(text string) []model.ReplyCommand {
	t := strings.ToLower(strings.TrimSpace(text))
	if t == "" {
		return nil
	}

	for _, re := range genericStop {
		if re.MatchString(t) {
			return []model.ReplyCommand{{Action: model.ActionGenericStop}}
		}
	}

	var cmds []model.ReplyCommand

	for _, m := range stopTarget.FindAllStringSubmatch(t, -1) {
		if v := cleanTarget(m[1]); v != "" {
			cmds = append(cmds, model.ReplyCommand{
				Action:     model.ActionBlock,
				TargetType: model.TargetSenders,
				Value:      v,
			})
		}
	}

	for _, m := range moreTarget.FindAllStringSubmatch(t, -1) {
		v := cleanTarget(m[2])
		if v == "" {
			continue
		}
		// "no more x" reads as a block, not a request for more.
		if m[1] != "" {
			cmds = append(cmds, model.ReplyCommand{
				Action:     model.ActionBlock,
				TargetType: model.TargetSenders,
				Value:      v,
			})
			continue
		}
		cmds = append(cmds, model.ReplyCommand{Action: model.ActionWhitelist, Value: v})
	}

	for _, cs := range categoryStops {
		if cs.re.MatchString(t) {
			cmds = append(cmds, model.ReplyCommand{
				Action:     model.ActionBlock,
				TargetType: model.TargetCategories,
				Value:      string(cs.category),
			})
		}
	}

	if settings.MatchString(t) {
		cmds = append(cmds, model.ReplyCommand{Action: model.ActionSettings})
	}
	if help.MatchString(t) {
		cmds = append(cmds, model.ReplyCommand{Action: model.ActionHelp})
	}
	if stopAll.MatchString(t) {
		cmds = append(cmds, model.ReplyCommand{Action: model.ActionStopAll})
	}

	return cmds
}

// Parse is a convenience wrapper around a zero Parser.
func Parse(text string) []model.ReplyCommand {
	return (&Parser{}).Parse(text)
}

func cleanTarget(v string) string {
	return strings.Trim(v, ".-@")
}
