package command

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/Veraticus/sentinel/internal/model"
)

func block(target model.TargetType, v string) model.ReplyCommand {
	return model.ReplyCommand{Action: model.ActionBlock, TargetType: target, Value: v}
}

func TestParser_Parse(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []model.ReplyCommand
	}{
		{
			name: "stop sender",
			text: "STOP amazon",
			want: []model.ReplyCommand{block(model.TargetSenders, "amazon")},
		},
		{
			name: "bare stop",
			text: "stop",
			want: []model.ReplyCommand{{Action: model.ActionGenericStop}},
		},
		{
			name: "bare stop variants",
			text: "  Please stop!  ",
			want: []model.ReplyCommand{{Action: model.ActionGenericStop}},
		},
		{
			name: "no more alone is a bare stop",
			text: "No more.",
			want: []model.ReplyCommand{{Action: model.ActionGenericStop}},
		},
		{
			name: "unsubscribe alone is a bare stop",
			text: "UNSUBSCRIBE",
			want: []model.ReplyCommand{{Action: model.ActionGenericStop}},
		},
		{
			name: "category stop also yields sender stop",
			text: "stop restaurants",
			want: []model.ReplyCommand{
				block(model.TargetSenders, "restaurants"),
				block(model.TargetCategories, "restaurants"),
			},
		},
		{
			name: "hyphenated category",
			text: "Stop food-delivery please",
			want: []model.ReplyCommand{
				block(model.TargetSenders, "food-delivery"),
				block(model.TargetCategories, "food-delivery"),
			},
		},
		{
			name: "whitelist",
			text: "MORE starbucks",
			want: []model.ReplyCommand{{Action: model.ActionWhitelist, Value: "starbucks"}},
		},
		{
			name: "no more with a target blocks it",
			text: "no more uber",
			want: []model.ReplyCommand{block(model.TargetSenders, "uber")},
		},
		{
			name: "several commands keep order",
			text: "stop uber and stop lyft. more starbucks, settings",
			want: []model.ReplyCommand{
				block(model.TargetSenders, "uber"),
				block(model.TargetSenders, "lyft"),
				{Action: model.ActionWhitelist, Value: "starbucks"},
				{Action: model.ActionSettings},
			},
		},
		{
			name: "full address target",
			text: "stop receipts@example.com.",
			want: []model.ReplyCommand{block(model.TargetSenders, "receipts@example.com")},
		},
		{
			name: "stop all",
			text: "STOP ALL",
			want: []model.ReplyCommand{
				block(model.TargetSenders, "all"),
				{Action: model.ActionStopAll},
			},
		},
		{
			name: "stop everything",
			text: "please stop everything",
			want: []model.ReplyCommand{
				block(model.TargetSenders, "everything"),
				{Action: model.ActionStopAll},
			},
		},
		{
			name: "help",
			text: "help",
			want: []model.ReplyCommand{{Action: model.ActionHelp}},
		},
		{
			name: "commands",
			text: "what commands are there?",
			want: []model.ReplyCommand{{Action: model.ActionHelp}},
		},
		{
			name: "stop inside a word is ignored",
			text: "nonstop amazon deliveries",
		},
		{
			name: "nothing recognised",
			text: "thanks, got it!",
		},
		{
			name: "empty",
			text: "   ",
		},
	}

	p := NewParser()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.Parse(tt.text)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Parse(%q) mismatch (-want +got):\n%s", tt.text, diff)
			}
		})
	}
}

func TestParse_BareStopEmitsNoTarget(t *testing.T) {
	cmds := Parse("stop")
	assert.Len(t, cmds, 1)
	for _, c := range cmds {
		assert.NotEqual(t, model.ActionBlock, c.Action)
	}
}

func TestSuggestedCommands(t *testing.T) {
	tests := []struct {
		sender   string
		category model.Category
		want     []string
	}{
		{"Uber Receipts <noreply@uber.com>", model.CategoryTransportation, []string{"STOP noreply", "STOP transportation"}},
		{"auto-confirm@amazon.com", model.CategoryAmazon, []string{"STOP auto-confirm", "STOP amazon"}},
		{"friend@example.com", model.CategoryOther, []string{"STOP friend"}},
		{"Unknown Sender", model.CategoryOther, nil},
	}

	for _, tt := range tests {
		t.Run(tt.sender, func(t *testing.T) {
			assert.Equal(t, tt.want, SuggestedCommands(tt.sender, tt.category))
		})
	}
}

func TestHelpMessage_ListsBlockableCategories(t *testing.T) {
	msg := HelpMessage()
	for _, c := range model.BlockableCategories() {
		assert.Contains(t, msg, string(c))
	}
	assert.Contains(t, msg, "STOP ALL")
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "blocked sender: uber", Describe(block(model.TargetSenders, "uber")))
	assert.Equal(t, "blocked category: retail", Describe(block(model.TargetCategories, "retail")))
	assert.Equal(t, "always forwarding: cvs", Describe(model.ReplyCommand{Action: model.ActionWhitelist, Value: "cvs"}))
}
