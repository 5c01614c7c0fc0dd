package model

// CommandAction identifies what a reply command asks for.
type CommandAction string

// Reply command actions.
const (
	ActionBlock       CommandAction = "block"
	ActionWhitelist   CommandAction = "whitelist"
	ActionSettings    CommandAction = "settings"
	ActionHelp        CommandAction = "help"
	ActionStopAll     CommandAction = "stop_all"
	ActionGenericStop CommandAction = "generic_stop"
)

// TargetType is the preference list a block command applies to.
type TargetType string

// Block targets.
const (
	TargetSenders    TargetType = "senders"
	TargetCategories TargetType = "categories"
)

// ReplyCommand is a structured instruction extracted from reply text.
type ReplyCommand struct {
	Action     CommandAction `json:"action"`
	TargetType TargetType    `json:"target_type,omitempty"`
	Value      string        `json:"value,omitempty"`
}
