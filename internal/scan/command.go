package scan

import (
	"strconv"
	"strings"
)

// CommandKind identifies the variant of a classified scan.
type CommandKind int

const (
	// CommandUnknown is any token that matches no recognised prefix.
	CommandUnknown CommandKind = iota
	// CommandUser selects the borrowing user.
	CommandUser
	// CommandTool selects, queries or returns a tool.
	CommandTool
	// CommandDuration selects the loan length in days.
	CommandDuration
	// CommandCancel aborts the current draft.
	CommandCancel
	// CommandReload requests an environment reload.
	CommandReload
	// CommandReturn arms return mode.
	CommandReturn
)

var commandKindNames = map[CommandKind]string{
	CommandUnknown:  "unknown",
	CommandUser:     "user",
	CommandTool:     "tool",
	CommandDuration: "duration",
	CommandCancel:   "cancel",
	CommandReload:   "reload",
	CommandReturn:   "return",
}

// String implements fmt.Stringer.
func (k CommandKind) String() string {
	if name, ok := commandKindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Command is the classified form of a scan token. Code is set for user and
// tool commands, Days for duration commands and Raw always carries the
// lower-cased token text.
type Command struct {
	Kind CommandKind
	Code string
	Days int
	Raw  string
}

type classifierRule func(text string) (Command, bool)

// classifierRules is evaluated first-match-wins; the order is part of the
// contract.
var classifierRules = []classifierRule{
	prefixMatch("usr", CommandUser),
	prefixMatch("tool", CommandTool),
	matchDuration,
	exactMatch("cancel", CommandCancel),
	exactMatch("reload", CommandReload),
	exactMatch("return", CommandReturn),
}

// Classify maps a token's text to exactly one Command.
func Classify(text string) Command {
	lowered := strings.ToLower(strings.TrimSpace(text))
	for _, rule := range classifierRules {
		if cmd, ok := rule(lowered); ok {
			return cmd
		}
	}
	return Command{Kind: CommandUnknown, Raw: lowered}
}

func prefixMatch(prefix string, kind CommandKind) func(string) (Command, bool) {
	return func(text string) (Command, bool) {
		if !strings.HasPrefix(text, prefix) {
			return Command{}, false
		}
		return Command{Kind: kind, Code: text, Raw: text}, true
	}
}

func exactMatch(word string, kind CommandKind) func(string) (Command, bool) {
	return func(text string) (Command, bool) {
		if text != word {
			return Command{}, false
		}
		return Command{Kind: kind, Raw: text}, true
	}
}

func matchDuration(text string) (Command, bool) {
	if !strings.HasPrefix(text, "dur") {
		return Command{}, false
	}
	days, err := strconv.Atoi(strings.TrimPrefix(text, "dur"))
	if err != nil || days <= 0 {
		return Command{Kind: CommandUnknown, Raw: text}, true
	}
	return Command{Kind: CommandDuration, Days: days, Raw: text}, true
}
