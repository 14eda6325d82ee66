package bot

import (
	"strings"
	"unicode"
)

type Command int

const (
	CommandNone Command = iota
	CommandTLDR
	CommandHelp
)

// ParseCommand recognizes "<prefix>tldr <phrase>" and "<prefix>tldrhelp".
func ParseCommand(text, prefix string) (Command, string) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, prefix) {
		return CommandNone, ""
	}
	rest := strings.TrimPrefix(text, prefix)
	name, arg := rest, ""
	if i := strings.IndexFunc(rest, unicode.IsSpace); i >= 0 {
		name, arg = rest[:i], rest[i:]
	}
	return lookup(name), strings.TrimSpace(arg)
}

// ParseSlashCommand maps "/tldr" and "/tldrhelp" to commands.
func ParseSlashCommand(command, text string) (Command, string) {
	return lookup(strings.TrimPrefix(command, "/")), strings.TrimSpace(text)
}

func lookup(name string) Command {
	switch strings.ToLower(name) {
	case "tldr":
		return CommandTLDR
	case "tldrhelp":
		return CommandHelp
	}
	return CommandNone
}
