package tui

import "strings"

// Command is a parsed prompt command.
type Command struct {
	Name string
	Args string
}

// ParseCommand parses a prompt command string, tolerating a leading ':'.
func ParseCommand(input string) Command {
	input = strings.TrimPrefix(strings.TrimSpace(input), ":")
	name, args, _ := strings.Cut(input, " ")
	return Command{
		Name: strings.ToLower(name),
		Args: strings.TrimSpace(args),
	}
}
