package control

import (
	"fmt"
	"strings"
)

type CommandKind int

const (
	CommandLoad CommandKind = iota + 1
	CommandFullscreen
)

func (k CommandKind) String() string {
	switch k {
	case CommandLoad:
		return "load"
	case CommandFullscreen:
		return "fullscreen"
	default:
		return fmt.Sprintf("CommandKind(%d)", int(k))
	}
}

type Command struct {
	Kind CommandKind
	Path string
}

// ParseCommand interprets one framed line. Any line mentioning "load" is read
// as "<verb> <path>"; only the exact line "fullscreen" toggles. Everything
// else is rejected.
func ParseCommand(line string) (Command, bool) {
	line = strings.TrimSuffix(line, "\r")

	if strings.Contains(line, "load") {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return Command{}, false
		}
		return Command{Kind: CommandLoad, Path: fields[1]}, true
	}

	if line == "fullscreen" {
		return Command{Kind: CommandFullscreen}, true
	}

	return Command{}, false
}
