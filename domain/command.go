package domain

import (
	"strconv"
	"strings"
)

// Command is one parsed line of client input.
type Command interface {
	isCommand()
}

type BroadcastCommand struct {
	Body string
}

type PrivateCommand struct {
	Recipient string
	Body      string
}

// HistoryCommand requests the most recent entries of the message log.
// Limit 0 means "use the server default".
type HistoryCommand struct {
	Limit int
}

type SearchCommand struct {
	Keyword string
}

// InvalidCommand carries a parse error back to the sender as a system line.
type InvalidCommand struct {
	Reason string
}

func (BroadcastCommand) isCommand() {}
func (PrivateCommand) isCommand()   {}
func (HistoryCommand) isCommand()   {}
func (SearchCommand) isCommand()    {}
func (InvalidCommand) isCommand()   {}

// Parse interprets a raw input line. It is total: every input yields a
// Command, and anything that is not a recognized slash command is a
// broadcast of the line verbatim.
func Parse(line string) Command {
	trimmed := strings.TrimSpace(line)
	fields := strings.Fields(trimmed)
	if len(fields) == 0 {
		return BroadcastCommand{Body: line}
	}

	// The first whitespace-separated token dispatches.
	switch fields[0] {
	case "/msg":
		return parsePrivate(trimmed)
	case "/history":
		return parseHistory(trimmed)
	case "/search":
		return parseSearch(trimmed)
	default:
		return BroadcastCommand{Body: line}
	}
}

func parsePrivate(line string) Command {
	rest := strings.TrimSpace(strings.TrimPrefix(line, "/msg"))
	parts := strings.SplitN(rest, " ", 2)
	if len(parts) < 2 || parts[0] == "" || strings.TrimSpace(parts[1]) == "" {
		return InvalidCommand{Reason: "usage: /msg <username> <message>"}
	}
	return PrivateCommand{Recipient: parts[0], Body: strings.TrimSpace(parts[1])}
}

func parseHistory(line string) Command {
	rest := strings.TrimSpace(strings.TrimPrefix(line, "/history"))
	if rest == "" {
		return HistoryCommand{}
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n <= 0 {
		return InvalidCommand{Reason: "usage: /history [n]"}
	}
	return HistoryCommand{Limit: n}
}

func parseSearch(line string) Command {
	keyword := strings.TrimSpace(strings.TrimPrefix(line, "/search"))
	if keyword == "" {
		return InvalidCommand{Reason: "usage: /search <keyword>"}
	}
	return SearchCommand{Keyword: keyword}
}
