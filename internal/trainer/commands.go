package trainer

import "strings"

// Reply keyboard labels. A reply equal to one of them is always treated as
// the command, even when it happens to be the expected answer.
const (
	CommandAddWord    = "Добавить слово ➕"
	CommandDeleteWord = "Удалить слово🔙"
	CommandNext       = "Дальше ⏭"
	CommandStartOver  = "Начать заново"
)

type command int

const (
	cmdNone command = iota
	cmdStart
	cmdNext
	cmdAddWord
	cmdDeleteWord
)

// parseCommand maps a reply to a command. Telegram slash commands may carry
// a bot mention ("/start@wordcards_bot").
func parseCommand(text string) command {
	switch text {
	case CommandStartOver:
		return cmdStart
	case CommandNext:
		return cmdNext
	case CommandAddWord:
		return cmdAddWord
	case CommandDeleteWord:
		return cmdDeleteWord
	}

	if strings.HasPrefix(text, "/") {
		name := strings.TrimPrefix(strings.Fields(text + " ")[0], "/")
		if at := strings.IndexByte(name, '@'); at >= 0 {
			name = name[:at]
		}
		switch name {
		case "start", "cards":
			return cmdStart
		}
	}

	return cmdNone
}

// controlOptions are appended after the answer options of every prompt
func controlOptions() []string {
	return []string{CommandNext, CommandAddWord, CommandDeleteWord}
}
