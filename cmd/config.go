package main

import (
	"fmt"
	"time"
)

// ServerConfig is loaded from the environment; every knob has a default so
// a bare `termchat server` works out of the box.
type ServerConfig struct {
	Host                 string        `env:"HOST,default=0.0.0.0"`
	Port                 int           `env:"PORT,default=8080"`
	BadgerFilepath       string        `env:"BADGER_FILEPATH,default=/tmp/termchat/badger"`
	BlugeFilepath        string        `env:"BLUGE_FILEPATH,default=/tmp/termchat/bluge"`
	LogLevel             string        `env:"LOG_LEVEL,default=info"`
	HistoryLimit         int           `env:"HISTORY_LIMIT,default=10"`
	SearchLimit          int           `env:"SEARCH_LIMIT,default=50"`
	BufferSize           int           `env:"BUFFER_SIZE,default=256"`
	ConnectionBufferSize int           `env:"CONNECTION_BUFFER_SIZE,default=64"`
	RestartInterval      time.Duration `env:"RESTART_INTERVAL,default=1s"`
	CharReplacement      string        `env:"CHARACTER_REPLACEMENT,default=*"`
}

type ClientConfig struct {
	ServerURL string `env:"CHAT_SERVER_URL,default=ws://localhost:8080/ws"`
	LogLevel  string `env:"LOG_LEVEL,default=warn"`
}

// CharacterRune validates that the censoring replacement is one rune.
func CharacterRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf(
			"CHARACTER_REPLACEMENT must be a single character, got %q",
			str,
		)
	}
	return r[0], nil
}
