package ai

import (
	"fmt"
	"strings"
)

// Config tunes the search. A wider SelectionRange gives weaker, more varied
// play.
type Config struct {
	Level          string `json:"level"`
	Depth          int    `json:"depth"`
	SelectionRange int    `json:"selectionRange"`
}

var presets = map[string]Config{
	"easy":   {Level: "easy", Depth: 1, SelectionRange: 5},
	"medium": {Level: "medium", Depth: 2, SelectionRange: 3},
	"hard":   {Level: "hard", Depth: 3, SelectionRange: 1},
}

// Preset returns the named difficulty level.
func Preset(level string) (Config, error) {
	cfg, ok := presets[strings.ToLower(strings.TrimSpace(level))]
	if !ok {
		return Config{}, fmt.Errorf("unknown ai level %q", level)
	}
	return cfg, nil
}

// Levels lists the preset names from weakest to strongest.
func Levels() []string { return []string{"easy", "medium", "hard"} }
