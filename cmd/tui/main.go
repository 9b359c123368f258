// cmd/tui plays a rule-programmable game in the terminal.
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"chess_architect/internal/ai"
	"chess_architect/internal/game"
	"chess_architect/internal/shared"
	"chess_architect/internal/tui"
)

func main() {
	rulesPath := flag.String("rules", "", "rule document file (JSON object or array)")
	aiLevel := flag.String("ai", "", fmt.Sprintf("computer level %v; empty plays both sides by hand", ai.Levels()))
	aiColor := flag.String("ai-color", "black", "side played by the computer")
	tick := flag.Duration("tick", time.Second, "ordnance clock period; 0 disables")
	seed := flag.Int64("seed", 0, "random seed; 0 uses the clock")
	flag.Parse()

	var rules []game.Rule
	if *rulesPath != "" {
		loaded, warnings, err := tui.LoadRules(*rulesPath)
		if err != nil {
			log.Fatalf("rules: %v", err)
		}
		for _, w := range warnings {
			log.Printf("rule warning: %s", w)
		}
		rules = loaded
	}

	color, ok := shared.ParseColor(*aiColor)
	if !ok {
		log.Fatalf("invalid ai color %q; valid: white, black", *aiColor)
	}

	opts := tui.Options{
		Rules:   rules,
		AI:      *aiLevel != "",
		AIColor: color,
		AILevel: *aiLevel,
		Tick:    *tick,
		Seed:    *seed,
	}
	if err := tui.Run(opts); err != nil {
		log.Fatal(err)
	}
}
