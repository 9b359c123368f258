// cmd/server serves one rule-programmable game over HTTP.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"chess_architect/internal/ai"
	"chess_architect/internal/game"
	"chess_architect/internal/httpx"
	"chess_architect/internal/ruledoc"
	"chess_architect/internal/session"
	"chess_architect/internal/shared"
)

func main() {
	// Flags (env fallbacks). Default: no rules, no computer opponent.
	addr := flag.String("addr", getenv("CHESS_ADDR", ":8080"), "listen address")
	rulesPath := flag.String("rules", getenv("CHESS_RULES", ""), "rule document file (JSON object or array)")
	aiOn := flag.Bool("ai", getenb("CHESS_AI", false), "play one side with the computer")
	aiLevel := flag.String("ai-level", getenv("CHESS_AI_LEVEL", "medium"), fmt.Sprintf("computer level %v", ai.Levels()))
	aiColor := flag.String("ai-color", getenv("CHESS_AI_COLOR", "black"), "side played by the computer")
	tick := flag.Duration("tick", getdur("CHESS_TICK", time.Second), "ordnance clock period; 0 disables")
	flag.Parse()

	rules, err := loadRules(*rulesPath)
	fatalIf(err, "rules")

	settings := session.AISettings{Level: *aiLevel}
	if *aiOn {
		color, ok := shared.ParseColor(*aiColor)
		fatalIfBool(!ok, fmt.Errorf("invalid ai color %q; valid: white, black", *aiColor))
		settings.Enabled = true
		settings.Color = color
		log.Printf("Computer plays %s at level %s", color, *aiLevel)
	}

	sess, err := session.New(session.Config{Rules: rules, AI: settings, Tick: *tick})
	fatalIf(err, "session")
	log.Printf("Session %s with %d rule(s), tick %s", sess.ID, len(rules), *tick)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		if err := sess.Run(ctx); err != nil && ctx.Err() == nil {
			log.Printf("session stopped: %v", err)
		}
	}()

	srv := httpx.NewServer(sess)
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Close(shutdown); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()
	if err := srv.Listen(*addr); err != nil {
		log.Fatal(err)
	}
}

func loadRules(path string) ([]game.Rule, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	rules, warnings, err := ruledoc.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	for _, w := range warnings {
		log.Printf("rule warning: %s", w)
	}
	return rules, nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenb(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "t", "yes", "y", "on":
			return true
		case "0", "false", "f", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(strings.TrimSpace(v)); err == nil {
			return d
		}
		log.Printf("ignoring %s=%q: not a duration", key, v)
	}
	return def
}

func fatalIf(err error, label string) {
	if err != nil {
		log.Fatalf("%s: %v", label, err)
	}
}

func fatalIfBool(b bool, err error) {
	if b {
		log.Fatal(err)
	}
}
