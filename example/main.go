package main

import (
	"fmt"
	"os"

	_ "github.com/joho/godotenv/autoload"

	"github.com/beaconlog/beacon"
	"github.com/beaconlog/beacon/logger"
)

func main() {
	cfg := &logger.Config{
		IncludeCaller: true,
		ForceEmit:     beacon.EnvVarOrBool("BEACON_FORCE_EMIT", false),
		Host:          beacon.EnvVarOrString("BEACON_HOST", "localhost"),
		Levels: map[string]logger.LevelConfig{
			"audit": {Color: "cyan", ProductionVisible: logger.Bool(true)},
		},
	}

	if u := beacon.EnvVarOrURL("BEACON_WEBHOOK_URL", ""); u != nil {
		cfg.Webhook = &logger.WebhookConfig{
			Enabled:    true,
			URL:        u.String(),
			RatePerSec: 10,
		}
	}

	l, err := logger.New("Example", cfg, logger.WithOutput(logger.NewGroupConsole(os.Stdout)))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	l.Important("starting up", map[string]any{"pid": os.Getpid(), "env": l.Env()})

	l.BeginGroup("startup", "checks")
	l.Info("cache warmed", nil)
	l.Log("routes mounted", map[string]any{"count": 12})
	l.EndGroup()

	l.Emit("audit", "user signed in", map[string]any{"user": 1})
	l.Warn("disk space low", map[string]any{"free": "512MB"})
	l.Error("payment failed", map[string]any{"order": 991})
}
