package main

import (
	"context"
	"log"
	"os"
	"os/signal"

	"github.com/dnldd/chartfeed/service"
)

// handleTermination processes context cancellation signals or interrupt signals from the OS.
func handleTermination(ctx context.Context, cancel context.CancelFunc) {
	// Listen for interrupt signals.
	signals := []os.Signal{os.Interrupt}
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, signals...)

	// Wait for the context to be cancelled or an interrupt signal.
	for {
		select {
		case <-ctx.Done():
			return

		case <-interrupt:
			cancel()
		}
	}
}

func main() {
	var cfg Config
	err := loadConfig(&cfg, "")
	if err != nil {
		log.Printf("loading config: %v", err)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	feedCfg := service.ChartFeedConfig{
		Markets:            cfg.Markets,
		FMPAPIKey:          cfg.FMPAPIKey,
		FMPBaseURL:         cfg.FMPBaseURL,
		FMPLegacyURL:       cfg.FMPLegacyURL,
		Timeout:            cfg.Timeout,
		LookbackDays:       cfg.LookbackDays,
		Replay:             cfg.Replay,
		ReplayDataFilepath: cfg.ReplayDataFilepath,
		DBEndpoint:         cfg.DBEndpoint,
		DBUser:             cfg.DBUser,
		DBPass:             cfg.DBPass,
		CacheSize:          cfg.CacheSize,
	}
	feed, err := service.NewChartFeed(ctx, &feedCfg)
	if err != nil {
		log.Printf("creating chart feed service: %v", err)
		return
	}

	go handleTermination(ctx, cancel)

	err = feed.Run(ctx)
	if err != nil {
		log.Printf("running chart feed service: %v", err)
	}
}
