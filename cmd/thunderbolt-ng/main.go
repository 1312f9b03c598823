package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"thunderbolt-ng/internal/config"
	"thunderbolt-ng/internal/indicator"
	"thunderbolt-ng/internal/monitor"
	"thunderbolt-ng/internal/web"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "./thunderbolt.yaml", "Path to YAML config")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Printf("no config at %s, using defaults", configPath)
			cfg = config.Default()
		} else {
			log.Fatalf("config load failed: %v", err)
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	log.Printf("thunderbolt-ng starting")

	mon := monitor.New(cfg.Monitor.StaleAfter.Std())

	ingest := monitor.NewService(monitor.Config{
		Source:     cfg.Serial.Source,
		Device:     cfg.Serial.Device,
		Baud:       cfg.Serial.Baud,
		ReplayPath: cfg.Serial.Replay.Path,
		ReplayLoop: cfg.Serial.Replay.Loop,
	}, mon)
	if err := ingest.Start(ctx); err != nil {
		// Keep serving the (stale) status page; the operator can see the
		// failure in the log and on the dark indicators.
		log.Printf("ingest start failed: %v", err)
	}
	defer ingest.Close()

	if cfg.Indicator.Enable {
		lines, err := indicator.Open(indicator.Config{
			Enable:         true,
			DisciplinedPin: cfg.Indicator.DisciplinedPin,
			ConnectedPin:   cfg.Indicator.ConnectedPin,
		})
		if err != nil {
			log.Printf("indicator init failed: %v", err)
		} else {
			defer lines.Close()
			svc := indicator.NewService(mon, lines, cfg.Indicator.Period.Std())
			go svc.Run(ctx)
			log.Printf("indicator pins disciplined=%d connected=%d period=%s",
				cfg.Indicator.DisciplinedPin, cfg.Indicator.ConnectedPin, cfg.Indicator.Period)
		}
	}

	log.Printf("web listening on %s", cfg.Web.Listen)
	go func() {
		if err := web.Serve(ctx, cfg.Web.Listen, mon); err != nil && ctx.Err() == nil {
			log.Printf("web server stopped: %v", err)
			cancel()
		}
	}()

	<-ctx.Done()
	log.Printf("thunderbolt-ng stopping")
}
