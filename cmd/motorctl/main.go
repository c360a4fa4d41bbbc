package main

import (
	"context"
	"flag"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"motorctl/internal/config"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "./motorctl.yaml", "Path to YAML config")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	rt, err := newRuntime(cfg)
	if err != nil {
		log.Fatalf("runtime init failed: %v", err)
	}
	if cfg.Display.Mode == "termbox" {
		// Log lines would tear the full-screen display.
		log.SetOutput(io.Discard)
	}

	log.Printf("motorctl starting")
	log.Printf("backend=%s setpoint=%d stall_timeout=%s pwm_period_ms=%d",
		cfg.Hardware.Backend, cfg.Control.Setpoint, cfg.Control.StallTimeout, cfg.PWM.PeriodMs)

	if err := rt.Run(ctx); err != nil {
		log.Printf("control loop failed: %v", err)
	}
	if err := rt.Close(); err != nil {
		log.Printf("shutdown: %v", err)
	}
	log.Printf("motorctl stopping")
}
