package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"itemshare/internal/items/bootstrap"
	"itemshare/internal/items/service"
	"itemshare/pkg/config"
)

const JobName = "advancer"

func main() {
	cfg := config.Load(JobName)
	cfg.Log.Info("Starting advancer")

	components, err := bootstrap.Build(cfg)
	if err != nil {
		cfg.Log.Fatal("Failed to initialize item services", "error", err)
	}
	defer components.Close(context.Background(), cfg)

	runner, err := service.NewRunner(components.Advancer, cfg.AdvancerSchedule, cfg.Location, cfg.RequestTimeout, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to schedule advancer", "error", err)
	}
	runner.Start()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	sig := <-shutdown
	cfg.Log.Info("Shutdown signal received", "signal", sig)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := runner.Stop(ctx); err != nil {
		cfg.Log.Error("Advancer did not stop cleanly", "error", err)
	}
	cfg.Log.Info("Advancer stopped")
}
