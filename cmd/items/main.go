package main

import (
	"context"

	"itemshare/internal/items/bootstrap"
	"itemshare/pkg/app"
	"itemshare/pkg/config"
	"itemshare/pkg/contracts"
)

const ServiceName = "items-service"

func main() {
	cfg := config.Load(ServiceName)
	cfg.Log.Info("Starting Items service")

	components, err := bootstrap.Build(cfg)
	if err != nil {
		cfg.Log.Fatal("Failed to initialize item services", "error", err)
	}

	application := app.NewApplication()
	application.SetApp(cfg, components.Ping, components.Handler)
	application.OnShutdown(contracts.StopFunc(func(ctx context.Context) error {
		components.Close(ctx, cfg)
		return nil
	}))
	application.Run()
}
