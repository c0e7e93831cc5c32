package main

import (
	"context"
	"fmt"
	"os"

	"itemshare/internal/cli"
	"itemshare/internal/items/bootstrap"
	"itemshare/pkg/config"
)

const ToolName = "itemctl"

func main() {
	load := func(ctx context.Context) (*cli.Services, func(), error) {
		cfg := config.Load(ToolName)
		components, err := bootstrap.Build(cfg)
		if err != nil {
			return nil, nil, err
		}
		return &cli.Services{
				Items:        components.Items,
				Reservations: components.Reservations,
				Advancer:     components.Advancer,
			}, func() {
				components.Close(context.Background(), cfg)
			}, nil
	}

	if err := cli.Execute(context.Background(), load, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
