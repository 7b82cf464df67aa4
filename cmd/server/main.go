package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"track-runner/server/internal/app"
)

func main() {
	var (
		configPath string
		addr       string
	)

	root := &cobra.Command{
		Use:   "track-runner-server",
		Short: "Runs the race simulation server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return app.Run(ctx, app.Options{ConfigPath: configPath, Addr: addr})
		},
		SilenceUsage: true,
	}

	root.Flags().StringVar(&configPath, "config", "", "path to a YAML config file")
	root.Flags().StringVar(&addr, "addr", "", "listen address override (e.g. :8080)")

	if err := root.Execute(); err != nil {
		log.Fatalf("%v", err)
	}
}
