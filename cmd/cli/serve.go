package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hailam/chaoslog/internal/config"
	"github.com/hailam/chaoslog/internal/server"
)

func newServeCmd() *cobra.Command {
	var dir, addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a corpus directory read-only over HTTP.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			srv, err := server.New(dir, slog.Default())
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cmd.Printf("Serving %s on %s (Ctrl+C to stop)\n", dir, addr)
			return srv.ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "d", config.Default().OutputDir, "Directory to serve")
	cmd.Flags().StringVar(&addr, "addr", ":8000", "Listen address")
	return cmd
}
