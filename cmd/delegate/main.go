package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/delegationapp/delegate/pkg/config"
)

func main() {
	root := &cobra.Command{
		Use:          "delegate",
		Short:        "DelegationApp announcement client engine",
		SilenceUsage: true,
	}
	root.AddCommand(newServeCmd(), newDraftCmd(), newAdsCmd())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}
