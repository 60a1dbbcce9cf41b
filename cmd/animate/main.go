package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vyvo/animate/pkg/config"
	"github.com/vyvo/animate/pkg/logging"
)

type rootOptions struct {
	cfg config.ClientConfig
}

func newRootCmd(cfg config.ClientConfig) *cobra.Command {
	opts := &rootOptions{cfg: cfg}

	root := &cobra.Command{
		Use:           "animate",
		Short:         "Turn still images into short looping videos",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.cfg.APIURL, "api-url", cfg.APIURL, "base URL of the animate server")
	root.PersistentFlags().DurationVar(&opts.cfg.RequestTimeout, "timeout", cfg.RequestTimeout, "per request timeout")

	root.AddCommand(newGenerateCmd(opts), newStatusCmd(opts))
	return root
}

func main() {
	cfg, err := config.LoadClient()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logging.Configure(logging.Config{Level: cfg.LogLevel, Output: os.Stderr, Console: true, Service: "animate-cli"})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(cfg).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
