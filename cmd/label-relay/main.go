package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"label-relay/internal/chat"
	"label-relay/internal/config"
	"label-relay/internal/github"
	"label-relay/internal/relay"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "label-relay",
		Short:        "Relay GitHub label events to Slack or Telegram",
		SilenceUsage: true,
	}

	var envFiles []string
	rootCmd.PersistentFlags().StringArrayVar(&envFiles, "env-file", nil, "Env file to load before reading the environment (default .env)")

	var port string
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the webhook server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(envFiles...)
			if err != nil {
				return err
			}
			if port != "" {
				cfg.Port = port
			}
			return runWithSignals(func(ctx context.Context) error {
				return serve(ctx, cfg)
			})
		},
	}
	serveCmd.Flags().StringVar(&port, "port", "", "Port to listen on (overrides PORT)")

	var pattern string
	matchCmd := &cobra.Command{
		Use:   "match <label>...",
		Short: "Show which label names the relevance pattern accepts",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if pattern == "" {
				cfg, err := config.Load(envFiles...)
				if err != nil {
					return err
				}
				pattern = cfg.LabelPattern
			}
			return printMatches(cmd, relay.NewFilter(pattern), args)
		},
	}
	matchCmd.Flags().StringVar(&pattern, "pattern", "", "Pattern to test instead of LABEL_PATTERN")

	rootCmd.AddCommand(serveCmd, matchCmd)
	return rootCmd
}

func printMatches(cmd *cobra.Command, filter *relay.Filter, labels []string) error {
	if err := filter.Err(); err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, label := range labels {
		verdict := "skip"
		if filter.Match(label) {
			verdict = "relay"
		}
		fmt.Fprintf(out, "%s\t%s\n", verdict, label)
	}
	return nil
}

func serve(ctx context.Context, cfg *config.Config) error {
	filter := relay.NewFilter(cfg.LabelPattern)
	if err := filter.Err(); err != nil {
		log.Printf("Label pattern is unusable, no events will be relayed: %v", err)
	}

	sender, err := chat.FromConfig(cfg)
	if err != nil {
		return err
	}

	webhooks := github.NewWebhookServer(relay.New(filter, sender))
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           webhooks.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Printf("Server listening on port %s (pattern %s)", cfg.Port, filter)
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func runWithSignals(run func(context.Context) error) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
