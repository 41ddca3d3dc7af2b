package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/anduinlabs/expenseflow/internal/api"
	"github.com/anduinlabs/expenseflow/internal/service"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Long: `Expose calendar matching, receipt parsing, and the expense store over
a JSON HTTP API. Services without credentials configured respond 503 on
their routes; everything else keeps working.`,
		RunE: runServe,
	}

	cmd.Flags().String("addr", "", "Listen address (default :8090)")
	_ = viper.BindPFlag("server.addr", cmd.Flags().Lookup("addr"))

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg := api.DefaultConfig()
	if addr := viper.GetString("server.addr"); addr != "" {
		cfg.Addr = addr
	}

	// Optional services: a missing credential disables the route, not the server.
	matcher, err := newMatcher(ctx)
	if err != nil {
		slog.Warn("calendar matching disabled", "error", err)
		matcher = nil
	}

	var feed service.TransactionFeed
	if client, brexErr := newBrexClient(); brexErr == nil {
		feed = client
	} else {
		slog.Warn("Brex feed disabled", "error", brexErr)
	}

	var parser service.ReceiptParser
	if p, parserErr := newReceiptParser(); parserErr == nil {
		parser = p
	} else {
		slog.Warn("receipt parsing disabled", "error", parserErr)
	}

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	server := api.NewServer(cfg, matcher, feed, parser, store, slog.Default().With("component", "api"))
	return server.ListenAndServe(ctx)
}
