package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/tournevent/kargo/internal/server"
	"github.com/tournevent/kargo/pkg/shipper"
	"go.uber.org/zap"
)

var version = "0.0.1"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "kargo",
	Short:   "Kargo - Turkish multi-carrier shipment integration toolkit",
	Version: version,
}

var trackCmd = &cobra.Command{
	Use:   "track <carrier> <reference>",
	Short: "Look up a shipment with the configured carrier account",
	Args:  cobra.ExactArgs(2),
	RunE:  runTrack,
}

var tokensCmd = &cobra.Command{
	Use:   "tokens <carrier>",
	Short: "List cached tokens of a carrier (keys and expiry only)",
	Args:  cobra.ExactArgs(1),
	RunE:  runTokens,
}

var carriersCmd = &cobra.Command{
	Use:   "carriers",
	Short: "List supported carriers",
	Args:  cobra.NoArgs,
	RunE:  runCarriers,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the carrier operations over HTTP",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

var (
	trackTestMode bool
	showMetrics   bool
)

func init() {
	rootCmd.PersistentFlags().BoolVar(&showMetrics, "metrics", false, "print carrier metrics to stderr on exit")
	trackCmd.Flags().BoolVar(&trackTestMode, "test", false, "use the carrier's test environment")
	rootCmd.AddCommand(trackCmd, tokensCmd, carriersCmd, serveCmd)
}

func runTrack(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	carrier, reference := args[0], args[1]

	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.finish(cmd)

	account, err := a.cfg.Account(carrier)
	if err != nil {
		return err
	}

	res, err := a.kargo.Registry().Track(ctx, carrier, &shipper.TrackRequest{
		Account:   account,
		Reference: reference,
		TestMode:  trackTestMode,
	})
	if err != nil {
		a.logger.Error("Tracking failed",
			zap.String("carrier", carrier),
			zap.String("reference", reference),
			zap.Error(err),
		)
		return err
	}
	return writeJSON(cmd.OutOrStdout(), res)
}

type tokenEntry struct {
	Key       string    `json:"key"`
	ExpiresAt time.Time `json:"expiresAt"`
	Usable    bool      `json:"usable"`
}

func runTokens(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	carrier := args[0]

	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.finish(cmd)

	manager, ok := a.kargo.TokenManagers()[carrier]
	if !ok {
		return fmt.Errorf("%s does not use bearer tokens", carrier)
	}
	all, err := manager.Store().All(ctx)
	if err != nil {
		return fmt.Errorf("reading token store: %w", err)
	}

	now := time.Now()
	entries := make([]tokenEntry, 0, len(all))
	for key, tok := range all {
		entries = append(entries, tokenEntry{
			Key:       key,
			ExpiresAt: tok.ExpiresAt.UTC(),
			Usable:    tok.Usable(now, 0),
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	return writeJSON(cmd.OutOrStdout(), entries)
}

func runCarriers(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd.Context())
	if err != nil {
		return err
	}
	defer a.finish(cmd)

	for _, name := range a.kargo.Registry().Names() {
		fmt.Fprintln(cmd.OutOrStdout(), name)
	}
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.finish(cmd)

	srv := server.New(server.Config{
		Port:     a.cfg.Port,
		Accounts: a.cfg.Account,
		Gatherer: a.metrics,
	}, a.kargo.Registry(), a.logger)
	return srv.Run(ctx)
}

// finish prints metrics when asked and releases the app's resources.
func (a *app) finish(cmd *cobra.Command) {
	if showMetrics {
		if err := a.dumpMetrics(cmd.ErrOrStderr()); err != nil {
			a.logger.Warn("Failed to write metrics", zap.Error(err))
		}
	}
	a.close(cmd.Context())
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
