/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/allbin/go-k720"
	"github.com/allbin/go-k720/internal/metrics"
	"github.com/allbin/go-k720/internal/operate"
)

// operateCmd represents the operate command
var operateCmd = &cobra.Command{
	Use:   "operate",
	Short: "Run the card-handling loop",
	Long: `Reset the dispenser, then repeatedly present a card at the outside
position, wait until it reaches sensor 1, read its S50 id and move it to the
take position.

A failed cycle is logged, the dispenser is reset and the loop carries on at
the --interval pace. Stop with ctrl+c. With --metrics-addr the loop serves
Prometheus metrics while it runs.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		maxCycles, _ := cmd.Flags().GetInt("cycles")

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		reg := metrics.NewRegistry()
		m := metrics.NewTransactionMetrics(reg)

		dev, path, err := openDevice(cfg, logger, k720.WithObserver(m))
		if err != nil {
			return err
		}
		defer dev.Close()

		if cfg.Metrics.Addr != "" {
			srv := newMetricsServer(cfg.Metrics.Addr, cfg.Metrics.Path, metrics.Handler(reg))
			go serveMetrics(ctx, srv, logger)
		}

		runner, err := operate.NewRunner(dev, operate.Config{
			Limiter:      rate.NewLimiter(rate.Every(cfg.Operate.Interval), cfg.Operate.Burst),
			PollAttempts: cfg.Operate.PollAttempts,
			MaxCycles:    maxCycles,
			Metrics:      m,
			Logger:       logger,
			OnCard:       printCard,
		})
		if err != nil {
			return err
		}

		fmt.Printf("%s Operating dispenser %s on %s (ctrl+c to stop)\n",
			infoStyle.Render("⚡"), dev.Address(), path)
		if err := runner.Run(ctx); err != nil {
			return err
		}
		fmt.Printf("%s %d card(s) handled\n", successStyle.Render("✓"), runner.Cycles())
		return nil
	},
}

func printCard(c operate.Card) {
	id := "unreadable"
	if c.Reply.OK && len(c.Reply.CardID) > 0 {
		id = strings.ToUpper(fmt.Sprintf("%x", c.Reply.CardID))
	}
	fmt.Printf("%s %s card %s\n", successStyle.Render("✓"), labelStyle.Render(c.CycleID[:8]), id)
}

func newMetricsServer(addr, path string, h http.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle(path, h)
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func serveMetrics(ctx context.Context, srv *http.Server, l *zap.Logger) {
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	l.Info("serving metrics", zap.String("addr", srv.Addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		l.Error("metrics server", zap.Error(err))
	}
}

func init() {
	rootCmd.AddCommand(operateCmd)

	operateCmd.Flags().Duration("interval", 0, "Minimum time between polls and retries (default 500ms)")
	operateCmd.Flags().String("metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9720")
	operateCmd.Flags().Int("cycles", 0, "Stop after this many cards (0 runs until interrupted)")

	bindLocalFlag(operateCmd, "operate.interval", "interval")
	bindLocalFlag(operateCmd, "metrics.addr", "metrics-addr")
}

func bindLocalFlag(cmd *cobra.Command, key, flag string) {
	if err := v.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
		panic(err)
	}
}
