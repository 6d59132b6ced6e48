package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mirrorsync/internal/sink"
)

var sinkKeep int

var sinkCmd = &cobra.Command{
	Use:   "sink",
	Short: "Run a local endpoint that accepts waitlist posts",
	Long: `Serves POST/GET /waitlist, GET /waitlist/entries, /healthz and /metrics.
Requests must be signed when transport.http.signing_secret is set.`,
	RunE: runSink,
}

func init() {
	sinkCmd.Flags().IntVar(&sinkKeep, "keep", 100, "Number of recent entries kept in memory")
}

func runSink(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	h := sink.NewHandler(cfg.Transport.HTTP.SigningSecret, sinkKeep, log)
	srv := &http.Server{
		Addr:              cfg.Sink.Port,
		Handler:           sink.NewRouter(h, log),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Starting waitlist sink", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	log.Info("Shutting down waitlist sink")
	return srv.Shutdown(shutdownCtx)
}
