package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/hoa-onboard/internal/ingest"
	"github.com/sells-group/hoa-onboard/internal/resolve"
	"github.com/sells-group/hoa-onboard/internal/server"
	"github.com/sells-group/hoa-onboard/internal/store"
)

var servePort int

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the webhook and review API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if servePort != 0 {
			cfg.Server.Port = servePort
		}
		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:           buildRouter(st),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				zap.L().Error("server shutdown", zap.Error(err))
			}
		}()

		zap.L().Info("starting server", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// buildRouter wires the HTTP surface against st using the loaded config.
// LLM routes answer 503 when no key is configured.
func buildRouter(st store.Store) http.Handler {
	deps := server.Deps{
		Store:       st,
		Ingester:    ingest.New(resolve.NewResolver(st), st),
		Mailer:      newMailService(st),
		PageSize:    cfg.Server.PageSize,
		CORSOrigins: cfg.Server.CORSOrigins,
	}
	if p := newProcessor(st); p != nil {
		deps.Processor = p
	} else {
		zap.L().Warn("anthropic key not configured, parse-and-generate is disabled")
	}
	return server.NewRouter(deps)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
