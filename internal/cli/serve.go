package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fumisawa/koescribe/internal/api"
	"github.com/fumisawa/koescribe/internal/config"
	"github.com/fumisawa/koescribe/internal/transcribe"
)

func newServeCmd(app *appState) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the transcription HTTP API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Load()
			if port != 0 {
				cfg.Port = port
			}

			engine, err := transcribe.NewExecEngine(app.log())
			if err != nil {
				return err
			}

			router := api.NewRouter(engine, app.log(), cfg)
			addr := fmt.Sprintf(":%d", cfg.Port)
			app.log().Info("starting API server", zap.String("addr", addr))
			return serveHTTP(cmd.Context(), app, addr, router)
		},
	}

	bindLoggingFlags(cmd, app)
	cmd.Flags().IntVar(&port, "port", 0, "Listen port (defaults to KOESCRIBE_PORT or 8000)")
	return cmd
}

// serveHTTP runs the server until the command context is cancelled, then
// drains in-flight requests briefly before returning.
func serveHTTP(ctx context.Context, app *appState, addr string, handler http.Handler) error {
	server := &http.Server{Addr: addr, Handler: handler}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		app.log().Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}
