package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fumisawa/koescribe/internal/config"
	"github.com/fumisawa/koescribe/internal/transcribe"
	"github.com/fumisawa/koescribe/internal/webform"
)

func newWebCmd(app *appState) *cobra.Command {
	var (
		port    int
		backend string
	)

	cmd := &cobra.Command{
		Use:   "web",
		Short: "Run the upload web form on its own port",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Load()
			if port != 0 {
				cfg.WebPort = port
			}
			if backend != "" {
				cfg.ServerURL = backend
			}

			// The form proxies to the API server by default; --local
			// runs the whisper executable in-process instead.
			var (
				transcriber transcribe.Transcriber
				err         error
			)
			if app.local {
				transcriber, err = transcribe.NewExecEngine(app.log())
				if err != nil {
					return err
				}
			} else {
				transcriber = transcribe.NewClient(cfg.ServerURL, app.log())
			}

			server, err := webform.NewServer(transcriber, app.log(), cfg.UploadLimitMB*1024*1024)
			if err != nil {
				return err
			}

			addr := fmt.Sprintf(":%d", cfg.WebPort)
			app.log().Info("starting web form", zap.String("addr", addr))
			return serveHTTP(cmd.Context(), app, addr, server.Handler())
		},
	}

	bindLoggingFlags(cmd, app)
	cmd.Flags().IntVar(&port, "port", 0, "Listen port (defaults to KOESCRIBE_WEB_PORT or 8501)")
	cmd.Flags().StringVar(&backend, "backend", "", "Base URL of the API server the form submits to")
	cmd.Flags().BoolVar(&app.local, "local", app.local, "Run the whisper executable directly instead of calling the server")
	return cmd
}
