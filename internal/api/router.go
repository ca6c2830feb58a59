package api

import (
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/fumisawa/koescribe/internal/api/handlers"
	"github.com/fumisawa/koescribe/internal/api/middleware"
	"github.com/fumisawa/koescribe/internal/config"
	"github.com/fumisawa/koescribe/internal/transcribe"
)

func NewRouter(engine transcribe.Transcriber, logger *zap.Logger, cfg *config.Config) *chi.Mux {
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()

	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(cors.Handler(middleware.CORSOptions(cfg.CORSOrigins)))

	transcribeHandler := handlers.NewTranscribeHandler(engine, logger)

	r.Get("/", handlers.Health)
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", handlers.Health)

		r.Group(func(r chi.Router) {
			r.Use(middleware.MaxBodySize(cfg.UploadLimitMB * 1024 * 1024))
			r.Post("/transcribe", transcribeHandler.Transcribe)
		})
	})

	return r
}
