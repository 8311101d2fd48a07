//	@title			Media Gateway API
//	@version		1.0
//	@description	Capability-scoped upload/download proxy with image validation and transformation.
//
//	@host		localhost:8080
//	@BasePath	/

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/kastel/media-proxy/internal/config"
	"github.com/kastel/media-proxy/internal/icon"
	"github.com/kastel/media-proxy/internal/media"
	appMiddleware "github.com/kastel/media-proxy/internal/middleware"
	"github.com/kastel/media-proxy/internal/upstream"

	_ "github.com/kastel/media-proxy/docs/swagger"
)

func main() {
	cfg := config.Load()

	backend := upstream.NewBackend(cfg.BackendURL, cfg.BackendSecret)
	store := upstream.NewStore()
	resizer := icon.NewResizer(icon.ImagingCodec{})
	converter := icon.NewConverter(cfg.ConvertURL)

	// Upstream failure bodies are relayed verbatim everywhere except production.
	handler := media.NewHandler(backend, store, resizer, converter, !cfg.IsProduction())

	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(appMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Swagger UI — available at http://localhost:8080/swagger/
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	handler.Routes(r)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine; wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.AppEnv).Msg("gateway listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	<-quit
	log.Info().Msg("shutting down gracefully")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}

	log.Info().Msg("server stopped")
}
