package chi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog"
	"github.com/marcelsud/webhook-outbox/webhook"
)

// Handlers sets up the operator API routes; metricsHandler may be nil
func Handlers(ctx context.Context, webhookService webhook.UseCase, metricsHandler http.Handler) *chi.Mux {
	logger := httplog.NewLogger("webhook-outbox", httplog.Options{
		JSON: true,
	})

	r := chi.NewRouter()
	r.Use(httplog.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	r.Route("/v1", func(r chi.Router) {
		r.Route("/subscribers/{subscriber_id}", func(r chi.Router) {
			r.Method(http.MethodPost, "/events/{event}", postEvent(webhookService))
			r.Method(http.MethodPost, "/events/{event}/redeliver", postRedeliver(webhookService))
			r.Method(http.MethodPost, "/test", postTestFire(webhookService))
			r.Method(http.MethodGet, "/attempts", getAttempts(webhookService))
		})

		r.Method(http.MethodPost, "/events/{event}", postPublish(webhookService))
	})

	return r
}
