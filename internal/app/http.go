package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type pinger interface {
	Ping(ctx context.Context) error
}

// newRouter serves /healthz and, when webhook is non-nil, POST /webhook/{secret}.
func newRouter(log *zap.Logger, db pinger, webhook http.Handler, secret string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := db.Ping(ctx); err != nil {
			log.Warn("healthz: storage unavailable", zap.Error(err))
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	if webhook != nil {
		r.Post("/webhook/{secret}", func(w http.ResponseWriter, r *http.Request) {
			if chi.URLParam(r, "secret") != secret {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			webhook.ServeHTTP(w, r)
		})
	}
	return r
}
