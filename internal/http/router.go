package http

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"service-enrollment/internal/http/handlers"
	"service-enrollment/internal/service"
)

// Pinger reports whether storage is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Router struct {
	mux     *http.ServeMux
	handler http.Handler
}

func NewRouter(
	enrollmentHandler *handlers.EnrollmentHandler,
	adminHandler *handlers.AdminHandler,
	resolver service.IdentityResolver,
	pinger Pinger,
	logger *zap.Logger,
) *Router {
	api := http.NewServeMux()
	enrollmentHandler.Register(api)
	adminHandler.Register(api)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", healthHandler(pinger, logger))
	mux.Handle("/", requireIdentity(resolver, logger, api))

	return &Router{mux: mux, handler: logRequests(logger, mux)}
}

func (r *Router) Handler() http.Handler {
	return r.handler
}

func healthHandler(pinger Pinger, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := pinger.Ping(r.Context()); err != nil {
			logger.Warn("health check failed", zap.Error(err))
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}
