package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"service-enrollment/internal/requestctx"
	"service-enrollment/internal/service"
)

const userIDHeader = "X-User-ID"

// requireIdentity resolves the caller named by X-User-ID and stores the
// identity on the request context.
func requireIdentity(resolver service.IdentityResolver, logger *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := strings.TrimSpace(r.Header.Get(userIDHeader))
		if header == "" {
			writeStatus(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		userID, err := uuid.Parse(header)
		if err != nil {
			writeStatus(w, http.StatusBadRequest, "Invalid user ID")
			return
		}

		identity, err := resolver.Resolve(r.Context(), userID)
		if err != nil {
			if errors.Is(err, service.ErrUnauthenticated) {
				writeStatus(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			logger.Error("identity resolution failed", zap.String("user_id", userID.String()), zap.Error(err))
			if service.IsRetryable(err) {
				w.Header().Set("Retry-After", "1")
				writeStatus(w, http.StatusServiceUnavailable, "Temporarily unavailable, retry")
				return
			}
			writeStatus(w, http.StatusBadGateway, "Identity lookup failed")
			return
		}

		next.ServeHTTP(w, r.WithContext(requestctx.WithIdentity(r.Context(), identity)))
	})
}

func writeStatus(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func logRequests(logger *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)

		logger.Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", recorder.status),
			zap.Duration("duration", time.Since(started)),
		)
	})
}
