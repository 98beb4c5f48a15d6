package handlers

import (
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/juancollazo-ch/magazord-sales-dashboard/internal/auth"
	apperrors "github.com/juancollazo-ch/magazord-sales-dashboard/internal/errors"
	"github.com/juancollazo-ch/magazord-sales-dashboard/internal/logging"
)

// WithLogging registra inicio y fin de cada request con campos compatibles
// con Cloud Logging y guarda el request id en el contexto.
func WithLogging(logger *zap.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = zap.L()
	}
	projectID := os.Getenv("GCP_PROJECT")
	if projectID == "" {
		projectID = os.Getenv("GOOGLE_CLOUD_PROJECT")
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			traceID := traceIDFrom(r.Header.Get("X-Cloud-Trace-Context"))
			if traceID == "" {
				traceID = uuid.NewString()
			}
			w.Header().Set("X-Request-ID", traceID)
			ctx := logging.WithRequestID(r.Context(), traceID)

			fields := []zap.Field{
				zap.String("request_id", traceID),
				zap.String("httpRequest.requestMethod", r.Method),
				zap.String("httpRequest.requestUrl", r.URL.Path),
				zap.String("httpRequest.remoteIp", r.RemoteAddr),
				zap.String("httpRequest.userAgent", r.UserAgent()),
			}
			if projectID != "" {
				fields = append(fields, zap.String("logging.googleapis.com/trace", fmt.Sprintf("projects/%s/traces/%s", projectID, traceID)))
			}
			logger.Info("Request started", fields...)

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			duration := time.Since(start)
			logger.Info("Request completed", append(fields,
				zap.Int("httpRequest.status", ww.Status()),
				zap.Int64("httpRequest.latency.milliseconds", duration.Milliseconds()),
			)...)
		})
	}
}

// traceIDFrom extrae TRACE_ID de "TRACE_ID/SPAN_ID;o=TRACE_TRUE".
func traceIDFrom(header string) string {
	if header == "" {
		return ""
	}
	if i := strings.IndexByte(header, '/'); i != -1 {
		return header[:i]
	}
	return header
}

// RequireSession exige un token emitido por /api/login, en
// "Authorization: Bearer <token>" o en X-Session-Token.
func RequireSession(sessions *auth.Sessions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get("X-Session-Token")
			if h := r.Header.Get("Authorization"); token == "" && strings.HasPrefix(h, "Bearer ") {
				token = strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
			}
			if _, ok := sessions.Validate(token); !ok {
				_ = WriteError(w, apperrors.ErrUnauthorized("missing or expired session", nil))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
