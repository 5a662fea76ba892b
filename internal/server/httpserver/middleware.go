package httpserver

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/scorekeeper/internal/common"
	"github.com/dmitrijs2005/scorekeeper/internal/logging"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

type ctxKey string

const (
	userIDKey      ctxKey = "userID"
	requestInfoKey ctxKey = "requestInfo"
)

const (
	msgTokenMissing     = "Authorization token not present or invalid."
	msgTokenNotVerified = "Token not verified."
)

// UserIDFromContext returns the id stored by the auth middleware.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

// requestInfo lets inner handlers report details to the logging middleware,
// which only sees the outer request.
type requestInfo struct {
	userID string
}

// requireAuth admits only requests carrying a valid bearer token and stores
// the token's user id in the request context.
func (s *HTTPServer) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		header := r.Header.Get(common.AuthorizationHeaderName)
		if !strings.HasPrefix(header, common.BearerPrefix) {
			writeError(w, http.StatusUnauthorized, msgTokenMissing)
			return
		}

		userID, err := s.users.Authenticate(strings.TrimPrefix(header, common.BearerPrefix))
		if err != nil {
			s.logger.Warn(ctx, "token rejected", "error", err)
			writeError(w, http.StatusUnauthorized, msgTokenNotVerified)
			return
		}

		if info, ok := ctx.Value(requestInfoKey).(*requestInfo); ok {
			info.userID = userID
		}

		ctx = context.WithValue(ctx, userIDKey, userID)
		ctx = logging.ContextWith(ctx, "user_id", userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// logRequests writes one line per request and feeds the HTTP metrics.
func (s *HTTPServer) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		info := &requestInfo{}
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		ctx := context.WithValue(r.Context(), requestInfoKey, info)
		ctx = logging.ContextWith(ctx, "request_id", chimw.GetReqID(ctx))
		next.ServeHTTP(ww, r.WithContext(ctx))

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		s.metrics.observeRequest(r.Method, route, status, elapsed)

		args := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration", elapsed,
		}
		if info.userID != "" {
			args = append(args, "user_id", info.userID)
		}
		s.logger.Info(ctx, "request", args...)
	})
}

// cors sets the CORS headers on every response and answers preflight
// requests directly.
func (s *HTTPServer) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", s.opts.CORSAllowedOrigin)
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
		if s.opts.CORSAllowedOrigin != "*" {
			h.Add("Vary", "Origin")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
