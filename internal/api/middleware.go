package api

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"nodal/internal/auth"
	"nodal/internal/errs"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type contextKey string

const (
	userContextKey   = contextKey("user")
	traceContextKey  = contextKey("trace")
	tenantContextKey = contextKey("tenant")
)

// AuthMiddleware attaches the caller's claims when a valid bearer token is
// present. Requests without one continue anonymously; handlers that need an
// identity call requireUser.
func (s *Server) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			next.ServeHTTP(w, r)
			return
		}

		headerParts := strings.Split(authHeader, " ")
		if len(headerParts) != 2 || headerParts[0] != "Bearer" {
			next.ServeHTTP(w, r)
			return
		}

		claims, err := auth.VerifyJWT(headerParts[1], s.config.JWT.Secret)
		if err != nil {
			s.log.Debug("ignoring invalid bearer token", zap.Error(err), zap.String("trace_id", TraceIDFromContext(r.Context())))
			next.ServeHTTP(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, claims)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func GetUserFromContext(ctx context.Context) *auth.AppClaims {
	if claims, ok := ctx.Value(userContextKey).(*auth.AppClaims); ok {
		return claims
	}
	return nil
}

// viewerID is the caller's user id, or "" for anonymous requests.
func viewerID(r *http.Request) string {
	if claims := GetUserFromContext(r.Context()); claims != nil {
		return claims.UserID()
	}
	return ""
}

// requireUser fails the request with NeedLogin when it carries no identity.
func (s *Server) requireUser(w http.ResponseWriter, r *http.Request) (*auth.AppClaims, bool) {
	claims := GetUserFromContext(r.Context())
	if claims == nil {
		s.fail(w, r, errs.ErrNeedLogin)
		return nil, false
	}
	return claims, true
}

// TraceMiddleware assigns every request an id that is echoed in the
// X-Trace-Id header and in the response envelope.
func (s *Server) TraceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := s.newTraceID()
		w.Header().Set("X-Trace-Id", traceID)
		ctx := context.WithValue(r.Context(), traceContextKey, traceID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func TraceIDFromContext(ctx context.Context) string {
	traceID, _ := ctx.Value(traceContextKey).(string)
	return traceID
}

func (s *Server) LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		s.log.Info("HTTP Request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
			zap.String("trace_id", TraceIDFromContext(r.Context())),
			zap.String("remote_addr", r.RemoteAddr),
		)
	})
}

// TenantMiddleware scopes requests made to <name>.<rootDomain> to the user
// named <name>. An empty rootDomain disables it.
func TenantMiddleware(rootDomain string) func(http.Handler) http.Handler {
	rootDomain = strings.ToLower(strings.TrimSpace(rootDomain))
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if name := tenantFromHost(r.Host, rootDomain); name != "" {
				r = r.WithContext(context.WithValue(r.Context(), tenantContextKey, name))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func tenantFromHost(host, rootDomain string) string {
	if rootDomain == "" {
		return ""
	}
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.ToLower(host)
	name, ok := strings.CutSuffix(host, "."+rootDomain)
	if !ok || name == "" || name == "www" || strings.Contains(name, ".") {
		return ""
	}
	return name
}

func TenantFromContext(ctx context.Context) string {
	name, _ := ctx.Value(tenantContextKey).(string)
	return name
}
