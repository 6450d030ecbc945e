package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/dmitrijs2005/animeflix/internal/common"
	"github.com/dmitrijs2005/animeflix/internal/logging"
	"github.com/dmitrijs2005/animeflix/internal/server/auth"
)

type ctxKey string

const identityKey ctxKey = "identity"

// IdentityFrom returns the identity the Identity Guard attached to ctx.
func IdentityFrom(ctx context.Context) (auth.Identity, bool) {
	id, ok := ctx.Value(identityKey).(auth.Identity)
	return id, ok && id.AccountID != ""
}

// callerID is the account ID of the authenticated caller.
func callerID(r *http.Request) string {
	id, _ := IdentityFrom(r.Context())
	return id.AccountID
}

const maxRequestIDLen = 128

// requestID tags the request with the caller's X-Request-ID, or a fresh
// UUID, and echoes it back.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(common.RequestIDHeaderName)
		if id == "" || len(id) > maxRequestIDLen {
			id = uuid.NewString()
		}
		w.Header().Set(common.RequestIDHeaderName, id)
		next.ServeHTTP(w, r.WithContext(logging.WithRequestID(r.Context(), id)))
	})
}

// observe logs every request and feeds the HTTP metrics, labelled by the
// matched route pattern.
func (h *Handler) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		elapsed := time.Since(start)

		h.metrics.ObserveRequest(r.Method, route, status, elapsed)
		h.logger.Info(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"route", route,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration", elapsed,
		)
	})
}

// authenticate is the Identity Guard. Any failure ends the request with the
// same generic 401; the precise reason is only logged.
func (h *Handler) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r.Header.Get(common.AuthorizationHeaderName))
		if !ok {
			h.reject(w, r, "missing", common.ErrUnauthenticated)
			return
		}

		id, err := h.tokens.Verify(token, h.now())
		if err != nil {
			reason := "malformed"
			if errors.Is(err, common.ErrTokenExpired) {
				reason = "expired"
			}
			h.reject(w, r, reason, err)
			return
		}

		ctx := context.WithValue(r.Context(), identityKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireSelf turns away requests for identifiers other than the one the
// token was issued under without touching the store. The services still
// check that the identifier names the token's account, since it may have
// been renamed and registered again since the token was issued.
func (h *Handler) requireSelf(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller, _ := IdentityFrom(r.Context())
		if target := chi.URLParam(r, "id"); caller.Identifier != target {
			h.metrics.AuthFailure("forbidden")
			h.logger.Warn(r.Context(), "access to another account denied",
				"caller", caller.Identifier, "account_id", caller.AccountID, "target", target)
			h.writeError(w, r, common.ErrForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) reject(w http.ResponseWriter, r *http.Request, reason string, err error) {
	h.metrics.AuthFailure(reason)
	h.logger.Warn(r.Context(), "authentication failed", "reason", reason, "error", err)
	h.writeError(w, r, common.ErrUnauthenticated)
}

// bearerToken extracts the credential from an "Authorization: Bearer <token>"
// header value. The scheme is case-insensitive.
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, common.BearerScheme) {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
