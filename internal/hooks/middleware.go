package hooks

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/nabeeghrb/netsuite-rb/internal/platform/httpx"
	"github.com/nabeeghrb/netsuite-rb/internal/shared"
)

// InvocationHeader carries the invocation id back to the caller.
const InvocationHeader = "X-Hook-Invocation"

// invocationNamespace derives stable invocation ids from idempotency keys.
var invocationNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("urn:hookd:invocation"))

// InvocationID returns the id of a hook call. Calls sharing an Idempotency-Key
// share an id.
func InvocationID(idempotencyKey string) string {
	key := strings.TrimSpace(idempotencyKey)
	if key == "" {
		return uuid.NewString()
	}
	return uuid.NewSHA1(invocationNamespace, []byte(key)).String()
}

// Invocation assigns the invocation id to the request context and response.
func Invocation(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := InvocationID(r.Header.Get("Idempotency-Key"))
		w.Header().Set(InvocationHeader, id)
		next.ServeHTTP(w, r.WithContext(shared.ContextWithInvocation(r.Context(), id)))
	})
}

// RequireToken rejects calls without a valid bearer token.
func RequireToken(verifier *shared.TokenVerifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearer(r.Header.Get("Authorization"))
			if !ok || verifier.Verify(token) != nil {
				logger.Warn("hook token rejected", slog.String("path", r.URL.Path), slog.String("remote", r.RemoteAddr))
				httpx.RespondError(w, httpx.ErrUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearer(header string) (string, bool) {
	const prefix = "bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}
