package middleware

import (
	"context"
	"crypto/subtle"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/clerk/clerk-sdk-go/v2/jwt"
)

type contextKey string

const ClerkIDKey contextKey = "clerkID"

// verifyToken checks a Clerk session token and returns its subject.
// Replaced in tests.
var verifyToken = func(ctx context.Context, token string) (string, error) {
	claims, err := jwt.Verify(ctx, &jwt.VerifyParams{
		Token: token,
	})
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// ClerkAuthMiddleware validates Clerk JWT tokens and stores the subject in the
// request context. Challenge catalog writes and progress events go through it.
func ClerkAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			authRejections.WithLabelValues("missing_header").Inc()
			respondWithError(w, http.StatusUnauthorized, "Authorization header required")
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == authHeader {
			authRejections.WithLabelValues("bad_format").Inc()
			respondWithError(w, http.StatusUnauthorized, "Invalid authorization format. Use 'Bearer <token>'")
			return
		}

		subject, err := verifyToken(r.Context(), token)
		if err != nil {
			log.Printf("Token verification failed: %v", err)
			authRejections.WithLabelValues("invalid_token").Inc()
			respondWithError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithClerkID(r.Context(), subject)))
	})
}

// InternalSecretMiddleware admits only service-to-service callers that send
// the X-Internal-Secret header matching INTERNAL_API_SECRET. Progress events
// are reported by the climb-verification and meeting flows, never by end users.
func InternalSecretMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		secret := os.Getenv("INTERNAL_API_SECRET")
		given := r.Header.Get("X-Internal-Secret")
		if secret == "" || subtle.ConstantTimeCompare([]byte(given), []byte(secret)) != 1 {
			authRejections.WithLabelValues("internal_secret").Inc()
			respondWithError(w, http.StatusForbidden, "Internal endpoint")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func WithClerkID(ctx context.Context, clerkID string) context.Context {
	return context.WithValue(ctx, ClerkIDKey, clerkID)
}

// GetClerkID extracts Clerk user ID from context
func GetClerkID(ctx context.Context) (string, bool) {
	clerkID, ok := ctx.Value(ClerkIDKey).(string)
	return clerkID, ok && clerkID != ""
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write([]byte(`{"error": "` + message + `"}`))
}
