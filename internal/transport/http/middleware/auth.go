package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/IgorGrieder/clicktrack/internal/constants"
	"github.com/IgorGrieder/clicktrack/pkg/httputils"
	"github.com/golang-jwt/jwt/v5"
)

type ownerIDKey struct{}

// OwnerID returns the authenticated caller, or "" for anonymous requests.
func OwnerID(ctx context.Context) string {
	id, _ := ctx.Value(ownerIDKey{}).(string)
	return id
}

func WithOwnerID(ctx context.Context, ownerID string) context.Context {
	return context.WithValue(ctx, ownerIDKey{}, ownerID)
}

// Auth reads an optional HS256 bearer token and stores its subject as the
// owner id. Requests without a token continue anonymously; a token that does
// not verify is rejected with 401. An empty secret disables authentication.
func Auth(secret, issuer string) func(http.Handler) http.Handler {
	if secret == "" {
		return func(next http.Handler) http.Handler { return next }
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	parser := jwt.NewParser(opts...)
	key := []byte(secret)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}

			token, found := strings.CutPrefix(raw, "Bearer ")
			if !found || strings.TrimSpace(token) == "" {
				httputils.WriteAPIError(w, r, constants.ErrUnauthorized)
				return
			}

			var claims jwt.RegisteredClaims
			_, err := parser.ParseWithClaims(strings.TrimSpace(token), &claims, func(*jwt.Token) (any, error) {
				return key, nil
			})
			if err != nil || strings.TrimSpace(claims.Subject) == "" {
				httputils.WriteAPIError(w, r, constants.ErrUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithOwnerID(r.Context(), claims.Subject)))
		})
	}
}
