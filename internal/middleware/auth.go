package middleware

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"github.com/coreos/go-oidc/v3/oidc"
	"go.uber.org/zap"

	"github.com/derhornspieler/rke2-cluster/operators/realm-console/internal/model"
)

type claimsKey struct{}

type tokenKey struct{}

// Claims holds the verified OIDC token claims extracted by the auth middleware.
type Claims struct {
	Subject           string   `json:"sub"`
	PreferredUsername string   `json:"preferred_username"`
	Email             string   `json:"email"`
	EmailVerified     bool     `json:"email_verified"`
	Groups            []string `json:"groups"`
	Name              string   `json:"name"`
}

// GetClaims extracts the authenticated claims from the request context.
func GetClaims(ctx context.Context) *Claims {
	if c, ok := ctx.Value(claimsKey{}).(*Claims); ok {
		return c
	}
	return nil
}

// GetToken returns the raw bearer token of the authenticated request. It is
// forwarded to the Keycloak account API on the user's behalf.
func GetToken(ctx context.Context) string {
	if t, ok := ctx.Value(tokenKey{}).(string); ok {
		return t
	}
	return ""
}

// WithIdentity stores verified claims and the raw token in ctx.
func WithIdentity(ctx context.Context, claims *Claims, rawToken string) context.Context {
	ctx = context.WithValue(ctx, claimsKey{}, claims)
	return context.WithValue(ctx, tokenKey{}, rawToken)
}

// OIDCAuth verifies the Bearer token against the OIDC issuer and extracts claims.
func OIDCAuth(logger *zap.Logger, issuerURL, clientID string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		// Initialize the OIDC provider lazily on first request to avoid blocking startup
		// if the issuer is temporarily unreachable.
		var (
			mu       sync.Mutex
			verifier *oidc.IDTokenVerifier
		)

		getVerifier := func(ctx context.Context) (*oidc.IDTokenVerifier, error) {
			mu.Lock()
			defer mu.Unlock()
			if verifier != nil {
				return verifier, nil
			}
			provider, err := oidc.NewProvider(ctx, issuerURL)
			if err != nil {
				// Left nil so the next request retries.
				return nil, err
			}
			verifier = provider.Verifier(&oidc.Config{ClientID: clientID})
			return verifier, nil
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			verifier, err := getVerifier(r.Context())
			if err != nil {
				logger.Error("failed to initialize OIDC provider",
					zap.Error(err),
					zap.String("issuer", issuerURL),
				)
				model.WriteError(w, http.StatusServiceUnavailable, "OIDC_UNAVAILABLE", "OIDC provider unavailable")
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				model.WriteError(w, http.StatusUnauthorized, "MISSING_TOKEN", "authorization header required")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				model.WriteError(w, http.StatusUnauthorized, "INVALID_TOKEN", "authorization header must be Bearer {token}")
				return
			}
			rawToken := parts[1]

			idToken, err := verifier.Verify(r.Context(), rawToken)
			if err != nil {
				logger.Debug("token verification failed",
					zap.Error(err),
					zap.String("request_id", GetRequestID(r.Context())),
				)
				model.WriteError(w, http.StatusUnauthorized, "INVALID_TOKEN", "token verification failed")
				return
			}

			var claims Claims
			if err := idToken.Claims(&claims); err != nil {
				logger.Error("failed to parse token claims",
					zap.Error(err),
					zap.String("request_id", GetRequestID(r.Context())),
				)
				model.WriteError(w, http.StatusUnauthorized, "INVALID_CLAIMS", "failed to parse token claims")
				return
			}

			logger.Debug("authenticated request",
				zap.String("sub", claims.Subject),
				zap.String("preferred_username", claims.PreferredUsername),
				zap.Strings("groups", claims.Groups),
				zap.String("request_id", GetRequestID(r.Context())),
			)

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), &claims, rawToken)))
		})
	}
}
