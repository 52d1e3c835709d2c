package middleware

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/derhornspieler/rke2-cluster/operators/realm-console/internal/model"
)

const forbiddenMessage = "You are not allowed to administer realms."

// RequireGroups admits callers holding at least one of groups. Keycloak's
// group mapper emits full paths ("/realm-admins") unless configured
// otherwise, so a leading slash is ignored on both sides.
func RequireGroups(logger *zap.Logger, groups ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(groups))
	for _, g := range groups {
		allowed[groupName(g)] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := GetClaims(r.Context())
			if claims == nil {
				model.WriteError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "Authentication required.")
				return
			}

			if memberOfAny(claims.Groups, allowed) {
				next.ServeHTTP(w, r)
				return
			}

			logger.Warn("realm administration denied",
				zap.String("sub", claims.Subject),
				zap.String("username", claims.PreferredUsername),
				zap.Strings("user_groups", claims.Groups),
				zap.Strings("required_groups", groups),
				zap.String("route", routeLabel(r)),
				zap.String("request_id", GetRequestID(r.Context())),
			)
			model.WriteError(w, http.StatusForbidden, "FORBIDDEN", forbiddenMessage)
		})
	}
}

func memberOfAny(userGroups []string, allowed map[string]struct{}) bool {
	for _, g := range userGroups {
		if _, ok := allowed[groupName(g)]; ok {
			return true
		}
	}
	return false
}

func groupName(g string) string {
	return strings.TrimPrefix(strings.TrimSpace(g), "/")
}
