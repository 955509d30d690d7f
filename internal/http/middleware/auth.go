package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/testimonialnudger/api/internal/http/response"
	"github.com/testimonialnudger/api/internal/platform/auth"
)

type ctxKey string

const CtxClaims ctxKey = "claims"

// RequireBusinessJWT guards the business-side endpoints (issuance, listing,
// review). The public form endpoints never go through this.
func RequireBusinessJWT(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authz := r.Header.Get("Authorization")
			if !strings.HasPrefix(authz, "Bearer ") {
				response.Unauthorized(w, "invalid authorization header")
				return
			}
			raw := strings.TrimPrefix(authz, "Bearer ")
			claims, err := auth.Parse(raw, secret)
			if err != nil {
				response.Unauthorized(w, "invalid authorization token")
				return
			}
			if claims.BusinessID == 0 {
				response.Forbidden(w, "token is not scoped to a business")
				return
			}
			ctx := context.WithValue(r.Context(), CtxClaims, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func Claims(r *http.Request) *auth.Claims {
	v := r.Context().Value(CtxClaims)
	if v == nil {
		return nil
	}
	return v.(*auth.Claims)
}
