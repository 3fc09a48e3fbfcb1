package middleware

import (
	"context"
	"net/http"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/auth"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/handler/http/response"
	"github.com/go-chi/jwtauth/v5"
)

type claimsKey struct{}

// AuthRequired accepts verified access tokens that carry a company and puts
// the caller's claims on the request context.
func AuthRequired(ja *jwtauth.JWTAuth) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		hfn := func(w http.ResponseWriter, r *http.Request) {
			token, claims, err := jwtauth.FromContext(r.Context())

			if err != nil {
				response.Unauthorized(w, err.Error())
				return
			}

			if token == nil {
				response.HandleError(w, auth.ErrInvalidToken)
				return
			}

			tokenType, ok := claims["type"].(string)
			if tokenType != "access" || !ok {
				response.HandleError(w, auth.ErrInvalidToken)
				return
			}

			companyID, _ := claims["company_id"].(string)
			if companyID == "" {
				response.HandleError(w, auth.ErrCompanyIDRequired)
				return
			}

			userID, _ := claims["user_id"].(string)
			role, _ := claims["role"].(string)

			ctx := context.WithValue(r.Context(), claimsKey{}, auth.Claims{
				UserID:    userID,
				CompanyID: companyID,
				Role:      auth.Role(role),
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		}
		return http.HandlerFunc(hfn)
	}
}

// RequireManager requires manager or owner role
func RequireManager(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok || !claims.Role.CanManage() {
			response.HandleError(w, auth.ErrManagerAccessRequired)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func ClaimsFromContext(ctx context.Context) (auth.Claims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(auth.Claims)
	return claims, ok
}

// CompanyIDFromContext returns the company the caller's token is bound to.
func CompanyIDFromContext(ctx context.Context) string {
	claims, _ := ClaimsFromContext(ctx)
	return claims.CompanyID
}
