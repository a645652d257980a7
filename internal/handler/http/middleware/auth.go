package middleware

import (
	"context"
	"net/http"

	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/user"
	"github.com/cmlabs-hris/hris-policy-engine/internal/handler/http/response"
	"github.com/cmlabs-hris/hris-policy-engine/internal/pkg/jwt"
	"github.com/go-chi/jwtauth/v5"
)

type callerKey struct{}

// WithCaller stores the authenticated caller on ctx.
func WithCaller(ctx context.Context, c user.Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, c)
}

// CallerFrom returns the caller AuthRequired put on the request context.
func CallerFrom(ctx context.Context) (user.Caller, bool) {
	c, ok := ctx.Value(callerKey{}).(user.Caller)
	return c, ok
}

// AuthRequired must run after jwtauth.Verifier. It accepts access tokens only
// and decodes the claims into a user.Caller once for the rest of the chain.
func AuthRequired(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, claims, err := jwtauth.FromContext(r.Context())
		if err != nil {
			response.Unauthorized(w, err.Error())
			return
		}
		if token == nil {
			response.Unauthorized(w, "Invalid token")
			return
		}

		tokenType, ok := claims["type"].(string)
		if !ok || tokenType != jwt.TokenTypeAccess {
			response.Unauthorized(w, "Invalid token type")
			return
		}

		caller, err := user.CallerFromClaims(claims)
		if err != nil {
			response.Unauthorized(w, err.Error())
			return
		}

		next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), caller)))
	})
}

// RequireAccess gates a route group on a declarative access requirement.
func RequireAccess(a user.Access) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller, ok := CallerFrom(r.Context())
			if !ok {
				response.Unauthorized(w, "Unauthorized")
				return
			}
			if err := a.Authorize(caller); err != nil {
				response.HandleError(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
