package middleware

import (
	"net/http"

	"github.com/farmlink/authcore"
)

// RequireOwner admits only the principal whose ID equals ownerID(r). With
// allowAdmin set, admins pass regardless of ownership. Authenticated requests
// for which ownerID returns "" are refused with 403.
func RequireOwner(engine Authorizer, ownerID func(*http.Request) string, allowAdmin bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		guarded := Guard(engine, func(r *http.Request) authcore.Requirement {
			return authcore.Requirement{OwnerID: ownerID(r), AllowAdmin: allowAdmin}
		})(next)

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if ownerID(r) != "" {
				guarded.ServeHTTP(w, r)
				return
			}
			if engine == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			if _, err := engine.Authorize(r.Context(), r.Header.Get("Authorization"), authcore.Requirement{}); err != nil {
				Deny(w, err)
				return
			}
			http.Error(w, "forbidden", http.StatusForbidden)
		})
	}
}
