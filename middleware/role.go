package middleware

import (
	"net/http"

	"github.com/farmlink/authcore"
)

// RequireRole admits only principals whose role equals role.
func RequireRole(engine Authorizer, role authcore.Role) func(http.Handler) http.Handler {
	return Guard(engine, func(*http.Request) authcore.Requirement {
		return authcore.Requirement{Role: role}
	})
}
