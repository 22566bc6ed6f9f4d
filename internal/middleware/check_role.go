package middleware

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"

	"prepsphere-backend/internal/utilities"
)

// CheckRole rejects callers whose role is not in the allowed set. It assumes
// RequireAuth already placed the user in the context.
func CheckRole(roles ...string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		user, err := utilities.ExtractUser(ctx)
		if err != nil {
			abortWith(ctx, http.StatusUnauthorized, err.Error())
			return
		}

		if !slices.Contains(roles, user.Role) {
			abortWith(ctx, http.StatusForbidden, "User doesn't have permission to access")
		}
	}
}
