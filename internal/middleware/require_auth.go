// Package middleware contain utilities middleware code
package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"gorm.io/gorm"

	"prepsphere-backend/internal/auth"
	"prepsphere-backend/internal/database"
	"prepsphere-backend/internal/model"
	"prepsphere-backend/internal/utilities"
)

func abortWith(ctx *gin.Context, status int, msg string) {
	ctx.AbortWithStatusJSON(status, utilities.ErrorResponse{Error: msg})
}

// RequireAuth validates the Bearer token in the Authorization header and
// loads the matching user into the context before allowing access.
func RequireAuth(db *database.DBinstanceStruct) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		tokenString, err := utilities.ExtractBearerToken(ctx)
		if err != nil {
			abortWith(ctx, http.StatusBadRequest, err.Error())
			return
		}

		token, err := auth.ValidatedToken(tokenString)
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				abortWith(ctx, http.StatusUnauthorized, "Access token expired")
				return
			}
			abortWith(ctx, http.StatusUnauthorized, fmt.Sprintf("Failed to validate token: %s", err.Error()))
			return
		}
		if !token.Valid {
			abortWith(ctx, http.StatusUnauthorized, "Invalid access token")
			return
		}

		claims := token.Claims.(*jwt.RegisteredClaims)
		if claims.Issuer != auth.JwtIssuer {
			abortWith(ctx, http.StatusUnauthorized, "Invalid token issuer")
			return
		}
		ctx.Set("claims", claims)

		var foundUser model.User
		if err := db.Where("id = ?", claims.Subject).First(&foundUser).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				abortWith(ctx, http.StatusUnauthorized, "User not exist")
				return
			}
			abortWith(ctx, http.StatusInternalServerError, fmt.Sprintf("Failed to retrieve user data: %s", err.Error()))
			return
		}

		ctx.Set("user", foundUser)
		ctx.Next()
	}
}
