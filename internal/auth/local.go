package auth

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"prepsphere-backend/internal/database"
	"prepsphere-backend/internal/model"
	"prepsphere-backend/internal/utilities"
)

// LocalAuthHandler handles username/password sign-in for accounts created by
// the admin CLI. Students and TPOs sign in at the identity provider instead.
type LocalAuthHandler struct {
	DB *database.DBinstanceStruct
}

// NewLocalAuthHandler creates a new instance of LocalAuthHandler
func NewLocalAuthHandler(db *database.DBinstanceStruct) *LocalAuthHandler {
	return &LocalAuthHandler{DB: db}
}

type loginResponse struct {
	User        model.User `json:"user"`
	AccessToken string     `json:"access_token"`
}

// LocalLoginHandler authenticates a local account and returns an access token.
// @Summary Local login with username and password
// @Tags Auth
// @Accept json
// @Produce json
// @Success 200 {object} loginResponse "Successfully logged in"
// @Failure 400 {object} utilities.ErrorResponse "Missing username or password"
// @Failure 401 {object} utilities.ErrorResponse "Invalid credentials"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /auth/login [post]
func (h *LocalAuthHandler) LocalLoginHandler(c *gin.Context) {
	var info struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&info); err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: "Username and password must be provided",
		})
		return
	}

	var user model.User
	err := h.DB.Where("username = ?", info.Username).First(&user).Error

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusUnauthorized, utilities.ErrorResponse{
			Error: "Invalid username or password",
		})
		return

	case err != nil:
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Database error: %s", err.Error()),
		})
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(info.Password)) != nil {
		c.JSON(http.StatusUnauthorized, utilities.ErrorResponse{
			Error: "Invalid username or password",
		})
		return
	}

	token, err := GenerateToken(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to generate token: %s", err.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, loginResponse{User: user, AccessToken: token})
}
