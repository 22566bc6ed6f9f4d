// Package utilities contain utility code that use across the package
package utilities

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"prepsphere-backend/internal/model"
)

// ErrorResponse type for swagger docs
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse type for swagger docs
type MessageResponse struct {
	Message string `json:"message"`
}

// ExtractUser extracts the user model from Gin context.
// It returns an error when the user is missing or of the wrong type.
func ExtractUser(c *gin.Context) (model.User, error) {
	u, _ := c.Get("user")
	if u == nil {
		return model.User{}, errors.New("User information not provided")
	}

	user, ok := u.(model.User)
	if !ok {
		return model.User{}, errors.New("Failed to assert type")
	}
	return user, nil
}

// HashPassword hashes a plain password with bcrypt.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// LocalClerkID generates an identity id for accounts created outside the
// identity provider. The users table requires a unique clerk id, so local
// accounts get a synthetic one.
func LocalClerkID() string {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		log.Fatal("failed to read random bytes: ", err)
	}
	return fmt.Sprintf("local_%d_%s", time.Now().UnixNano(), hex.EncodeToString(buf))
}

// CreateAdmin creates an admin user with the given password and username in the provided database.
func CreateAdmin(password string, username string, db *gorm.DB) {
	hashedPassword, err := HashPassword(password)
	if err != nil {
		log.Fatal("failed to hash password: ", err)
	}

	admin := model.User{
		ClerkUserID: LocalClerkID(),
		Username:    username,
		Password:    hashedPassword,
		Email:       username + "@prepsphere.local",
		FirstName:   "Admin",
		Role:        model.RoleAdmin,
		IsApproved:  true,
	}
	if err := db.Create(&admin).Error; err != nil {
		log.Fatal("failed to create admin: ", err)
	}
}
