// Package user provides HTTP handlers for registration, user lookups and the
// profile submission side of the approval workflow.
package user

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"prepsphere-backend/internal/database"
	"prepsphere-backend/internal/model"
	"prepsphere-backend/internal/utilities"
)

// UserController handles user and profile related endpoints
type UserController struct {
	DB *database.DBinstanceStruct
}

// NewUserController creates a new instance of UserController
func NewUserController(db *database.DBinstanceStruct) *UserController {
	return &UserController{DB: db}
}

type registerRequest struct {
	Email       string `json:"email" binding:"required,email"`
	FirstName   string `json:"first_name" binding:"required"`
	LastName    string `json:"last_name"`
	PhoneNumber string `json:"phone_number"`
	Role        string `json:"role" binding:"required,oneof=student tpo admin"`
	ClerkUserID string `json:"clerk_user_id" binding:"required"`
}

// Register creates a user row for an identity seen at the identity provider.
// @Summary Register a user
// @Description Duplicate email or identity id is a conflict, not an overwrite
// @Tags User
// @Accept json
// @Produce json
// @Success 201 {object} model.User "Successfully registered"
// @Failure 400 {object} utilities.ErrorResponse "Missing required fields"
// @Failure 409 {object} utilities.ErrorResponse "User already registered"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /users/register [post]
func (uc *UserController) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: "Email, first name, role (student, tpo or admin) and clerk_user_id must be provided",
		})
		return
	}

	clerkID := strings.TrimSpace(req.ClerkUserID)
	if clerkID == "" {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: "Email, first name, role (student, tpo or admin) and clerk_user_id must be provided",
		})
		return
	}

	var count int64
	if err := uc.DB.Model(&model.User{}).
		Where("email = ? OR clerk_user_id = ?", req.Email, clerkID).
		Count(&count).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Database error: %s", err.Error()),
		})
		return
	}
	if count > 0 {
		c.JSON(http.StatusConflict, utilities.ErrorResponse{
			Error: "User already registered",
		})
		return
	}

	user := model.User{
		ClerkUserID: clerkID,
		Email:       req.Email,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		PhoneNumber: req.PhoneNumber,
		Role:        strings.ToLower(req.Role),
	}

	if err := uc.DB.Create(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to register user: %s", err.Error()),
		})
		return
	}

	c.JSON(http.StatusCreated, user)
}

// GetUserByID fetches a user row by its numeric id.
// @Summary Get user by id
// @Tags User
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param user_id path integer true "User id"
// @Success 200 {object} model.User
// @Failure 404 {object} utilities.ErrorResponse "User not found"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /users/{user_id} [get]
func (uc *UserController) GetUserByID(c *gin.Context) {
	uc.findUser(c, "id = ?", c.Param("user_id"))
}

// GetUserByClerkID fetches a user row by its identity-provider id.
// @Summary Get user by identity-provider id
// @Tags User
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param clerk_user_id path string true "Identity provider user id"
// @Success 200 {object} model.User
// @Failure 404 {object} utilities.ErrorResponse "User not found"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /users/clerk/{clerk_user_id} [get]
func (uc *UserController) GetUserByClerkID(c *gin.Context) {
	uc.findUser(c, "clerk_user_id = ?", c.Param("clerk_user_id"))
}

// GetUserByEmail fetches a user row by email.
// @Summary Get user by email
// @Tags User
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param email path string true "Email address"
// @Success 200 {object} model.User
// @Failure 404 {object} utilities.ErrorResponse "User not found"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /users/by-email/{email} [get]
func (uc *UserController) GetUserByEmail(c *gin.Context) {
	uc.findUser(c, "LOWER(email) = LOWER(?)", c.Param("email"))
}

func (uc *UserController) findUser(c *gin.Context, query string, arg string) {
	var user model.User
	err := uc.DB.Where(query, arg).First(&user).Error

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, utilities.ErrorResponse{Error: "User not found"})

	case err != nil:
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to fetch user: %s", err.Error()),
		})

	default:
		c.JSON(http.StatusOK, user)
	}
}

// UpdateUser applies a name-only patch to a user row. Email and role cannot
// be changed here.
// @Summary Update user names
// @Tags User
// @Accept json
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param user_id path integer true "User id"
// @Param patch body model.EditableUserInfo true "Fields to update"
// @Success 200 {object} model.User
// @Failure 400 {object} utilities.ErrorResponse "Invalid request body"
// @Failure 404 {object} utilities.ErrorResponse "User not found"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /users/{user_id} [put]
func (uc *UserController) UpdateUser(c *gin.Context) {
	var user model.User
	if err := uc.DB.Where("id = ?", c.Param("user_id")).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, utilities.ErrorResponse{Error: "User not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to fetch user: %s", err.Error()),
		})
		return
	}

	patch := model.EditableUserInfo{}
	decoder := json.NewDecoder(c.Request.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&patch); err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: fmt.Sprintf("Invalid request body: %s", err.Error()),
		})
		return
	}

	patch.Apply(&user)

	if err := uc.DB.Save(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to update user: %s", err.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, user)
}

// DeleteUser removes a user row and, through the schema cascades, everything
// owned by it.
// @Summary Delete user
// @Description Admin only
// @Tags User
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param user_id path integer true "User id"
// @Success 200 {object} utilities.MessageResponse
// @Failure 404 {object} utilities.ErrorResponse "User not found"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /users/{user_id} [delete]
func (uc *UserController) DeleteUser(c *gin.Context) {
	var user model.User
	if err := uc.DB.Where("id = ?", c.Param("user_id")).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, utilities.ErrorResponse{Error: "User not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to fetch user: %s", err.Error()),
		})
		return
	}

	if err := uc.DB.Delete(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to delete user: %s", err.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, utilities.MessageResponse{Message: "User deleted successfully"})
}

// GetProfile returns the stored profile for a user, or an empty unapproved
// one when nothing has been submitted yet.
// @Summary Get a user's profile
// @Tags User
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param user_id path integer true "User id"
// @Success 200 {object} model.Profile
// @Failure 400 {object} utilities.ErrorResponse "Invalid user id"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /users/{user_id}/profile [get]
func (uc *UserController) GetProfile(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Param("user_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{Error: "Invalid user id"})
		return
	}

	var profile model.Profile
	dbErr := uc.DB.Where("user_id = ?", userID).First(&profile).Error

	switch {
	case errors.Is(dbErr, gorm.ErrRecordNotFound):
		c.JSON(http.StatusOK, model.Profile{UserID: uint(userID)})

	case dbErr != nil:
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to fetch profile: %s", dbErr.Error()),
		})

	default:
		c.JSON(http.StatusOK, profile)
	}
}

// SubmitProfile creates or partially updates a user's profile. Every edit
// discards prior approval, even when nothing actually changed, and the user's
// profile_complete flag is recomputed in the same transaction.
// @Summary Submit or update a profile
// @Description Any edit resets approval; the profile goes back into the review queue
// @Tags User
// @Accept json
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param user_id path integer true "User id"
// @Param profile body model.ProfilePatch true "Profile fields"
// @Success 200 {object} model.Profile
// @Failure 400 {object} utilities.ErrorResponse "Invalid request body"
// @Failure 404 {object} utilities.ErrorResponse "User not found"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /users/{user_id}/profile [post]
func (uc *UserController) SubmitProfile(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Param("user_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{Error: "Invalid user id"})
		return
	}

	patch := model.ProfilePatch{}
	decoder := json.NewDecoder(c.Request.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&patch); err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: fmt.Sprintf("Invalid request body: %s", err.Error()),
		})
		return
	}

	var profile model.Profile

	txErr := uc.DB.Transaction(func(tx *gorm.DB) error {
		var user model.User
		if err := tx.Where("id = ?", userID).First(&user).Error; err != nil {
			return err
		}

		err := tx.Where("user_id = ?", userID).First(&profile).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			profile = model.Profile{UserID: uint(userID)}
		case err != nil:
			return err
		}

		patch.Apply(&profile)
		// Every edit invalidates prior approval, no-op edits included.
		profile.IsApproved = false

		if err := tx.Save(&profile).Error; err != nil {
			return err
		}

		return tx.Model(&model.User{}).
			Where("id = ?", userID).
			Update("profile_complete", profile.Complete()).Error
	})

	switch {
	case errors.Is(txErr, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, utilities.ErrorResponse{Error: "User not found"})

	case txErr != nil:
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to save profile: %s", txErr.Error()),
		})

	default:
		c.JSON(http.StatusOK, profile)
	}
}
