// Package webhook receives identity provider events and mirrors them into the
// users table.
package webhook

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"prepsphere-backend/internal/auth"
	"prepsphere-backend/internal/database"
	"prepsphere-backend/internal/model"
	"prepsphere-backend/internal/utilities"
)

// WebhookController handles identity provider webhook deliveries
type WebhookController struct {
	DB *database.DBinstanceStruct
}

// NewWebhookController creates a new instance of WebhookController
func NewWebhookController(db *database.DBinstanceStruct) *WebhookController {
	return &WebhookController{DB: db}
}

// clerkUser is the slice of the provider's user payload this service reads.
type clerkUser struct {
	ID                    string `json:"id"`
	FirstName             string `json:"first_name"`
	LastName              string `json:"last_name"`
	PrimaryEmailAddressID string `json:"primary_email_address_id"`
	EmailAddresses        []struct {
		ID           string `json:"id"`
		EmailAddress string `json:"email_address"`
	} `json:"email_addresses"`
	UnsafeMetadata struct {
		Role string `json:"role"`
	} `json:"unsafe_metadata"`
}

// primaryEmail picks the address the provider marks primary, falling back to
// the first one listed.
func (u *clerkUser) primaryEmail() string {
	for _, addr := range u.EmailAddresses {
		if addr.ID == u.PrimaryEmailAddressID {
			return addr.EmailAddress
		}
	}
	if len(u.EmailAddresses) > 0 {
		return u.EmailAddresses[0].EmailAddress
	}
	return ""
}

func (u *clerkUser) role() string {
	role := strings.ToLower(strings.TrimSpace(u.UnsafeMetadata.Role))
	switch role {
	case model.RoleTPO, model.RoleAdmin:
		return role
	default:
		return model.RoleStudent
	}
}

type webhookEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// HandleClerkWebhook verifies and dispatches a provider event. Unknown event
// types are acknowledged and ignored so the provider does not retry them.
// @Summary Receive identity provider events
// @Tags Webhook
// @Accept json
// @Produce json
// @Param svix-signature header string false "Webhook signature"
// @Success 200 {object} utilities.MessageResponse
// @Failure 400 {object} utilities.ErrorResponse "Malformed payload"
// @Failure 401 {object} utilities.ErrorResponse "Bad signature"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /webhooks/clerk [post]
func (wc *WebhookController) HandleClerkWebhook(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{Error: "Failed to read payload"})
		return
	}

	if secret := os.Getenv("CLERK_WEBHOOK_SECRET"); secret != "" {
		signature := c.GetHeader("svix-signature")
		if !auth.VerifyWebhookSignature(payload, signature, secret) {
			c.JSON(http.StatusUnauthorized, utilities.ErrorResponse{Error: "Invalid webhook signature"})
			return
		}
	}

	var event webhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{Error: "Malformed webhook payload"})
		return
	}

	var user clerkUser
	if err := json.Unmarshal(event.Data, &user); err != nil || user.ID == "" {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{Error: "Malformed webhook payload"})
		return
	}

	switch event.Type {
	case "user.created":
		err = wc.upsertUser(user, true)
	case "user.updated":
		err = wc.upsertUser(user, false)
	case "user.deleted":
		err = wc.deleteUser(user.ID)
	default:
		c.JSON(http.StatusOK, utilities.MessageResponse{Message: "Event ignored"})
		return
	}

	if err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to process webhook: %s", err.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, utilities.MessageResponse{Message: "Event processed"})
}

// upsertUser mirrors the provider's user into the users table. Created and
// updated handling is the same apart from role: an update never changes a
// role assigned locally.
func (wc *WebhookController) upsertUser(incoming clerkUser, created bool) error {
	return wc.DB.Transaction(func(tx *gorm.DB) error {
		var user model.User
		err := tx.Where("clerk_user_id = ?", incoming.ID).First(&user).Error

		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			user = model.User{
				ClerkUserID: incoming.ID,
				Email:       incoming.primaryEmail(),
				FirstName:   incoming.FirstName,
				LastName:    incoming.LastName,
				Role:        incoming.role(),
			}
			return tx.Create(&user).Error

		case err != nil:
			return err
		}

		user.FirstName = incoming.FirstName
		user.LastName = incoming.LastName
		if email := incoming.primaryEmail(); email != "" {
			user.Email = email
		}
		if created {
			user.Role = incoming.role()
		}
		return tx.Save(&user).Error
	})
}

func (wc *WebhookController) deleteUser(clerkID string) error {
	var user model.User
	err := wc.DB.Where("clerk_user_id = ?", clerkID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// Already gone; deletions are idempotent.
		return nil
	}
	if err != nil {
		return err
	}
	return wc.DB.Delete(&user).Error
}
