// Package notification provides the dashboard notification endpoints and the
// TPO broadcast.
package notification

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"prepsphere-backend/internal/database"
	"prepsphere-backend/internal/mailer"
	"prepsphere-backend/internal/model"
	"prepsphere-backend/internal/utilities"
)

// NotificationController handles notification endpoints
type NotificationController struct {
	DB   *database.DBinstanceStruct
	Mail *mailer.Mailer
}

// NewNotificationController creates a new instance of NotificationController
func NewNotificationController(db *database.DBinstanceStruct, mail *mailer.Mailer) *NotificationController {
	return &NotificationController{DB: db, Mail: mail}
}

// ListByUser returns a user's notifications, newest first.
// @Summary List a user's notifications
// @Tags Notification
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param user_id path integer true "User id"
// @Success 200 {array} model.Notification
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /notifications/user/{user_id} [get]
func (nc *NotificationController) ListByUser(c *gin.Context) {
	var notifications []model.Notification
	err := nc.DB.
		Where("user_id = ?", c.Param("user_id")).
		Order("created_at DESC").
		Find(&notifications).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to fetch notifications: %s", err.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, notifications)
}

type createRequest struct {
	UserID  uint   `json:"user_id" binding:"required"`
	Title   string `json:"title" binding:"required"`
	Message string `json:"message" binding:"required"`
	// SendEmail also attempts delivery to the user's email address.
	SendEmail bool `json:"send_email"`
}

type createResponse struct {
	Notification model.Notification `json:"notification"`
	EmailSent    bool               `json:"email_sent"`
}

// Create writes a notification for one user, optionally attempting an email.
// The row persists even when the email fails.
// @Summary Create a notification
// @Tags Notification
// @Accept json
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param notification body createRequest true "Recipient, title and message"
// @Success 201 {object} createResponse
// @Failure 400 {object} utilities.ErrorResponse "Missing fields"
// @Failure 404 {object} utilities.ErrorResponse "User not found"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /notifications [post]
func (nc *NotificationController) Create(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: "user_id, title and message must be provided",
		})
		return
	}

	var user model.User
	if err := nc.DB.Where("id = ?", req.UserID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, utilities.ErrorResponse{Error: "User not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to fetch user: %s", err.Error()),
		})
		return
	}

	notification := model.Notification{
		UserID:  user.ID,
		Title:   req.Title,
		Message: req.Message,
	}
	if err := nc.DB.Create(&notification).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to create notification: %s", err.Error()),
		})
		return
	}

	emailSent := false
	if req.SendEmail {
		emailSent = nc.Mail.Send(user.Email, req.Title, req.Message)
	}

	c.JSON(http.StatusCreated, createResponse{
		Notification: notification,
		EmailSent:    emailSent,
	})
}

// MarkRead marks one notification as read.
// @Summary Mark a notification read
// @Tags Notification
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param notification_id path integer true "Notification id"
// @Success 200 {object} model.Notification
// @Failure 404 {object} utilities.ErrorResponse "Notification not found"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /notifications/{notification_id}/read [put]
func (nc *NotificationController) MarkRead(c *gin.Context) {
	var notification model.Notification
	if err := nc.DB.Where("id = ?", c.Param("notification_id")).First(&notification).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, utilities.ErrorResponse{Error: "Notification not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to fetch notification: %s", err.Error()),
		})
		return
	}

	now := time.Now()
	if err := nc.DB.Model(&notification).Updates(map[string]interface{}{
		"is_read": true,
		"read_at": now,
	}).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to mark notification read: %s", err.Error()),
		})
		return
	}

	notification.IsRead = true
	notification.ReadAt = &now

	c.JSON(http.StatusOK, notification)
}

type markAllResponse struct {
	Message string `json:"message"`
	Updated int64  `json:"updated"`
}

// MarkAllRead marks every unread notification of a user as read.
// @Summary Mark all of a user's notifications read
// @Tags Notification
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param user_id path integer true "User id"
// @Success 200 {object} markAllResponse
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /notifications/user/{user_id}/read-all [put]
func (nc *NotificationController) MarkAllRead(c *gin.Context) {
	result := nc.DB.Model(&model.Notification{}).
		Where("user_id = ? AND is_read = false", c.Param("user_id")).
		Updates(map[string]interface{}{
			"is_read": true,
			"read_at": time.Now(),
		})
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to mark notifications read: %s", result.Error.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, markAllResponse{
		Message: "All notifications marked read",
		Updated: result.RowsAffected,
	})
}

type broadcastRequest struct {
	Title   string `json:"title" binding:"required"`
	Message string `json:"message" binding:"required"`
}

type broadcastResponse struct {
	Message  string `json:"message"`
	Notified int64  `json:"notified"`
}

// Broadcast writes the same notification for every student in one statement.
// @Summary Broadcast a notification to all students
// @Tags Notification
// @Accept json
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param notification body broadcastRequest true "Title and message"
// @Success 200 {object} broadcastResponse
// @Failure 400 {object} utilities.ErrorResponse "Missing fields"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /notifications/broadcast [post]
func (nc *NotificationController) Broadcast(c *gin.Context) {
	var req broadcastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: "Title and message must be provided",
		})
		return
	}

	result := nc.DB.Exec(`INSERT INTO notifications (user_id, title, message)
		SELECT id, ?, ? FROM users WHERE role = ?`,
		req.Title, req.Message, model.RoleStudent,
	)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to broadcast: %s", result.Error.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, broadcastResponse{
		Message:  "Notification broadcast",
		Notified: result.RowsAffected,
	})
}

// Delete removes one notification.
// @Summary Delete a notification
// @Tags Notification
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param notification_id path integer true "Notification id"
// @Success 200 {object} utilities.MessageResponse
// @Failure 404 {object} utilities.ErrorResponse "Notification not found"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /notifications/{notification_id} [delete]
func (nc *NotificationController) Delete(c *gin.Context) {
	var notification model.Notification
	if err := nc.DB.Where("id = ?", c.Param("notification_id")).First(&notification).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, utilities.ErrorResponse{Error: "Notification not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to fetch notification: %s", err.Error()),
		})
		return
	}

	if err := nc.DB.Delete(&notification).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to delete notification: %s", err.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, utilities.MessageResponse{Message: "Notification deleted"})
}
