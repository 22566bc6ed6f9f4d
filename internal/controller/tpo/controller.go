// Package tpo provides the review side of the approval workflow: pending
// queues, approve/reject decisions and placement status updates.
package tpo

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"prepsphere-backend/internal/database"
	"prepsphere-backend/internal/mailer"
	"prepsphere-backend/internal/model"
	"prepsphere-backend/internal/utilities"
)

// TPOController handles profile review and placement endpoints
type TPOController struct {
	DB   *database.DBinstanceStruct
	Mail *mailer.Mailer
}

// NewTPOController creates a new instance of TPOController
func NewTPOController(db *database.DBinstanceStruct, mail *mailer.Mailer) *TPOController {
	return &TPOController{DB: db, Mail: mail}
}

// pendingStudent is one row of the review queue. Profile fields are nullable
// because students who never submitted a profile are part of the queue too.
type pendingStudent struct {
	UserID          uint    `json:"user_id"`
	Email           string  `json:"email"`
	FirstName       string  `json:"first_name"`
	LastName        string  `json:"last_name"`
	ProfileComplete bool    `json:"profile_complete"`
	ProfileID       *uint   `json:"profile_id,omitempty"`
	Phone           *string `json:"phone,omitempty"`
	Degree          *string `json:"degree,omitempty"`
	Year            *string `json:"year,omitempty"`
	Skills          *string `json:"skills,omitempty"`
	About           *string `json:"about,omitempty"`
	AlternateEmail  *string `json:"alternate_email,omitempty"`
	ApprovalNotes   *string `json:"approval_notes,omitempty"`
}

// PendingProfiles lists every student who still needs a review decision:
// no profile yet, profile not approved, or user flag cleared by a later edit.
// @Summary List students pending approval
// @Tags TPO
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Success 200 {array} pendingStudent
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /tpo/profiles/pending [get]
func (tc *TPOController) PendingProfiles(c *gin.Context) {
	var rows []pendingStudent

	err := tc.DB.Table("users u").
		Select(`u.id AS user_id, u.email, u.first_name, u.last_name, u.profile_complete,
			p.id AS profile_id, p.phone, p.degree, p.year, p.skills, p.about,
			p.alternate_email, p.approval_notes`).
		Joins("LEFT JOIN profiles p ON p.user_id = u.id").
		Where("u.role = ?", model.RoleStudent).
		Where("p.id IS NULL OR p.is_approved = false OR u.is_approved = false").
		Order("u.id ASC").
		Scan(&rows).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to fetch pending profiles: %s", err.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, rows)
}

// ApproveProfile marks both the profile and the user approved. No notification
// is written for approvals.
// @Summary Approve a student's profile
// @Tags TPO
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param user_id path integer true "Student's user id"
// @Success 200 {object} utilities.MessageResponse
// @Failure 404 {object} utilities.ErrorResponse "Profile not found"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /tpo/profiles/{user_id}/approve [post]
func (tc *TPOController) ApproveProfile(c *gin.Context) {
	userID := c.Param("user_id")

	txErr := tc.DB.Transaction(func(tx *gorm.DB) error {
		var profile model.Profile
		if err := tx.Where("user_id = ?", userID).First(&profile).Error; err != nil {
			return err
		}

		if err := tx.Model(&profile).Update("is_approved", true).Error; err != nil {
			return err
		}

		return tx.Model(&model.User{}).
			Where("id = ?", userID).
			Update("is_approved", true).Error
	})

	switch {
	case errors.Is(txErr, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, utilities.ErrorResponse{Error: "Profile not found"})

	case txErr != nil:
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to approve profile: %s", txErr.Error()),
		})

	default:
		c.JSON(http.StatusOK, utilities.MessageResponse{Message: "Profile approved"})
	}
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

type rejectResponse struct {
	Message   string `json:"message"`
	EmailSent bool   `json:"email_sent"`
}

// RejectProfile clears both approval flags, records the reason, writes a
// notification row and attempts an email. Mail failure never fails the
// rejection, the response just carries email_sent=false.
// @Summary Reject a student's profile
// @Tags TPO
// @Accept json
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param user_id path integer true "Student's user id"
// @Param reason body rejectRequest false "Rejection reason"
// @Success 200 {object} rejectResponse
// @Failure 404 {object} utilities.ErrorResponse "Profile not found"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /tpo/profiles/{user_id}/reject [post]
func (tc *TPOController) RejectProfile(c *gin.Context) {
	userID := c.Param("user_id")

	var req rejectRequest
	_ = c.ShouldBindJSON(&req)
	if req.Reason == "" {
		req.Reason = "Your profile was rejected"
	}

	var user model.User

	txErr := tc.DB.Transaction(func(tx *gorm.DB) error {
		var profile model.Profile
		if err := tx.Where("user_id = ?", userID).First(&profile).Error; err != nil {
			return err
		}
		if err := tx.Where("id = ?", userID).First(&user).Error; err != nil {
			// A profile without its user should not exist; don't let the
			// not-found read masquerade as a missing profile.
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("user %s missing for an existing profile", userID)
			}
			return err
		}

		if err := tx.Model(&profile).Updates(map[string]interface{}{
			"is_approved":    false,
			"approval_notes": req.Reason,
		}).Error; err != nil {
			return err
		}

		if err := tx.Model(&user).Update("is_approved", false).Error; err != nil {
			return err
		}

		notification := model.Notification{
			UserID:  user.ID,
			Title:   "Profile Rejected",
			Message: req.Reason,
		}
		return tx.Create(&notification).Error
	})

	switch {
	case errors.Is(txErr, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, utilities.ErrorResponse{Error: "Profile not found"})
		return

	case txErr != nil:
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to reject profile: %s", txErr.Error()),
		})
		return
	}

	emailSent := tc.Mail.Send(user.Email, "Profile Rejected", req.Reason)

	c.JSON(http.StatusOK, rejectResponse{
		Message:   "Profile rejected",
		EmailSent: emailSent,
	})
}

// approvedStudent is one row of the approved roster.
type approvedStudent struct {
	UserID          uint    `json:"user_id"`
	Email           string  `json:"email"`
	FirstName       string  `json:"first_name"`
	LastName        string  `json:"last_name"`
	Degree          string  `json:"degree"`
	Year            string  `json:"year"`
	Skills          string  `json:"skills"`
	PlacementStatus string  `json:"placement_status"`
	ResumeURL       *string `json:"resume_url,omitempty"`
}

// ApprovedStudents lists students whose profile and user flags are both
// approved, each with their latest verified resume when one exists.
// @Summary List approved students
// @Tags TPO
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Success 200 {array} approvedStudent
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /tpo/students/approved [get]
func (tc *TPOController) ApprovedStudents(c *gin.Context) {
	var rows []approvedStudent

	err := tc.DB.Table("users u").
		Select(`u.id AS user_id, u.email, u.first_name, u.last_name,
			p.degree, p.year, p.skills, p.placement_status,
			(SELECT f.file_url FROM file_uploads f
			 WHERE f.user_id = u.id AND f.file_type = ? AND f.is_verified = true
			 ORDER BY f.uploaded_at DESC LIMIT 1) AS resume_url`, model.FileTypeResume).
		Joins("INNER JOIN profiles p ON p.user_id = u.id").
		Where("u.role = ? AND u.is_approved = true AND p.is_approved = true", model.RoleStudent).
		Order("u.id ASC").
		Scan(&rows).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to fetch approved students: %s", err.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, rows)
}

type placementRequest struct {
	PlacementStatus string `json:"placement_status" binding:"required"`
}

// UpdatePlacement sets a student's placement status on their profile.
// @Summary Update placement status
// @Tags TPO
// @Accept json
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param user_id path integer true "Student's user id"
// @Param status body placementRequest true "New placement status"
// @Success 200 {object} model.Profile
// @Failure 400 {object} utilities.ErrorResponse "Missing placement status"
// @Failure 404 {object} utilities.ErrorResponse "Profile not found"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /tpo/students/{user_id}/placement [put]
func (tc *TPOController) UpdatePlacement(c *gin.Context) {
	var req placementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: "placement_status must be provided",
		})
		return
	}

	var profile model.Profile
	if err := tc.DB.Where("user_id = ?", c.Param("user_id")).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, utilities.ErrorResponse{Error: "Profile not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to fetch profile: %s", err.Error()),
		})
		return
	}

	if err := tc.DB.Model(&profile).Update("placement_status", req.PlacementStatus).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to update placement status: %s", err.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, profile)
}

// uploadWithOwner is a verification-queue row: the file plus who owns it.
type uploadWithOwner struct {
	model.FileUpload
	OwnerEmail     string `json:"owner_email"`
	OwnerFirstName string `json:"owner_first_name"`
	OwnerLastName  string `json:"owner_last_name"`
}

// PendingFiles lists uploads of the given type still awaiting verification.
// @Summary List files pending verification
// @Tags TPO
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param file_type query string false "resume or certificate" default(resume)
// @Success 200 {array} uploadWithOwner
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /tpo/files/pending [get]
func (tc *TPOController) PendingFiles(c *gin.Context) {
	tc.listFilesByVerification(c, false)
}

// VerifiedFiles lists uploads of the given type already verified.
// @Summary List verified files
// @Tags TPO
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param file_type query string false "resume or certificate" default(resume)
// @Success 200 {array} uploadWithOwner
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /tpo/files/verified [get]
func (tc *TPOController) VerifiedFiles(c *gin.Context) {
	tc.listFilesByVerification(c, true)
}

func (tc *TPOController) listFilesByVerification(c *gin.Context, verified bool) {
	fileType := c.DefaultQuery("file_type", model.FileTypeResume)

	var rows []uploadWithOwner
	err := tc.DB.Table("file_uploads").
		Select(`file_uploads.*, u.email AS owner_email,
			u.first_name AS owner_first_name, u.last_name AS owner_last_name`).
		Joins("INNER JOIN users u ON u.id = file_uploads.user_id").
		Where("file_uploads.file_type = ? AND file_uploads.is_verified = ?", fileType, verified).
		Order("file_uploads.uploaded_at DESC").
		Scan(&rows).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to fetch files: %s", err.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, rows)
}
