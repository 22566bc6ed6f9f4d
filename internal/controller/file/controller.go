// Package file provides resume and certificate handling: uploads into object
// storage, presigned downloads, and the TPO verification decisions.
package file

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"prepsphere-backend/internal/database"
	"prepsphere-backend/internal/mailer"
	"prepsphere-backend/internal/model"
	"prepsphere-backend/internal/storage"
	"prepsphere-backend/internal/utilities"
)

// MaxFileSize caps uploads at 500 KB.
const MaxFileSize = 500 * 1024

var unsafeKeyChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// FileController handles upload, download and verification endpoints
type FileController struct {
	DB    *database.DBinstanceStruct
	Store *storage.Client
	Mail  *mailer.Mailer
}

// NewFileController creates a new instance of FileController. Store may be
// nil when object storage is unconfigured; upload and download endpoints
// then answer 503 while the metadata endpoints keep working.
func NewFileController(db *database.DBinstanceStruct, store *storage.Client, mail *mailer.Mailer) *FileController {
	return &FileController{DB: db, Store: store, Mail: mail}
}

type uploadRequest struct {
	UserID   uint   `json:"user_id" binding:"required"`
	FileName string `json:"file_name" binding:"required"`
	FileType string `json:"file_type"`
	// Data is the base64 encoded file content.
	Data string `json:"data" binding:"required"`
}

// objectKey builds the storage key: per-user prefix, timestamp and a random
// token so repeated uploads of the same name never collide.
func objectKey(userID uint, fileName string) string {
	sanitized := unsafeKeyChars.ReplaceAllString(fileName, "_")
	return fmt.Sprintf("%d/%d_%s_%s", userID, time.Now().Unix(), uuid.NewString()[:8], sanitized)
}

func validPDF(data []byte) bool {
	return bytes.HasPrefix(data, []byte("%PDF"))
}

// bodyTooLarge reports whether err came from the request-size cap set by the
// SizeLimit middleware.
func bodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}

func abortTooLarge(c *gin.Context) {
	c.JSON(http.StatusRequestEntityTooLarge, utilities.ErrorResponse{
		Error: "Request body exceeds the size limit",
	})
}

// Upload stores a base64 encoded PDF and records its metadata row.
// @Summary Upload a resume or certificate
// @Description PDF only, 500 KB limit
// @Tags File
// @Accept json
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param file body uploadRequest true "File name, owner and base64 content"
// @Success 201 {object} model.FileUpload
// @Failure 400 {object} utilities.ErrorResponse "Not a PDF or over the size limit"
// @Failure 404 {object} utilities.ErrorResponse "User not found"
// @Failure 413 {object} utilities.ErrorResponse "Request body too large"
// @Failure 503 {object} utilities.ErrorResponse "Storage not configured"
// @Failure 500 {object} utilities.ErrorResponse "Upload failed"
// @Router /files/upload [post]
func (fc *FileController) Upload(c *gin.Context) {
	if fc.Store == nil {
		c.JSON(http.StatusServiceUnavailable, utilities.ErrorResponse{
			Error: "File storage is not configured",
		})
		return
	}

	var req uploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if bodyTooLarge(err) {
			abortTooLarge(c)
			return
		}
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: "user_id, file_name and data must be provided",
		})
		return
	}

	data, err := base64.StdEncoding.DecodeString(req.Data)
	if err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: "data must be valid base64",
		})
		return
	}

	fc.storeFile(c, req.UserID, req.FileName, req.FileType, data)
}

// UploadMultipart stores a PDF sent as a multipart form.
// @Summary Upload a file via multipart form
// @Description PDF only, 500 KB limit
// @Tags File
// @Accept multipart/form-data
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param user_id formData integer true "Owner's user id"
// @Param file_type formData string false "resume or certificate"
// @Param file formData file true "PDF file"
// @Success 201 {object} model.FileUpload
// @Failure 400 {object} utilities.ErrorResponse "Not a PDF or over the size limit"
// @Failure 404 {object} utilities.ErrorResponse "User not found"
// @Failure 413 {object} utilities.ErrorResponse "Request body too large"
// @Failure 503 {object} utilities.ErrorResponse "Storage not configured"
// @Failure 500 {object} utilities.ErrorResponse "Upload failed"
// @Router /files/upload/form [post]
func (fc *FileController) UploadMultipart(c *gin.Context) {
	if fc.Store == nil {
		c.JSON(http.StatusServiceUnavailable, utilities.ErrorResponse{
			Error: "File storage is not configured",
		})
		return
	}

	var form struct {
		UserID   uint   `form:"user_id" binding:"required"`
		FileType string `form:"file_type"`
	}
	if err := c.ShouldBind(&form); err != nil {
		if bodyTooLarge(err) {
			abortTooLarge(c)
			return
		}
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: "user_id must be provided",
		})
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		if bodyTooLarge(err) {
			abortTooLarge(c)
			return
		}
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: "file must be provided",
		})
		return
	}

	opened, err := header.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to read file: %s", err.Error()),
		})
		return
	}
	defer opened.Close()

	data, err := io.ReadAll(io.LimitReader(opened, MaxFileSize+1))
	if err != nil {
		if bodyTooLarge(err) {
			abortTooLarge(c)
			return
		}
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to read file: %s", err.Error()),
		})
		return
	}

	fc.storeFile(c, form.UserID, header.Filename, form.FileType, data)
}

func (fc *FileController) storeFile(c *gin.Context, userID uint, fileName string, fileType string, data []byte) {
	if len(data) > MaxFileSize {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: "File exceeds the 500KB size limit",
		})
		return
	}
	if !validPDF(data) {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: "Only PDF files are accepted",
		})
		return
	}

	var user model.User
	if err := fc.DB.Where("id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, utilities.ErrorResponse{Error: "User not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to fetch user: %s", err.Error()),
		})
		return
	}

	if fileType != model.FileTypeCertificate {
		fileType = model.FileTypeResume
	}

	key := objectKey(user.ID, fileName)
	if err := fc.Store.Upload(c.Request.Context(), key, bytes.NewReader(data), "application/pdf"); err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to upload file: %s", err.Error()),
		})
		return
	}

	upload := model.FileUpload{
		UserID:   user.ID,
		FileName: fileName,
		FilePath: key,
		FileURL:  fc.Store.PublicURL(key),
		FileSize: int64(len(data)),
		MimeType: "application/pdf",
		FileType: fileType,
	}

	if err := fc.DB.Create(&upload).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to record upload: %s", err.Error()),
		})
		return
	}

	c.JSON(http.StatusCreated, upload)
}

// ListByUser returns a user's uploads, optionally filtered by type. When
// storage is reachable, rows whose object has since disappeared are dropped.
// @Summary List a user's files
// @Tags File
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param user_id path integer true "User id"
// @Param file_type query string false "resume or certificate"
// @Success 200 {array} model.FileUpload
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /files/user/{user_id} [get]
func (fc *FileController) ListByUser(c *gin.Context) {
	query := fc.DB.Where("user_id = ?", c.Param("user_id"))
	if fileType := c.Query("file_type"); fileType != "" {
		query = query.Where("file_type = ?", fileType)
	}

	var uploads []model.FileUpload
	if err := query.Order("uploaded_at DESC").Find(&uploads).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to fetch files: %s", err.Error()),
		})
		return
	}

	if fc.Store == nil {
		c.JSON(http.StatusOK, uploads)
		return
	}

	existing := make([]model.FileUpload, 0, len(uploads))
	for _, upload := range uploads {
		if fc.Store.Exists(c.Request.Context(), upload.FilePath) {
			existing = append(existing, upload)
		}
	}

	c.JSON(http.StatusOK, existing)
}

// GetFile fetches one upload's metadata row.
// @Summary Get file metadata
// @Tags File
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param file_id path integer true "File id"
// @Success 200 {object} model.FileUpload
// @Failure 404 {object} utilities.ErrorResponse "File not found"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /files/{file_id} [get]
func (fc *FileController) GetFile(c *gin.Context) {
	upload, ok := fc.findUpload(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, upload)
}

// Download redirects to a short lived presigned URL for the object.
// @Summary Download a file
// @Tags File
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param file_id path integer true "File id"
// @Success 307 {string} string "Redirect to presigned URL"
// @Failure 404 {object} utilities.ErrorResponse "File not found"
// @Failure 503 {object} utilities.ErrorResponse "Storage not configured"
// @Failure 500 {object} utilities.ErrorResponse "Presign failed"
// @Router /files/{file_id}/download [get]
func (fc *FileController) Download(c *gin.Context) {
	if fc.Store == nil {
		c.JSON(http.StatusServiceUnavailable, utilities.ErrorResponse{
			Error: "File storage is not configured",
		})
		return
	}

	upload, ok := fc.findUpload(c)
	if !ok {
		return
	}

	url, err := fc.Store.Presign(upload.FilePath, 10*time.Minute)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to presign file: %s", err.Error()),
		})
		return
	}

	c.Redirect(http.StatusTemporaryRedirect, url)
}

type presignedResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Presigned returns a short lived URL for the object instead of redirecting.
// @Summary Get a presigned URL for a file
// @Tags File
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param file_id path integer true "File id"
// @Success 200 {object} presignedResponse
// @Failure 404 {object} utilities.ErrorResponse "File not found"
// @Failure 503 {object} utilities.ErrorResponse "Storage not configured"
// @Failure 500 {object} utilities.ErrorResponse "Presign failed"
// @Router /files/{file_id}/url [get]
func (fc *FileController) Presigned(c *gin.Context) {
	if fc.Store == nil {
		c.JSON(http.StatusServiceUnavailable, utilities.ErrorResponse{
			Error: "File storage is not configured",
		})
		return
	}

	upload, ok := fc.findUpload(c)
	if !ok {
		return
	}

	expiry := 10 * time.Minute
	url, err := fc.Store.Presign(upload.FilePath, expiry)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to presign file: %s", err.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, presignedResponse{URL: url, ExpiresAt: time.Now().Add(expiry)})
}

type verifyRequest struct {
	Notes string `json:"notes"`
}

// Verify marks an upload verified and records who decided.
// @Summary Verify a file
// @Tags File
// @Accept json
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param file_id path integer true "File id"
// @Param notes body verifyRequest false "Verification notes"
// @Success 200 {object} model.FileUpload
// @Failure 404 {object} utilities.ErrorResponse "File not found"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /files/{file_id}/verify [post]
func (fc *FileController) Verify(c *gin.Context) {
	upload, ok := fc.findUpload(c)
	if !ok {
		return
	}

	var req verifyRequest
	_ = c.ShouldBindJSON(&req)

	verifier, err := utilities.ExtractUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utilities.ErrorResponse{Error: err.Error()})
		return
	}

	now := time.Now()
	updates := map[string]interface{}{
		"is_verified":        true,
		"verified_by":        verifier.ID,
		"verification_notes": req.Notes,
		"verified_at":        now,
	}
	if err := fc.DB.Model(&upload).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to verify file: %s", err.Error()),
		})
		return
	}

	upload.IsVerified = true
	upload.VerifiedBy = &verifier.ID
	upload.VerificationNotes = req.Notes
	upload.VerifiedAt = &now

	c.JSON(http.StatusOK, upload)
}

type rejectFileResponse struct {
	Message   string `json:"message"`
	EmailSent bool   `json:"email_sent"`
}

// Reject marks an upload unverified, records the notes, notifies the owner
// and attempts an email. Mail failure never fails the rejection.
// @Summary Reject a file
// @Tags File
// @Accept json
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param file_id path integer true "File id"
// @Param notes body verifyRequest false "Rejection notes"
// @Success 200 {object} rejectFileResponse
// @Failure 404 {object} utilities.ErrorResponse "File not found"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /files/{file_id}/reject [post]
func (fc *FileController) Reject(c *gin.Context) {
	upload, ok := fc.findUpload(c)
	if !ok {
		return
	}

	var req verifyRequest
	_ = c.ShouldBindJSON(&req)

	verifier, err := utilities.ExtractUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utilities.ErrorResponse{Error: err.Error()})
		return
	}

	title := "Resume Rejected"
	if upload.FileType == model.FileTypeCertificate {
		title = "Certificate Rejected"
	}
	reason := req.Notes
	if reason == "" {
		reason = fmt.Sprintf("Your %s %q was rejected", upload.FileType, upload.FileName)
	}

	var owner model.User

	txErr := fc.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", upload.UserID).First(&owner).Error; err != nil {
			return err
		}

		if err := tx.Model(&upload).Updates(map[string]interface{}{
			"is_verified":        false,
			"verified_by":        verifier.ID,
			"verification_notes": reason,
			"verified_at":        time.Now(),
		}).Error; err != nil {
			return err
		}

		notification := model.Notification{
			UserID:  owner.ID,
			Title:   title,
			Message: reason,
		}
		return tx.Create(&notification).Error
	})
	if txErr != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to reject file: %s", txErr.Error()),
		})
		return
	}

	emailSent := fc.Mail.Send(owner.Email, title, reason)

	c.JSON(http.StatusOK, rejectFileResponse{
		Message:   "File rejected",
		EmailSent: emailSent,
	})
}

// SetPrimary marks one resume as the default, clearing the flag on the
// owner's other uploads in the same transaction.
// @Summary Set a file as the primary resume
// @Tags File
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param file_id path integer true "File id"
// @Success 200 {object} model.FileUpload
// @Failure 400 {object} utilities.ErrorResponse "Not a resume"
// @Failure 404 {object} utilities.ErrorResponse "File not found"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /files/{file_id}/primary [post]
func (fc *FileController) SetPrimary(c *gin.Context) {
	upload, ok := fc.findUpload(c)
	if !ok {
		return
	}

	if upload.FileType != model.FileTypeResume {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: "Only a resume can be set as primary",
		})
		return
	}

	txErr := fc.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.FileUpload{}).
			Where("user_id = ? AND file_type = ? AND id <> ?", upload.UserID, model.FileTypeResume, upload.ID).
			Update("is_primary", false).Error; err != nil {
			return err
		}
		return tx.Model(&upload).Update("is_primary", true).Error
	})
	if txErr != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to set primary: %s", txErr.Error()),
		})
		return
	}

	upload.IsPrimary = true
	c.JSON(http.StatusOK, upload)
}

// DeleteFile removes the object and its metadata row.
// @Summary Delete a file
// @Tags File
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param file_id path integer true "File id"
// @Success 200 {object} utilities.MessageResponse
// @Failure 404 {object} utilities.ErrorResponse "File not found"
// @Failure 500 {object} utilities.ErrorResponse "Delete failed"
// @Router /files/{file_id} [delete]
func (fc *FileController) DeleteFile(c *gin.Context) {
	upload, ok := fc.findUpload(c)
	if !ok {
		return
	}

	if fc.Store != nil {
		if err := fc.Store.Delete(c.Request.Context(), upload.FilePath); err != nil {
			c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
				Error: fmt.Sprintf("Failed to delete object: %s", err.Error()),
			})
			return
		}
	}

	if err := fc.DB.Delete(&upload).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to delete file: %s", err.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, utilities.MessageResponse{Message: "File deleted successfully"})
}

func (fc *FileController) findUpload(c *gin.Context) (model.FileUpload, bool) {
	var upload model.FileUpload
	err := fc.DB.Where("id = ?", c.Param("file_id")).First(&upload).Error

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, utilities.ErrorResponse{Error: "File not found"})
		return upload, false

	case err != nil:
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to fetch file: %s", err.Error()),
		})
		return upload, false
	}

	return upload, true
}
