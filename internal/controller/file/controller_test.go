package file

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/testcontainers/testcontainers-go"

	"prepsphere-backend/internal/auth"
	"prepsphere-backend/internal/database"
	"prepsphere-backend/internal/mailer"
	"prepsphere-backend/internal/middleware"
	"prepsphere-backend/internal/model"
	"prepsphere-backend/internal/storage"
	"prepsphere-backend/internal/testutil"
)

var testDB *database.DBinstanceStruct

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	var err error
	var midTeardown func(context.Context, ...testcontainers.TerminateOption) error
	midTeardown, testDB, err = database.GetTestDB()
	if err != nil {
		os.Exit(1)
	}
	m.Run()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if midTeardown != nil {
		_ = midTeardown(ctx)
	}
}

// fileRouter wires the controller without object storage; storage-backed
// endpoints answer 503 and the metadata endpoints work off the database.
func fileRouter() *gin.Engine {
	r := gin.Default()
	fc := NewFileController(testDB, nil, mailer.New(mailer.Config{}))
	grp := r.Group("/files", middleware.RequireAuth(testDB))
	grp.POST("upload", fc.Upload)
	grp.GET("user/:user_id", fc.ListByUser)
	grp.GET(":file_id", fc.GetFile)
	grp.GET(":file_id/download", fc.Download)
	grp.POST(":file_id/primary", fc.SetPrimary)
	grp.POST(":file_id/verify", middleware.CheckRole(model.RoleTPO, model.RoleAdmin), fc.Verify)
	grp.POST(":file_id/reject", middleware.CheckRole(model.RoleTPO, model.RoleAdmin), fc.Reject)
	return r
}

func seedUpload(t *testing.T, userID uint, fileType string) model.FileUpload {
	t.Helper()
	upload := model.FileUpload{
		UserID:   userID,
		FileName: "resume.pdf",
		FilePath: fmt.Sprintf("%d/%d_resume.pdf", userID, time.Now().UnixNano()),
		FileSize: 1024,
		MimeType: "application/pdf",
		FileType: fileType,
	}
	assert.NoError(t, testDB.Create(&upload).Error)
	return upload
}

func tpoToken(t *testing.T) string {
	t.Helper()
	token, err := auth.GetAccessToken(t, testDB, database.TestUserTPO.Username, database.TestSeedPassword)
	assert.NoError(t, err)
	return token
}

func studentToken(t *testing.T) string {
	t.Helper()
	token, err := auth.GetAccessToken(t, testDB, database.TestUserStudent1.Username, database.TestSeedPassword)
	assert.NoError(t, err)
	return token
}

func TestUpload_OversizedBodyRejected(t *testing.T) {
	// A throwaway client so the handler gets past the availability check;
	// the request is rejected before anything touches the bucket.
	store, err := storage.NewClient(&storage.Config{
		Endpoint:  "https://r2.invalid",
		AccessKey: "test",
		SecretKey: "test",
		Bucket:    "test",
	})
	assert.NoError(t, err)

	r := gin.Default()
	fc := NewFileController(testDB, store, mailer.New(mailer.Config{}))
	r.POST("/files/upload", middleware.RequireAuth(testDB), middleware.SizeLimit(MaxFileSize), fc.Upload)

	body := gin.H{
		"user_id":   database.TestUserStudent1.ID,
		"file_name": "resume.pdf",
		"data":      strings.Repeat("J", MaxFileSize*2),
	}
	rec, resp := testutil.MakeJSONRequest(body, studentToken(t), r, "/files/upload", http.MethodPost)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Contains(t, resp["error"], "size limit")
}

func TestUpload_StorageUnavailable(t *testing.T) {
	body := gin.H{
		"user_id":   database.TestUserStudent1.ID,
		"file_name": "resume.pdf",
		"data":      "JVBERi0xLjQ=",
	}
	rec, resp := testutil.MakeJSONRequest(body, studentToken(t), fileRouter(), "/files/upload", http.MethodPost)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, resp["error"], "not configured")
}

func TestDownload_StorageUnavailable(t *testing.T) {
	upload := seedUpload(t, database.TestUserStudent1.ID, model.FileTypeResume)

	endpoint := fmt.Sprintf("/files/%d/download", upload.ID)
	rec, _ := testutil.MakeJSONRequest(nil, studentToken(t), fileRouter(), endpoint, http.MethodGet)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestGetFile_Metadata(t *testing.T) {
	upload := seedUpload(t, database.TestUserStudent1.ID, model.FileTypeResume)

	endpoint := fmt.Sprintf("/files/%d", upload.ID)
	rec, resp := testutil.MakeJSONRequest(nil, studentToken(t), fileRouter(), endpoint, http.MethodGet)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "resume.pdf", resp["file_name"])
	assert.Equal(t, false, resp["is_verified"])
}

func TestVerify_RecordsDecision(t *testing.T) {
	upload := seedUpload(t, database.TestUserStudent1.ID, model.FileTypeResume)

	endpoint := fmt.Sprintf("/files/%d/verify", upload.ID)
	rec, resp := testutil.MakeJSONRequest(gin.H{"notes": "Looks complete"}, tpoToken(t), fileRouter(), endpoint, http.MethodPost)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, resp["is_verified"])

	var stored model.FileUpload
	assert.NoError(t, testDB.Where("id = ?", upload.ID).First(&stored).Error)
	assert.True(t, stored.IsVerified)
	assert.NotNil(t, stored.VerifiedBy)
	assert.Equal(t, database.TestUserTPO.ID, *stored.VerifiedBy)
	assert.NotNil(t, stored.VerifiedAt)
}

func TestReject_NotifiesOwner(t *testing.T) {
	upload := seedUpload(t, database.TestUserStudent2.ID, model.FileTypeCertificate)

	endpoint := fmt.Sprintf("/files/%d/reject", upload.ID)
	rec, resp := testutil.MakeJSONRequest(gin.H{"notes": "Scan is unreadable"}, tpoToken(t), fileRouter(), endpoint, http.MethodPost)

	assert.Equal(t, http.StatusOK, rec.Code)
	// No mail transport configured, rejection still recorded.
	assert.Equal(t, false, resp["email_sent"])

	var stored model.FileUpload
	assert.NoError(t, testDB.Where("id = ?", upload.ID).First(&stored).Error)
	assert.False(t, stored.IsVerified)
	assert.Equal(t, "Scan is unreadable", stored.VerificationNotes)

	var notification model.Notification
	assert.NoError(t, testDB.
		Where("user_id = ? AND title = ?", database.TestUserStudent2.ID, "Certificate Rejected").
		First(&notification).Error)
	assert.Equal(t, "Scan is unreadable", notification.Message)
}

func TestVerify_StudentForbidden(t *testing.T) {
	upload := seedUpload(t, database.TestUserStudent1.ID, model.FileTypeResume)

	endpoint := fmt.Sprintf("/files/%d/verify", upload.ID)
	rec, _ := testutil.MakeJSONRequest(nil, studentToken(t), fileRouter(), endpoint, http.MethodPost)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestSetPrimary_SingleWinner(t *testing.T) {
	first := seedUpload(t, database.TestUserStudent1.ID, model.FileTypeResume)
	second := seedUpload(t, database.TestUserStudent1.ID, model.FileTypeResume)

	endpoint := fmt.Sprintf("/files/%d/primary", first.ID)
	rec, _ := testutil.MakeJSONRequest(nil, studentToken(t), fileRouter(), endpoint, http.MethodPost)
	assert.Equal(t, http.StatusOK, rec.Code)

	endpoint = fmt.Sprintf("/files/%d/primary", second.ID)
	rec, _ = testutil.MakeJSONRequest(nil, studentToken(t), fileRouter(), endpoint, http.MethodPost)
	assert.Equal(t, http.StatusOK, rec.Code)

	var primaries int64
	assert.NoError(t, testDB.Model(&model.FileUpload{}).
		Where("user_id = ? AND is_primary = true", database.TestUserStudent1.ID).
		Count(&primaries).Error)
	assert.Equal(t, int64(1), primaries)

	var winner model.FileUpload
	assert.NoError(t, testDB.
		Where("user_id = ? AND is_primary = true", database.TestUserStudent1.ID).
		First(&winner).Error)
	assert.Equal(t, second.ID, winner.ID)
}

func TestSetPrimary_CertificateRejected(t *testing.T) {
	resume := seedUpload(t, database.TestUserStudent2.ID, model.FileTypeResume)
	cert := seedUpload(t, database.TestUserStudent2.ID, model.FileTypeCertificate)

	endpoint := fmt.Sprintf("/files/%d/primary", resume.ID)
	rec, _ := testutil.MakeJSONRequest(nil, studentToken(t), fileRouter(), endpoint, http.MethodPost)
	assert.Equal(t, http.StatusOK, rec.Code)

	endpoint = fmt.Sprintf("/files/%d/primary", cert.ID)
	rec, resp := testutil.MakeJSONRequest(nil, studentToken(t), fileRouter(), endpoint, http.MethodPost)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, resp["error"], "resume")

	// The existing primary resume is untouched.
	var stored model.FileUpload
	assert.NoError(t, testDB.Where("id = ?", resume.ID).First(&stored).Error)
	assert.True(t, stored.IsPrimary)
}

func TestGetFile_NotFound(t *testing.T) {
	rec, resp := testutil.MakeJSONRequest(nil, studentToken(t), fileRouter(), "/files/999999", http.MethodGet)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "File not found", resp["error"])
}
