package tpo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/testcontainers/testcontainers-go"
	"gorm.io/gorm"

	"prepsphere-backend/internal/auth"
	"prepsphere-backend/internal/database"
	"prepsphere-backend/internal/mailer"
	"prepsphere-backend/internal/middleware"
	"prepsphere-backend/internal/model"
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

func tpoRouter() *gin.Engine {
	r := gin.Default()
	// An unconfigured mailer keeps email results deterministic.
	tc := NewTPOController(testDB, mailer.New(mailer.Config{}))
	grp := r.Group("/tpo", middleware.RequireAuth(testDB), middleware.CheckRole(model.RoleTPO, model.RoleAdmin))
	grp.GET("profiles/pending", tc.PendingProfiles)
	grp.POST("profiles/:user_id/approve", tc.ApproveProfile)
	grp.POST("profiles/:user_id/reject", tc.RejectProfile)
	grp.GET("students/approved", tc.ApprovedStudents)
	grp.PUT("students/:user_id/placement", tc.UpdatePlacement)
	grp.GET("stats/summary", tc.StatsSummary)
	grp.GET("stats/summary.csv", tc.StatsSummaryCSV)
	return r
}

func tpoToken(t *testing.T) string {
	t.Helper()
	token, err := auth.GetAccessToken(t, testDB, database.TestUserTPO.Username, database.TestSeedPassword)
	assert.NoError(t, err)
	return token
}

func TestPendingProfiles_IncludesStudentWithoutProfile(t *testing.T) {
	rec, _ := testutil.MakeJSONRequest(nil, tpoToken(t), tpoRouter(), "/tpo/profiles/pending", http.MethodGet)
	assert.Equal(t, http.StatusOK, rec.Code)

	var rows []map[string]interface{}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))

	found := false
	for _, row := range rows {
		if row["user_id"] == float64(database.TestUserStudent2.ID) {
			found = true
			assert.Nil(t, row["profile_id"])
		}
		// Student 1 is seeded approved and must not be queued.
		assert.NotEqual(t, float64(database.TestUserStudent1.ID), row["user_id"])
	}
	assert.True(t, found)
}

func TestCheckRole_StudentForbidden(t *testing.T) {
	token, err := auth.GetAccessToken(t, testDB, database.TestUserStudent1.Username, database.TestSeedPassword)
	assert.NoError(t, err)

	rec, _ := testutil.MakeJSONRequest(nil, token, tpoRouter(), "/tpo/profiles/pending", http.MethodGet)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRejectProfile_NotificationAndEmailFlag(t *testing.T) {
	endpoint := fmt.Sprintf("/tpo/profiles/%d/reject", database.TestUserStudent1.ID)
	rec, resp := testutil.MakeJSONRequest(gin.H{"reason": "Skills section too vague"}, tpoToken(t), tpoRouter(), endpoint, http.MethodPost)

	assert.Equal(t, http.StatusOK, rec.Code)
	// The rejection sticks even though no mail transport is configured.
	assert.Equal(t, false, resp["email_sent"])

	var profile model.Profile
	assert.NoError(t, testDB.Where("user_id = ?", database.TestUserStudent1.ID).First(&profile).Error)
	assert.False(t, profile.IsApproved)
	assert.Equal(t, "Skills section too vague", profile.ApprovalNotes)

	var user model.User
	assert.NoError(t, testDB.Where("id = ?", database.TestUserStudent1.ID).First(&user).Error)
	assert.False(t, user.IsApproved)

	var notification model.Notification
	assert.NoError(t, testDB.
		Where("user_id = ? AND title = ?", database.TestUserStudent1.ID, "Profile Rejected").
		Order("created_at DESC").
		First(&notification).Error)
	assert.Equal(t, "Skills section too vague", notification.Message)
}

func TestApproveProfile_SetsBothFlags(t *testing.T) {
	endpoint := fmt.Sprintf("/tpo/profiles/%d/approve", database.TestUserStudent1.ID)
	rec, _ := testutil.MakeJSONRequest(nil, tpoToken(t), tpoRouter(), endpoint, http.MethodPost)
	assert.Equal(t, http.StatusOK, rec.Code)

	var profile model.Profile
	assert.NoError(t, testDB.Where("user_id = ?", database.TestUserStudent1.ID).First(&profile).Error)
	assert.True(t, profile.IsApproved)

	var user model.User
	assert.NoError(t, testDB.Where("id = ?", database.TestUserStudent1.ID).First(&user).Error)
	assert.True(t, user.IsApproved)

	// Approvals are silent: no notification row is written.
	var count int64
	assert.NoError(t, testDB.Model(&model.Notification{}).
		Where("user_id = ? AND title LIKE ?", database.TestUserStudent1.ID, "%Approved%").
		Count(&count).Error)
	assert.Zero(t, count)
}

func TestApproveProfile_NoProfileNotFound(t *testing.T) {
	rec, resp := testutil.MakeJSONRequest(nil, tpoToken(t), tpoRouter(), "/tpo/profiles/999999/approve", http.MethodPost)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Profile not found", resp["error"])
}

func TestApprovedStudents_ListsApprovedOnly(t *testing.T) {
	rec, _ := testutil.MakeJSONRequest(nil, tpoToken(t), tpoRouter(), "/tpo/students/approved", http.MethodGet)
	assert.Equal(t, http.StatusOK, rec.Code)

	var rows []map[string]interface{}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))

	found := false
	for _, row := range rows {
		if row["user_id"] == float64(database.TestUserStudent1.ID) {
			found = true
		}
		assert.NotEqual(t, float64(database.TestUserStudent2.ID), row["user_id"])
	}
	assert.True(t, found)
}

func TestRejectProfile_OrphanProfileIsServerError(t *testing.T) {
	orphan := model.User{
		ClerkUserID: "user_orphan_test",
		Email:       "orphan@example.com",
		FirstName:   "Orla",
		Role:        model.RoleStudent,
	}
	assert.NoError(t, testDB.Create(&orphan).Error)
	profile := model.Profile{UserID: orphan.ID, Phone: "0100000099"}
	assert.NoError(t, testDB.Create(&profile).Error)

	// Postgres enforces foreign keys through triggers; replica mode skips
	// them for this one transaction so the user row can vanish underneath
	// its profile.
	assert.NoError(t, testDB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("SET LOCAL session_replication_role = 'replica'").Error; err != nil {
			return err
		}
		return tx.Exec("DELETE FROM users WHERE id = ?", orphan.ID).Error
	}))
	defer testDB.Exec("DELETE FROM profiles WHERE id = ?", profile.ID)

	endpoint := fmt.Sprintf("/tpo/profiles/%d/reject", orphan.ID)
	rec, resp := testutil.MakeJSONRequest(gin.H{"reason": "x"}, tpoToken(t), tpoRouter(), endpoint, http.MethodPost)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotEqual(t, "Profile not found", resp["error"])
	assert.Contains(t, resp["error"], "missing")
}

func TestUpdatePlacement(t *testing.T) {
	endpoint := fmt.Sprintf("/tpo/students/%d/placement", database.TestUserStudent1.ID)
	rec, resp := testutil.MakeJSONRequest(gin.H{"placement_status": "Placed"}, tpoToken(t), tpoRouter(), endpoint, http.MethodPut)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Placed", resp["placement_status"])
}

func TestStatsSummary_CountsSelected(t *testing.T) {
	applications := []model.JobApplication{
		{JobID: database.TestJob1.ID, UserID: database.TestUserStudent1.ID, Status: model.ApplicationStatusSelected},
		{JobID: database.TestJob1.ID, UserID: database.TestUserStudent2.ID, Status: model.ApplicationStatusApplied},
	}
	assert.NoError(t, testDB.Create(&applications).Error)

	rec, resp := testutil.MakeJSONRequest(nil, tpoToken(t), tpoRouter(), "/tpo/stats/summary", http.MethodGet)
	assert.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, float64(2), resp["total_jobs"])
	assert.Equal(t, float64(2), resp["total_applications"])
	assert.Equal(t, float64(1), resp["total_selected"])

	byJob, ok := resp["applications_by_job"].([]interface{})
	assert.True(t, ok)
	assert.Len(t, byJob, 2)

	// Ordered by application volume, the contested job comes first.
	top, ok := byJob[0].(map[string]interface{})
	assert.True(t, ok)
	assert.Equal(t, float64(database.TestJob1.ID), top["id"])
	assert.Equal(t, float64(2), top["applications"])
	assert.Equal(t, float64(1), top["selected"])
}

func TestStatsSummaryCSV_WritesReportLog(t *testing.T) {
	rec, _ := testutil.MakeJSONRequest(nil, tpoToken(t), tpoRouter(), "/tpo/stats/summary.csv", http.MethodGet)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "tpo_summary.csv")

	body := rec.Body.String()
	assert.Contains(t, body, "job_id,title,applications,selected")
	assert.Contains(t, body, database.TestJob1.Title)

	var report model.TPOReport
	assert.NoError(t, testDB.
		Where("type = ?", model.ReportTypeSummary).
		Order("generated_at DESC").
		First(&report).Error)
	assert.NotNil(t, report.GeneratedBy)
	assert.Equal(t, database.TestUserTPO.ID, *report.GeneratedBy)
	assert.Contains(t, report.DataJSON, database.TestJob1.Title)
}
