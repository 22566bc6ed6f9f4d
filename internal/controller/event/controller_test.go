package event

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

	"prepsphere-backend/internal/auth"
	"prepsphere-backend/internal/database"
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

func eventRouter() *gin.Engine {
	r := gin.Default()
	ec := NewEventController(testDB)
	grp := r.Group("/events", middleware.RequireAuth(testDB))
	grp.GET("", ec.ListEvents)
	grp.GET(":event_id", ec.GetEvent)
	grp.POST(":event_id/register", ec.Register)
	grp.POST("", middleware.CheckRole(model.RoleTPO, model.RoleAdmin), ec.CreateEvent)
	grp.PUT(":event_id", middleware.CheckRole(model.RoleTPO, model.RoleAdmin), ec.UpdateEvent)
	grp.GET(":event_id/registrations", middleware.CheckRole(model.RoleTPO, model.RoleAdmin), ec.Registrations)
	grp.POST(":event_id/remind", middleware.CheckRole(model.RoleTPO, model.RoleAdmin), ec.SendReminders)
	return r
}

func studentToken(t *testing.T) string {
	t.Helper()
	token, err := auth.GetAccessToken(t, testDB, database.TestUserStudent1.Username, database.TestSeedPassword)
	assert.NoError(t, err)
	return token
}

func tpoToken(t *testing.T) string {
	t.Helper()
	token, err := auth.GetAccessToken(t, testDB, database.TestUserTPO.Username, database.TestSeedPassword)
	assert.NoError(t, err)
	return token
}

func TestListEvents_ExcludesCancelledByDefault(t *testing.T) {
	cancelled := model.Event{Title: "Scrapped Seminar", Status: model.EventStatusCancelled}
	assert.NoError(t, testDB.Create(&cancelled).Error)

	rec, _ := testutil.MakeJSONRequest(nil, studentToken(t), eventRouter(), "/events", http.MethodGet)
	assert.Equal(t, http.StatusOK, rec.Code)

	var events []model.Event
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &events))
	for _, e := range events {
		assert.NotEqual(t, cancelled.ID, e.ID)
	}

	// The status filter surfaces them on request.
	rec, _ = testutil.MakeJSONRequest(nil, studentToken(t), eventRouter(), "/events?status=Cancelled", http.MethodGet)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &events))
	assert.NotEmpty(t, events)
}

func TestRegister_ByID(t *testing.T) {
	endpoint := fmt.Sprintf("/events/%d/register", database.TestEvent1.ID)
	body := gin.H{"user_id": database.TestUserStudent1.ID}

	rec, resp := testutil.MakeJSONRequest(body, studentToken(t), eventRouter(), endpoint, http.MethodPost)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(database.TestUserStudent1.ID), resp["user_id"])
}

func TestRegister_ByAlternateEmail(t *testing.T) {
	endpoint := fmt.Sprintf("/events/%d/register", database.TestEvent1.ID)
	body := gin.H{"email": database.TestProfile1.AlternateEmail}

	rec, resp := testutil.MakeJSONRequest(body, studentToken(t), eventRouter(), endpoint, http.MethodPost)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(database.TestUserStudent1.ID), resp["user_id"])

	// Same attendee either way, so still a single registration row.
	var count int64
	assert.NoError(t, testDB.Model(&model.EventRegistration{}).
		Where("event_id = ? AND user_id = ?", database.TestEvent1.ID, database.TestUserStudent1.ID).
		Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestRegister_CancelledEvent(t *testing.T) {
	cancelled := model.Event{Title: "Cancelled Drive", Status: model.EventStatusCancelled}
	assert.NoError(t, testDB.Create(&cancelled).Error)

	endpoint := fmt.Sprintf("/events/%d/register", cancelled.ID)
	body := gin.H{"user_id": database.TestUserStudent1.ID}

	rec, resp := testutil.MakeJSONRequest(body, studentToken(t), eventRouter(), endpoint, http.MethodPost)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, resp["error"], "cancelled")
}

func TestRegister_UnknownAttendee(t *testing.T) {
	endpoint := fmt.Sprintf("/events/%d/register", database.TestEvent1.ID)
	body := gin.H{"email": "nobody@example.com"}

	rec, resp := testutil.MakeJSONRequest(body, studentToken(t), eventRouter(), endpoint, http.MethodPost)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "User not found", resp["error"])
}

func TestGetEvent_CountsRegistrations(t *testing.T) {
	endpoint := fmt.Sprintf("/events/%d", database.TestEvent1.ID)
	rec, resp := testutil.MakeJSONRequest(nil, studentToken(t), eventRouter(), endpoint, http.MethodGet)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), resp["registered"])
}

func TestSendReminders_NotifiesRegistrants(t *testing.T) {
	endpoint := fmt.Sprintf("/events/%d/remind", database.TestEvent1.ID)
	rec, resp := testutil.MakeJSONRequest(nil, tpoToken(t), eventRouter(), endpoint, http.MethodPost)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), resp["notified"])

	var notification model.Notification
	assert.NoError(t, testDB.
		Where("user_id = ? AND title = ?", database.TestUserStudent1.ID, "Event Reminder").
		First(&notification).Error)
	assert.Contains(t, notification.Message, database.TestEvent1.Title)
}

func TestUpdateEvent_Patch(t *testing.T) {
	endpoint := fmt.Sprintf("/events/%d", database.TestEvent1.ID)
	rec, resp := testutil.MakeJSONRequest(gin.H{"location": "Auditorium B"}, tpoToken(t), eventRouter(), endpoint, http.MethodPut)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Auditorium B", resp["location"])
	assert.Equal(t, database.TestEvent1.Title, resp["title"])
}
