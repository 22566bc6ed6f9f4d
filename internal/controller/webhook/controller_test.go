package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/testcontainers/testcontainers-go"

	"prepsphere-backend/internal/database"
	"prepsphere-backend/internal/model"
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

func webhookRouter() *gin.Engine {
	r := gin.Default()
	wc := NewWebhookController(testDB)
	r.POST("/webhooks/clerk", wc.HandleClerkWebhook)
	return r
}

func deliver(t *testing.T, payload string, secret string) *httptest.ResponseRecorder {
	t.Helper()
	req, _ := http.NewRequest(http.MethodPost, "/webhooks/clerk", bytes.NewReader([]byte(payload)))
	req.Header.Set("Content-Type", "application/json")
	if secret != "" {
		mac := hmac.New(sha256.New, []byte(secret))
		mac.Write([]byte(payload))
		req.Header.Set("svix-signature", hex.EncodeToString(mac.Sum(nil)))
	}

	rec := httptest.NewRecorder()
	webhookRouter().ServeHTTP(rec, req)
	return rec
}

const createdPayload = `{
	"type": "user.created",
	"data": {
		"id": "user_wh_1",
		"first_name": "Hana",
		"last_name": "Iyer",
		"primary_email_address_id": "em_1",
		"email_addresses": [
			{"id": "em_2", "email_address": "secondary@example.com"},
			{"id": "em_1", "email_address": "hana@example.com"}
		],
		"unsafe_metadata": {"role": "tpo"}
	}
}`

func TestWebhook_UserCreated(t *testing.T) {
	rec := deliver(t, createdPayload, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	var user model.User
	assert.NoError(t, testDB.Where("clerk_user_id = ?", "user_wh_1").First(&user).Error)
	assert.Equal(t, "hana@example.com", user.Email)
	assert.Equal(t, "Hana", user.FirstName)
	assert.Equal(t, model.RoleTPO, user.Role)
}

func TestWebhook_UserUpdated_KeepsLocalRole(t *testing.T) {
	updated := `{
		"type": "user.updated",
		"data": {
			"id": "user_wh_1",
			"first_name": "Hana",
			"last_name": "Iyer-Rao",
			"primary_email_address_id": "em_1",
			"email_addresses": [{"id": "em_1", "email_address": "hana@example.com"}],
			"unsafe_metadata": {"role": "student"}
		}
	}`

	rec := deliver(t, updated, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	var user model.User
	assert.NoError(t, testDB.Where("clerk_user_id = ?", "user_wh_1").First(&user).Error)
	assert.Equal(t, "Iyer-Rao", user.LastName)
	// Role stays whatever it was assigned at creation.
	assert.Equal(t, model.RoleTPO, user.Role)
}

func TestWebhook_SignatureChecked(t *testing.T) {
	t.Setenv("CLERK_WEBHOOK_SECRET", "whsec_test")

	rec := deliver(t, createdPayload, "whsec_test")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = deliver(t, createdPayload, "wrong_secret")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Missing signature header is rejected too.
	rec = deliver(t, createdPayload, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestWebhook_UserDeleted(t *testing.T) {
	rec := deliver(t, `{"type": "user.deleted", "data": {"id": "user_wh_1"}}`, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	var count int64
	assert.NoError(t, testDB.Model(&model.User{}).
		Where("clerk_user_id = ?", "user_wh_1").
		Count(&count).Error)
	assert.Zero(t, count)

	// Deleting again is acknowledged without error.
	rec = deliver(t, `{"type": "user.deleted", "data": {"id": "user_wh_1"}}`, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestWebhook_UnknownEventIgnored(t *testing.T) {
	rec := deliver(t, `{"type": "session.created", "data": {"id": "sess_1"}}`, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestWebhook_MalformedPayload(t *testing.T) {
	rec := deliver(t, `{"type": "user.created", "data": {}}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
