// Package testutil holds shared helpers for handler tests.
package testutil

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
)

// MakeJSONRequest serves a JSON request against the given engine and decodes
// the response body into a generic map. A nil body sends an empty JSON object,
// an empty authToken still sends the header so auth failures stay testable.
func MakeJSONRequest(body gin.H, authToken string, r *gin.Engine, endpoint string, method string) (*httptest.ResponseRecorder, map[string]interface{}) {
	if body == nil {
		body = gin.H{}
	}
	payload, _ := json.Marshal(body)

	req := httptest.NewRequest(method, endpoint, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+authToken)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	resp := map[string]interface{}{}
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)

	return rec, resp
}

// StringPtr returns a pointer to s, for filling optional patch fields.
func StringPtr(s string) *string {
	return &s
}
