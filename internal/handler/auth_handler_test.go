package handler

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pyreportal/kiosk-agent/internal/service"
)

func newAuthRouter() (*gin.Engine, *service.AuthService) {
	gin.SetMode(gin.TestMode)
	auth := service.NewAuthService(nil)
	h := NewAuthHandler(auth)

	r := gin.New()
	r.PUT("/auth/session", h.Set)
	r.GET("/auth/session", h.Get)
	r.DELETE("/auth/session", h.Clear)
	return r, auth
}

func TestAuthHandlerLifecycle(t *testing.T) {
	r, auth := newAuthRouter()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/auth/session", nil)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"logged_in":false`)

	payload := `{"access_token":"token-1","user_id":42,"username":"teacher"}`
	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodPut, "/auth/session", bytes.NewBufferString(payload))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	token, err := auth.Token()
	require.NoError(t, err)
	assert.Equal(t, "token-1", token)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodDelete, "/auth/session", nil)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Nil(t, auth.Info())
}

func TestAuthHandlerRejectsIncompletePayload(t *testing.T) {
	r, _ := newAuthRouter()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPut, "/auth/session", bytes.NewBufferString(`{"access_token":"token-1"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusBadRequest, w.Code)
}
