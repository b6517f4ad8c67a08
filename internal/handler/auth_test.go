package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/maddi-booking/internal/middleware"
)

type authFixture struct {
	e      *echo.Echo
	users  *memUsers
	tokens *memTokens
}

func newAuthFixture() *authFixture {
	f := &authFixture{e: newEcho(), users: newMemUsers(), tokens: newMemTokens()}
	h := NewAuthHandler(testConfig(), f.users, f.tokens, quiet())
	f.e.POST("/register", h.Register)
	f.e.POST("/login", h.Login)
	f.e.POST("/refresh", h.Refresh)
	f.e.POST("/logout", h.Logout)
	f.e.GET("/me", h.Me, middleware.JWTAuth(testSecret))
	return f
}

func (f *authFixture) do(method, path, body, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if auth != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+auth)
	}
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)
	return rec
}

func decodeAuth(t *testing.T, rec *httptest.ResponseRecorder) authResp {
	t.Helper()
	var out authResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestRegisterAndLogin(t *testing.T) {
	f := newAuthFixture()

	rec := f.do(http.MethodPost, "/register", `{"email":"Owner@Example.com","password":"correct-horse","full_name":"Olive","role":"owner"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	reg := decodeAuth(t, rec)
	assert.Equal(t, "owner@example.com", reg.User.Email)
	assert.Equal(t, "OWNER", reg.User.Role)
	assert.NotEmpty(t, reg.Access.Token)
	assert.NotEmpty(t, reg.Refresh.Token)

	rec = f.do(http.MethodPost, "/register", `{"email":"owner@example.com","password":"correct-horse","role":"OWNER"}`, "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = f.do(http.MethodPost, "/login", `{"email":"owner@example.com","password":"wrong-password"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = f.do(http.MethodPost, "/login", `{"email":"ghost@example.com","password":"whatever1"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(http.MethodPost, "/login", `{"email":"owner@example.com","password":"correct-horse"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	login := decodeAuth(t, rec)

	rec = f.do(http.MethodGet, "/me", "", login.Access.Token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"email":"owner@example.com"`)
}

func TestRegisterRejectsBadInput(t *testing.T) {
	f := newAuthFixture()
	for _, body := range []string{
		`{"email":"a@example.com","password":"short","role":"OWNER"}`,
		`{"email":"not-an-email","password":"long-enough","role":"OWNER"}`,
		`{"email":"a@example.com","password":"long-enough","role":"ADMIN"}`,
		`{"email":"a@example.com","password":"long-enough"}`,
		`{"email":`,
	} {
		rec := f.do(http.MethodPost, "/register", body, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
	assert.Empty(t, f.users.users)
}

func TestRefreshRotatesToken(t *testing.T) {
	f := newAuthFixture()
	reg := decodeAuth(t, f.do(http.MethodPost, "/register", `{"email":"b@example.com","password":"long-enough","role":"BUSINESS"}`, ""))

	rec := f.do(http.MethodPost, "/refresh", `{"refresh_token":"`+reg.Refresh.Token+`"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	next := decodeAuth(t, rec)
	assert.NotEqual(t, reg.Refresh.Token, next.Refresh.Token)

	rec = f.do(http.MethodPost, "/refresh", `{"refresh_token":"`+reg.Refresh.Token+`"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "rotated token is single use")

	rec = f.do(http.MethodPost, "/refresh", `{}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogout(t *testing.T) {
	f := newAuthFixture()
	reg := decodeAuth(t, f.do(http.MethodPost, "/register", `{"email":"c@example.com","password":"long-enough","role":"BUSINESS"}`, ""))

	rec := f.do(http.MethodPost, "/logout", `{"refresh_token":"`+reg.Refresh.Token+`"}`, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = f.do(http.MethodPost, "/logout", `{"refresh_token":"`+reg.Refresh.Token+`"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	again := decodeAuth(t, f.do(http.MethodPost, "/login", `{"email":"c@example.com","password":"long-enough"}`, ""))
	rec = f.do(http.MethodPost, "/logout", `{}`, again.Access.Token)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = f.do(http.MethodPost, "/refresh", `{"refresh_token":"`+again.Refresh.Token+`"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "bearer logout revokes every refresh token")

	rec = f.do(http.MethodPost, "/logout", `{}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
