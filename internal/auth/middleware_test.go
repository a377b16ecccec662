package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret")

func signedToken(t *testing.T, secret []byte, sub string, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": sub, "exp": exp.Unix()})
	s, err := token.SignedString(secret)
	require.NoError(t, err)
	return s
}

func runWith(mw echo.MiddlewareFunc, header string) (*httptest.ResponseRecorder, uuid.UUID) {
	e := echo.New()
	var seen uuid.UUID
	e.GET("/", func(c echo.Context) error {
		seen, _ = GetUserIDFromContext(c)
		return c.NoContent(http.StatusOK)
	}, mw)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec, seen
}

func TestMiddleware(t *testing.T) {
	userID := uuid.New()
	valid := "Bearer " + signedToken(t, testSecret, userID.String(), time.Now().Add(time.Hour))

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantUser   uuid.UUID
	}{
		{"valid token", valid, http.StatusOK, userID},
		{"missing header", "", http.StatusUnauthorized, uuid.Nil},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized, uuid.Nil},
		{"wrong secret", "Bearer " + signedToken(t, []byte("other"), userID.String(), time.Now().Add(time.Hour)), http.StatusUnauthorized, uuid.Nil},
		{"expired", "Bearer " + signedToken(t, testSecret, userID.String(), time.Now().Add(-time.Hour)), http.StatusUnauthorized, uuid.Nil},
		{"non-uuid subject", "Bearer " + signedToken(t, testSecret, "alice", time.Now().Add(time.Hour)), http.StatusUnauthorized, uuid.Nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, seen := runWith(Middleware(testSecret), tt.header)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantUser, seen)
		})
	}
}

func TestOptional(t *testing.T) {
	rec, seen := runWith(Optional(testSecret), "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uuid.Nil, seen)

	userID := uuid.New()
	rec, seen = runWith(Optional(testSecret), "Bearer "+signedToken(t, testSecret, userID.String(), time.Now().Add(time.Hour)))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, userID, seen)

	rec, _ = runWith(Optional(testSecret), "Bearer garbage")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMiddleware_NoSecretConfigured(t *testing.T) {
	token := signedToken(t, testSecret, uuid.New().String(), time.Now().Add(time.Hour))
	rec, _ := runWith(Middleware(nil), "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
