package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/powerbrief-dev/powerbrief/db"
	"github.com/powerbrief-dev/powerbrief/internal/auth"
	"github.com/powerbrief-dev/powerbrief/internal/config"
	"github.com/powerbrief-dev/powerbrief/internal/models"
	"github.com/powerbrief-dev/powerbrief/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type userEnvelope struct {
	User types.UserResponse `json:"user"`
}

func setupAuth(t *testing.T) {
	t.Helper()
	setupHandlers(t, Dependencies{})
	require.NoError(t, auth.InitJWT(config.AuthSettings{JWTSecret: "handler-test-secret-0123", TokenTTL: time.Hour}))
}

func sessionCookie(t *testing.T, resp *http.Response) *http.Cookie {
	t.Helper()
	for _, c := range resp.Cookies() {
		if c.Name == types.SessionCookieName {
			return c
		}
	}
	t.Fatalf("no %s cookie in response", types.SessionCookieName)
	return nil
}

func TestRegisterAndLogin(t *testing.T) {
	setupAuth(t)

	r := newEngine(models.User{})
	r.POST("/auth/register", CreateUser)
	r.POST("/auth/login", LoginUser)
	r.POST("/auth/logout", LogoutUser)

	w := doJSON(t, r, http.MethodPost, "/auth/register", map[string]any{
		"name": " Ana ", "email": " Ana@Example.com ", "password": "short",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPost, "/auth/register", map[string]any{
		"name": " Ana ", "email": "Ana@Example.com", "password": "correct-horse",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	registered := decode[userEnvelope](t, w)
	assert.Equal(t, "Ana", registered.User.Name)
	assert.Equal(t, "ana@example.com", registered.User.Email)

	cookie := sessionCookie(t, w.Result())
	assert.True(t, cookie.HttpOnly)
	token, err := auth.VerifyJWT(cookie.Value)
	require.NoError(t, err)
	userID, err := auth.UserIDFromToken(token)
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, userID)

	w = doJSON(t, r, http.MethodPost, "/auth/register", map[string]any{
		"name": "Ana again", "email": "ana@example.com", "password": "correct-horse",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPost, "/auth/login", map[string]any{"email": "ana@example.com", "password": "wrong-horse"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid email or password")

	w = doJSON(t, r, http.MethodPost, "/auth/login", map[string]any{"email": "nobody@example.com", "password": "correct-horse"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid email or password")

	w = doJSON(t, r, http.MethodPost, "/auth/login", map[string]any{"email": "ANA@example.com", "password": "correct-horse"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotEmpty(t, sessionCookie(t, w.Result()).Value)

	w = doJSON(t, r, http.MethodPost, "/auth/logout", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, sessionCookie(t, w.Result()).Value)
}

func TestUpdateAndDeleteUser(t *testing.T) {
	setupAuth(t)

	hash, err := auth.HashPassword("correct-horse")
	require.NoError(t, err)
	user := models.User{Name: "Ana", Email: "ana@example.com", PasswordHash: hash}
	require.NoError(t, db.DB.Create(&user).Error)
	taken := seedUser(t, "Bo")

	r := newEngine(user)
	r.PATCH("/auth/me", UpdateUser)
	r.DELETE("/auth/me", DeleteUser)

	w := doJSON(t, r, http.MethodPatch, "/auth/me", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPatch, "/auth/me", map[string]any{"email": taken.Email})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPatch, "/auth/me", map[string]any{"new_password": "battery-staple"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPatch, "/auth/me", map[string]any{"new_password": "battery-staple", "current_password": "nope"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPatch, "/auth/me", map[string]any{
		"name": "Ana Lima", "new_password": "battery-staple", "current_password": "correct-horse",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Ana Lima", decode[userEnvelope](t, w).User.Name)

	var stored models.User
	require.NoError(t, db.DB.First(&stored, "id = ?", user.ID).Error)
	assert.True(t, auth.CheckPassword(stored.PasswordHash, "battery-staple"))

	w = doJSON(t, r, http.MethodDelete, "/auth/me", map[string]any{"password": "correct-horse"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodDelete, "/auth/me", map[string]any{"password": "battery-staple"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var count int64
	require.NoError(t, db.DB.Model(&models.User{}).Where("id = ?", user.ID).Count(&count).Error)
	assert.Zero(t, count)
}
