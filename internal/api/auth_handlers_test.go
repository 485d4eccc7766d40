package api

import (
	"context"
	"encoding/json/v2"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister_FirstUserIsAdmin(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	resp := ts.api.Post("/api/v1/auth/register", map[string]any{
		"username":   "alice",
		"email":      "alice@example.com",
		"password":   "correct-horse-battery",
		"first_name": "Alice",
		"last_name":  "Appleseed",
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var envelope testEnvelope[UserResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.True(t, envelope.Success)
	assert.Equal(t, "alice", envelope.Data.Username)
	assert.Equal(t, "admin", envelope.Data.Role)

	resp = ts.api.Post("/api/v1/auth/register", map[string]any{
		"username":   "bob",
		"email":      "bob@example.com",
		"password":   "correct-horse-battery",
		"first_name": "Bob",
		"last_name":  "Baker",
	})
	require.Equal(t, http.StatusOK, resp.Code)

	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.Equal(t, "member", envelope.Data.Role)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	ts.registerUser(t, "alice", "alice@example.com")

	resp := ts.api.Post("/api/v1/auth/register", map[string]any{
		"username":   "alice2",
		"email":      "alice@example.com",
		"password":   "correct-horse-battery",
		"first_name": "Alice",
		"last_name":  "Again",
	})
	assert.Equal(t, http.StatusConflict, resp.Code)

	var envelope testEnvelope[UserResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.False(t, envelope.Success)
	assert.Equal(t, "CONFLICT", envelope.Code)
}

func TestRegister_InvalidUsername(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	resp := ts.api.Post("/api/v1/auth/register", map[string]any{
		"username":   "has spaces",
		"email":      "spaces@example.com",
		"password":   "correct-horse-battery",
		"first_name": "Space",
		"last_name":  "Case",
	})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestLogin_ReturnsTokens(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	userID := ts.registerUser(t, "alice", "alice@example.com")

	resp := ts.api.Post("/api/v1/auth/login", map[string]any{
		"email":    "alice@example.com",
		"password": "correct-horse-battery",
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var envelope testEnvelope[AuthResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.True(t, envelope.Success)
	assert.Equal(t, "Bearer", envelope.Data.TokenType)
	assert.NotEmpty(t, envelope.Data.RefreshToken)
	assert.Equal(t, userID, envelope.Data.User.ID)

	claims, err := ts.tokenService.VerifyAccessToken(envelope.Data.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
}

func TestLogin_WrongPassword(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	ts.registerUser(t, "alice", "alice@example.com")

	resp := ts.api.Post("/api/v1/auth/login", map[string]any{
		"email":    "alice@example.com",
		"password": "not-the-password",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	// Unknown email gets the same response shape as a wrong password.
	resp2 := ts.api.Post("/api/v1/auth/login", map[string]any{
		"email":    "nobody@example.com",
		"password": "not-the-password",
	})
	assert.Equal(t, http.StatusUnauthorized, resp2.Code)

	var e1, e2 testEnvelope[AuthResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &e1))
	require.NoError(t, json.Unmarshal(resp2.Body.Bytes(), &e2))
	assert.Equal(t, e1.Error, e2.Error)
}

func TestRefresh_RotatesToken(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	ts.registerUser(t, "alice", "alice@example.com")

	resp := ts.api.Post("/api/v1/auth/login", map[string]any{
		"email":    "alice@example.com",
		"password": "correct-horse-battery",
	})
	require.Equal(t, http.StatusOK, resp.Code)

	var login testEnvelope[AuthResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &login))

	resp = ts.api.Post("/api/v1/auth/refresh", map[string]any{
		"refresh_token": login.Data.RefreshToken,
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var refreshed testEnvelope[AuthResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &refreshed))
	assert.NotEqual(t, login.Data.RefreshToken, refreshed.Data.RefreshToken)

	// The old refresh token is dead after rotation.
	resp = ts.api.Post("/api/v1/auth/refresh", map[string]any{
		"refresh_token": login.Data.RefreshToken,
	})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestLogout_RevokesSession(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	ts.registerUser(t, "alice", "alice@example.com")

	resp := ts.api.Post("/api/v1/auth/login", map[string]any{
		"email":    "alice@example.com",
		"password": "correct-horse-battery",
	})
	require.Equal(t, http.StatusOK, resp.Code)

	var login testEnvelope[AuthResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &login))

	resp = ts.api.Post("/api/v1/auth/logout", map[string]any{
		"refresh_token": login.Data.RefreshToken,
	})
	assert.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Post("/api/v1/auth/refresh", map[string]any{
		"refresh_token": login.Data.RefreshToken,
	})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestSetPassword(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	_, token := ts.createUser(t, "alice", "alice@example.com")

	resp := ts.api.Post("/api/v1/auth/set_password", bearer(token), map[string]any{
		"current_password": "correct-horse-battery",
		"new_password":     "a-brand-new-password",
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	// Old password no longer works.
	resp = ts.api.Post("/api/v1/auth/login", map[string]any{
		"email":    "alice@example.com",
		"password": "correct-horse-battery",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = ts.api.Post("/api/v1/auth/login", map[string]any{
		"email":    "alice@example.com",
		"password": "a-brand-new-password",
	})
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestSetPassword_RequiresAuth(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	resp := ts.api.Post("/api/v1/auth/set_password", map[string]any{
		"current_password": "whatever",
		"new_password":     "a-brand-new-password",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestRequireUser_TokenForDeletedUser(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	userID, token := ts.createUser(t, "alice", "alice@example.com")
	require.NoError(t, ts.store.DeleteUser(context.Background(), userID))

	// Tag creation goes through RequireUser; a valid token whose user is
	// gone gets 401, not an internal error.
	resp := ts.api.Post("/api/v1/tags", bearer(token), map[string]any{
		"name":  "Breakfast",
		"color": "#E26C2D",
		"slug":  "breakfast",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestRequireUser_StoreFailureIsNot401(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	_, token := ts.createUser(t, "alice", "alice@example.com")

	// A broken store must surface as a server error, not as unauthorized.
	require.NoError(t, ts.store.Close())

	resp := ts.api.Post("/api/v1/tags", bearer(token), map[string]any{
		"name":  "Breakfast",
		"color": "#E26C2D",
		"slug":  "breakfast",
	})
	assert.Equal(t, http.StatusInternalServerError, resp.Code)
}
