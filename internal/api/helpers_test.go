package api

import (
	"context"
	"encoding/base64"
	"encoding/json/v2"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/ladleapp/ladle-server/internal/auth"
	"github.com/ladleapp/ladle-server/internal/config"
	"github.com/ladleapp/ladle-server/internal/domain"
	"github.com/ladleapp/ladle-server/internal/media/images"
	"github.com/ladleapp/ladle-server/internal/service"
	"github.com/ladleapp/ladle-server/internal/store/sqlite"
)

// testEnvelope mirrors the response envelope for decoding in tests.
type testEnvelope[T any] struct {
	V       int    `json:"v"`
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Error   string `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details"`
}

// testServer wraps the API server for handler testing.
type testServer struct {
	*Server
	api          humatest.TestAPI
	cleanup      func()
	tokenService *auth.TokenService
}

const testAuthKeyHex = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

// setupTestServer creates a fully wired server backed by a temp database.
func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "ladle-api-test-*")
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	st, err := sqlite.Open(filepath.Join(tmpDir, "test.db"), logger)
	require.NoError(t, err)

	tokenService, err := auth.NewTokenService(testAuthKeyHex, 15*time.Minute, 30*24*time.Hour)
	require.NoError(t, err)

	imageStorage, err := images.NewStorage(filepath.Join(tmpDir, "media"))
	require.NoError(t, err)

	limits := config.LimitsConfig{MinValue: 1, MaxValue: 32000}

	sessionService := service.NewSessionService(st, tokenService, logger)
	authService := service.NewAuthService(st, tokenService, sessionService, logger)

	services := &Services{
		Auth:         authService,
		Session:      sessionService,
		User:         service.NewUserService(st, logger),
		Catalog:      service.NewCatalogService(st, logger),
		Recipe:       service.NewRecipeService(st, imageStorage, limits, logger),
		Social:       service.NewSocialService(st, logger),
		ShoppingList: service.NewShoppingListService(st, logger),
	}

	router := chi.NewRouter()
	router.Use(authMiddleware(services.Auth))

	humaConfig := huma.DefaultConfig("Ladle API Test", "1.0.0")
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "PASETO",
		},
	}
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)

	api := humachi.New(router, humaConfig)
	RegisterErrorHandler()

	s := &Server{
		store:           st,
		services:        services,
		images:          imageStorage,
		router:          router,
		api:             api,
		logger:          logger,
		authRateLimiter: NewRateLimiter(100, time.Minute, 50),
	}

	s.registerHealthRoutes()
	s.registerAuthRoutes()
	s.registerUserRoutes()
	s.registerTagRoutes()
	s.registerIngredientRoutes()
	s.registerRecipeRoutes()
	router.Get("/media/recipes/{name}", s.handleRecipeImage)

	cleanup := func() {
		_ = st.Close()
		_ = os.RemoveAll(tmpDir)
	}

	return &testServer{
		Server:       s,
		api:          humatest.Wrap(t, api),
		cleanup:      cleanup,
		tokenService: tokenService,
	}
}

// registerUser creates an account through the API and returns its user ID.
// The first account registered on a fresh database is the admin.
func (ts *testServer) registerUser(t *testing.T, username, email string) string {
	t.Helper()

	resp := ts.api.Post("/api/v1/auth/register", map[string]any{
		"username":   username,
		"email":      email,
		"password":   "correct-horse-battery",
		"first_name": "Test",
		"last_name":  "User",
	})
	require.Equal(t, http.StatusOK, resp.Code, "register failed: %s", resp.Body.String())

	var envelope testEnvelope[UserResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	return envelope.Data.ID
}

// loginUser logs in through the API and returns the access token.
func (ts *testServer) loginUser(t *testing.T, email string) string {
	t.Helper()

	resp := ts.api.Post("/api/v1/auth/login", map[string]any{
		"email":    email,
		"password": "correct-horse-battery",
	})
	require.Equal(t, http.StatusOK, resp.Code, "login failed: %s", resp.Body.String())

	var envelope testEnvelope[AuthResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	return envelope.Data.AccessToken
}

// createUser registers and logs in a user, returning ID and access token.
func (ts *testServer) createUser(t *testing.T, username, email string) (userID, token string) {
	t.Helper()
	userID = ts.registerUser(t, username, email)
	token = ts.loginUser(t, email)
	return userID, token
}

// seedTag inserts a tag directly, bypassing the admin-only API path.
func (ts *testServer) seedTag(t *testing.T, id, name, slug, color string) {
	t.Helper()
	now := time.Now().UTC()
	err := ts.store.CreateTag(context.Background(), &domain.Tag{
		ID:        id,
		Name:      name,
		Color:     color,
		Slug:      slug,
		CreatedAt: now,
		UpdatedAt: now,
	})
	require.NoError(t, err)
}

// seedIngredient inserts a dictionary ingredient directly.
func (ts *testServer) seedIngredient(t *testing.T, id, name, unit string) {
	t.Helper()
	now := time.Now().UTC()
	err := ts.store.CreateIngredient(context.Background(), &domain.Ingredient{
		ID:              id,
		Name:            name,
		MeasurementUnit: unit,
		CreatedAt:       now,
		UpdatedAt:       now,
	})
	require.NoError(t, err)
}

// testImageDataURI returns a small valid data URI for recipe images.
func testImageDataURI() string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("\x89PNG\r\n\x1a\nfakepixels"))
}

// bearer formats an Authorization header argument for humatest requests.
func bearer(token string) string {
	return "Authorization: Bearer " + token
}
