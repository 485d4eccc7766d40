package service

import (
	"context"
	"encoding/base64"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ladleapp/ladle-server/internal/domain"
	"github.com/ladleapp/ladle-server/internal/store/sqlite"
)

// newServiceTestStore opens a fresh sqlite store in a temp directory.
func newServiceTestStore(t *testing.T) (*sqlite.Store, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "service-test-*")
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	testStore, err := sqlite.Open(filepath.Join(tmpDir, "test.db"), logger)
	require.NoError(t, err)

	cleanup := func() {
		testStore.Close()
		os.RemoveAll(tmpDir)
	}

	return testStore, cleanup
}

func seedTestUser(t *testing.T, s *sqlite.Store, id, username string, role domain.Role) *domain.User {
	t.Helper()
	now := time.Now()
	user := &domain.User{
		ID:           id,
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
		FirstName:    "Test",
		LastName:     "User",
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, s.CreateUser(context.Background(), user))
	return user
}

func seedTestTag(t *testing.T, s *sqlite.Store, id, slug, color string) *domain.Tag {
	t.Helper()
	now := time.Now()
	tag := &domain.Tag{
		ID:        id,
		Name:      slug,
		Color:     color,
		Slug:      slug,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, s.CreateTag(context.Background(), tag))
	return tag
}

func seedTestIngredient(t *testing.T, s *sqlite.Store, id, name, unit string) *domain.Ingredient {
	t.Helper()
	now := time.Now()
	ing := &domain.Ingredient{
		ID:              id,
		Name:            name,
		MeasurementUnit: unit,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	require.NoError(t, s.CreateIngredient(context.Background(), ing))
	return ing
}

func seedTestRecipe(t *testing.T, s *sqlite.Store, id, authorID string, tags []domain.Tag, lines []domain.RecipeIngredient) *domain.Recipe {
	t.Helper()
	now := time.Now()
	recipe := &domain.Recipe{
		ID:          id,
		AuthorID:    authorID,
		Name:        "Recipe " + id,
		Text:        "Mix and serve.",
		Image:       id + ".jpg",
		CookingTime: 25,
		Tags:        tags,
		Ingredients: lines,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	require.NoError(t, s.CreateRecipe(context.Background(), recipe))
	return recipe
}

// testImageDataURI returns a small but well-formed PNG data URI.
func testImageDataURI() string {
	payload := base64.StdEncoding.EncodeToString([]byte("\x89PNG\r\n\x1a\nfakepixels"))
	return "data:image/png;base64," + payload
}
