package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ladleapp/ladle-server/internal/config"
	"github.com/ladleapp/ladle-server/internal/domain"
	domainerrors "github.com/ladleapp/ladle-server/internal/errors"
	"github.com/ladleapp/ladle-server/internal/media/images"
	"github.com/ladleapp/ladle-server/internal/store/sqlite"
)

func newTestRecipeService(t *testing.T) (*RecipeService, *sqlite.Store, func()) {
	t.Helper()

	s, storeCleanup := newServiceTestStore(t)

	mediaDir, err := os.MkdirTemp("", "recipe-media-*")
	require.NoError(t, err)

	imageStorage, err := images.NewStorage(mediaDir)
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	limits := config.LimitsConfig{MinValue: 1, MaxValue: 32000}
	svc := NewRecipeService(s, imageStorage, limits, logger)

	cleanup := func() {
		storeCleanup()
		os.RemoveAll(mediaDir)
	}

	return svc, s, cleanup
}

// seedRecipeCatalog creates a user, two tags, and two ingredients used by
// most recipe tests.
func seedRecipeCatalog(t *testing.T, s *sqlite.Store) (*domain.User, []*domain.Tag, []*domain.Ingredient) {
	t.Helper()
	user := seedTestUser(t, s, "user-1", "alice", domain.RoleMember)
	tags := []*domain.Tag{
		seedTestTag(t, s, "tag-1", "breakfast", "#E26C2D"),
		seedTestTag(t, s, "tag-2", "dinner", "#49B64E"),
	}
	ingredients := []*domain.Ingredient{
		seedTestIngredient(t, s, "ing-1", "flour", "g"),
		seedTestIngredient(t, s, "ing-2", "egg", "pcs"),
	}
	return user, tags, ingredients
}

func validCreateRequest() CreateRecipeRequest {
	return CreateRecipeRequest{
		Name:        "Pancakes",
		Text:        "Whisk everything and fry.",
		Image:       testImageDataURI(),
		CookingTime: 20,
		TagIDs:      []string{"tag-1"},
		Ingredients: []IngredientAmount{
			{IngredientID: "ing-1", Amount: 200},
			{IngredientID: "ing-2", Amount: 2},
		},
	}
}

func TestRecipeService_Create(t *testing.T) {
	svc, s, cleanup := newTestRecipeService(t)
	defer cleanup()

	user, _, _ := seedRecipeCatalog(t, s)

	recipe, err := svc.Create(context.Background(), user.ID, validCreateRequest())
	require.NoError(t, err)

	assert.Equal(t, "Pancakes", recipe.Name)
	assert.Equal(t, user.ID, recipe.AuthorID)
	assert.NotEmpty(t, recipe.Image)
	require.Len(t, recipe.Tags, 1)
	assert.Equal(t, "breakfast", recipe.Tags[0].Slug)
	require.Len(t, recipe.Ingredients, 2)
	// Lines carry the dictionary name and unit
	assert.Equal(t, "egg", recipe.Ingredients[0].Name)
	assert.Equal(t, "pcs", recipe.Ingredients[0].MeasurementUnit)

	require.NotNil(t, recipe.Author)
	assert.Equal(t, "alice", recipe.Author.Username)
	assert.Empty(t, recipe.Author.PasswordHash)
}

func TestRecipeService_Create_CookingTimeBounds(t *testing.T) {
	svc, s, cleanup := newTestRecipeService(t)
	defer cleanup()

	user, _, _ := seedRecipeCatalog(t, s)

	for _, cookingTime := range []int{-5, 32001} {
		req := validCreateRequest()
		req.CookingTime = cookingTime
		_, err := svc.Create(context.Background(), user.ID, req)
		require.Error(t, err, "cooking_time %d", cookingTime)
		assert.True(t, errors.Is(err, domainerrors.ErrValidation))
	}

	// Bounds are inclusive
	req := validCreateRequest()
	req.CookingTime = 32000
	_, err := svc.Create(context.Background(), user.ID, req)
	require.NoError(t, err)
}

func TestRecipeService_Create_AmountBounds(t *testing.T) {
	svc, s, cleanup := newTestRecipeService(t)
	defer cleanup()

	user, _, _ := seedRecipeCatalog(t, s)

	req := validCreateRequest()
	req.Ingredients[0].Amount = 32001
	_, err := svc.Create(context.Background(), user.ID, req)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domainerrors.ErrValidation))
}

func TestRecipeService_Create_DuplicateTag(t *testing.T) {
	svc, s, cleanup := newTestRecipeService(t)
	defer cleanup()

	user, _, _ := seedRecipeCatalog(t, s)

	req := validCreateRequest()
	req.TagIDs = []string{"tag-1", "tag-1"}
	_, err := svc.Create(context.Background(), user.ID, req)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domainerrors.ErrValidation))
}

func TestRecipeService_Create_DuplicateIngredient(t *testing.T) {
	svc, s, cleanup := newTestRecipeService(t)
	defer cleanup()

	user, _, _ := seedRecipeCatalog(t, s)

	req := validCreateRequest()
	req.Ingredients = []IngredientAmount{
		{IngredientID: "ing-1", Amount: 100},
		{IngredientID: "ing-1", Amount: 50},
	}
	_, err := svc.Create(context.Background(), user.ID, req)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domainerrors.ErrValidation))
}

func TestRecipeService_Create_UnknownReferences(t *testing.T) {
	svc, s, cleanup := newTestRecipeService(t)
	defer cleanup()

	user, _, _ := seedRecipeCatalog(t, s)

	req := validCreateRequest()
	req.TagIDs = []string{"tag-missing"}
	_, err := svc.Create(context.Background(), user.ID, req)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domainerrors.ErrValidation))

	req = validCreateRequest()
	req.Ingredients = []IngredientAmount{{IngredientID: "ing-missing", Amount: 100}}
	_, err = svc.Create(context.Background(), user.ID, req)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domainerrors.ErrValidation))
}

func TestRecipeService_Create_BadImage(t *testing.T) {
	svc, s, cleanup := newTestRecipeService(t)
	defer cleanup()

	user, _, _ := seedRecipeCatalog(t, s)

	req := validCreateRequest()
	req.Image = "data:text/plain;base64,bm90IGFuIGltYWdl"
	_, err := svc.Create(context.Background(), user.ID, req)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domainerrors.ErrValidation))
}

func TestRecipeService_Update(t *testing.T) {
	svc, s, cleanup := newTestRecipeService(t)
	defer cleanup()

	user, _, _ := seedRecipeCatalog(t, s)

	recipe, err := svc.Create(context.Background(), user.ID, validCreateRequest())
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), user, recipe.ID, UpdateRecipeRequest{
		Name:        "Crepes",
		Text:        "Thinner batter.",
		CookingTime: 15,
		TagIDs:      []string{"tag-2"},
		Ingredients: []IngredientAmount{{IngredientID: "ing-1", Amount: 150}},
	})
	require.NoError(t, err)

	assert.Equal(t, "Crepes", updated.Name)
	assert.Equal(t, 15, updated.CookingTime)
	require.Len(t, updated.Tags, 1)
	assert.Equal(t, "dinner", updated.Tags[0].Slug)
	require.Len(t, updated.Ingredients, 1)
	assert.Equal(t, 150, updated.Ingredients[0].Amount)
	// Empty image keeps the existing file
	assert.Equal(t, recipe.Image, updated.Image)
}

func TestRecipeService_Update_Permissions(t *testing.T) {
	svc, s, cleanup := newTestRecipeService(t)
	defer cleanup()

	user, _, _ := seedRecipeCatalog(t, s)
	other := seedTestUser(t, s, "user-2", "bob", domain.RoleMember)
	admin := seedTestUser(t, s, "user-3", "carol", domain.RoleAdmin)

	recipe, err := svc.Create(context.Background(), user.ID, validCreateRequest())
	require.NoError(t, err)

	req := UpdateRecipeRequest{
		Name:        "Hijacked",
		Text:        "Nope.",
		CookingTime: 5,
		TagIDs:      []string{"tag-1"},
		Ingredients: []IngredientAmount{{IngredientID: "ing-1", Amount: 10}},
	}

	_, err = svc.Update(context.Background(), other, recipe.ID, req)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domainerrors.ErrForbidden))

	// Admins may edit any recipe
	_, err = svc.Update(context.Background(), admin, recipe.ID, req)
	require.NoError(t, err)
}

func TestRecipeService_Delete(t *testing.T) {
	svc, s, cleanup := newTestRecipeService(t)
	defer cleanup()

	user, _, _ := seedRecipeCatalog(t, s)
	other := seedTestUser(t, s, "user-2", "bob", domain.RoleMember)

	recipe, err := svc.Create(context.Background(), user.ID, validCreateRequest())
	require.NoError(t, err)

	err = svc.Delete(context.Background(), other, recipe.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domainerrors.ErrForbidden))

	require.NoError(t, svc.Delete(context.Background(), user, recipe.ID))

	_, err = svc.Get(context.Background(), recipe.ID, user.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domainerrors.ErrNotFound))
}

func TestRecipeService_List(t *testing.T) {
	svc, s, cleanup := newTestRecipeService(t)
	defer cleanup()

	user, _, _ := seedRecipeCatalog(t, s)

	for _, name := range []string{"Pancakes", "Pasta", "Soup"} {
		req := validCreateRequest()
		req.Name = name
		_, err := svc.Create(context.Background(), user.ID, req)
		require.NoError(t, err)
	}

	page, err := svc.List(context.Background(), "", domain.RecipeFilter{})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	require.Len(t, page.Recipes, 3)
	// Newest first
	assert.Equal(t, "Soup", page.Recipes[0].Name)

	page, err = svc.List(context.Background(), "", domain.RecipeFilter{NamePrefix: "Pa"})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)
}
