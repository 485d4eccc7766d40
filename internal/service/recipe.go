package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ladleapp/ladle-server/internal/config"
	"github.com/ladleapp/ladle-server/internal/domain"
	domainerrors "github.com/ladleapp/ladle-server/internal/errors"
	"github.com/ladleapp/ladle-server/internal/id"
	"github.com/ladleapp/ladle-server/internal/media/images"
	"github.com/ladleapp/ladle-server/internal/store"
	"github.com/ladleapp/ladle-server/internal/store/sqlite"
)

// RecipeService manages the recipe aggregate: the recipe row, its tag set,
// its ingredient lines, and the attached image.
type RecipeService struct {
	store  *sqlite.Store
	images *images.Storage
	limits config.LimitsConfig
	logger *slog.Logger
}

// NewRecipeService creates a new recipe service.
func NewRecipeService(
	store *sqlite.Store,
	imageStorage *images.Storage,
	limits config.LimitsConfig,
	logger *slog.Logger,
) *RecipeService {
	return &RecipeService{
		store:  store,
		images: imageStorage,
		limits: limits,
		logger: logger,
	}
}

// IngredientAmount is one ingredient line in a recipe write request.
type IngredientAmount struct {
	IngredientID string `json:"ingredient_id" validate:"required"`
	Amount       int    `json:"amount" validate:"required"`
}

// CreateRecipeRequest contains the data for a new recipe.
type CreateRecipeRequest struct {
	Name        string             `json:"name" validate:"required,max=200"`
	Text        string             `json:"text" validate:"required"`
	Image       string             `json:"image" validate:"required"` // Data URI
	CookingTime int                `json:"cooking_time" validate:"required"`
	TagIDs      []string           `json:"tag_ids" validate:"required,min=1"`
	Ingredients []IngredientAmount `json:"ingredients" validate:"required,min=1"`
}

// UpdateRecipeRequest contains a full replacement of a recipe's fields.
// Image may be empty to keep the current one.
type UpdateRecipeRequest struct {
	Name        string             `json:"name" validate:"required,max=200"`
	Text        string             `json:"text" validate:"required"`
	Image       string             `json:"image"` // Data URI, optional
	CookingTime int                `json:"cooking_time" validate:"required"`
	TagIDs      []string           `json:"tag_ids" validate:"required,min=1"`
	Ingredients []IngredientAmount `json:"ingredients" validate:"required,min=1"`
}

// RecipePage is a paginated slice of recipes with the total count.
type RecipePage struct {
	Recipes []*domain.Recipe `json:"recipes"`
	Total   int              `json:"total"`
}

// Create validates and stores a new recipe authored by authorID.
func (s *RecipeService) Create(ctx context.Context, authorID string, req CreateRecipeRequest) (*domain.Recipe, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}
	if err := s.checkBounds("cooking_time", req.CookingTime); err != nil {
		return nil, err
	}

	tags, err := s.resolveTags(ctx, req.TagIDs)
	if err != nil {
		return nil, err
	}

	lines, err := s.resolveIngredients(ctx, req.Ingredients)
	if err != nil {
		return nil, err
	}

	imgData, ext, err := images.DecodeDataURI(req.Image)
	if err != nil {
		return nil, domainerrors.Validation("image must be a base64-encoded image").WithCause(err)
	}

	recipeID, err := id.Generate("rcp")
	if err != nil {
		return nil, fmt.Errorf("generate recipe ID: %w", err)
	}

	imageName, err := s.images.Save(recipeID, ext, imgData)
	if err != nil {
		return nil, fmt.Errorf("save image: %w", err)
	}

	now := time.Now()
	recipe := &domain.Recipe{
		ID:          recipeID,
		AuthorID:    authorID,
		Name:        req.Name,
		Text:        req.Text,
		Image:       imageName,
		CookingTime: req.CookingTime,
		Tags:        tags,
		Ingredients: lines,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.store.CreateRecipe(ctx, recipe); err != nil {
		// Orphaned image file, clean it up
		_ = s.images.Delete(imageName)
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.Conflict("a recipe with this ID already exists").WithCause(err)
		}
		return nil, fmt.Errorf("create recipe: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("Recipe created", "recipe_id", recipeID, "author_id", authorID)
	}

	return s.Get(ctx, recipeID, authorID)
}

// Update replaces a recipe's fields, tag set, and ingredient lines.
// Only the author or an admin may update.
func (s *RecipeService) Update(ctx context.Context, actor *domain.User, recipeID string, req UpdateRecipeRequest) (*domain.Recipe, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}
	if err := s.checkBounds("cooking_time", req.CookingTime); err != nil {
		return nil, err
	}

	recipe, err := s.store.GetRecipe(ctx, recipeID, actor.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("recipe not found")
		}
		return nil, fmt.Errorf("get recipe: %w", err)
	}

	if recipe.AuthorID != actor.ID && !actor.IsAdmin() {
		return nil, domainerrors.Forbidden("only the author can modify this recipe")
	}

	tags, err := s.resolveTags(ctx, req.TagIDs)
	if err != nil {
		return nil, err
	}

	lines, err := s.resolveIngredients(ctx, req.Ingredients)
	if err != nil {
		return nil, err
	}

	oldImage := recipe.Image
	newImage := ""
	if req.Image != "" {
		imgData, ext, err := images.DecodeDataURI(req.Image)
		if err != nil {
			return nil, domainerrors.Validation("image must be a base64-encoded image").WithCause(err)
		}
		newImage, err = s.images.Save(recipeID, ext, imgData)
		if err != nil {
			return nil, fmt.Errorf("save image: %w", err)
		}
		recipe.Image = newImage
	}

	recipe.Name = req.Name
	recipe.Text = req.Text
	recipe.CookingTime = req.CookingTime
	recipe.Tags = tags
	recipe.Ingredients = lines
	recipe.Touch()

	if err := s.store.UpdateRecipe(ctx, recipe); err != nil {
		if newImage != "" {
			_ = s.images.Delete(newImage)
		}
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("recipe not found")
		}
		return nil, fmt.Errorf("update recipe: %w", err)
	}

	// Replaced image with a different extension leaves the old file behind
	if newImage != "" && newImage != oldImage {
		_ = s.images.Delete(oldImage)
	}

	if s.logger != nil {
		s.logger.Info("Recipe updated", "recipe_id", recipeID, "actor_id", actor.ID)
	}

	return s.Get(ctx, recipeID, actor.ID)
}

// Get returns a single recipe annotated for the viewer.
// viewerID may be empty for anonymous requests.
func (s *RecipeService) Get(ctx context.Context, recipeID, viewerID string) (*domain.Recipe, error) {
	recipe, err := s.store.GetRecipe(ctx, recipeID, viewerID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("recipe not found")
		}
		return nil, fmt.Errorf("get recipe: %w", err)
	}
	return recipe, nil
}

// List returns a page of recipes matching the filter, newest first.
func (s *RecipeService) List(ctx context.Context, viewerID string, filter domain.RecipeFilter) (*RecipePage, error) {
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	recipes, err := s.store.ListRecipes(ctx, viewerID, filter)
	if err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}

	total, err := s.store.CountRecipes(ctx, viewerID, filter)
	if err != nil {
		return nil, fmt.Errorf("count recipes: %w", err)
	}

	return &RecipePage{Recipes: recipes, Total: total}, nil
}

// Delete removes a recipe and its image. Only the author or an admin may delete.
func (s *RecipeService) Delete(ctx context.Context, actor *domain.User, recipeID string) error {
	recipe, err := s.store.GetRecipe(ctx, recipeID, actor.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFound("recipe not found")
		}
		return fmt.Errorf("get recipe: %w", err)
	}

	if recipe.AuthorID != actor.ID && !actor.IsAdmin() {
		return domainerrors.Forbidden("only the author can delete this recipe")
	}

	if err := s.store.DeleteRecipe(ctx, recipeID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFound("recipe not found")
		}
		return fmt.Errorf("delete recipe: %w", err)
	}

	if recipe.Image != "" {
		if err := s.images.Delete(recipe.Image); err != nil && s.logger != nil {
			s.logger.Warn("Failed to delete recipe image",
				"recipe_id", recipeID,
				"image", recipe.Image,
				"error", err,
			)
		}
	}

	if s.logger != nil {
		s.logger.Info("Recipe deleted", "recipe_id", recipeID, "actor_id", actor.ID)
	}

	return nil
}

// checkBounds enforces the configured inclusive range on a quantity field.
func (s *RecipeService) checkBounds(field string, value int) error {
	if value < s.limits.MinValue || value > s.limits.MaxValue {
		return domainerrors.ValidationWithDetails("validation failed", map[string]string{
			field: fmt.Sprintf("must be between %d and %d", s.limits.MinValue, s.limits.MaxValue),
		})
	}
	return nil
}

// resolveTags loads the referenced tags, rejecting duplicates and unknown IDs.
func (s *RecipeService) resolveTags(ctx context.Context, tagIDs []string) ([]domain.Tag, error) {
	seen := make(map[string]bool, len(tagIDs))
	for _, tagID := range tagIDs {
		if seen[tagID] {
			return nil, domainerrors.Validationf("duplicate tag %q", tagID)
		}
		seen[tagID] = true
	}

	found, err := s.store.GetTagsByIDs(ctx, tagIDs)
	if err != nil {
		return nil, fmt.Errorf("resolve tags: %w", err)
	}
	if len(found) != len(tagIDs) {
		byID := make(map[string]bool, len(found))
		for _, t := range found {
			byID[t.ID] = true
		}
		for _, tagID := range tagIDs {
			if !byID[tagID] {
				return nil, domainerrors.Validationf("unknown tag %q", tagID)
			}
		}
	}

	tags := make([]domain.Tag, 0, len(found))
	for _, t := range found {
		tags = append(tags, *t)
	}
	return tags, nil
}

// resolveIngredients validates amounts and loads the referenced dictionary
// entries, rejecting duplicates and unknown IDs.
func (s *RecipeService) resolveIngredients(ctx context.Context, reqLines []IngredientAmount) ([]domain.RecipeIngredient, error) {
	ids := make([]string, 0, len(reqLines))
	seen := make(map[string]bool, len(reqLines))
	for _, line := range reqLines {
		if seen[line.IngredientID] {
			return nil, domainerrors.Validationf("duplicate ingredient %q", line.IngredientID)
		}
		seen[line.IngredientID] = true
		if err := s.checkBounds("amount", line.Amount); err != nil {
			return nil, err
		}
		ids = append(ids, line.IngredientID)
	}

	found, err := s.store.GetIngredientsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve ingredients: %w", err)
	}

	lines := make([]domain.RecipeIngredient, 0, len(reqLines))
	for _, line := range reqLines {
		ing, ok := found[line.IngredientID]
		if !ok {
			return nil, domainerrors.Validationf("unknown ingredient %q", line.IngredientID)
		}
		lines = append(lines, domain.RecipeIngredient{
			IngredientID:    ing.ID,
			Name:            ing.Name,
			MeasurementUnit: ing.MeasurementUnit,
			Amount:          line.Amount,
		})
	}
	return lines, nil
}
