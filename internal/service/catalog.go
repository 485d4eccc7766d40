package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/ladleapp/ladle-server/internal/domain"
	domainerrors "github.com/ladleapp/ladle-server/internal/errors"
	"github.com/ladleapp/ladle-server/internal/id"
	"github.com/ladleapp/ladle-server/internal/store"
	"github.com/ladleapp/ladle-server/internal/store/sqlite"
)

// defaultIngredientPageSize limits ingredient listings when the client does
// not ask for a size.
const defaultIngredientPageSize = 50

// CatalogService manages the reference data recipes are built from: tags and
// the ingredient dictionary.
type CatalogService struct {
	store  *sqlite.Store
	logger *slog.Logger
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(store *sqlite.Store, logger *slog.Logger) *CatalogService {
	return &CatalogService{
		store:  store,
		logger: logger,
	}
}

// CreateTagRequest contains the data for a new tag.
type CreateTagRequest struct {
	Name  string `json:"name" validate:"required,max=200"`
	Color string `json:"color" validate:"required,hexcolor"`
	Slug  string `json:"slug" validate:"required,max=200,slug"`
}

// ListTags returns every tag ordered by name. Tags are reference data and
// small enough to serve unpaginated.
func (s *CatalogService) ListTags(ctx context.Context) ([]*domain.Tag, error) {
	tags, err := s.store.ListTags(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	return tags, nil
}

// GetTag returns a single tag by ID.
func (s *CatalogService) GetTag(ctx context.Context, tagID string) (*domain.Tag, error) {
	tag, err := s.store.GetTagByID(ctx, tagID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("tag not found")
		}
		return nil, fmt.Errorf("get tag: %w", err)
	}
	return tag, nil
}

// CreateTag adds a new tag. Name, color, and slug must all be unique.
func (s *CatalogService) CreateTag(ctx context.Context, req CreateTagRequest) (*domain.Tag, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	tagID, err := id.Generate("tag")
	if err != nil {
		return nil, fmt.Errorf("generate tag ID: %w", err)
	}

	now := time.Now()
	tag := &domain.Tag{
		ID:        tagID,
		Name:      req.Name,
		Color:     req.Color,
		Slug:      req.Slug,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.CreateTag(ctx, tag); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.Conflict("a tag with this name, color, or slug already exists")
		}
		return nil, fmt.Errorf("create tag: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("Tag created", "tag_id", tagID, "slug", tag.Slug)
	}

	return tag, nil
}

// ListIngredients returns a page of the ingredient dictionary, optionally
// narrowed to names starting with namePrefix (case-insensitive).
func (s *CatalogService) ListIngredients(ctx context.Context, namePrefix string, limit, offset int) ([]*domain.Ingredient, error) {
	if limit <= 0 {
		limit = defaultIngredientPageSize
	}
	if offset < 0 {
		offset = 0
	}

	ingredients, err := s.store.ListIngredients(ctx, namePrefix, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list ingredients: %w", err)
	}
	return ingredients, nil
}

// GetIngredient returns a single dictionary entry by ID.
func (s *CatalogService) GetIngredient(ctx context.Context, ingredientID string) (*domain.Ingredient, error) {
	ing, err := s.store.GetIngredientByID(ctx, ingredientID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("ingredient not found")
		}
		return nil, fmt.Errorf("get ingredient: %w", err)
	}
	return ing, nil
}

// ImportCSV bulk-loads the ingredient dictionary from CSV data with two
// fields per record (name, measurement unit) and no header row. Entries
// that already exist under the same name and unit are skipped. Returns the
// number of entries added.
func (s *CatalogService) ImportCSV(ctx context.Context, r io.Reader) (int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 2

	added := 0
	line := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return added, domainerrors.Validationf("invalid CSV input: %v", err)
		}
		line++

		name := strings.TrimSpace(record[0])
		unit := strings.TrimSpace(record[1])
		if name == "" || unit == "" {
			return added, domainerrors.Validationf("line %d: name and measurement unit are required", line)
		}

		ingredientID, err := id.Generate("ing")
		if err != nil {
			return added, fmt.Errorf("generate ingredient ID: %w", err)
		}

		now := time.Now()
		ing := &domain.Ingredient{
			ID:              ingredientID,
			Name:            name,
			MeasurementUnit: unit,
			CreatedAt:       now,
			UpdatedAt:       now,
		}

		if err := s.store.CreateIngredient(ctx, ing); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				continue
			}
			return added, fmt.Errorf("create ingredient %q: %w", name, err)
		}
		added++
	}

	if s.logger != nil {
		s.logger.Info("Ingredients imported", "added", added, "lines", line)
	}

	return added, nil
}
