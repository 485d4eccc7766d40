package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ladleapp/ladle-server/internal/domain"
	domainerrors "github.com/ladleapp/ladle-server/internal/errors"
	"github.com/ladleapp/ladle-server/internal/store"
	"github.com/ladleapp/ladle-server/internal/store/sqlite"
)

// subscriptionRecipeLimit caps the recipe preview attached to each
// subscription entry.
const subscriptionRecipeLimit = 3

// SocialService manages the relations a user holds toward other users and
// recipes: follows, favorites, and the shopping cart.
type SocialService struct {
	store  *sqlite.Store
	logger *slog.Logger
}

// NewSocialService creates a new social relations service.
func NewSocialService(store *sqlite.Store, logger *slog.Logger) *SocialService {
	return &SocialService{
		store:  store,
		logger: logger,
	}
}

// SubscriptionEntry is a followed author with a preview of their newest recipes.
type SubscriptionEntry struct {
	User    *domain.User     `json:"user"`
	Recipes []*domain.Recipe `json:"recipes"`
}

// Subscribe makes userID follow targetID and returns the annotated target.
func (s *SocialService) Subscribe(ctx context.Context, userID, targetID string) (*domain.User, error) {
	if userID == targetID {
		return nil, domainerrors.Validation("cannot subscribe to yourself")
	}

	if err := s.store.AddEdge(ctx, domain.EdgeFollow, userID, targetID); err != nil {
		switch {
		case errors.Is(err, store.ErrAlreadyExists):
			return nil, domainerrors.Conflict("already subscribed to this user")
		case errors.Is(err, store.ErrNotFound):
			return nil, domainerrors.NotFound("user not found")
		case errors.Is(err, store.ErrInvalidInput):
			return nil, domainerrors.Validation("cannot subscribe to yourself")
		}
		return nil, fmt.Errorf("subscribe: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("User subscribed", "user_id", userID, "target_id", targetID)
	}

	target, err := s.store.GetAnnotatedUser(ctx, targetID, userID)
	if err != nil {
		return nil, fmt.Errorf("get subscribed user: %w", err)
	}
	target.PasswordHash = ""
	return target, nil
}

// Unsubscribe removes the follow from userID to targetID.
func (s *SocialService) Unsubscribe(ctx context.Context, userID, targetID string) error {
	if err := s.store.RemoveEdge(ctx, domain.EdgeFollow, userID, targetID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFound("not subscribed to this user")
		}
		return fmt.Errorf("unsubscribe: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("User unsubscribed", "user_id", userID, "target_id", targetID)
	}
	return nil
}

// Subscriptions lists the users followed by userID, most recent follow first,
// each with a short preview of their newest recipes.
func (s *SocialService) Subscriptions(ctx context.Context, userID string, limit, offset int) ([]*SubscriptionEntry, error) {
	if limit <= 0 {
		limit = defaultUserPageSize
	}
	if offset < 0 {
		offset = 0
	}

	users, err := s.store.ListSubscriptions(ctx, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}

	entries := make([]*SubscriptionEntry, 0, len(users))
	for _, u := range users {
		u.PasswordHash = ""
		recipes, err := s.store.ListRecipes(ctx, userID, domain.RecipeFilter{
			AuthorID: u.ID,
			Limit:    subscriptionRecipeLimit,
		})
		if err != nil {
			return nil, fmt.Errorf("list author recipes: %w", err)
		}
		entries = append(entries, &SubscriptionEntry{User: u, Recipes: recipes})
	}

	return entries, nil
}

// Favorite marks a recipe as a favorite of userID.
func (s *SocialService) Favorite(ctx context.Context, userID, recipeID string) error {
	return s.addRecipeEdge(ctx, domain.EdgeFavorite, userID, recipeID, "recipe already in favorites")
}

// Unfavorite removes a recipe from userID's favorites.
func (s *SocialService) Unfavorite(ctx context.Context, userID, recipeID string) error {
	return s.removeRecipeEdge(ctx, domain.EdgeFavorite, userID, recipeID, "recipe is not in favorites")
}

// AddToCart puts a recipe into userID's shopping cart.
func (s *SocialService) AddToCart(ctx context.Context, userID, recipeID string) error {
	return s.addRecipeEdge(ctx, domain.EdgeCart, userID, recipeID, "recipe already in shopping cart")
}

// RemoveFromCart takes a recipe out of userID's shopping cart.
func (s *SocialService) RemoveFromCart(ctx context.Context, userID, recipeID string) error {
	return s.removeRecipeEdge(ctx, domain.EdgeCart, userID, recipeID, "recipe is not in shopping cart")
}

func (s *SocialService) addRecipeEdge(ctx context.Context, kind domain.EdgeKind, userID, recipeID, conflictMsg string) error {
	if err := s.store.AddEdge(ctx, kind, userID, recipeID); err != nil {
		switch {
		case errors.Is(err, store.ErrAlreadyExists):
			return domainerrors.Conflict(conflictMsg)
		case errors.Is(err, store.ErrNotFound):
			return domainerrors.NotFound("recipe not found")
		}
		return fmt.Errorf("add %s: %w", kind, err)
	}

	if s.logger != nil {
		s.logger.Info("Recipe relation added", "kind", kind, "user_id", userID, "recipe_id", recipeID)
	}
	return nil
}

func (s *SocialService) removeRecipeEdge(ctx context.Context, kind domain.EdgeKind, userID, recipeID, missingMsg string) error {
	if err := s.store.RemoveEdge(ctx, kind, userID, recipeID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFound(missingMsg)
		}
		return fmt.Errorf("remove %s: %w", kind, err)
	}

	if s.logger != nil {
		s.logger.Info("Recipe relation removed", "kind", kind, "user_id", userID, "recipe_id", recipeID)
	}
	return nil
}
