package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ladleapp/ladle-server/internal/domain"
	"github.com/ladleapp/ladle-server/internal/store/sqlite"
)

// ShoppingListService aggregates the ingredients of every recipe in a user's
// cart into a single consolidated list.
type ShoppingListService struct {
	store  *sqlite.Store
	logger *slog.Logger
}

// NewShoppingListService creates a new shopping list service.
func NewShoppingListService(store *sqlite.Store, logger *slog.Logger) *ShoppingListService {
	return &ShoppingListService{
		store:  store,
		logger: logger,
	}
}

// ShoppingList returns the consolidated ingredient list for a user's cart.
// Lines with the same ingredient name and unit are merged by summing amounts;
// the same name in different units stays separate. An empty cart yields an
// empty list.
func (s *ShoppingListService) ShoppingList(ctx context.Context, userID string) ([]domain.ShoppingListItem, error) {
	items, err := s.store.ShoppingList(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("aggregate shopping list: %w", err)
	}
	return items, nil
}

// RenderText formats the consolidated list as a plain-text document suitable
// for download.
func (s *ShoppingListService) RenderText(ctx context.Context, userID string) (string, error) {
	items, err := s.ShoppingList(ctx, userID)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("Shopping list\n\n")
	for _, item := range items {
		fmt.Fprintf(&b, "%s (%s) — %d\n", item.Name, item.MeasurementUnit, item.TotalAmount)
	}
	return b.String(), nil
}
