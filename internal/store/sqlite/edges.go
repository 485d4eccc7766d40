package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/ladleapp/ladle-server/internal/domain"
	"github.com/ladleapp/ladle-server/internal/store"
)

// edgeTable maps an edge kind to its backing table and target column.
// All three tables share the (user_id, target, created_at) shape, so every
// edge operation is written once and parameterized on the kind.
func edgeTable(kind domain.EdgeKind) (table, targetColumn string, err error) {
	switch kind {
	case domain.EdgeFollow:
		return "follows", "following_id", nil
	case domain.EdgeFavorite:
		return "favorites", "recipe_id", nil
	case domain.EdgeCart:
		return "cart_items", "recipe_id", nil
	default:
		return "", "", fmt.Errorf("%w: unknown edge kind %q", store.ErrInvalidInput, kind)
	}
}

// AddEdge inserts a relation of the given kind.
// Returns store.ErrAlreadyExists if the edge is already present and
// store.ErrNotFound if the target row does not exist.
func (s *Store) AddEdge(ctx context.Context, kind domain.EdgeKind, userID, targetID string) error {
	table, targetColumn, err := edgeTable(kind)
	if err != nil {
		return err
	}

	//nolint:gosec // Table and column names come from edgeTable, not user input.
	query := fmt.Sprintf(`INSERT INTO %s (user_id, %s, created_at) VALUES (?, ?, ?)`, table, targetColumn)
	_, err = s.db.ExecContext(ctx, query, userID, targetID, formatTime(time.Now().UTC()))
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrAlreadyExists
		}
		if isForeignKeyViolation(err) {
			return store.ErrNotFound
		}
		if isCheckViolation(err) {
			return store.ErrInvalidInput
		}
		return fmt.Errorf("insert %s edge: %w", kind, err)
	}
	return nil
}

// RemoveEdge deletes a relation of the given kind.
// Returns store.ErrNotFound if the edge is not present.
func (s *Store) RemoveEdge(ctx context.Context, kind domain.EdgeKind, userID, targetID string) error {
	table, targetColumn, err := edgeTable(kind)
	if err != nil {
		return err
	}

	//nolint:gosec // Table and column names come from edgeTable, not user input.
	query := fmt.Sprintf(`DELETE FROM %s WHERE user_id = ? AND %s = ?`, table, targetColumn)
	res, err := s.db.ExecContext(ctx, query, userID, targetID)
	if err != nil {
		return fmt.Errorf("delete %s edge: %w", kind, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// HasEdge reports whether a relation of the given kind exists.
func (s *Store) HasEdge(ctx context.Context, kind domain.EdgeKind, userID, targetID string) (bool, error) {
	table, targetColumn, err := edgeTable(kind)
	if err != nil {
		return false, err
	}

	//nolint:gosec // Table and column names come from edgeTable, not user input.
	query := fmt.Sprintf(`SELECT EXISTS(SELECT 1 FROM %s WHERE user_id = ? AND %s = ?)`, table, targetColumn)
	var exists int
	if err := s.db.QueryRowContext(ctx, query, userID, targetID).Scan(&exists); err != nil {
		return false, fmt.Errorf("query %s edge: %w", kind, err)
	}
	return exists != 0, nil
}

// CountEdges returns the number of edges of the given kind pointing at the
// target (e.g. how many users favorited a recipe, or follow an author).
func (s *Store) CountEdges(ctx context.Context, kind domain.EdgeKind, targetID string) (int, error) {
	table, targetColumn, err := edgeTable(kind)
	if err != nil {
		return 0, err
	}

	//nolint:gosec // Table and column names come from edgeTable, not user input.
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE %s = ?`, table, targetColumn)
	var count int
	if err := s.db.QueryRowContext(ctx, query, targetID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count %s edges: %w", kind, err)
	}
	return count, nil
}
