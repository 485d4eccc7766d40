package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ladleapp/ladle-server/internal/domain"
	"github.com/ladleapp/ladle-server/internal/store"
)

// recipeColumns is the ordered list of columns selected in recipe queries,
// including the viewer-relative annotations. Binds two parameters: the viewer
// ID for the favorite check and again for the cart check. An empty viewer ID
// matches no rows, so anonymous viewers always read both flags as false.
// Must match the scan order in scanRecipe.
const recipeColumns = `r.id, r.author_id, r.name, r.text, r.image, r.cooking_time,
	r.created_at, r.updated_at,
	EXISTS(SELECT 1 FROM favorites fa WHERE fa.user_id = ? AND fa.recipe_id = r.id),
	EXISTS(SELECT 1 FROM cart_items ci WHERE ci.user_id = ? AND ci.recipe_id = r.id)`

// scanRecipe scans a row selected via recipeColumns into a domain.Recipe.
// Tags, Ingredients, and Author are left empty; callers attach them separately.
func scanRecipe(scanner interface{ Scan(dest ...any) error }) (*domain.Recipe, error) {
	var r domain.Recipe

	var (
		createdAt   string
		updatedAt   string
		isFavorited int
		isInCart    int
	)

	err := scanner.Scan(
		&r.ID,
		&r.AuthorID,
		&r.Name,
		&r.Text,
		&r.Image,
		&r.CookingTime,
		&createdAt,
		&updatedAt,
		&isFavorited,
		&isInCart,
	)
	if err != nil {
		return nil, err
	}

	r.IsFavorited = isFavorited != 0
	r.IsInCart = isInCart != 0

	r.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	r.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}

	return &r, nil
}

// CreateRecipe inserts a recipe with its tag and ingredient associations in a
// single transaction. The caller is responsible for validating that the
// referenced tags and ingredients exist.
func (s *Store) CreateRecipe(ctx context.Context, r *domain.Recipe) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO recipes (id, author_id, name, text, image, cooking_time, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID,
		r.AuthorID,
		r.Name,
		r.Text,
		r.Image,
		r.CookingTime,
		formatTime(r.CreatedAt),
		formatTime(r.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrAlreadyExists
		}
		return fmt.Errorf("insert recipe: %w", err)
	}

	if err := writeRecipeAssociations(ctx, tx, r); err != nil {
		return err
	}

	return tx.Commit()
}

// UpdateRecipe persists changes to a recipe and replaces its tag and
// ingredient sets in a single transaction.
// Returns store.ErrNotFound if the recipe does not exist.
func (s *Store) UpdateRecipe(ctx context.Context, r *domain.Recipe) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE recipes SET name = ?, text = ?, image = ?, cooking_time = ?, updated_at = ?
		WHERE id = ?`,
		r.Name,
		r.Text,
		r.Image,
		r.CookingTime,
		formatTime(r.UpdatedAt),
		r.ID,
	)
	if err != nil {
		return fmt.Errorf("update recipe: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return store.ErrNotFound
	}

	// Clear and rewrite associations.
	if _, err := tx.ExecContext(ctx, `DELETE FROM recipe_tags WHERE recipe_id = ?`, r.ID); err != nil {
		return fmt.Errorf("delete recipe_tags: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM recipe_ingredients WHERE recipe_id = ?`, r.ID); err != nil {
		return fmt.Errorf("delete recipe_ingredients: %w", err)
	}

	if err := writeRecipeAssociations(ctx, tx, r); err != nil {
		return err
	}

	return tx.Commit()
}

// writeRecipeAssociations inserts recipe_tags and recipe_ingredients rows for
// the recipe's current tag and ingredient sets.
func writeRecipeAssociations(ctx context.Context, tx *sql.Tx, r *domain.Recipe) error {
	now := formatTime(r.UpdatedAt)
	for _, t := range r.Tags {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO recipe_tags (recipe_id, tag_id, created_at)
			VALUES (?, ?, ?)`,
			r.ID,
			t.ID,
			now,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return store.ErrAlreadyExists
			}
			return fmt.Errorf("insert recipe_tag: %w", err)
		}
	}

	for _, line := range r.Ingredients {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO recipe_ingredients (recipe_id, ingredient_id, amount)
			VALUES (?, ?, ?)`,
			r.ID,
			line.IngredientID,
			line.Amount,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return store.ErrAlreadyExists
			}
			return fmt.Errorf("insert recipe_ingredient: %w", err)
		}
	}

	return nil
}

// GetRecipe retrieves a recipe by ID with annotations, tags, ingredient lines,
// and the annotated author attached.
// Returns store.ErrNotFound if the recipe does not exist.
func (s *Store) GetRecipe(ctx context.Context, recipeID, viewerID string) (*domain.Recipe, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+recipeColumns+` FROM recipes r WHERE r.id = ?`,
		viewerID, viewerID, recipeID)

	r, err := scanRecipe(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := s.attachRecipeDetails(ctx, []*domain.Recipe{r}, viewerID); err != nil {
		return nil, err
	}

	return r, nil
}

// ListRecipes returns recipes matching the filter, newest first, with
// annotations and details attached.
func (s *Store) ListRecipes(ctx context.Context, viewerID string, filter domain.RecipeFilter) ([]*domain.Recipe, error) {
	query := `SELECT ` + recipeColumns + ` FROM recipes r`
	args := []any{viewerID, viewerID}

	where, whereArgs := recipeFilterClauses(viewerID, filter)
	if len(where) > 0 {
		query += ` WHERE ` + joinAnd(where)
		args = append(args, whereArgs...)
	}

	query += ` ORDER BY r.created_at DESC, r.id DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	query += ` LIMIT ? OFFSET ?`
	args = append(args, limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query recipes: %w", err)
	}
	defer rows.Close()

	var recipes []*domain.Recipe
	for rows.Next() {
		r, err := scanRecipe(rows)
		if err != nil {
			return nil, err
		}
		recipes = append(recipes, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if recipes == nil {
		recipes = []*domain.Recipe{}
	}

	if err := s.attachRecipeDetails(ctx, recipes, viewerID); err != nil {
		return nil, err
	}

	return recipes, nil
}

// CountRecipes returns the number of recipes matching the filter.
func (s *Store) CountRecipes(ctx context.Context, viewerID string, filter domain.RecipeFilter) (int, error) {
	query := `SELECT COUNT(*) FROM recipes r`
	args := []any{}

	where, whereArgs := recipeFilterClauses(viewerID, filter)
	if len(where) > 0 {
		query += ` WHERE ` + joinAnd(where)
		args = append(args, whereArgs...)
	}

	var count int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count recipes: %w", err)
	}
	return count, nil
}

// DeleteRecipe removes a recipe. Associations and edges cascade.
// Returns store.ErrNotFound if the recipe does not exist.
func (s *Store) DeleteRecipe(ctx context.Context, recipeID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM recipes WHERE id = ?`, recipeID)
	if err != nil {
		return fmt.Errorf("delete recipe: %w", err)
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

// defaultPageSize caps list queries when the caller does not set a limit.
const defaultPageSize = 20

// recipeFilterClauses builds WHERE fragments and args for a recipe filter.
func recipeFilterClauses(viewerID string, filter domain.RecipeFilter) ([]string, []any) {
	var (
		where []string
		args  []any
	)

	if filter.AuthorID != "" {
		where = append(where, `r.author_id = ?`)
		args = append(args, filter.AuthorID)
	}

	if len(filter.TagSlugs) > 0 {
		placeholders, slugArgs := inClause(filter.TagSlugs)
		where = append(where, `EXISTS(
			SELECT 1 FROM recipe_tags rt
			JOIN tags t ON t.id = rt.tag_id
			WHERE rt.recipe_id = r.id AND t.slug IN (`+placeholders+`))`)
		args = append(args, slugArgs...)
	}

	if filter.NamePrefix != "" {
		where = append(where, `r.name LIKE ? ESCAPE '\'`)
		args = append(args, escapeLike(filter.NamePrefix)+"%")
	}

	if filter.Favorited {
		where = append(where, `EXISTS(SELECT 1 FROM favorites fa2 WHERE fa2.user_id = ? AND fa2.recipe_id = r.id)`)
		args = append(args, viewerID)
	}

	if filter.InCart {
		where = append(where, `EXISTS(SELECT 1 FROM cart_items ci2 WHERE ci2.user_id = ? AND ci2.recipe_id = r.id)`)
		args = append(args, viewerID)
	}

	return where, args
}

func joinAnd(clauses []string) string {
	out := clauses[0]
	for _, c := range clauses[1:] {
		out += ` AND ` + c
	}
	return out
}

// attachRecipeDetails loads tags, ingredient lines, and annotated authors for
// the given recipes in three batch queries.
func (s *Store) attachRecipeDetails(ctx context.Context, recipes []*domain.Recipe, viewerID string) error {
	if len(recipes) == 0 {
		return nil
	}

	byID := make(map[string]*domain.Recipe, len(recipes))
	recipeIDs := make([]string, 0, len(recipes))
	authorIDs := make([]string, 0, len(recipes))
	seenAuthors := make(map[string]bool)
	for _, r := range recipes {
		byID[r.ID] = r
		recipeIDs = append(recipeIDs, r.ID)
		r.Tags = []domain.Tag{}
		r.Ingredients = []domain.RecipeIngredient{}
		if !seenAuthors[r.AuthorID] {
			seenAuthors[r.AuthorID] = true
			authorIDs = append(authorIDs, r.AuthorID)
		}
	}

	// Tags.
	placeholders, args := inClause(recipeIDs)
	rows, err := s.db.QueryContext(ctx, `
		SELECT rt.recipe_id, tags.id, tags.name, tags.color, tags.slug, tags.created_at, tags.updated_at
		FROM recipe_tags rt
		JOIN tags ON tags.id = rt.tag_id
		WHERE rt.recipe_id IN (`+placeholders+`)
		ORDER BY tags.name ASC`, args...)
	if err != nil {
		return fmt.Errorf("query recipe tags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			recipeID  string
			t         domain.Tag
			createdAt string
			updatedAt string
		)
		if err := rows.Scan(&recipeID, &t.ID, &t.Name, &t.Color, &t.Slug, &createdAt, &updatedAt); err != nil {
			return err
		}
		if t.CreatedAt, err = parseTime(createdAt); err != nil {
			return err
		}
		if t.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return err
		}
		if r, ok := byID[recipeID]; ok {
			r.Tags = append(r.Tags, t)
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	// Ingredient lines.
	lineRows, err := s.db.QueryContext(ctx, `
		SELECT ri.recipe_id, ri.ingredient_id, i.name, i.measurement_unit, ri.amount
		FROM recipe_ingredients ri
		JOIN ingredients i ON i.id = ri.ingredient_id
		WHERE ri.recipe_id IN (`+placeholders+`)
		ORDER BY i.name ASC`, args...)
	if err != nil {
		return fmt.Errorf("query recipe ingredients: %w", err)
	}
	defer lineRows.Close()

	for lineRows.Next() {
		var (
			recipeID string
			line     domain.RecipeIngredient
		)
		if err := lineRows.Scan(&recipeID, &line.IngredientID, &line.Name, &line.MeasurementUnit, &line.Amount); err != nil {
			return err
		}
		if r, ok := byID[recipeID]; ok {
			r.Ingredients = append(r.Ingredients, line)
		}
	}
	if err := lineRows.Err(); err != nil {
		return err
	}

	// Annotated authors.
	authorPlaceholders, authorArgs := inClause(authorIDs)
	authorRows, err := s.db.QueryContext(ctx,
		`SELECT `+annotatedUserColumns+` FROM users u WHERE u.id IN (`+authorPlaceholders+`)`,
		append([]any{viewerID}, authorArgs...)...)
	if err != nil {
		return fmt.Errorf("query recipe authors: %w", err)
	}
	defer authorRows.Close()

	authors := make(map[string]*domain.User, len(authorIDs))
	for authorRows.Next() {
		u, err := scanAnnotatedUser(authorRows)
		if err != nil {
			return err
		}
		u.PasswordHash = ""
		authors[u.ID] = u
	}
	if err := authorRows.Err(); err != nil {
		return err
	}

	for _, r := range recipes {
		r.Author = authors[r.AuthorID]
	}

	return nil
}

// ShoppingList aggregates ingredient lines across all recipes in the user's
// cart. Lines are merged by catalog (name, measurement_unit) and amounts
// summed, ordered by ingredient name.
func (s *Store) ShoppingList(ctx context.Context, userID string) ([]domain.ShoppingListItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT i.name, i.measurement_unit, SUM(ri.amount)
		FROM cart_items ci
		JOIN recipe_ingredients ri ON ri.recipe_id = ci.recipe_id
		JOIN ingredients i ON i.id = ri.ingredient_id
		WHERE ci.user_id = ?
		GROUP BY i.name, i.measurement_unit
		ORDER BY i.name ASC, i.measurement_unit ASC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("query shopping list: %w", err)
	}
	defer rows.Close()

	var items []domain.ShoppingListItem
	for rows.Next() {
		var item domain.ShoppingListItem
		if err := rows.Scan(&item.Name, &item.MeasurementUnit, &item.TotalAmount); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if items == nil {
		items = []domain.ShoppingListItem{}
	}

	return items, nil
}
