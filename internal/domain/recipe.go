package domain

import "time"

// RecipeIngredient is one quantified ingredient line on a recipe.
// Amount is interpreted in the catalog ingredient's measurement unit.
type RecipeIngredient struct {
	IngredientID    string `json:"ingredient_id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
	Amount          int    `json:"amount"`
}

// Recipe represents a published recipe with its tags and ingredient lines.
type Recipe struct {
	ID          string             `json:"id"`
	AuthorID    string             `json:"author_id"`
	Name        string             `json:"name"`
	Text        string             `json:"text"`
	Image       string             `json:"image"`        // Relative path under the media directory
	CookingTime int                `json:"cooking_time"` // Minutes
	Tags        []Tag              `json:"tags"`
	Ingredients []RecipeIngredient `json:"ingredients"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`

	// Viewer-relative annotations, populated by store queries.
	// Both are always false for anonymous viewers.
	IsFavorited bool  `json:"is_favorited"`
	IsInCart    bool  `json:"is_in_shopping_cart"`
	Author      *User `json:"author,omitempty"`
}

// Touch updates the UpdatedAt timestamp.
func (r *Recipe) Touch() {
	r.UpdatedAt = time.Now()
}

// HasTag reports whether the recipe carries the given tag ID.
func (r *Recipe) HasTag(tagID string) bool {
	for _, t := range r.Tags {
		if t.ID == tagID {
			return true
		}
	}
	return false
}

// RecipeFilter narrows recipe list queries. Zero values mean "no filter".
type RecipeFilter struct {
	AuthorID   string   // Only recipes by this author
	TagSlugs   []string // Recipes carrying ANY of these tag slugs
	NamePrefix string   // Case-insensitive name prefix match
	Favorited  bool     // Only recipes favorited by the viewer
	InCart     bool     // Only recipes in the viewer's cart
	Limit      int      // Page size (0 = store default)
	Offset     int
}

// ShoppingListItem is one consolidated line of a shopping list export.
// Lines are merged by (Name, MeasurementUnit) across all cart recipes.
type ShoppingListItem struct {
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
	TotalAmount     int    `json:"total_amount"`
}
