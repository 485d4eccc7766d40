package domain

import "time"

// Tag represents a global recipe category managed by administrators.
// Tags are shared across all users — no ownership model.
// Slug is the canonical URL-safe form used for filtering.
type Tag struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"` // Hex color for client display, e.g. #E26C2D
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Touch updates the UpdatedAt timestamp.
func (t *Tag) Touch() {
	t.UpdatedAt = time.Now()
}

// Ingredient represents an entry in the global ingredient catalog.
// The (Name, MeasurementUnit) pair is unique: "flour/g" and "flour/cup"
// are distinct catalog entries.
type Ingredient struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	MeasurementUnit string    `json:"measurement_unit"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
