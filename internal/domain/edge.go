package domain

import "time"

// EdgeKind identifies one of the user relation sets. All three share the
// same shape: an unordered unique pair of (user, target) with a creation
// timestamp, differing only in the target entity.
type EdgeKind string

const (
	// EdgeFollow links a user to an author they subscribe to.
	EdgeFollow EdgeKind = "follow"
	// EdgeFavorite links a user to a recipe they bookmarked.
	EdgeFavorite EdgeKind = "favorite"
	// EdgeCart links a user to a recipe queued for shopping list export.
	EdgeCart EdgeKind = "cart"
)

// Valid checks if the edge kind is valid.
func (k EdgeKind) Valid() bool {
	switch k {
	case EdgeFollow, EdgeFavorite, EdgeCart:
		return true
	default:
		return false
	}
}

// TargetsUser reports whether the edge points at a user (true) or a recipe (false).
func (k EdgeKind) TargetsUser() bool {
	return k == EdgeFollow
}

// Edge is a single relation instance.
type Edge struct {
	Kind      EdgeKind  `json:"kind"`
	UserID    string    `json:"user_id"`
	TargetID  string    `json:"target_id"`
	CreatedAt time.Time `json:"created_at"`
}
