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

// defaultUserPageSize limits user listings when the client does not ask for a size.
const defaultUserPageSize = 20

// UserService provides profile reads annotated for the viewing user.
type UserService struct {
	store  *sqlite.Store
	logger *slog.Logger
}

// NewUserService creates a new user service.
func NewUserService(store *sqlite.Store, logger *slog.Logger) *UserService {
	return &UserService{
		store:  store,
		logger: logger,
	}
}

// UserPage is a paginated slice of users with the total count.
type UserPage struct {
	Users []*domain.User `json:"users"`
	Total int            `json:"total"`
}

// GetUser returns a single user annotated for the viewer.
// viewerID may be empty for anonymous requests.
func (s *UserService) GetUser(ctx context.Context, userID, viewerID string) (*domain.User, error) {
	user, err := s.store.GetAnnotatedUser(ctx, userID, viewerID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("user not found")
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	user.PasswordHash = ""
	return user, nil
}

// ListUsers returns a page of users ordered by username.
func (s *UserService) ListUsers(ctx context.Context, viewerID string, limit, offset int) (*UserPage, error) {
	if limit <= 0 {
		limit = defaultUserPageSize
	}
	if offset < 0 {
		offset = 0
	}

	users, err := s.store.ListUsers(ctx, viewerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	for _, u := range users {
		u.PasswordHash = ""
	}

	total, err := s.store.CountUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}

	return &UserPage{Users: users, Total: total}, nil
}

// Me returns the authenticated user's own annotated profile.
func (s *UserService) Me(ctx context.Context, userID string) (*domain.User, error) {
	return s.GetUser(ctx, userID, userID)
}
