package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ladleapp/ladle-server/internal/domain"
	domainerrors "github.com/ladleapp/ladle-server/internal/errors"
	"github.com/ladleapp/ladle-server/internal/store/sqlite"
)

func newTestUserService(t *testing.T) (*UserService, *sqlite.Store, func()) {
	t.Helper()
	s, cleanup := newServiceTestStore(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewUserService(s, logger), s, cleanup
}

func TestUserService_GetUser(t *testing.T) {
	svc, s, cleanup := newTestUserService(t)
	defer cleanup()

	ctx := context.Background()
	alice := seedTestUser(t, s, "user-1", "alice", domain.RoleMember)
	bob := seedTestUser(t, s, "user-2", "bob", domain.RoleMember)

	require.NoError(t, s.AddEdge(ctx, domain.EdgeFollow, alice.ID, bob.ID))

	got, err := svc.GetUser(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "bob", got.Username)
	assert.True(t, got.IsSubscribed)
	assert.Empty(t, got.PasswordHash)

	// Anonymous viewers never see a subscription
	got, err = svc.GetUser(ctx, bob.ID, "")
	require.NoError(t, err)
	assert.False(t, got.IsSubscribed)
}

func TestUserService_GetUser_NotFound(t *testing.T) {
	svc, _, cleanup := newTestUserService(t)
	defer cleanup()

	_, err := svc.GetUser(context.Background(), "user-missing", "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domainerrors.ErrNotFound))
}

func TestUserService_ListUsers(t *testing.T) {
	svc, s, cleanup := newTestUserService(t)
	defer cleanup()

	ctx := context.Background()
	seedTestUser(t, s, "user-1", "carol", domain.RoleMember)
	seedTestUser(t, s, "user-2", "alice", domain.RoleMember)
	seedTestUser(t, s, "user-3", "bob", domain.RoleMember)

	page, err := svc.ListUsers(ctx, "", 2, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	require.Len(t, page.Users, 2)
	// Ordered by username
	assert.Equal(t, "alice", page.Users[0].Username)
	assert.Equal(t, "bob", page.Users[1].Username)

	page, err = svc.ListUsers(ctx, "", 2, 2)
	require.NoError(t, err)
	require.Len(t, page.Users, 1)
	assert.Equal(t, "carol", page.Users[0].Username)
}

func TestUserService_Me(t *testing.T) {
	svc, s, cleanup := newTestUserService(t)
	defer cleanup()

	alice := seedTestUser(t, s, "user-1", "alice", domain.RoleMember)

	me, err := svc.Me(context.Background(), alice.ID)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, me.ID)
	// Self-view is never a subscription
	assert.False(t, me.IsSubscribed)
}
