package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ladleapp/ladle-server/internal/domain"
	"github.com/ladleapp/ladle-server/internal/store"
)

// makeTestSession creates a domain.Session with sensible defaults for testing.
func makeTestSession(id, userID, tokenHash string) *domain.Session {
	now := time.Now()
	return &domain.Session{
		ID:               id,
		UserID:           userID,
		RefreshTokenHash: tokenHash,
		ExpiresAt:        now.Add(24 * time.Hour),
		CreatedAt:        now,
		LastSeenAt:       now,
		IPAddress:        "192.0.2.1",
		ClientName:       "Ladle Web",
	}
}

func TestCreateAndGetSession(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := seedUser(t, s, "user-1", "chef")
	sess := makeTestSession("sess-1", u.ID, "hash-1")
	if err := s.CreateSession(ctx, sess); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	got, err := s.GetSession(ctx, "sess-1")
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if got.UserID != u.ID {
		t.Errorf("UserID: got %q, want %q", got.UserID, u.ID)
	}
	if got.RefreshTokenHash != "hash-1" {
		t.Errorf("RefreshTokenHash: got %q", got.RefreshTokenHash)
	}
	if got.ClientName != "Ladle Web" {
		t.Errorf("ClientName: got %q", got.ClientName)
	}
}

func TestGetSessionByRefreshTokenHash(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := seedUser(t, s, "user-1", "chef")
	if err := s.CreateSession(ctx, makeTestSession("sess-1", u.ID, "hash-1")); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	got, err := s.GetSessionByRefreshTokenHash(ctx, "hash-1")
	if err != nil {
		t.Fatalf("GetSessionByRefreshTokenHash: %v", err)
	}
	if got.ID != "sess-1" {
		t.Errorf("ID: got %q", got.ID)
	}

	if _, err := s.GetSessionByRefreshTokenHash(ctx, "hash-missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateSession_Rotation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := seedUser(t, s, "user-1", "chef")
	sess := makeTestSession("sess-1", u.ID, "hash-1")
	if err := s.CreateSession(ctx, sess); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	sess.RefreshTokenHash = "hash-2"
	sess.Touch()
	if err := s.UpdateSession(ctx, sess); err != nil {
		t.Fatalf("UpdateSession: %v", err)
	}

	if _, err := s.GetSessionByRefreshTokenHash(ctx, "hash-1"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("old hash should be gone, got %v", err)
	}
	got, err := s.GetSessionByRefreshTokenHash(ctx, "hash-2")
	if err != nil {
		t.Fatalf("GetSessionByRefreshTokenHash: %v", err)
	}
	if got.ID != "sess-1" {
		t.Errorf("ID: got %q", got.ID)
	}
}

func TestDeleteSessionsByUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := seedUser(t, s, "user-1", "chef")
	other := seedUser(t, s, "user-2", "other")

	for i, userID := range []string{u.ID, u.ID, other.ID} {
		sess := makeTestSession("sess-"+string(rune('1'+i)), userID, "hash-"+string(rune('1'+i)))
		if err := s.CreateSession(ctx, sess); err != nil {
			t.Fatalf("CreateSession: %v", err)
		}
	}

	deleted, err := s.DeleteSessionsByUser(ctx, u.ID)
	if err != nil {
		t.Fatalf("DeleteSessionsByUser: %v", err)
	}
	if deleted != 2 {
		t.Errorf("deleted: got %d, want 2", deleted)
	}

	remaining, err := s.GetSessionsByUser(ctx, other.ID)
	if err != nil {
		t.Fatalf("GetSessionsByUser: %v", err)
	}
	if len(remaining) != 1 {
		t.Errorf("other user's sessions: got %d, want 1", len(remaining))
	}
}

func TestDeleteExpiredSessions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := seedUser(t, s, "user-1", "chef")

	live := makeTestSession("sess-1", u.ID, "hash-1")
	if err := s.CreateSession(ctx, live); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	stale := makeTestSession("sess-2", u.ID, "hash-2")
	stale.ExpiresAt = time.Now().Add(-time.Hour)
	if err := s.CreateSession(ctx, stale); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	deleted, err := s.DeleteExpiredSessions(ctx)
	if err != nil {
		t.Fatalf("DeleteExpiredSessions: %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted: got %d, want 1", deleted)
	}

	if _, err := s.GetSession(ctx, "sess-1"); err != nil {
		t.Errorf("live session should remain: %v", err)
	}
	if _, err := s.GetSession(ctx, "sess-2"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("stale session should be gone, got %v", err)
	}
}
