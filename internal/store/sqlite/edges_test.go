package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/ladleapp/ladle-server/internal/domain"
	"github.com/ladleapp/ladle-server/internal/store"
)

func TestAddEdge_AllKinds(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice := seedUser(t, s, "user-1", "alice")
	bob := seedUser(t, s, "user-2", "bob")
	if err := s.CreateRecipe(ctx, makeTestRecipe("rcp-1", bob.ID, "Soup")); err != nil {
		t.Fatalf("CreateRecipe: %v", err)
	}

	cases := []struct {
		kind   domain.EdgeKind
		target string
	}{
		{domain.EdgeFollow, bob.ID},
		{domain.EdgeFavorite, "rcp-1"},
		{domain.EdgeCart, "rcp-1"},
	}

	for _, tc := range cases {
		if err := s.AddEdge(ctx, tc.kind, alice.ID, tc.target); err != nil {
			t.Fatalf("AddEdge %s: %v", tc.kind, err)
		}

		has, err := s.HasEdge(ctx, tc.kind, alice.ID, tc.target)
		if err != nil {
			t.Fatalf("HasEdge %s: %v", tc.kind, err)
		}
		if !has {
			t.Errorf("HasEdge %s: got false after add", tc.kind)
		}

		// Adding again is a conflict.
		if err := s.AddEdge(ctx, tc.kind, alice.ID, tc.target); !errors.Is(err, store.ErrAlreadyExists) {
			t.Errorf("AddEdge %s duplicate: expected ErrAlreadyExists, got %v", tc.kind, err)
		}
	}
}

func TestRemoveEdge(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice := seedUser(t, s, "user-1", "alice")
	bob := seedUser(t, s, "user-2", "bob")

	if err := s.AddEdge(ctx, domain.EdgeFollow, alice.ID, bob.ID); err != nil {
		t.Fatalf("AddEdge: %v", err)
	}
	if err := s.RemoveEdge(ctx, domain.EdgeFollow, alice.ID, bob.ID); err != nil {
		t.Fatalf("RemoveEdge: %v", err)
	}

	has, err := s.HasEdge(ctx, domain.EdgeFollow, alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("HasEdge: %v", err)
	}
	if has {
		t.Error("edge still present after remove")
	}

	// Removing an absent edge is not found.
	if err := s.RemoveEdge(ctx, domain.EdgeFollow, alice.ID, bob.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestAddEdge_SelfFollowRejected(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice := seedUser(t, s, "user-1", "alice")

	if err := s.AddEdge(ctx, domain.EdgeFollow, alice.ID, alice.ID); !errors.Is(err, store.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for self-follow, got %v", err)
	}
}

func TestAddEdge_MissingTarget(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice := seedUser(t, s, "user-1", "alice")

	if err := s.AddEdge(ctx, domain.EdgeFavorite, alice.ID, "rcp-missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing recipe, got %v", err)
	}
	if err := s.AddEdge(ctx, domain.EdgeFollow, alice.ID, "user-missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing user, got %v", err)
	}
}

func TestAddEdge_UnknownKind(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.AddEdge(ctx, domain.EdgeKind("bookmark"), "user-1", "rcp-1"); !errors.Is(err, store.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestEdgesAreIndependentAcrossKinds(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice := seedUser(t, s, "user-1", "alice")
	bob := seedUser(t, s, "user-2", "bob")
	if err := s.CreateRecipe(ctx, makeTestRecipe("rcp-1", bob.ID, "Soup")); err != nil {
		t.Fatalf("CreateRecipe: %v", err)
	}

	// Favoriting does not put the recipe in the cart.
	if err := s.AddEdge(ctx, domain.EdgeFavorite, alice.ID, "rcp-1"); err != nil {
		t.Fatalf("AddEdge: %v", err)
	}
	inCart, err := s.HasEdge(ctx, domain.EdgeCart, alice.ID, "rcp-1")
	if err != nil {
		t.Fatalf("HasEdge: %v", err)
	}
	if inCart {
		t.Error("favorite edge leaked into cart kind")
	}
}

func TestCountEdges(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	author := seedUser(t, s, "user-1", "author")
	if err := s.CreateRecipe(ctx, makeTestRecipe("rcp-1", author.ID, "Soup")); err != nil {
		t.Fatalf("CreateRecipe: %v", err)
	}

	for i, name := range []string{"fan1", "fan2", "fan3"} {
		fan := seedUser(t, s, "user-fan-"+string(rune('1'+i)), name)
		if err := s.AddEdge(ctx, domain.EdgeFavorite, fan.ID, "rcp-1"); err != nil {
			t.Fatalf("AddEdge: %v", err)
		}
	}

	count, err := s.CountEdges(ctx, domain.EdgeFavorite, "rcp-1")
	if err != nil {
		t.Fatalf("CountEdges: %v", err)
	}
	if count != 3 {
		t.Errorf("count: got %d, want 3", count)
	}
}
