package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/ladleapp/ladle-server/internal/store"
)

func TestCreateAndGetTag(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tag := makeTestTag("tag-1", "breakfast")
	if err := s.CreateTag(ctx, tag); err != nil {
		t.Fatalf("CreateTag: %v", err)
	}

	got, err := s.GetTagByID(ctx, "tag-1")
	if err != nil {
		t.Fatalf("GetTagByID: %v", err)
	}
	if got.Slug != "breakfast" {
		t.Errorf("Slug: got %q, want %q", got.Slug, "breakfast")
	}
	if got.Color != tag.Color {
		t.Errorf("Color: got %q, want %q", got.Color, tag.Color)
	}
	if got.CreatedAt.Unix() != tag.CreatedAt.Unix() {
		t.Errorf("CreatedAt: got %v, want %v", got.CreatedAt, tag.CreatedAt)
	}
}

func TestCreateTag_DuplicateSlug(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.CreateTag(ctx, makeTestTag("tag-1", "lunch")); err != nil {
		t.Fatalf("CreateTag: %v", err)
	}

	dup := makeTestTag("tag-2", "lunch")
	if err := s.CreateTag(ctx, dup); !errors.Is(err, store.ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestGetTagBySlug(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.CreateTag(ctx, makeTestTag("tag-1", "dinner")); err != nil {
		t.Fatalf("CreateTag: %v", err)
	}

	got, err := s.GetTagBySlug(ctx, "dinner")
	if err != nil {
		t.Fatalf("GetTagBySlug: %v", err)
	}
	if got.ID != "tag-1" {
		t.Errorf("ID: got %q, want tag-1", got.ID)
	}

	if _, err := s.GetTagBySlug(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestGetTagsByIDs_PreservesOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i, slug := range []string{"one", "two", "three"} {
		tag := makeTestTag("tag-"+string(rune('1'+i)), slug)
		if err := s.CreateTag(ctx, tag); err != nil {
			t.Fatalf("CreateTag: %v", err)
		}
	}

	tags, err := s.GetTagsByIDs(ctx, []string{"tag-3", "tag-1", "tag-missing"})
	if err != nil {
		t.Fatalf("GetTagsByIDs: %v", err)
	}
	if len(tags) != 2 {
		t.Fatalf("got %d tags, want 2", len(tags))
	}
	if tags[0].Slug != "three" || tags[1].Slug != "one" {
		t.Errorf("order: got %s, %s", tags[0].Slug, tags[1].Slug)
	}
}

func TestListTags_OrderedByName(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i, slug := range []string{"zucchini", "apple", "mango"} {
		if err := s.CreateTag(ctx, makeTestTag("tag-"+string(rune('1'+i)), slug)); err != nil {
			t.Fatalf("CreateTag: %v", err)
		}
	}

	tags, err := s.ListTags(ctx)
	if err != nil {
		t.Fatalf("ListTags: %v", err)
	}
	if len(tags) != 3 {
		t.Fatalf("got %d tags, want 3", len(tags))
	}
	if tags[0].Name != "apple" || tags[1].Name != "mango" || tags[2].Name != "zucchini" {
		t.Errorf("order: %s, %s, %s", tags[0].Name, tags[1].Name, tags[2].Name)
	}
}

func TestUpdateAndDeleteTag(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tag := makeTestTag("tag-1", "brunch")
	if err := s.CreateTag(ctx, tag); err != nil {
		t.Fatalf("CreateTag: %v", err)
	}

	tag.Name = "Weekend Brunch"
	tag.Touch()
	if err := s.UpdateTag(ctx, tag); err != nil {
		t.Fatalf("UpdateTag: %v", err)
	}

	got, err := s.GetTagByID(ctx, "tag-1")
	if err != nil {
		t.Fatalf("GetTagByID: %v", err)
	}
	if got.Name != "Weekend Brunch" {
		t.Errorf("Name: got %q", got.Name)
	}

	if err := s.DeleteTag(ctx, "tag-1"); err != nil {
		t.Fatalf("DeleteTag: %v", err)
	}
	if _, err := s.GetTagByID(ctx, "tag-1"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := s.DeleteTag(ctx, "tag-1"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestCreateIngredient_DuplicatePair(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.CreateIngredient(ctx, makeTestIngredient("ing-1", "flour", "g")); err != nil {
		t.Fatalf("CreateIngredient: %v", err)
	}

	// Same name, same unit: duplicate.
	dup := makeTestIngredient("ing-2", "flour", "g")
	if err := s.CreateIngredient(ctx, dup); !errors.Is(err, store.ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}

	// Same name, different unit: distinct catalog entry.
	if err := s.CreateIngredient(ctx, makeTestIngredient("ing-3", "flour", "cup")); err != nil {
		t.Errorf("expected distinct unit to insert, got %v", err)
	}
}

func TestListIngredients_PrefixFilter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seed := []struct{ id, name, unit string }{
		{"ing-1", "flour", "g"},
		{"ing-2", "flaxseed", "g"},
		{"ing-3", "sugar", "g"},
	}
	for _, it := range seed {
		if err := s.CreateIngredient(ctx, makeTestIngredient(it.id, it.name, it.unit)); err != nil {
			t.Fatalf("CreateIngredient: %v", err)
		}
	}

	all, err := s.ListIngredients(ctx, "", 50, 0)
	if err != nil {
		t.Fatalf("ListIngredients: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("got %d ingredients, want 3", len(all))
	}

	// Case-insensitive prefix match via NOCASE collation.
	fl, err := s.ListIngredients(ctx, "FL", 50, 0)
	if err != nil {
		t.Fatalf("ListIngredients with prefix: %v", err)
	}
	if len(fl) != 2 {
		t.Fatalf("got %d matches for prefix, want 2", len(fl))
	}
	if fl[0].Name != "flaxseed" || fl[1].Name != "flour" {
		t.Errorf("order: %s, %s", fl[0].Name, fl[1].Name)
	}

	// Wildcards in the prefix are matched literally.
	none, err := s.ListIngredients(ctx, "%", 50, 0)
	if err != nil {
		t.Fatalf("ListIngredients with wildcard: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("wildcard should match literally, got %d rows", len(none))
	}
}
