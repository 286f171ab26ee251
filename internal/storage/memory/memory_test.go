package memory

import (
	"context"
	"testing"
)

func TestSaveAndObject(t *testing.T) {
	t.Parallel()

	store := New()
	uri, err := store.Save(context.Background(), "Ohio_Brewers.csv", []byte("a,b\n"))
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if uri != "memory://Ohio_Brewers.csv" {
		t.Fatalf("unexpected uri %q", uri)
	}

	data, ok := store.Object("Ohio_Brewers.csv")
	if !ok || string(data) != "a,b\n" {
		t.Fatalf("expected stored object, got %q ok=%v", data, ok)
	}
	if store.Len() != 1 {
		t.Fatalf("expected 1 object, got %d", store.Len())
	}
}

func TestSaveOverwrites(t *testing.T) {
	t.Parallel()

	store := New()
	ctx := context.Background()
	if _, err := store.Save(ctx, "x.csv", []byte("one")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if _, err := store.Save(ctx, "x.csv", []byte("two")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	data, _ := store.Object("x.csv")
	if string(data) != "two" {
		t.Fatalf("expected overwrite, got %q", data)
	}
	if store.Len() != 1 {
		t.Fatalf("expected 1 object, got %d", store.Len())
	}
}
