package local

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSaveWritesAndReturnsURI(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store, err := New(dir)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	uri, err := store.Save(context.Background(), "NorthDakota_Brewers.csv", []byte("name,abv\n"))
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if !strings.HasPrefix(uri, "file://") {
		t.Fatalf("expected file:// URI, got %q", uri)
	}

	content, err := os.ReadFile(filepath.Join(dir, "NorthDakota_Brewers.csv"))
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(content) != "name,abv\n" {
		t.Fatalf("unexpected content %q", content)
	}
}

func TestSaveOverwritesExistingFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store, err := New(dir)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx := context.Background()
	if _, err := store.Save(ctx, "Texas_Brewers.csv", []byte("first\n")); err != nil {
		t.Fatalf("first Save() error = %v", err)
	}
	if _, err := store.Save(ctx, "Texas_Brewers.csv", []byte("second\n")); err != nil {
		t.Fatalf("second Save() error = %v", err)
	}

	content, err := os.ReadFile(filepath.Join(dir, "Texas_Brewers.csv"))
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(content) != "second\n" {
		t.Fatalf("expected overwrite, got %q", content)
	}
}

func TestSaveRejectsTraversal(t *testing.T) {
	t.Parallel()

	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if _, err := store.Save(context.Background(), "../escape.csv", []byte("x")); err == nil {
		t.Fatal("expected traversal error")
	}
}

func TestNewCreatesMissingDirectory(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "backups")
	if _, err := New(dir); err != nil {
		t.Fatalf("New() error = %v", err)
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		t.Fatalf("expected directory to be created, err = %v", err)
	}
}

func TestNewRejectsEmptyDir(t *testing.T) {
	t.Parallel()

	if _, err := New("  "); err == nil {
		t.Fatal("expected error for empty base directory")
	}
}
