package assets_test

import (
	"errors"
	"testing"

	"github.com/content-lifecycle-api/internal/assets"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

func newStore(t *testing.T, files ...string) (*assets.Store, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	for _, f := range files {
		if err := afero.WriteFile(fs, "/srv/uploads/"+f, []byte("data"), 0o644); err != nil {
			t.Fatalf("seeding %s: %v", f, err)
		}
	}
	return assets.NewWithFs(fs, "/srv/uploads", zerolog.Nop()), fs
}

func TestDeleteAsset(t *testing.T) {
	store, fs := newStore(t, "media/1/original.jpg", "media/1/thumb.jpg")

	if err := store.DeleteAsset("media/1/original.jpg"); err != nil {
		t.Fatalf("DeleteAsset failed: %v", err)
	}

	exists, _ := afero.Exists(fs, "/srv/uploads/media/1/original.jpg")
	if exists {
		t.Error("original should be deleted")
	}
	exists, _ = afero.Exists(fs, "/srv/uploads/media/1/thumb.jpg")
	if !exists {
		t.Error("thumb should be untouched")
	}
}

func TestDeleteAsset_LeadingSlash(t *testing.T) {
	store, _ := newStore(t, "media/2/web.webp")

	if err := store.DeleteAsset("/media/2/web.webp"); err != nil {
		t.Fatalf("DeleteAsset failed: %v", err)
	}
	exists, err := store.Exists("media/2/web.webp")
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if exists {
		t.Error("file should be deleted")
	}
}

func TestDeleteAsset_MissingFileIsNotAnError(t *testing.T) {
	store, _ := newStore(t)

	if err := store.DeleteAsset("media/404/original.jpg"); err != nil {
		t.Errorf("Expected nil for missing file, got %v", err)
	}
}

func TestDeleteAsset_StaysInsideRoot(t *testing.T) {
	store, fs := newStore(t)
	if err := afero.WriteFile(fs, "/srv/secret.txt", []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	// ".." segments are cleaned against the root, never above it
	if err := store.DeleteAsset("../secret.txt"); err != nil {
		t.Fatalf("DeleteAsset failed: %v", err)
	}
	exists, _ := afero.Exists(fs, "/srv/secret.txt")
	if !exists {
		t.Error("file outside the root must not be deleted")
	}

	for _, p := range []string{"", "/", ".."} {
		if err := store.DeleteAsset(p); !errors.Is(err, assets.ErrOutsideRoot) {
			t.Errorf("DeleteAsset(%q): expected ErrOutsideRoot, got %v", p, err)
		}
	}
}

func TestDeleteAsset_ReadOnlyFs(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "/srv/uploads/a.jpg", []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	store := assets.NewWithFs(afero.NewReadOnlyFs(fs), "/srv/uploads", zerolog.Nop())

	if err := store.DeleteAsset("a.jpg"); err == nil {
		t.Error("Expected error on read-only filesystem")
	}
}
