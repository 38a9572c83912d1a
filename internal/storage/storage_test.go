package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/bobby-s-dev/weather-dashboard/internal/models"
	"go.uber.org/zap"
)

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "prefs.json")

	s, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	if _, err := s.Get(ctx, "theme"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get on empty store: err = %v, want ErrNotFound", err)
	}
	if err := s.Set(ctx, "theme", "dark"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	reopened, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got, err := reopened.Get(ctx, "theme")
	if err != nil || got != "dark" {
		t.Fatalf("Get after reopen = %q, %v; want dark", got, err)
	}
}

func TestFileStoreRejectsCorruptDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewFileStore(path); err == nil {
		t.Fatal("expected error for corrupt preferences file")
	}
}

func TestPreferencesRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "prefs.json")

	store, err := NewFileStore(path)
	if err != nil {
		t.Fatal(err)
	}
	prefs := NewPreferences(store, zap.NewNop())

	want := []string{"Paris", "paris", "São Paulo"}
	if err := prefs.SaveFavourites(ctx, want); err != nil {
		t.Fatalf("SaveFavourites: %v", err)
	}
	if err := prefs.SaveTheme(ctx, models.Dark); err != nil {
		t.Fatalf("SaveTheme: %v", err)
	}

	reopened, err := NewFileStore(path)
	if err != nil {
		t.Fatal(err)
	}
	reloaded := NewPreferences(reopened, zap.NewNop())

	got := reloaded.LoadFavourites(ctx)
	if len(got) != len(want) {
		t.Fatalf("LoadFavourites() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("LoadFavourites()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if theme := reloaded.LoadTheme(ctx, models.Light); theme != models.Dark {
		t.Errorf("LoadTheme() = %q, want dark", theme)
	}
}

func TestPreferencesFallbacks(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	prefs := NewPreferences(store, zap.NewNop())

	if got := prefs.LoadFavourites(ctx); got == nil || len(got) != 0 {
		t.Errorf("LoadFavourites() on empty store = %v, want empty slice", got)
	}
	if got := prefs.LoadTheme(ctx, models.Dark); got != models.Dark {
		t.Errorf("LoadTheme() on empty store = %q, want the fallback", got)
	}

	_ = store.Set(ctx, FavouritesKey, "not-json")
	_ = store.Set(ctx, ThemeKey, "sepia")

	if got := prefs.LoadFavourites(ctx); len(got) != 0 {
		t.Errorf("LoadFavourites() with garbage = %v, want empty", got)
	}
	if got := prefs.LoadTheme(ctx, models.Light); got != models.Light {
		t.Errorf("LoadTheme() with garbage = %q, want the fallback", got)
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	if _, err := Open(context.Background(), "redis", "", ""); err == nil {
		t.Fatal("expected error for unknown driver")
	}
	s, err := Open(context.Background(), "memory", "", "")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := s.(*MemoryStore); !ok {
		t.Errorf("Open(memory) = %T", s)
	}
}
