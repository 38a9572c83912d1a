package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/bobby-s-dev/weather-dashboard/internal/models"
	"go.uber.org/zap"
)

const (
	FavouritesKey = "favourites"
	ThemeKey      = "theme"
)

// Preferences reads and writes the favourites list and theme.
type Preferences struct {
	store  KeyValueStore
	logger *zap.Logger
}

func NewPreferences(store KeyValueStore, logger *zap.Logger) *Preferences {
	return &Preferences{store: store, logger: logger}
}

// LoadFavourites returns the stored list, or an empty one when nothing was
// stored or the stored value is unreadable.
func (p *Preferences) LoadFavourites(ctx context.Context) []string {
	raw, err := p.store.Get(ctx, FavouritesKey)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			p.logger.Warn("Failed to load favourites", zap.Error(err))
		}
		return []string{}
	}

	var cities []string
	if err := json.Unmarshal([]byte(raw), &cities); err != nil {
		p.logger.Warn("Discarding unreadable favourites", zap.Error(err))
		return []string{}
	}
	if cities == nil {
		cities = []string{}
	}
	return cities
}

func (p *Preferences) SaveFavourites(ctx context.Context, cities []string) error {
	if cities == nil {
		cities = []string{}
	}
	raw, err := json.Marshal(cities)
	if err != nil {
		return fmt.Errorf("encoding favourites: %w", err)
	}
	return p.store.Set(ctx, FavouritesKey, string(raw))
}

// LoadTheme returns the stored theme, or fallback (the system colour-scheme
// preference) when nothing valid is stored.
func (p *Preferences) LoadTheme(ctx context.Context, fallback models.Theme) models.Theme {
	raw, err := p.store.Get(ctx, ThemeKey)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			p.logger.Warn("Failed to load theme", zap.Error(err))
		}
		return fallback
	}
	if theme, ok := models.ParseTheme(raw); ok {
		return theme
	}
	return fallback
}

func (p *Preferences) SaveTheme(ctx context.Context, theme models.Theme) error {
	return p.store.Set(ctx, ThemeKey, string(theme))
}
