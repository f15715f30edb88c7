package store

import (
	"context"

	"github.com/hpungsan/stocker/internal/db"
	"github.com/hpungsan/stocker/internal/errors"
)

// Display themes.
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// Theme returns the saved display theme, defaulting to light.
func (s *Store) Theme(ctx context.Context) (string, error) {
	value, ok, err := db.GetValue(ctx, s.db, ThemeKey)
	if err != nil {
		return "", err
	}
	if !ok || (value != ThemeLight && value != ThemeDark) {
		return ThemeLight, nil
	}
	return value, nil
}

// SetTheme saves the display theme.
func (s *Store) SetTheme(ctx context.Context, theme string) error {
	if theme != ThemeLight && theme != ThemeDark {
		return errors.NewInvalidRequest("theme must be one of: light, dark")
	}
	return db.SetValue(ctx, s.db, ThemeKey, theme)
}
