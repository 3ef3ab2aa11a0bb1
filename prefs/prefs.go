// Package prefs persists the application's durable settings, including the
// single piece of cross-launch state the app depends on: whether onboarding
// has completed. Settings live in a TOML file; loads degrade gracefully to
// defaults so a damaged or missing file never blocks startup.
package prefs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Prefs holds the persisted settings.
type Prefs struct {
	OnboardingComplete bool `toml:"onboarding_complete"`
	CollageColumns     int  `toml:"collage_columns"`
	CollageRows        int  `toml:"collage_rows"`
	// ResolveTimeoutSeconds bounds printer address resolution.
	ResolveTimeoutSeconds int `toml:"resolve_timeout_seconds"`
}

// Default returns the settings used before any file exists.
func Default() Prefs {
	return Prefs{
		CollageColumns:        2,
		CollageRows:           2,
		ResolveTimeoutSeconds: 5,
	}
}

// ResolveTimeout returns the configured resolution timeout as a duration.
func (p Prefs) ResolveTimeout() time.Duration {
	return time.Duration(p.ResolveTimeoutSeconds) * time.Second
}

// Load reads settings from path. Missing or unreadable files, and files
// that fail to parse, yield Default() without an error.
func Load(path string) Prefs {
	p := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return p
	}
	if err := toml.Unmarshal(data, &p); err != nil {
		return Default()
	}
	if p.CollageColumns < 1 {
		p.CollageColumns = Default().CollageColumns
	}
	if p.CollageRows < 1 {
		p.CollageRows = Default().CollageRows
	}
	if p.ResolveTimeoutSeconds < 1 {
		p.ResolveTimeoutSeconds = Default().ResolveTimeoutSeconds
	}
	return p
}

// Save writes settings to path, creating parent directories as needed.
func Save(path string, p Prefs) error {
	if path == "" {
		return errors.New("prefs: empty path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("prefs: create dir: %w", err)
	}
	data, err := toml.Marshal(p)
	if err != nil {
		return fmt.Errorf("prefs: encode: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("prefs: write: %w", err)
	}
	return nil
}
