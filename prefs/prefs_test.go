package prefs

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	got := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if got != Default() {
		t.Fatalf("Load = %+v, want defaults", got)
	}
	if got.OnboardingComplete {
		t.Fatal("onboarding complete by default")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg", "prefs.toml")
	want := Prefs{
		OnboardingComplete:    true,
		CollageColumns:        3,
		CollageRows:           2,
		ResolveTimeoutSeconds: 8,
	}
	if err := Save(path, want); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if got := Load(path); got != want {
		t.Fatalf("Load = %+v, want %+v", got, want)
	}
}

func TestLoadGarbageDegradesToDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.toml")
	if err := os.WriteFile(path, []byte("{{{not toml"), 0o644); err != nil {
		t.Fatal(err)
	}
	if got := Load(path); got != Default() {
		t.Fatalf("Load = %+v, want defaults", got)
	}
}

func TestLoadClampsInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.toml")
	body := "collage_columns = 0\ncollage_rows = -2\nresolve_timeout_seconds = 0\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	got := Load(path)
	if got.CollageColumns != 2 || got.CollageRows != 2 {
		t.Fatalf("grid = %dx%d, want 2x2", got.CollageColumns, got.CollageRows)
	}
	if got.ResolveTimeout() != 5*time.Second {
		t.Fatalf("timeout = %v, want 5s", got.ResolveTimeout())
	}
}

func TestSaveEmptyPath(t *testing.T) {
	if err := Save("", Default()); err == nil {
		t.Fatal("expected error for empty path")
	}
}
