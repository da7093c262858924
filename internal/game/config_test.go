package game

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

// TestLoadConfig reads overrides from the environment and keeps defaults
// for the rest.
func TestLoadConfig(t *testing.T) {
	t.Setenv("SHARDX_INITIAL_LIFE", "500")
	t.Setenv("SHARDX_ACTION_TIMEOUT", "5s")
	t.Setenv("SHARDX_SEED", "42")

	reg, debug, err := LoadConfig()
	if err != nil {
		t.Fatal(err)
	}
	want := StandardRegulation
	want.InitialLife = 500
	want.ActionTimeout = 5 * time.Second
	if diff := cmp.Diff(want, reg); diff != "" {
		t.Errorf("regulation mismatch (-want +got):\n%s", diff)
	}
	if debug.Seed != 42 || debug.IgnoreCost {
		t.Errorf("debug = %+v", debug)
	}

	t.Setenv("SHARDX_MAX_HAND_SIZE", "many")
	if _, _, err := LoadConfig(); err == nil {
		t.Error("expected error for a non-numeric hand size")
	}
}

func TestLoadAssets(t *testing.T) {
	a, err := LoadAssets("", "", nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(a.Catalog.Playable()) == 0 || len(a.Decks.Decks) != 3 {
		t.Errorf("built-in assets: %d cards, %d decks", len(a.Catalog.Playable()), len(a.Decks.Decks))
	}

	path := filepath.Join(t.TempDir(), "decks.yaml")
	if err := os.WriteFile(path, []byte("decks:\n  - name: Solo\n    cards:\n      - name: Mire Alligator\n        count: 4\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	a, err = LoadAssets("", path, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(a.Decks.Decks) != 1 || a.Decks.Decks[0].Name != "Solo" {
		t.Errorf("decks = %+v", a.Decks.Decks)
	}

	if _, err := LoadAssets(filepath.Join(t.TempDir(), "missing.yaml"), "", nil); err == nil {
		t.Error("expected error for a missing catalog")
	}
}
