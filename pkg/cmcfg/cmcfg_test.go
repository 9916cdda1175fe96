package cmcfg

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cmpush.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
repoPath: /srv/missions
port: 9999
hideUrl: true
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.RepoPath != "/srv/missions" {
		t.Errorf("RepoPath = %q", cfg.RepoPath)
	}
	if cfg.Port != 9999 {
		t.Errorf("Port = %d", cfg.Port)
	}
	if !cfg.HideURL {
		t.Error("HideURL not set")
	}
	// Untouched keys keep their defaults.
	if cfg.RedrawDelay != 250 {
		t.Errorf("RedrawDelay = %d, want default 250", cfg.RedrawDelay)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("Load of a missing file succeeded")
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := writeConfig(t, "prot: 9999\n")
	if _, err := Load(path); err == nil {
		t.Error("Load accepted a config with an unknown key")
	}
}

func TestDefaults(t *testing.T) {
	cfg := Default()
	if cfg.Port != 47362 || cfg.RedrawDelay != 250 || cfg.RepoPath != "." {
		t.Errorf("Default() = %+v", cfg)
	}
}
