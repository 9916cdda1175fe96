package cmrepo

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/infilengine/cmpush/pkg/cmterm"
)

const testRemoteURL = "https://gist.github.com/abc123"

// newTestRepo builds a worktree repository with one commit carrying the
// version file and an "origin" remote, and stubs out the push transport.
func newTestRepo(t *testing.T) *Repo {
	t.Helper()

	dir := t.TempDir()
	gitRepo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("PlainInit failed: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, VersionFile), []byte("4"), 0644); err != nil {
		t.Fatalf("seed version file: %v", err)
	}

	wt, err := gitRepo.Worktree()
	if err != nil {
		t.Fatalf("Worktree failed: %v", err)
	}
	if _, err := wt.Add(VersionFile); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	sig := &object.Signature{Name: "tester", Email: "tester@example.com", When: time.Now()}
	if _, err := wt.Commit("initial", &git.CommitOptions{Author: sig, Committer: sig}); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	if _, err := gitRepo.CreateRemote(&config.RemoteConfig{
		Name: "origin",
		URLs: []string{testRemoteURL},
	}); err != nil {
		t.Fatalf("CreateRemote failed: %v", err)
	}

	repo, err := Open(dir)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	repo.gitPush = func(*git.PushOptions) error { return nil }
	return repo
}

// testContext binds a headless log so publish progress has somewhere to go.
func testContext() context.Context {
	return cmterm.WithLog(context.Background(), cmterm.NewLog("Main Thread", nil))
}

func TestOpenRejectsNonRepo(t *testing.T) {
	if _, err := Open(t.TempDir()); err == nil {
		t.Error("Open of a plain directory succeeded")
	}
}

func TestRemoteLookups(t *testing.T) {
	repo := newTestRepo(t)
	ctx := testContext()

	ok, err := repo.HasRemote("origin")
	if err != nil || !ok {
		t.Errorf("HasRemote(origin) = %v, %v; want true", ok, err)
	}
	ok, err = repo.HasRemote("upstream")
	if err != nil || ok {
		t.Errorf("HasRemote(upstream) = %v, %v; want false", ok, err)
	}

	name, ok, err := repo.RemoteNameFromURL(ctx, testRemoteURL)
	if err != nil || !ok || name != "origin" {
		t.Errorf("RemoteNameFromURL = %q, %v, %v; want origin", name, ok, err)
	}
	_, ok, err = repo.RemoteNameFromURL(ctx, "https://elsewhere.example.com")
	if err != nil || ok {
		t.Errorf("RemoteNameFromURL for unknown URL = %v, %v; want false", ok, err)
	}

	url, ok, err := repo.RemoteURLFromName("origin")
	if err != nil || !ok || url != testRemoteURL {
		t.Errorf("RemoteURLFromName = %q, %v, %v", url, ok, err)
	}
	_, ok, err = repo.RemoteURLFromName("upstream")
	if err != nil || ok {
		t.Errorf("RemoteURLFromName for unknown remote = %v, %v; want false", ok, err)
	}
}

func TestOverwriteAndReadFile(t *testing.T) {
	repo := newTestRepo(t)

	if err := repo.OverwriteFile("mission.lua", "first"); err != nil {
		t.Fatalf("OverwriteFile failed: %v", err)
	}
	if err := repo.OverwriteFile("mission.lua", "second"); err != nil {
		t.Fatalf("OverwriteFile rewrite failed: %v", err)
	}

	got, err := repo.ReadFile("mission.lua")
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if got != "second" {
		t.Errorf("ReadFile = %q, want %q", got, "second")
	}
}

func TestReadFileMissing(t *testing.T) {
	repo := newTestRepo(t)
	if _, err := repo.ReadFile("nope.lua"); err == nil {
		t.Error("ReadFile of a missing file succeeded")
	}
}

func TestOverwriteFileRejectsDirectory(t *testing.T) {
	repo := newTestRepo(t)
	if err := os.Mkdir(repo.filePath("subdir"), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := repo.OverwriteFile("subdir", "contents"); err == nil {
		t.Error("OverwriteFile over a directory succeeded")
	}
}

func TestRawContentURL(t *testing.T) {
	tests := []struct {
		remote, commit, file, want string
	}{
		{
			"https://gist.github.com/abc123", "deadbeef", "m.lua",
			"https://gist.githubusercontent.com/abc123/raw/deadbeef/m.lua",
		},
		{
			"https://gist.github.com/abc123/", "deadbeef", "m.lua",
			"https://gist.githubusercontent.com/abc123/raw/deadbeef/m.lua",
		},
		{
			"https://example.com/repo.git", "cafe", "f.txt",
			"https://example.com/repo.git/raw/cafe/f.txt",
		},
	}

	for _, tt := range tests {
		if got := RawContentURL(tt.remote, tt.commit, tt.file); got != tt.want {
			t.Errorf("RawContentURL(%q) = %q, want %q", tt.remote, got, tt.want)
		}
	}
}
