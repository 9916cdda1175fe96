// Package cmrepo publishes mission content into a local git repository and
// pushes the result to the gist remote the mission code names. All git work
// happens in-process through go-git.
package cmrepo

import (
	"context"
	"os"
	"path/filepath"

	git "github.com/go-git/go-git/v5"
	"github.com/pkg/errors"

	"github.com/infilengine/cmpush/pkg/cmterm"
)

// Repo wraps an opened repository together with a short name for error
// messages.
type Repo struct {
	repo *git.Repository
	name string
	root string

	// gitPush is the transport boundary, replaceable in tests.
	gitPush func(*git.PushOptions) error
}

// Open opens an existing repository with a worktree at path.
func Open(path string) (*Repo, error) {
	repo, err := git.PlainOpen(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open repository %s", path)
	}

	wt, err := repo.Worktree()
	if err != nil {
		return nil, errors.Wrapf(err, "repository %s has no worktree", path)
	}
	root := wt.Filesystem.Root()

	name := filepath.Base(root)
	if name == "." || name == string(filepath.Separator) {
		name = path
	}

	r := &Repo{repo: repo, name: name, root: root}
	r.gitPush = repo.Push
	return r, nil
}

// Name returns the repository's display name (the worktree directory name).
func (r *Repo) Name() string {
	return r.name
}

// RemoteNames lists the configured remote names.
func (r *Repo) RemoteNames() ([]string, error) {
	remotes, err := r.repo.Remotes()
	if err != nil {
		return nil, errors.Wrapf(err, "retrieve remotes of %s", r.name)
	}

	names := make([]string, 0, len(remotes))
	for _, remote := range remotes {
		names = append(names, remote.Config().Name)
	}
	return names, nil
}

// HasRemote reports whether a remote with the given name is configured.
func (r *Repo) HasRemote(name string) (bool, error) {
	names, err := r.RemoteNames()
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if n == name {
			return true, nil
		}
	}
	return false, nil
}

// HasRemoteURL reports whether any remote carries the given fetch URL.
// Remotes without a URL are skipped with a warning on the context Log.
func (r *Repo) HasRemoteURL(ctx context.Context, url string) (bool, error) {
	name, ok, err := r.RemoteNameFromURL(ctx, url)
	_ = name
	return ok, err
}

// RemoteNameFromURL finds the remote configured with the given URL.
func (r *Repo) RemoteNameFromURL(ctx context.Context, url string) (string, bool, error) {
	remotes, err := r.repo.Remotes()
	if err != nil {
		return "", false, errors.Wrapf(err, "retrieve remotes of %s", r.name)
	}

	log := cmterm.FromContext(ctx)
	for _, remote := range remotes {
		cfg := remote.Config()
		if len(cfg.URLs) == 0 {
			log.Warnf("Remote %s has no URL?", cfg.Name)
			continue
		}
		for _, u := range cfg.URLs {
			if u == url {
				return cfg.Name, true, nil
			}
		}
	}
	return "", false, nil
}

// RemoteURLFromName returns the first URL of the named remote.
func (r *Repo) RemoteURLFromName(name string) (string, bool, error) {
	remote, err := r.repo.Remote(name)
	if err != nil {
		if errors.Is(err, git.ErrRemoteNotFound) {
			return "", false, nil
		}
		return "", false, errors.Wrapf(err, "retrieve remote %s of %s", name, r.name)
	}

	urls := remote.Config().URLs
	if len(urls) == 0 {
		return "", false, nil
	}
	return urls[0], true, nil
}

// filePath resolves a repository-relative file inside the worktree.
func (r *Repo) filePath(file string) string {
	return filepath.Join(r.root, file)
}

// pathUsable rejects worktree paths occupied by something other than a
// regular file. A missing path is fine; publishing creates it.
func (r *Repo) pathUsable(file string) error {
	info, err := os.Stat(r.filePath(file))
	if err != nil {
		return nil
	}
	if !info.Mode().IsRegular() {
		return errors.Errorf("non-file item exists at %s in repo %s", file, r.name)
	}
	return nil
}

// OverwriteFile replaces the contents of a worktree file, creating it if
// needed. An existing non-file at the path is an error.
func (r *Repo) OverwriteFile(file, contents string) error {
	target := r.filePath(file)

	if info, err := os.Stat(target); err == nil && !info.Mode().IsRegular() {
		return errors.Errorf("non-file item exists at %s in repo %s", file, r.name)
	}

	if err := os.WriteFile(target, []byte(contents), 0644); err != nil {
		return errors.Wrapf(err, "write file %s in repo %s", file, r.name)
	}
	return nil
}

// ReadFile returns the contents of a worktree file.
func (r *Repo) ReadFile(file string) (string, error) {
	target := r.filePath(file)

	info, err := os.Stat(target)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.Errorf("file %s doesn't exist in repo %s", file, r.name)
		}
		return "", errors.Wrapf(err, "read file %s in repo %s", file, r.name)
	}
	if !info.Mode().IsRegular() {
		return "", errors.Errorf("non-file item exists at %s in repo %s", file, r.name)
	}

	contents, err := os.ReadFile(target)
	if err != nil {
		return "", errors.Wrapf(err, "read file %s in repo %s", file, r.name)
	}
	return string(contents), nil
}
