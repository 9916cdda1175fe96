package cmrepo

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/pkg/errors"

	"github.com/infilengine/cmpush/pkg/cmcode"
	"github.com/infilengine/cmpush/pkg/cmterm"
)

// VersionFile holds the tracked mission version counter inside the
// repository worktree.
const VersionFile = ".custommissionversion"

const (
	defaultAuthor      = "Codeless Mission Uploader"
	defaultAuthorEmail = "uploader@users.noreply.github.com"
)

var (
	ErrHeadDetached  = errors.New("repository HEAD is detached, this is unsupported")
	ErrHeadNotBranch = errors.New("repository HEAD does not point to a branch")
)

// Options customizes the commit identity. Zero values use the tool defaults.
type Options struct {
	Author      string
	AuthorEmail string
}

// Result describes a completed publish.
type Result struct {
	Commit  string
	RawURL  string
	Version uint64
	Tracked bool
}

// Publish runs the full pipeline for a parsed mission code: validate the
// repository state, derive and bump the mission version, write the mission
// file, stage everything, commit, push to the code's remote and derive the
// raw content URL. Progress lines go to the context Log; the caller decides
// what to do with the returned URL.
func (r *Repo) Publish(ctx context.Context, code *cmcode.Code, opts Options) (*Result, error) {
	log := cmterm.FromContext(ctx)

	head, err := r.repo.Head()
	if err != nil {
		return nil, errors.Wrapf(err, "resolve HEAD of %s", r.name)
	}
	if head.Name() == plumbing.HEAD {
		return nil, errors.Wrapf(ErrHeadDetached, "repo %s", r.name)
	}
	if !head.Name().IsBranch() {
		return nil, errors.Wrapf(ErrHeadNotBranch, "repo %s", r.name)
	}

	log.Info("Validating repository state...")
	remoteName, err := r.validate(ctx, code)
	if err != nil {
		return nil, err
	}

	tracked := code.HasFeature(cmcode.FeatureMissionVersion)
	var version uint64
	if tracked {
		log.Info("Deriving repository items...")
		version, err = r.deriveVersion()
		if err != nil {
			return nil, err
		}

		log.Info("Processing repository items...")
		version++
	}

	log.Info("Publishing repository items...")
	if err := r.OverwriteFile(code.GistFile, code.Content); err != nil {
		return nil, err
	}
	if tracked {
		if err := r.OverwriteFile(VersionFile, strconv.FormatUint(version, 10)); err != nil {
			return nil, err
		}
	}

	wt, err := r.repo.Worktree()
	if err != nil {
		return nil, errors.Wrapf(err, "retrieve worktree of %s", r.name)
	}
	if err := wt.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return nil, errors.Wrapf(err, "stage changes in %s", r.name)
	}

	author := opts.Author
	if author == "" {
		author = defaultAuthor
	}
	email := opts.AuthorEmail
	if email == "" {
		email = defaultAuthorEmail
	}
	sig := &object.Signature{Name: author, Email: email, When: time.Now()}

	commit, err := wt.Commit(commitMessage(version, tracked), &git.CommitOptions{
		Author:    sig,
		Committer: &object.Signature{Name: defaultAuthor, Email: defaultAuthorEmail, When: time.Now()},
	})
	if err != nil {
		return nil, errors.Wrapf(err, "commit in %s", r.name)
	}
	log.Infof("Commit Oid: %s", commit.String())

	if err := r.push(ctx, remoteName, head.Name()); err != nil {
		return nil, err
	}

	remoteURL, ok, err := r.RemoteURLFromName(remoteName)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.Errorf("remote %s of repo %s has no URL", remoteName, r.name)
	}

	return &Result{
		Commit:  commit.String(),
		RawURL:  RawContentURL(remoteURL, commit.String(), code.GistFile),
		Version: version,
		Tracked: tracked,
	}, nil
}

// validate checks the worktree paths the publish will touch and resolves the
// code's remote to a configured remote name.
func (r *Repo) validate(ctx context.Context, code *cmcode.Code) (string, error) {
	if err := r.pathUsable(code.GistFile); err != nil {
		return "", err
	}
	if code.HasFeature(cmcode.FeatureMissionVersion) {
		if err := r.pathUsable(VersionFile); err != nil {
			return "", err
		}
	}

	if code.GistRemote != "" {
		ok, err := r.HasRemote(code.GistRemote)
		if err != nil {
			return "", err
		}
		if !ok {
			return "", errors.Errorf("repo %s is missing remote name %s", r.name, code.GistRemote)
		}
		return code.GistRemote, nil
	}

	name, ok, err := r.RemoteNameFromURL(ctx, code.GistURL)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", errors.Errorf("repo %s is missing remote URL %s", r.name, code.GistURL)
	}
	return name, nil
}

// deriveVersion reads the tracked version counter from the worktree.
func (r *Repo) deriveVersion() (uint64, error) {
	raw, err := r.ReadFile(VersionFile)
	if err != nil {
		return 0, err
	}
	version, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "%s file did not contain a valid version", VersionFile)
	}
	return version, nil
}

func commitMessage(version uint64, tracked bool) string {
	if tracked {
		return fmt.Sprintf("Update To Newest Version - v%d", version)
	}
	return "Update To Newest Version - Untracked"
}

// push sends the current branch to the remote. An authentication failure
// prompts for credentials on the context Log and retries once.
func (r *Repo) push(ctx context.Context, remoteName string, branch plumbing.ReferenceName) error {
	log := cmterm.FromContext(ctx)
	refspec := config.RefSpec(branch + ":" + branch)

	err := r.gitPush(&git.PushOptions{
		RemoteName: remoteName,
		RefSpecs:   []config.RefSpec{refspec},
	})
	if err == nil || errors.Is(err, git.NoErrAlreadyUpToDate) {
		return nil
	}
	if !errors.Is(err, transport.ErrAuthenticationRequired) && !errors.Is(err, transport.ErrAuthorizationFailed) {
		return errors.Wrapf(err, "push %s to remote %s", branch, remoteName)
	}

	auth, err := r.promptBasicAuth(log, remoteName)
	if err != nil {
		return err
	}

	err = r.gitPush(&git.PushOptions{
		RemoteName: remoteName,
		RefSpecs:   []config.RefSpec{refspec},
		Auth:       auth,
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return errors.Wrapf(err, "push %s to remote %s", branch, remoteName)
	}
	return nil
}

// promptBasicAuth collects HTTP basic credentials through the interactive
// log bound to the context.
func (r *Repo) promptBasicAuth(log *cmterm.Log, remoteName string) (*githttp.BasicAuth, error) {
	url, ok, err := r.RemoteURLFromName(remoteName)
	if err != nil {
		return nil, err
	}
	if !ok {
		url = remoteName
	}

	log.Warnf("Push to %s needs credentials", url)
	user, err := log.RequestLine(fmt.Sprintf("Username for %s: ", url))
	if err != nil {
		return nil, errors.Wrap(err, "prompt for username")
	}
	pass, err := log.RequestSecret("Password: ")
	if err != nil {
		return nil, errors.Wrap(err, "prompt for password")
	}
	return &githttp.BasicAuth{Username: user, Password: pass}, nil
}

// RawContentURL derives the direct content URL for a file at a commit:
// gist.github.com hosts raw files on gist.githubusercontent.com under
// /raw/<commit>/<file>.
func RawContentURL(remoteURL, commit, file string) string {
	base := strings.ReplaceAll(remoteURL, "gist.github.com", "gist.githubusercontent.com")
	base = strings.TrimSuffix(base, "/")
	return fmt.Sprintf("%s/raw/%s/%s", base, commit, file)
}
