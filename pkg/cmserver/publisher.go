package cmserver

import (
	"context"

	"github.com/pkg/errors"

	"github.com/infilengine/cmpush/pkg/cmcode"
	"github.com/infilengine/cmpush/pkg/cmrepo"
)

// RepoPublisher adapts an opened repository to the Publisher interface.
type RepoPublisher struct {
	Repo *cmrepo.Repo
	Opts cmrepo.Options
}

func (p *RepoPublisher) Publish(ctx context.Context, code *cmcode.Code) (*cmrepo.Result, error) {
	return p.Repo.Publish(ctx, code, p.Opts)
}

func (p *RepoPublisher) RemoteURL(ctx context.Context, code *cmcode.Code) (string, error) {
	if code.GistURL != "" {
		return code.GistURL, nil
	}
	url, ok, err := p.Repo.RemoteURLFromName(code.GistRemote)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", errors.Errorf("remote %s has no URL", code.GistRemote)
	}
	return url, nil
}
