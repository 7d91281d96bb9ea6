// Where: cli/internal/upstream/repo.go
// What: Upstream catalog checkout management.
// Why: Update detection and batch conversion both want a fresh local copy
// of the upstream catalog repository without shelling out to git.
package upstream

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-git/go-git/v5"
	"github.com/sirupsen/logrus"
)

// Sync ensures dir holds a current checkout of the catalog repository at
// url: clone when absent, pull when present. An already-up-to-date pull is
// success.
func Sync(ctx context.Context, url, dir string) error {
	log := logrus.WithFields(logrus.Fields{"component": "upstream", "dir": dir})

	repo, err := git.PlainOpen(dir)
	if errors.Is(err, git.ErrRepositoryNotExists) {
		log.WithField("url", url).Info("cloning upstream catalog")
		_, err := git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{
			URL:   url,
			Depth: 1,
		})
		if err != nil {
			return fmt.Errorf("clone %s: %w", url, err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("open checkout %s: %w", dir, err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("open worktree: %w", err)
	}
	log.Info("pulling upstream catalog")
	err = worktree.PullContext(ctx, &git.PullOptions{RemoteName: "origin"})
	if errors.Is(err, git.NoErrAlreadyUpToDate) {
		log.Info("upstream catalog already up to date")
		return nil
	}
	if err != nil {
		return fmt.Errorf("pull %s: %w", url, err)
	}
	return nil
}
