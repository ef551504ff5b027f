// Package git provides the version-control adapter for relgate.
// Local queries (commit count, HEAD, tags) go through go-git/v5; the
// operations go-git does not cover (exact-match describe) or that must
// honor the operator's own credential helpers (push) shell out to the
// git binary through domain.Runner.
package git

import (
	"context"
	"errors"
	"fmt"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/MyCarrier-DevOps/relgate/internal/domain"
)

// Logger defines the logging interface for the git adapter.
type Logger interface {
	Debug(ctx context.Context, msg string, fields map[string]interface{})
	Warn(ctx context.Context, msg string, fields map[string]interface{})
}

// Repository implements domain.VersionControl for a local repository.
type Repository struct {
	repo   *gogit.Repository
	runner domain.Runner
	path   string
	logger Logger
}

// NewRepository opens the repository at path. Returns an error
// wrapping domain.ErrNotARepository if the path is not inside a Git
// repository.
func NewRepository(path string, run domain.Runner, log Logger) (*Repository, error) {
	repo, err := gogit.PlainOpenWithOptions(path, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotARepository, path)
	}

	return &Repository{
		repo:   repo,
		runner: run,
		path:   path,
		logger: log,
	}, nil
}

// RevisionCount counts the commits reachable from HEAD. This is an
// exact count, equivalent to `git rev-list --count HEAD`.
func (r *Repository) RevisionCount(ctx context.Context) (int, error) {
	head, err := r.repo.Head()
	if err != nil {
		return 0, fmt.Errorf("%w: failed to resolve HEAD", domain.ErrNotARepository)
	}

	commit, err := r.repo.CommitObject(head.Hash())
	if err != nil {
		return 0, fmt.Errorf("failed to load HEAD commit: %w", err)
	}

	count := 0
	iter := object.NewCommitIterCTime(commit, nil, nil)
	err = iter.ForEach(func(_ *object.Commit) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		count++
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to walk commit history: %w", err)
	}

	r.logger.Debug(ctx, "counted revisions", map[string]interface{}{
		"head":  head.Hash().String(),
		"count": count,
	})
	return count, nil
}

// HeadCommit returns the full hash of HEAD.
func (r *Repository) HeadCommit(_ context.Context) (string, error) {
	head, err := r.repo.Head()
	if err != nil {
		return "", fmt.Errorf("failed to get HEAD: %w", err)
	}
	return head.Hash().String(), nil
}

// CurrentBranch returns the short name of the branch HEAD is on.
func (r *Repository) CurrentBranch(ctx context.Context) (string, error) {
	head, err := r.repo.Head()
	if err != nil {
		return "", fmt.Errorf("failed to get HEAD: %w", err)
	}

	if !head.Name().IsBranch() {
		r.logger.Warn(ctx, "HEAD is detached", map[string]interface{}{
			"head": head.Hash().String(),
			"path": r.path,
		})
		return "", domain.ErrDetachedHead
	}
	return head.Name().Short(), nil
}

// Status returns the porcelain status of the working tree. This
// shells out rather than using go-git's worktree status: the raw
// porcelain listing is surfaced verbatim to the operator when the
// tree is dirty, and the git binary's untracked-file semantics are
// the ones operators expect.
func (r *Repository) Status(ctx context.Context) (string, error) {
	result, err := r.runner.Run(ctx, []string{"git", "status", "--porcelain"}, true, true)
	if err != nil {
		return "", err
	}
	if result.ExitCode != 0 {
		return "", fmt.Errorf("git status exited %d: %s", result.ExitCode, strings.TrimSpace(result.Stderr))
	}
	return result.Stdout, nil
}

// TagExists reports whether the named tag exists in the repository.
func (r *Repository) TagExists(_ context.Context, tag string) (bool, error) {
	_, err := r.repo.Tag(tag)
	if err != nil {
		if errors.Is(err, gogit.ErrTagNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to look up tag %s: %w", tag, err)
	}
	return true, nil
}

// DescribeExactHead returns the tag pointing exactly at HEAD, or the
// empty string when HEAD carries no exact tag. go-git has no describe,
// so this is one of the operations delegated to the git binary.
func (r *Repository) DescribeExactHead(ctx context.Context) (string, error) {
	result, err := r.runner.Run(ctx, []string{"git", "describe", "--tags", "--exact-match", "HEAD"}, true, true)
	if err != nil {
		return "", err
	}
	if result.ExitCode != 0 {
		// No exact tag at HEAD. Not an error; the gate compares
		// the empty string against the expected tag.
		return "", nil
	}
	return strings.TrimSpace(result.Stdout), nil
}

// PushRef pushes a tag or branch to the named remote via the git
// binary, so the operator's configured credential helpers apply.
func (r *Repository) PushRef(ctx context.Context, remote, ref string) error {
	result, err := r.runner.Run(ctx, []string{"git", "push", remote, ref}, true, true)
	if err != nil {
		return err
	}
	if result.ExitCode != 0 {
		return fmt.Errorf("git push %s %s exited %d: %s",
			remote, ref, result.ExitCode, strings.TrimSpace(result.Stderr))
	}

	r.logger.Debug(ctx, "pushed ref", map[string]interface{}{
		"remote": remote,
		"ref":    ref,
	})
	return nil
}
