package gitops

import (
	"context"
	"fmt"
	"strings"

	"github.com/haatos/shipci/internal"
	"github.com/haatos/shipci/internal/shell"
)

// Commit describes the commit a pipeline run was triggered for.
type Commit struct {
	Branch  string
	Hash    string
	Message string
}

// SkipRequested reports whether the commit message asks the pipeline
// to skip everything after checkout.
func (c Commit) SkipRequested() bool {
	message := strings.ToLower(c.Message)
	return strings.Contains(message, internal.SkipMarker) ||
		strings.Contains(message, "[ci skip]")
}

// Repo reads commit metadata from a git checkout and pushes release
// tags back to the remote. It never mutates history beyond tags.
type Repo struct {
	runner shell.Runner
	dir    string
}

func NewRepo(runner shell.Runner, dir string) *Repo {
	return &Repo{runner: runner, dir: dir}
}

func (r *Repo) Head(ctx context.Context) (*Commit, error) {
	branch, _, err := r.runner.Run(ctx, r.dir, "git rev-parse --abbrev-ref HEAD")
	if err != nil {
		return nil, fmt.Errorf("err reading branch: %w", err)
	}
	hash, _, err := r.runner.Run(ctx, r.dir, "git rev-parse HEAD")
	if err != nil {
		return nil, fmt.Errorf("err reading commit hash: %w", err)
	}
	message, _, err := r.runner.Run(ctx, r.dir, "git log -1 --pretty=%B")
	if err != nil {
		return nil, fmt.Errorf("err reading commit message: %w", err)
	}
	return &Commit{
		Branch:  strings.TrimSpace(branch),
		Hash:    strings.TrimSpace(hash),
		Message: strings.TrimSpace(message),
	}, nil
}

// Checkout brings the working tree to the given commit.
func (r *Repo) Checkout(ctx context.Context, branch, hash string) error {
	if _, stderr, err := r.runner.Run(
		ctx, r.dir,
		fmt.Sprintf("git fetch origin %s", branch),
	); err != nil {
		return fmt.Errorf("err fetching origin: %s: %w", strings.TrimSpace(stderr), err)
	}
	if _, stderr, err := r.runner.Run(
		ctx, r.dir,
		fmt.Sprintf("git checkout %s", hash),
	); err != nil {
		return fmt.Errorf("err checking out %s: %s: %w", hash, strings.TrimSpace(stderr), err)
	}
	return nil
}

func (r *Repo) Tag(ctx context.Context, name string) error {
	if _, stderr, err := r.runner.Run(
		ctx, r.dir,
		fmt.Sprintf("git tag %s", name),
	); err != nil {
		return fmt.Errorf("err tagging %s: %s: %w", name, strings.TrimSpace(stderr), err)
	}
	return nil
}

func (r *Repo) PushTags(ctx context.Context) error {
	if _, stderr, err := r.runner.Run(ctx, r.dir, "git push origin --tags"); err != nil {
		return fmt.Errorf("err pushing tags: %s: %w", strings.TrimSpace(stderr), err)
	}
	return nil
}
