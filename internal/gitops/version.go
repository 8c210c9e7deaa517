package gitops

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/haatos/shipci/internal/shell"
)

// Versioner answers what the repository's version is now and what it
// becomes after a bump.
type Versioner interface {
	Current(ctx context.Context) (*semver.Version, error)
	Bump(ctx context.Context) (*semver.Version, error)
}

// GitVersioner derives versions from annotated tags and the commit
// subjects since the last tag, conventional-commit style: a breaking
// change bumps major, feat bumps minor, fix/perf bump patch, anything
// else leaves the version unchanged. Bump is idempotent per commit:
// the same unbumped commit always yields the same next version.
type GitVersioner struct {
	runner shell.Runner
	dir    string
}

func NewGitVersioner(runner shell.Runner, dir string) *GitVersioner {
	return &GitVersioner{runner: runner, dir: dir}
}

func (v *GitVersioner) Current(ctx context.Context) (*semver.Version, error) {
	out, _, err := v.runner.Run(ctx, v.dir, "git describe --tags --abbrev=0")
	if err != nil {
		tags, _, tagErr := v.runner.Run(ctx, v.dir, "git tag --list")
		if tagErr == nil && strings.TrimSpace(tags) == "" {
			// fresh repository without release tags
			return semver.New(0, 0, 0, "", ""), nil
		}
		return nil, fmt.Errorf("err describing tags: %w", err)
	}

	tag := strings.TrimSpace(out)
	version, err := semver.NewVersion(strings.TrimPrefix(tag, "v"))
	if err != nil {
		return nil, fmt.Errorf("malformed version tag '%s': %w", tag, err)
	}
	return version, nil
}

func (v *GitVersioner) Bump(ctx context.Context) (*semver.Version, error) {
	current, err := v.Current(ctx)
	if err != nil {
		return nil, err
	}

	logRange := "HEAD"
	if !current.Equal(semver.New(0, 0, 0, "", "")) {
		logRange = fmt.Sprintf("v%s..HEAD", current.String())
	}
	out, _, err := v.runner.Run(
		ctx, v.dir,
		fmt.Sprintf("git log %s --pretty=%%s", logRange),
	)
	if err != nil {
		return nil, fmt.Errorf("err reading commit log: %w", err)
	}

	next := nextVersion(current, strings.Split(strings.TrimSpace(out), "\n"))
	if next.Equal(current) {
		return next, nil
	}

	if _, stderr, err := v.runner.Run(
		ctx, v.dir,
		fmt.Sprintf("git tag v%s", next.String()),
	); err != nil {
		return nil, fmt.Errorf("err tagging v%s: %s: %w", next.String(), strings.TrimSpace(stderr), err)
	}
	return next, nil
}

func nextVersion(current *semver.Version, subjects []string) *semver.Version {
	major, minor, patch := false, false, false
	for _, subject := range subjects {
		subject = strings.TrimSpace(subject)
		if subject == "" {
			continue
		}
		kind, breaking := commitKind(subject)
		switch {
		case breaking:
			major = true
		case kind == "feat":
			minor = true
		case kind == "fix" || kind == "perf":
			patch = true
		}
	}

	switch {
	case major && current.Major() > 0:
		next := current.IncMajor()
		return &next
	case major || minor:
		next := current.IncMinor()
		return &next
	case patch:
		next := current.IncPatch()
		return &next
	default:
		return current
	}
}

func commitKind(subject string) (string, bool) {
	colon := strings.Index(subject, ":")
	if colon < 0 {
		return "", strings.Contains(subject, "BREAKING CHANGE")
	}
	prefix := subject[:colon]
	breaking := strings.HasSuffix(prefix, "!")
	prefix = strings.TrimSuffix(prefix, "!")
	if scope := strings.Index(prefix, "("); scope >= 0 {
		prefix = prefix[:scope]
	}
	return strings.ToLower(strings.TrimSpace(prefix)), breaking
}
