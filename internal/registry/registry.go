package registry

import (
	"context"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/haatos/shipci/internal"
	"github.com/haatos/shipci/internal/shell"
	"github.com/haatos/shipci/internal/util"
)

type ImageRef struct {
	Repository string
	Tag        string
}

func (ref ImageRef) String() string {
	return ref.Repository + ":" + ref.Tag
}

// Fetcher retrieves a file produced on the build host, e.g. the image
// metadata written after a build on a remote builder.
type Fetcher interface {
	Fetch(ctx context.Context, remotePath, localPath string) error
}

// Client builds the release image once and pushes it to any number of
// registry hosts through the docker CLI.
type Client struct {
	runner     shell.Runner
	dir        string
	repository string
	fetcher    Fetcher
}

func NewClient(runner shell.Runner, dir, repository string, fetcher Fetcher) *Client {
	return &Client{
		runner:     runner,
		dir:        dir,
		repository: repository,
		fetcher:    fetcher,
	}
}

func (c *Client) Build(ctx context.Context, version, commitHash string) (ImageRef, error) {
	ref := ImageRef{Repository: c.repository, Tag: version}

	if _, stderr, err := c.runner.Run(
		ctx, c.dir,
		fmt.Sprintf(
			"docker build -t %s --build-arg COMMIT_SHA=%s .",
			ref.String(), commitHash,
		),
	); err != nil {
		return ImageRef{}, fmt.Errorf("err building image: %s: %w", strings.TrimSpace(stderr), err)
	}

	metaFile := "image.meta"
	if _, stderr, err := c.runner.Run(
		ctx, c.dir,
		fmt.Sprintf("docker image inspect --format '{{.Id}}' %s > %s", ref.String(), metaFile),
	); err != nil {
		return ImageRef{}, fmt.Errorf("err inspecting image: %s: %w", strings.TrimSpace(stderr), err)
	}

	if c.fetcher != nil {
		versionDir := path.Join(internal.ArtifactsDir, version)
		if exists, _ := util.PathExists(versionDir); !exists {
			if err := os.MkdirAll(versionDir, 0o755); err != nil {
				return ImageRef{}, fmt.Errorf("err creating artifact dir: %w", err)
			}
		}
		if err := c.fetcher.Fetch(ctx, path.Join(c.dir, metaFile), path.Join(versionDir, metaFile)); err != nil {
			return ImageRef{}, fmt.Errorf("err fetching image metadata: %w", err)
		}
		if _, err := util.ArchiveDirectory(versionDir); err != nil {
			return ImageRef{}, fmt.Errorf("err archiving artifacts: %w", err)
		}
	}
	return ref, nil
}

func (c *Client) Push(ctx context.Context, ref ImageRef, host string) error {
	remote := host + "/" + ref.String()
	if _, stderr, err := c.runner.Run(
		ctx, c.dir,
		fmt.Sprintf("docker tag %s %s && docker push %s", ref.String(), remote, remote),
	); err != nil {
		return fmt.Errorf("err pushing %s: %s: %w", remote, strings.TrimSpace(stderr), err)
	}
	return nil
}
