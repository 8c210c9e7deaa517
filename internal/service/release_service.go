package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/google/uuid"
	"github.com/haatos/shipci/internal"
	"github.com/haatos/shipci/internal/pipeline"
	"github.com/haatos/shipci/internal/registry"
	"github.com/haatos/shipci/internal/shell"
	"github.com/haatos/shipci/internal/store"
	"github.com/haatos/shipci/internal/tracker"
	"github.com/haatos/shipci/internal/util"
)

type SourceRepo interface {
	Checkout(ctx context.Context, branch, hash string) error
	PushTags(ctx context.Context) error
}

type Versioner interface {
	Current(ctx context.Context) (*semver.Version, error)
	Bump(ctx context.Context) (*semver.Version, error)
}

type ImageClient interface {
	Build(ctx context.Context, version, commitHash string) (registry.ImageRef, error)
	Push(ctx context.Context, ref registry.ImageRef, host string) error
}

type ReleaseTracker interface {
	Register(ctx context.Context, release tracker.Release) error
}

// ReleaseService owns one repository's release pipeline: it assembles
// the fixed stage list from the release config, drives the executor
// and writes the results back onto the stored run.
type ReleaseService struct {
	cfg       *internal.ReleaseConfig
	runner    shell.Runner
	repo      SourceRepo
	versioner Versioner
	images    ImageClient
	tracker   ReleaseTracker
	notifier  pipeline.Notifier
}

func NewReleaseService(
	cfg *internal.ReleaseConfig,
	runner shell.Runner,
	repo SourceRepo,
	versioner Versioner,
	images ImageClient,
	releaseTracker ReleaseTracker,
	notifier pipeline.Notifier,
) *ReleaseService {
	return &ReleaseService{
		cfg:       cfg,
		runner:    runner,
		repo:      repo,
		versioner: versioner,
		images:    images,
		tracker:   releaseTracker,
		notifier:  notifier,
	}
}

// Execute runs the whole pipeline for one stored run and copies the
// terminal state back onto it. The returned error mirrors a failed
// terminal status.
func (s *ReleaseService) Execute(ctx context.Context, run *store.Run) error {
	aggregator := pipeline.NewAggregator(s.notifier, s.cfg.TargetBranch)
	pr := pipeline.NewRun(run.Branch, run.CommitHash, run.CommitMessage, run.SkipCI)
	executor := pipeline.NewExecutor(
		s.stages(aggregator),
		pipeline.NewActionRunner(),
		aggregator,
		s.cfg.Timeout(),
	)

	err := executor.Execute(ctx, pr)

	if pr.Status() == pipeline.StatusFailed {
		run.Status = store.StatusFailed
		run.Cause = util.AsPtr(pr.Cause())
	} else {
		run.Status = store.StatusSucceeded
	}
	if pr.OldVersion != "" {
		run.OldVersion = util.AsPtr(pr.OldVersion)
	}
	if pr.NewVersion != "" {
		run.NewVersion = util.AsPtr(pr.NewVersion)
	}
	if pr.ImageTag != "" {
		run.ImageTag = util.AsPtr(pr.ImageTag)
	}
	return err
}

// stages is the fixed ordered stage list. Later stages depend on state
// written by earlier ones, so the order is load-bearing.
func (s *ReleaseService) stages(aggregator *pipeline.Aggregator) []pipeline.Stage {
	notSkipped := []pipeline.Guard{pipeline.NotSkipped()}
	onTarget := []pipeline.Guard{
		pipeline.NotSkipped(),
		pipeline.OnBranch(s.cfg.TargetBranch),
	}
	afterBump := []pipeline.Guard{
		pipeline.NotSkipped(),
		pipeline.OnBranch(s.cfg.TargetBranch),
		pipeline.VersionChanged(),
	}

	stages := []pipeline.Stage{
		{
			Name: "checkout",
			Action: func(ctx context.Context, r *pipeline.Run) error {
				return s.repo.Checkout(ctx, r.Branch, r.CommitHash)
			},
		},
	}
	if s.cfg.Commands.Format != "" {
		stages = append(stages, pipeline.Stage{
			Name:   "format",
			Guards: notSkipped,
			Action: s.command(s.cfg.Commands.Format),
		})
	}
	stages = append(stages,
		pipeline.Stage{
			Name:   "test",
			Guards: notSkipped,
			Action: s.command(s.cfg.Commands.Test),
		},
		pipeline.Stage{
			Name:   "version",
			Guards: onTarget,
			Action: s.bumpVersion,
		},
		pipeline.Stage{
			Name:   "build",
			Guards: afterBump,
			Action: s.buildImage(aggregator),
		},
	)
	for _, reg := range s.cfg.Registries {
		stages = append(stages, pipeline.Stage{
			Name:   "push " + reg.Name,
			Guards: afterBump,
			Action: s.pushImage(reg.Host),
		})
	}
	stages = append(stages, pipeline.Stage{
		Name:   "tracker",
		Guards: afterBump,
		Action: s.registerRollout,
	})
	return stages
}

func (s *ReleaseService) command(cmd string) pipeline.Action {
	return func(ctx context.Context, r *pipeline.Run) error {
		if _, stderr, err := s.runner.Run(ctx, s.cfg.Workdir, cmd); err != nil {
			return fmt.Errorf("'%s': %s: %w", cmd, strings.TrimSpace(stderr), err)
		}
		return nil
	}
}

// bumpVersion runs exactly once per run; the executor never revisits a
// stage, which is what keeps the bump single-shot.
func (s *ReleaseService) bumpVersion(ctx context.Context, r *pipeline.Run) error {
	current, err := s.versioner.Current(ctx)
	if err != nil {
		return err
	}
	r.OldVersion = current.String()

	next, err := s.versioner.Bump(ctx)
	if err != nil {
		return err
	}
	r.NewVersion = next.String()

	if r.VersionChanged() {
		if err := s.repo.PushTags(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (s *ReleaseService) buildImage(aggregator *pipeline.Aggregator) pipeline.Action {
	return func(ctx context.Context, r *pipeline.Run) error {
		ref, err := s.images.Build(ctx, r.NewVersion, r.CommitHash)
		if err != nil {
			return err
		}
		r.ImageTag = ref.String()
		aggregator.Record("COMMIT BUILT : " + r.CommitHash)
		aggregator.Record("NEW_SEMANTIC_VERSION/DOCKER IMAGE TAG : " + r.NewVersion)
		return nil
	}
}

func (s *ReleaseService) pushImage(host string) pipeline.Action {
	return func(ctx context.Context, r *pipeline.Run) error {
		ref := registry.ImageRef{Repository: s.cfg.ImageRepository, Tag: r.NewVersion}
		return s.images.Push(ctx, ref, host)
	}
}

func (s *ReleaseService) registerRollout(ctx context.Context, r *pipeline.Run) error {
	return s.tracker.Register(ctx, tracker.Release{
		RequestID:       uuid.NewString(),
		Services:        s.cfg.Tracker.Services,
		ReleaseManager:  s.cfg.Tracker.ReleaseManager,
		NewVersion:      r.NewVersion,
		DockerTag:       r.ImageTag,
		Priority:        s.cfg.Tracker.Priority,
		ClusterID:       s.cfg.Tracker.ClusterID,
		Approved:        s.cfg.Tracker.Approved,
		AutoDeploy:      s.cfg.Tracker.AutoDeploy,
		RolloutStrategy: s.cfg.Tracker.RolloutStrategy,
		ChangeLog:       r.CommitMessage,
		ProductID:       s.cfg.Tracker.ProductID,
		Mode:            s.cfg.Tracker.Mode,
		Environment:     s.cfg.Tracker.Environment,
	})
}
