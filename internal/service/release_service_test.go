package service

import (
	"context"
	"errors"
	"testing"

	"github.com/Masterminds/semver/v3"
	"github.com/haatos/shipci/internal"
	"github.com/haatos/shipci/internal/registry"
	"github.com/haatos/shipci/internal/store"
	"github.com/haatos/shipci/internal/tracker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockSourceRepo struct {
	mock.Mock
}

func (m *MockSourceRepo) Checkout(ctx context.Context, branch, hash string) error {
	args := m.Called(ctx, branch, hash)
	return args.Error(0)
}

func (m *MockSourceRepo) PushTags(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type MockVersioner struct {
	mock.Mock
}

func (m *MockVersioner) Current(ctx context.Context) (*semver.Version, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*semver.Version), args.Error(1)
}

func (m *MockVersioner) Bump(ctx context.Context) (*semver.Version, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*semver.Version), args.Error(1)
}

type MockImageClient struct {
	mock.Mock
}

func (m *MockImageClient) Build(
	ctx context.Context,
	version, commitHash string,
) (registry.ImageRef, error) {
	args := m.Called(ctx, version, commitHash)
	return args.Get(0).(registry.ImageRef), args.Error(1)
}

func (m *MockImageClient) Push(ctx context.Context, ref registry.ImageRef, host string) error {
	args := m.Called(ctx, ref, host)
	return args.Error(0)
}

type MockReleaseTracker struct {
	mock.Mock
}

func (m *MockReleaseTracker) Register(ctx context.Context, release tracker.Release) error {
	args := m.Called(ctx, release)
	return args.Error(0)
}

type MockShellRunner struct {
	mock.Mock
}

func (m *MockShellRunner) Run(
	ctx context.Context,
	dir, command string,
) (string, string, error) {
	args := m.Called(ctx, dir, command)
	return args.String(0), args.String(1), args.Error(2)
}

type recordingNotifier struct {
	sends   []string
	replies []string
	colors  []string
}

func (n *recordingNotifier) Send(ctx context.Context, color, message string) (string, error) {
	n.sends = append(n.sends, message)
	n.colors = append(n.colors, color)
	return "ts-1", nil
}

func (n *recordingNotifier) Reply(ctx context.Context, threadID, color, message string) error {
	n.replies = append(n.replies, message)
	return nil
}

func testReleaseConfig() *internal.ReleaseConfig {
	return &internal.ReleaseConfig{
		TargetBranch:    "main",
		Workdir:         "/tmp/repo",
		ImageRepository: "acme/webapp",
		Commands: internal.Commands{
			Format: "make fmt-check",
			Test:   "make test",
		},
		Registries: []internal.Registry{
			{Name: "sandbox-east", Host: "sbx-east.registry.local", Environment: "sandbox", Region: "east"},
			{Name: "sandbox-west", Host: "sbx-west.registry.local", Environment: "sandbox", Region: "west"},
			{Name: "prod-east", Host: "prod-east.registry.local", Environment: "production", Region: "east"},
			{Name: "prod-west", Host: "prod-west.registry.local", Environment: "production", Region: "west"},
		},
		Tracker: internal.TrackerConfig{
			URL:            "http://tracker.local",
			Services:       []string{"webapp"},
			ReleaseManager: "release-bot",
			ClusterID:      "cluster-1",
		},
	}
}

func newTestReleaseService(
	cfg *internal.ReleaseConfig,
	runner *MockShellRunner,
	repo *MockSourceRepo,
	versioner *MockVersioner,
	images *MockImageClient,
	releaseTracker *MockReleaseTracker,
	notifier *recordingNotifier,
) *ReleaseService {
	return NewReleaseService(cfg, runner, repo, versioner, images, releaseTracker, notifier)
}

func TestReleaseService_Execute(t *testing.T) {
	t.Run("success - feature branch runs checks only", func(t *testing.T) {
		// arrange
		cfg := testReleaseConfig()
		runner := new(MockShellRunner)
		repo := new(MockSourceRepo)
		versioner := new(MockVersioner)
		images := new(MockImageClient)
		releaseTracker := new(MockReleaseTracker)
		notifier := new(recordingNotifier)
		run := &store.Run{RunID: 1, Branch: "feature/login", CommitHash: "abc123", CommitMessage: "wip"}

		repo.On("Checkout", mock.Anything, "feature/login", "abc123").Return(nil)
		runner.On("Run", mock.Anything, cfg.Workdir, "make fmt-check").Return("", "", nil)
		runner.On("Run", mock.Anything, cfg.Workdir, "make test").Return("", "", nil)

		svc := newTestReleaseService(cfg, runner, repo, versioner, images, releaseTracker, notifier)

		// act
		err := svc.Execute(context.Background(), run)

		// assert
		assert.NoError(t, err)
		assert.Equal(t, store.StatusSucceeded, run.Status)
		assert.Nil(t, run.NewVersion)
		assert.Nil(t, run.ImageTag)
		versioner.AssertNotCalled(t, "Current", mock.Anything)
		images.AssertNotCalled(t, "Build", mock.Anything, mock.Anything, mock.Anything)
		releaseTracker.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
		assert.Empty(t, notifier.sends)
	})

	t.Run("success - target branch with version change runs full release", func(t *testing.T) {
		// arrange
		cfg := testReleaseConfig()
		runner := new(MockShellRunner)
		repo := new(MockSourceRepo)
		versioner := new(MockVersioner)
		images := new(MockImageClient)
		releaseTracker := new(MockReleaseTracker)
		notifier := new(recordingNotifier)
		run := &store.Run{RunID: 2, Branch: "main", CommitHash: "def456", CommitMessage: "feat: add login"}

		repo.On("Checkout", mock.Anything, "main", "def456").Return(nil)
		repo.On("PushTags", mock.Anything).Return(nil)
		runner.On("Run", mock.Anything, cfg.Workdir, mock.Anything).Return("", "", nil)
		versioner.On("Current", mock.Anything).Return(semver.MustParse("1.2.3"), nil)
		versioner.On("Bump", mock.Anything).Return(semver.MustParse("1.3.0"), nil)
		images.On("Build", mock.Anything, "1.3.0", "def456").
			Return(registry.ImageRef{Repository: "acme/webapp", Tag: "1.3.0"}, nil)
		images.On("Push", mock.Anything, mock.Anything, mock.Anything).Return(nil)
		releaseTracker.On("Register", mock.Anything, mock.Anything).Return(nil)

		svc := newTestReleaseService(cfg, runner, repo, versioner, images, releaseTracker, notifier)

		// act
		err := svc.Execute(context.Background(), run)

		// assert
		assert.NoError(t, err)
		assert.Equal(t, store.StatusSucceeded, run.Status)
		assert.Equal(t, "1.2.3", *run.OldVersion)
		assert.Equal(t, "1.3.0", *run.NewVersion)
		assert.Equal(t, "acme/webapp:1.3.0", *run.ImageTag)
		images.AssertNumberOfCalls(t, "Push", 4)
		for _, reg := range cfg.Registries {
			images.AssertCalled(
				t, "Push", mock.Anything,
				registry.ImageRef{Repository: "acme/webapp", Tag: "1.3.0"},
				reg.Host,
			)
		}
		releaseTracker.AssertNumberOfCalls(t, "Register", 1)
		registered := releaseTracker.Calls[0].Arguments.Get(1).(tracker.Release)
		assert.Equal(t, "1.3.0", registered.NewVersion)
		assert.Equal(t, "acme/webapp:1.3.0", registered.DockerTag)
		assert.Equal(t, "feat: add login", registered.ChangeLog)
		assert.NotEmpty(t, registered.RequestID)
		assert.Len(t, notifier.sends, 1)
		assert.Equal(t, []string{
			"COMMIT BUILT : def456",
			"NEW_SEMANTIC_VERSION/DOCKER IMAGE TAG : 1.3.0",
		}, notifier.replies)
	})

	t.Run("success - target branch without version change skips release", func(t *testing.T) {
		// arrange
		cfg := testReleaseConfig()
		runner := new(MockShellRunner)
		repo := new(MockSourceRepo)
		versioner := new(MockVersioner)
		images := new(MockImageClient)
		releaseTracker := new(MockReleaseTracker)
		notifier := new(recordingNotifier)
		run := &store.Run{RunID: 3, Branch: "main", CommitHash: "aaa111", CommitMessage: "chore: tidy"}

		repo.On("Checkout", mock.Anything, "main", "aaa111").Return(nil)
		runner.On("Run", mock.Anything, cfg.Workdir, mock.Anything).Return("", "", nil)
		versioner.On("Current", mock.Anything).Return(semver.MustParse("1.2.3"), nil)
		versioner.On("Bump", mock.Anything).Return(semver.MustParse("1.2.3"), nil)

		svc := newTestReleaseService(cfg, runner, repo, versioner, images, releaseTracker, notifier)

		// act
		err := svc.Execute(context.Background(), run)

		// assert
		assert.NoError(t, err)
		assert.Equal(t, store.StatusSucceeded, run.Status)
		assert.Equal(t, "1.2.3", *run.NewVersion)
		repo.AssertNotCalled(t, "PushTags", mock.Anything)
		images.AssertNotCalled(t, "Build", mock.Anything, mock.Anything, mock.Anything)
		images.AssertNotCalled(t, "Push", mock.Anything, mock.Anything, mock.Anything)
		releaseTracker.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
		assert.Empty(t, notifier.sends)
	})

	t.Run("success - skip marker runs checkout only", func(t *testing.T) {
		// arrange
		cfg := testReleaseConfig()
		runner := new(MockShellRunner)
		repo := new(MockSourceRepo)
		versioner := new(MockVersioner)
		images := new(MockImageClient)
		releaseTracker := new(MockReleaseTracker)
		notifier := new(recordingNotifier)
		run := &store.Run{
			RunID: 4, Branch: "main", CommitHash: "bbb222",
			CommitMessage: "docs [skip ci]", SkipCI: true,
		}

		repo.On("Checkout", mock.Anything, "main", "bbb222").Return(nil)

		svc := newTestReleaseService(cfg, runner, repo, versioner, images, releaseTracker, notifier)

		// act
		err := svc.Execute(context.Background(), run)

		// assert
		assert.NoError(t, err)
		assert.Equal(t, store.StatusSucceeded, run.Status)
		runner.AssertNotCalled(t, "Run", mock.Anything, mock.Anything, mock.Anything)
		versioner.AssertNotCalled(t, "Current", mock.Anything)
		assert.Empty(t, notifier.sends)
	})

	t.Run("fail - test failure on target branch aborts and notifies", func(t *testing.T) {
		// arrange
		cfg := testReleaseConfig()
		runner := new(MockShellRunner)
		repo := new(MockSourceRepo)
		versioner := new(MockVersioner)
		images := new(MockImageClient)
		releaseTracker := new(MockReleaseTracker)
		notifier := new(recordingNotifier)
		run := &store.Run{RunID: 5, Branch: "main", CommitHash: "ccc333", CommitMessage: "fix: race"}

		repo.On("Checkout", mock.Anything, "main", "ccc333").Return(nil)
		runner.On("Run", mock.Anything, cfg.Workdir, "make fmt-check").Return("", "", nil)
		runner.On("Run", mock.Anything, cfg.Workdir, "make test").
			Return("", "FAIL: TestLogin", errors.New("exit status 1"))

		svc := newTestReleaseService(cfg, runner, repo, versioner, images, releaseTracker, notifier)

		// act
		err := svc.Execute(context.Background(), run)

		// assert
		assert.Error(t, err)
		assert.Equal(t, store.StatusFailed, run.Status)
		assert.NotNil(t, run.Cause)
		assert.Contains(t, *run.Cause, "test")
		versioner.AssertNotCalled(t, "Current", mock.Anything)
		images.AssertNotCalled(t, "Build", mock.Anything, mock.Anything, mock.Anything)
		assert.Len(t, notifier.sends, 1)
		assert.Contains(t, notifier.sends[0], *run.Cause)
	})

	t.Run("fail - push failure blocks tracker registration", func(t *testing.T) {
		// arrange
		cfg := testReleaseConfig()
		runner := new(MockShellRunner)
		repo := new(MockSourceRepo)
		versioner := new(MockVersioner)
		images := new(MockImageClient)
		releaseTracker := new(MockReleaseTracker)
		notifier := new(recordingNotifier)
		run := &store.Run{RunID: 6, Branch: "main", CommitHash: "ddd444", CommitMessage: "feat: search"}

		repo.On("Checkout", mock.Anything, "main", "ddd444").Return(nil)
		repo.On("PushTags", mock.Anything).Return(nil)
		runner.On("Run", mock.Anything, cfg.Workdir, mock.Anything).Return("", "", nil)
		versioner.On("Current", mock.Anything).Return(semver.MustParse("2.0.0"), nil)
		versioner.On("Bump", mock.Anything).Return(semver.MustParse("2.1.0"), nil)
		images.On("Build", mock.Anything, "2.1.0", "ddd444").
			Return(registry.ImageRef{Repository: "acme/webapp", Tag: "2.1.0"}, nil)
		images.On("Push", mock.Anything, mock.Anything, cfg.Registries[0].Host).Return(nil)
		images.On("Push", mock.Anything, mock.Anything, cfg.Registries[1].Host).
			Return(errors.New("connection refused"))

		svc := newTestReleaseService(cfg, runner, repo, versioner, images, releaseTracker, notifier)

		// act
		err := svc.Execute(context.Background(), run)

		// assert
		assert.Error(t, err)
		assert.Equal(t, store.StatusFailed, run.Status)
		releaseTracker.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
		images.AssertNumberOfCalls(t, "Push", 2)
		assert.Len(t, notifier.sends, 1)
	})

	t.Run("fail - failure on feature branch stays silent", func(t *testing.T) {
		// arrange
		cfg := testReleaseConfig()
		runner := new(MockShellRunner)
		repo := new(MockSourceRepo)
		versioner := new(MockVersioner)
		images := new(MockImageClient)
		releaseTracker := new(MockReleaseTracker)
		notifier := new(recordingNotifier)
		run := &store.Run{RunID: 7, Branch: "feature/x", CommitHash: "eee555", CommitMessage: "wip"}

		repo.On("Checkout", mock.Anything, "feature/x", "eee555").Return(nil)
		runner.On("Run", mock.Anything, cfg.Workdir, "make fmt-check").
			Return("", "gofmt diff", errors.New("exit status 1"))

		svc := newTestReleaseService(cfg, runner, repo, versioner, images, releaseTracker, notifier)

		// act
		err := svc.Execute(context.Background(), run)

		// assert
		assert.Error(t, err)
		assert.Equal(t, store.StatusFailed, run.Status)
		assert.Empty(t, notifier.sends)
	})

	t.Run("success - format stage omitted when not configured", func(t *testing.T) {
		// arrange
		cfg := testReleaseConfig()
		cfg.Commands.Format = ""
		runner := new(MockShellRunner)
		repo := new(MockSourceRepo)
		versioner := new(MockVersioner)
		images := new(MockImageClient)
		releaseTracker := new(MockReleaseTracker)
		notifier := new(recordingNotifier)
		run := &store.Run{RunID: 8, Branch: "feature/y", CommitHash: "fff666", CommitMessage: "wip"}

		repo.On("Checkout", mock.Anything, "feature/y", "fff666").Return(nil)
		runner.On("Run", mock.Anything, cfg.Workdir, "make test").Return("", "", nil)

		svc := newTestReleaseService(cfg, runner, repo, versioner, images, releaseTracker, notifier)

		// act
		err := svc.Execute(context.Background(), run)

		// assert
		assert.NoError(t, err)
		runner.AssertNumberOfCalls(t, "Run", 1)
	})
}
