package service

import (
	"context"

	"github.com/haatos/shipci/internal/store"
)

type RunService struct {
	runStore store.RunStore
}

func NewRunService(runStore store.RunStore) *RunService {
	return &RunService{runStore: runStore}
}

func (s *RunService) CreateRun(
	ctx context.Context,
	branch, commitHash, commitMessage string,
	skipCI bool,
) (*store.Run, error) {
	return s.runStore.CreateRun(ctx, branch, commitHash, commitMessage, skipCI)
}

func (s *RunService) GetRunByID(ctx context.Context, id int64) (*store.Run, error) {
	return s.runStore.ReadRunByID(ctx, id)
}

func (s *RunService) ListRunsPaginated(
	ctx context.Context,
	limit, offset int64,
) ([]store.Run, error) {
	return s.runStore.ListRunsPaginated(ctx, limit, offset)
}

func (s *RunService) CountRuns(ctx context.Context) (int64, error) {
	return s.runStore.CountRuns(ctx)
}
