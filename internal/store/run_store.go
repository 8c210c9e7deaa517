package store

import (
	"context"
	"time"
)

type RunStatus string

const (
	StatusQueued    RunStatus = "queued"
	StatusRunning   RunStatus = "running"
	StatusSucceeded RunStatus = "succeeded"
	StatusFailed    RunStatus = "failed"
)

// Run is the persisted record of one pipeline execution.
type Run struct {
	RunID         int64 `param:"run_id"`
	Branch        string
	CommitHash    string
	CommitMessage string
	SkipCI        bool
	OldVersion    *string
	NewVersion    *string
	ImageTag      *string
	Status        RunStatus
	Cause         *string
	CreatedOn     time.Time
	StartedOn     *time.Time
	EndedOn       *time.Time
}

type RunStore interface {
	CreateRun(context.Context, string, string, string, bool) (*Run, error)
	ReadRunByID(context.Context, int64) (*Run, error)
	UpdateRunStartedOn(context.Context, int64, RunStatus, *time.Time) error
	UpdateRunEndedOn(context.Context, int64, *Run) error
	ListRunsPaginated(context.Context, int64, int64) ([]Run, error)
	CountRuns(context.Context) (int64, error)
	DeleteRunsBefore(context.Context, time.Time) (int64, error)
}
