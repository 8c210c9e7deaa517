package pipeline

type Status string

const (
	StatusInitialized Status = "initialized"
	StatusRunning     Status = "running"
	StatusSucceeded   Status = "succeeded"
	StatusFailed      Status = "failed"
)

// Run is the single record of state threaded through the executor.
// Stages mutate it; guards only read it.
type Run struct {
	Branch        string
	CommitHash    string
	CommitMessage string
	SkipCI        bool

	// set by the version stage
	OldVersion string
	NewVersion string
	// set by the build stage
	ImageTag string

	status Status
	cause  string
}

func NewRun(branch, commitHash, commitMessage string, skipCI bool) *Run {
	return &Run{
		Branch:        branch,
		CommitHash:    commitHash,
		CommitMessage: commitMessage,
		SkipCI:        skipCI,
		status:        StatusInitialized,
	}
}

func (r *Run) Status() Status {
	return r.status
}

// Cause is the failure cause, empty unless the run failed.
func (r *Run) Cause() string {
	return r.cause
}

func (r *Run) Finished() bool {
	return r.status == StatusSucceeded || r.status == StatusFailed
}

// VersionChanged reports whether the version stage produced a new
// version. Before the version stage has run NewVersion is empty and
// this is false, so stages guarded on a version bump never run early.
func (r *Run) VersionChanged() bool {
	return r.NewVersion != "" && r.NewVersion != r.OldVersion
}

func (r *Run) start() {
	if r.status == StatusInitialized {
		r.status = StatusRunning
	}
}

// finish sets the terminal status once; later calls are no-ops.
func (r *Run) finish(status Status, cause string) {
	if r.Finished() {
		return
	}
	r.status = status
	r.cause = cause
}
