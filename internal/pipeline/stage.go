package pipeline

import "context"

// Guard decides whether a stage executes for the run. Guards are pure
// functions of run state at evaluation time and never return an error:
// a condition that cannot be evaluated yet reads as false.
type Guard func(r *Run) bool

// Action is the side-effecting operation of a stage.
type Action func(ctx context.Context, r *Run) error

// Stage is a named, guarded unit of pipeline work. The guard list is a
// conjunction; a stage with no guards always runs. The stage list is
// fixed for the lifetime of a run.
type Stage struct {
	Name   string
	Guards []Guard
	Action Action
}

func ShouldRun(s Stage, r *Run) bool {
	for _, guard := range s.Guards {
		if !guard(r) {
			return false
		}
	}
	return true
}

func NotSkipped() Guard {
	return func(r *Run) bool {
		return !r.SkipCI
	}
}

func OnBranch(branch string) Guard {
	return func(r *Run) bool {
		return r.Branch == branch
	}
}

func VersionChanged() Guard {
	return func(r *Run) bool {
		return r.VersionChanged()
	}
}
