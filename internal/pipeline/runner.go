package pipeline

import (
	"fmt"
	"log"
	"time"

	"context"
)

type Outcome struct {
	OK      bool
	Message string
}

// StageRunner executes a stage's action and captures its outcome. It
// never retries; retries belong to the underlying action if anywhere.
type StageRunner interface {
	Run(ctx context.Context, s Stage, r *Run) Outcome
}

type ActionRunner struct{}

func NewActionRunner() *ActionRunner {
	return &ActionRunner{}
}

func (ar *ActionRunner) Run(ctx context.Context, s Stage, r *Run) Outcome {
	started := time.Now()
	if err := s.Action(ctx, r); err != nil {
		log.Printf("stage '%s' failed after %s: %+v\n", s.Name, time.Since(started).Round(time.Millisecond), err)
		return Outcome{OK: false, Message: fmt.Sprintf("stage '%s': %v", s.Name, err)}
	}
	log.Printf("stage '%s' finished in %s\n", s.Name, time.Since(started).Round(time.Millisecond))
	return Outcome{OK: true}
}
