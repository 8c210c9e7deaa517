package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"
)

const flushTimeout = 30 * time.Second

// Executor drives a run through the fixed ordered stage list. A stage
// whose guards do not pass is skipped; the first failing stage aborts
// the remaining list and fails the run. The whole run is bounded by a
// single wall-clock budget. The aggregator is flushed exactly once
// after the terminal status is reached, whatever that status is.
type Executor struct {
	stages     []Stage
	runner     StageRunner
	aggregator *Aggregator
	timeout    time.Duration
}

func NewExecutor(
	stages []Stage,
	runner StageRunner,
	aggregator *Aggregator,
	timeout time.Duration,
) *Executor {
	return &Executor{
		stages:     stages,
		runner:     runner,
		aggregator: aggregator,
		timeout:    timeout,
	}
}

func (e *Executor) Execute(ctx context.Context, r *Run) error {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	r.start()
	defer func() {
		// the run context may already be expired; the flush gets its own
		flushCtx, flushCancel := context.WithTimeout(
			context.WithoutCancel(ctx), flushTimeout,
		)
		defer flushCancel()
		e.aggregator.Flush(flushCtx, r)
	}()

	for _, stage := range e.stages {
		if err := ctx.Err(); err != nil {
			r.finish(StatusFailed, e.cancelCause(err))
			break
		}
		if !ShouldRun(stage, r) {
			log.Printf("skipping stage '%s'\n", stage.Name)
			continue
		}
		outcome := e.runner.Run(ctx, stage, r)
		if !outcome.OK {
			cause := outcome.Message
			if err := ctx.Err(); err != nil {
				cause = e.cancelCause(err)
			}
			r.finish(StatusFailed, cause)
			break
		}
	}
	r.finish(StatusSucceeded, "")

	if r.Status() == StatusFailed {
		return fmt.Errorf("pipeline failed: %s", r.Cause())
	}
	return nil
}

func (e *Executor) cancelCause(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Sprintf("pipeline timed out after %s", e.timeout)
	}
	return "pipeline cancelled"
}
