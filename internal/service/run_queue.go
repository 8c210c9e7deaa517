package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/haatos/shipci/internal/store"
	"github.com/haatos/shipci/internal/util"
)

type ReleaseExecutor interface {
	Execute(ctx context.Context, run *store.Run) error
}

// RunQueue serializes pipeline executions. Pushes land here from the
// webhook handler and are processed one at a time in arrival order.
type RunQueue struct {
	releases ReleaseExecutor
	runStore store.RunStore

	queue        chan *store.Run
	done         chan struct{}
	cancelRunMap *CancelMap[int64]
}

func NewRunQueue(releases ReleaseExecutor, runStore store.RunStore, maxRuns int64) *RunQueue {
	return &RunQueue{
		releases:     releases,
		runStore:     runStore,
		queue:        make(chan *store.Run, maxRuns),
		done:         make(chan struct{}),
		cancelRunMap: NewCancelMap[int64](),
	}
}

func (rq *RunQueue) Enqueue(r *store.Run) error {
	select {
	case rq.queue <- r:
		return nil
	default:
		return NewErrRunQueueFull()
	}
}

func (rq *RunQueue) CancelRun(runID int64) {
	rq.cancelRunMap.Call(runID)
}

func (rq *RunQueue) Run() {
	for {
		select {
		case run := <-rq.queue:
			ctx, cancel := context.WithCancel(context.Background())
			rq.cancelRunMap.AddCancel(run.RunID, cancel)

			if err := rq.processRun(ctx, run); err != nil {
				log.Println("err processing run:", err)
			}

			rq.cancelRunMap.RemoveCancel(run.RunID)
			cancel()
		case <-rq.done:
			close(rq.queue)
			return
		}
	}
}

func (rq *RunQueue) Shutdown() {
	select {
	case <-rq.done:
	default:
		close(rq.done)
	}
}

func (rq *RunQueue) processRun(ctx context.Context, run *store.Run) error {
	run.Status = store.StatusRunning
	run.StartedOn = util.AsPtr(time.Now().UTC())
	if err := rq.runStore.UpdateRunStartedOn(
		context.Background(), run.RunID, run.Status, run.StartedOn,
	); err != nil {
		return err
	}

	execErr := rq.releases.Execute(ctx, run)

	run.EndedOn = util.AsPtr(time.Now().UTC())
	if err := rq.runStore.UpdateRunEndedOn(context.Background(), run.RunID, run); err != nil {
		return errors.Join(execErr, err)
	}
	return execErr
}
