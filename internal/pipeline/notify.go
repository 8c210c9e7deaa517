package pipeline

import (
	"context"
	"fmt"
	"log"
)

const (
	ColorSuccess = "good"
	ColorFailure = "danger"
)

// Notifier is the chat transport. Send posts a new message and returns
// a thread id; Reply threads a follow-up item under that message.
type Notifier interface {
	Send(ctx context.Context, color, message string) (string, error)
	Reply(ctx context.Context, threadID, color, message string) error
}

// Aggregator collects event strings during a run and flushes them as a
// single threaded notification in the post-run phase. Delivery failure
// is logged and swallowed; it never affects the run's terminal status.
type Aggregator struct {
	notifier     Notifier
	targetBranch string
	events       []string
	flushed      bool
}

func NewAggregator(notifier Notifier, targetBranch string) *Aggregator {
	return &Aggregator{notifier: notifier, targetBranch: targetBranch}
}

func (a *Aggregator) Record(event string) {
	a.events = append(a.events, event)
}

// Flush sends at most one notification per run:
//   - Failed on the target branch: a failure notice.
//   - Succeeded on the target branch with a version change: a success
//     notice with the recorded events as threaded follow-ups, in record
//     order.
//   - everything else: no-op.
func (a *Aggregator) Flush(ctx context.Context, r *Run) {
	if a.flushed {
		return
	}
	a.flushed = true

	if r.Branch != a.targetBranch {
		return
	}

	switch r.Status() {
	case StatusFailed:
		message := fmt.Sprintf(
			"Release pipeline failed on %s at %s: %s",
			r.Branch, r.CommitHash, r.Cause(),
		)
		if _, err := a.notifier.Send(ctx, ColorFailure, message); err != nil {
			log.Println("err sending failure notification:", err)
		}
	case StatusSucceeded:
		if !r.VersionChanged() {
			return
		}
		message := fmt.Sprintf(
			"Release pipeline succeeded on %s: %s -> %s",
			r.Branch, r.OldVersion, r.NewVersion,
		)
		threadID, err := a.notifier.Send(ctx, ColorSuccess, message)
		if err != nil {
			log.Println("err sending success notification:", err)
			return
		}
		for _, event := range a.events {
			if err := a.notifier.Reply(ctx, threadID, ColorSuccess, event); err != nil {
				log.Println("err sending notification thread item:", err)
			}
		}
	}
}
