package service

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/haatos/shipci/internal/store"
)

func NewScheduler() gocron.Scheduler {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		log.Fatal(err)
	}
	return scheduler
}

// ScheduleRunCleanup deletes run records older than the retention
// window once a day.
func ScheduleRunCleanup(s gocron.Scheduler, runStore store.RunStore, retention time.Duration) {
	if _, err := s.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(0, 0, 0))),
		gocron.NewTask(func() {
			cutoff := time.Now().UTC().Add(-retention)
			deleted, err := runStore.DeleteRunsBefore(context.Background(), cutoff)
			if err != nil {
				log.Println("err deleting expired runs:", err)
				return
			}
			if deleted > 0 {
				log.Printf("deleted %d runs older than %s\n", deleted, cutoff.Format(time.DateOnly))
			}
		}),
	); err != nil {
		log.Fatal(err)
	}
}
