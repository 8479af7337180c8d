package scheduler

import (
	"testing"
	"time"

	"github.com/upnpgo/avengine/internal/clock"
)

func TestRunDueRunsJobsIndependently(t *testing.T) {
	fc := clock.NewFakeClock(time.Unix(1000, 0))
	s := NewScheduler(fc, time.Second)

	var fastRuns, slowRuns int
	s.AddJob("fast", 1*time.Second, func(now time.Time) { fastRuns++ })
	s.AddJob("slow", 5*time.Second, func(now time.Time) { slowRuns++ })

	for i := 0; i < 5; i++ {
		fc.Advance(1 * time.Second)
		s.RunDue(fc.Now())
	}

	if fastRuns != 5 {
		t.Errorf("expected fast job to run 5 times, got %d", fastRuns)
	}
	if slowRuns != 1 {
		t.Errorf("expected slow job to run once within 5s, got %d", slowRuns)
	}
}
