// Package scheduler runs the engine's periodic housekeeping jobs: SSDP
// cache sweep, SSDP re-announce, GENA subscription renewal and expiry
// sweep, and LastChange flush-when-due. It generalizes a single fixed tick
// into a named-job table so independent subsystems each get their own
// cadence on one shared ticker goroutine.
package scheduler

import (
	"sync"
	"time"

	"github.com/upnpgo/avengine/internal/clock"
	"github.com/upnpgo/avengine/internal/logger"
)

// Job is one periodic unit of work: Run is invoked every Interval.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(now time.Time)

	nextRun time.Time
}

// Scheduler drives a set of named Jobs off a single ticker, evaluating each
// job's due time independently rather than running one ticker per
// subsystem, the same consolidation a reference implementation's single
// periodic tick draws across otherwise-independent subscriptions.
type Scheduler struct {
	clock        clock.Clock
	tickInterval time.Duration

	mu   sync.Mutex
	jobs []*Job

	startStopMutex sync.Mutex
	started        bool
	stopChannel    chan struct{}
	stoppedChannel chan struct{}
}

// NewScheduler builds a Scheduler that evaluates jobs every tickInterval.
func NewScheduler(c clock.Clock, tickInterval time.Duration) *Scheduler {
	if tickInterval <= 0 {
		tickInterval = time.Second
	}
	return &Scheduler{
		clock:          c,
		tickInterval:   tickInterval,
		stopChannel:    make(chan struct{}),
		stoppedChannel: make(chan struct{}),
	}
}

// AddJob registers a job to run every interval, starting one interval from
// now. Jobs can be added before or after Start.
func (s *Scheduler) AddJob(name string, interval time.Duration, run func(now time.Time)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = append(s.jobs, &Job{
		Name:     name,
		Interval: interval,
		Run:      run,
		nextRun:  s.clock.Now().Add(interval),
	})
}

// Start launches the scheduling loop in a background goroutine.
func (s *Scheduler) Start() {
	s.startStopMutex.Lock()
	defer s.startStopMutex.Unlock()

	if s.started {
		logger.SchedulerLog.Warn("Scheduler.Start called more than once; ignoring subsequent call")
		return
	}
	s.started = true
	go s.runLoop()
	logger.SchedulerLog.Info("scheduler started")
}

// Stop halts the scheduling loop and waits for it to exit.
func (s *Scheduler) Stop() {
	s.startStopMutex.Lock()
	defer s.startStopMutex.Unlock()

	if !s.started {
		return
	}
	close(s.stopChannel)
	<-s.stoppedChannel
	logger.SchedulerLog.Info("scheduler stopped")
}

func (s *Scheduler) runLoop() {
	defer close(s.stoppedChannel)

	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChannel:
			return
		case <-ticker.C:
			s.RunDue(s.clock.Now())
		}
	}
}

// RunDue runs every job whose nextRun has passed as of now, advancing its
// schedule. Exported so tests can drive the scheduler with a FakeClock
// without waiting on a real ticker.
func (s *Scheduler) RunDue(now time.Time) {
	s.mu.Lock()
	var due []*Job
	for _, j := range s.jobs {
		if !j.nextRun.After(now) {
			j.nextRun = now.Add(j.Interval)
			due = append(due, j)
		}
	}
	s.mu.Unlock()

	for _, j := range due {
		logger.SchedulerLog.Debugf("running job %s", j.Name)
		j.Run(now)
	}
}
