// Package scheduler provides cron-based background jobs for ChatBotCore.
//
// Its main consumer is the state janitor, which purges conversation states
// abandoned longer than a configured TTL so returning users start from the
// greeting instead of a stale mid-flow step.
package scheduler

import (
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/basgomcesar/ChatBotCore-sub000/internal/store"
)

// DefaultJanitorCron runs the idle-state purge daily at 03:00.
const DefaultJanitorCron = "0 3 * * *"

// DefaultIdleTTL is how long an untouched conversation survives before the
// janitor removes it.
const DefaultIdleTTL = 30 * 24 * time.Hour

// Scheduler provides cron-based job scheduling.
type Scheduler struct {
	cron *cron.Cron
}

// NewScheduler creates and starts a cron scheduler.
func NewScheduler() *Scheduler {
	// Standard 5-field cron parser (min, hour, dom, month, dow) with panic
	// recovery so a failing job cannot take down the scheduler loop.
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	c := cron.New(cron.WithParser(parser), cron.WithChain(cron.Recover(cron.DefaultLogger)))
	c.Start()
	return &Scheduler{cron: c}
}

// AddJob schedules a task using the provided cron expression.
// It returns an error if the expression is invalid.
func (s *Scheduler) AddJob(expr string, task func()) error {
	_, err := s.cron.AddFunc(expr, task)
	return err
}

// AddStateJanitor schedules a periodic purge of conversation states idle
// longer than ttl. An empty expr uses DefaultJanitorCron; a non-positive ttl
// uses DefaultIdleTTL.
func (s *Scheduler) AddStateJanitor(expr string, st store.Store, ttl time.Duration) error {
	if expr == "" {
		expr = DefaultJanitorCron
	}
	if ttl <= 0 {
		ttl = DefaultIdleTTL
	}
	return s.AddJob(expr, func() {
		cutoff := time.Now().Add(-ttl)
		purged, err := st.PurgeIdleStates(cutoff)
		if err != nil {
			slog.Error("Scheduler state janitor failed", "error", err, "cutoff", cutoff)
			return
		}
		if purged > 0 {
			slog.Info("Scheduler state janitor purged idle conversations", "purged", purged, "cutoff", cutoff)
		}
	})
}

// Stop stops the cron scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	s.cron.Stop()
}
