package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// StatusSweeper applies time driven reservation transitions.
type StatusSweeper interface {
	SweepStatuses(ctx context.Context) (int, error)
}

type Scheduler struct {
	sweeper StatusSweeper
	cron    *cron.Cron
}

// NewScheduler registers the sweep under a cron spec such as "@every 1m".
func NewScheduler(sweeper StatusSweeper, spec string) (*Scheduler, error) {
	logger := cron.PrintfLogger(logrus.StandardLogger())
	c := cron.New(cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)))

	s := &Scheduler{sweeper: sweeper, cron: c}
	if _, err := c.AddFunc(spec, s.run); err != nil {
		return nil, fmt.Errorf("invalid status sweep schedule %q: %w", spec, err)
	}
	return s, nil
}

// Start blocks until ctx is done and waits for a running sweep to finish.
func (s *Scheduler) Start(ctx context.Context) {
	s.cron.Start()
	<-ctx.Done()
	<-s.cron.Stop().Done()
}

func (s *Scheduler) run() {
	changed, err := s.sweeper.SweepStatuses(context.Background())
	if err != nil {
		logrus.Errorf("Error sweeping reservation statuses: %v", err)
		return
	}
	if changed > 0 {
		logrus.Infof("Status sweep updated %d reservations", changed)
	}
}
