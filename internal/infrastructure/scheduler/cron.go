// Package scheduler drives recurring ingestion runs via cron expressions.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"LicitAI/internal/ports"
)

// CronScheduler triggers the job on a cron expression in a fixed timezone.
type CronScheduler struct {
	spec     string
	location *time.Location
	cron     *cron.Cron
}

var _ ports.Scheduler = (*CronScheduler)(nil)

// NewCronScheduler builds a scheduler configured via cron expression string.
func NewCronScheduler(spec string, location *time.Location) *CronScheduler {
	if location == nil {
		location = time.UTC
	}
	return &CronScheduler{spec: spec, location: location}
}

// Start registers the job and begins scheduling.
func (c *CronScheduler) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil {
		return nil
	}
	if c.cron != nil {
		return nil
	}

	runner := cron.New(cron.WithLocation(c.location))
	if _, err := runner.AddFunc(c.spec, func() { job(time.Now().In(c.location)) }); err != nil {
		return fmt.Errorf("register cron job %q: %w", c.spec, err)
	}

	runner.Start()
	c.cron = runner

	go func() {
		<-ctx.Done()
		_ = c.Stop(context.Background())
	}()

	return nil
}

// Stop halts scheduling and waits for a running job to finish.
func (c *CronScheduler) Stop(ctx context.Context) error {
	if c.cron == nil {
		return nil
	}

	stopped := c.cron.Stop()
	c.cron = nil

	select {
	case <-stopped.Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}
