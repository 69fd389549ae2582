// AngelaMos | 2026
// cleanup.go

package override

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/angelamos/entitled/internal/core"
)

// Sweeper deletes long-expired overrides on a cron schedule. Resolution
// already ignores expired rows, so the sweep only keeps the table from
// growing without bound. Retention leaves a window for audits.
type Sweeper struct {
	repo      Repository
	metrics   *core.Metrics
	schedule  string
	retention time.Duration
	cron      *cron.Cron
}

func NewSweeper(
	repo Repository,
	metrics *core.Metrics,
	schedule string,
	retention time.Duration,
) *Sweeper {
	return &Sweeper{
		repo:      repo,
		metrics:   metrics,
		schedule:  schedule,
		retention: retention,
		cron:      cron.New(),
	}
}

func (s *Sweeper) Start() error {
	_, err := s.cron.AddFunc(s.schedule, s.sweep)
	if err != nil {
		return err
	}

	s.cron.Start()
	slog.Info("override sweeper started",
		"schedule", s.schedule,
		"retention", s.retention,
	)
	return nil
}

// Stop halts scheduling and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Sweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cutoff := time.Now().Add(-s.retention)

	deleted, err := s.repo.DeleteExpiredBefore(ctx, cutoff)
	if err != nil {
		slog.Error("override sweep failed", "error", err)
		return
	}

	s.metrics.OverridesSweptTotal.Add(float64(deleted))
	if deleted > 0 {
		slog.Info("override sweep completed",
			"deleted", deleted,
			"cutoff", cutoff,
		)
	}
}
