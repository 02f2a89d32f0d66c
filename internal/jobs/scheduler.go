// Package jobs runs background work on cron schedules.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"xknowledge/internal/domain"
	"xknowledge/internal/usecases"
	"xknowledge/pkg/log"
)

// analyzeTimeout bounds one scheduled analysis pass.
const analyzeTimeout = 10 * time.Minute

// Analyzer runs one analysis pass over pending records.
type Analyzer interface {
	Execute(ctx context.Context, ids []string) (*usecases.AnalyzeResult, error)
}

// Scheduler owns the cron runner.
type Scheduler struct {
	cron *cron.Cron
}

// NewScheduler returns a stopped scheduler. Overlapping runs of one job are
// skipped.
func NewScheduler() *Scheduler {
	return &Scheduler{cron: cron.New(cron.WithChain(
		cron.Recover(cron.DiscardLogger),
		cron.SkipIfStillRunning(cron.DiscardLogger),
	))}
}

// ScheduleAnalysis runs analyzer on spec. An empty spec schedules nothing.
func (s *Scheduler) ScheduleAnalysis(spec string, analyzer Analyzer) error {
	if spec == "" {
		return nil
	}
	_, err := s.cron.AddFunc(spec, func() { RunAnalysis(context.Background(), analyzer) })
	if err != nil {
		return fmt.Errorf("schedule analysis %q: %w", spec, err)
	}
	log.GlobalInfo("analysis job scheduled", "schedule", spec)
	return nil
}

// Jobs returns the number of scheduled entries.
func (s *Scheduler) Jobs() int {
	return len(s.cron.Entries())
}

func (s *Scheduler) Start() { s.cron.Start() }

// Stop halts scheduling and waits for running jobs up to ctx.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		log.GlobalWarn("scheduler stop timed out")
	}
}

// RunAnalysis performs one scheduled pass and logs its outcome.
func RunAnalysis(ctx context.Context, analyzer Analyzer) {
	ctx, cancel := context.WithTimeout(ctx, analyzeTimeout)
	defer cancel()

	start := time.Now()
	result, err := analyzer.Execute(ctx, nil)
	switch {
	case errors.Is(err, domain.ErrAnalyzerDisabled):
		log.GlobalDebug("scheduled analysis skipped, analyzer disabled")
	case err != nil:
		log.GlobalError("scheduled analysis failed", "error", err, "duration", time.Since(start))
	default:
		log.GlobalInfo("scheduled analysis done",
			"analyzed", result.Analyzed,
			"failed", result.Failed,
			"duration", time.Since(start),
		)
	}
}
