package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"xknowledge/internal/domain"
	"xknowledge/internal/usecases"
)

type mockAnalyzer struct {
	calls atomic.Int32
	err   error
	ids   []string
}

func (m *mockAnalyzer) Execute(ctx context.Context, ids []string) (*usecases.AnalyzeResult, error) {
	m.calls.Add(1)
	m.ids = ids
	if m.err != nil {
		return nil, m.err
	}
	return &usecases.AnalyzeResult{Analyzed: 1}, nil
}

func TestScheduler_ScheduleAnalysis_EmptySpecIsNoop(t *testing.T) {
	s := NewScheduler()

	if err := s.ScheduleAnalysis("", &mockAnalyzer{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Jobs() != 0 {
		t.Errorf("Jobs: got %d, want 0", s.Jobs())
	}
}

func TestScheduler_ScheduleAnalysis_InvalidSpec(t *testing.T) {
	s := NewScheduler()

	if err := s.ScheduleAnalysis("every tuesday", &mockAnalyzer{}); err == nil {
		t.Error("expected error for invalid spec")
	}
}

func TestScheduler_RunsScheduledAnalysis(t *testing.T) {
	// Arrange
	s := NewScheduler()
	analyzer := &mockAnalyzer{}
	if err := s.ScheduleAnalysis("@every 1s", analyzer); err != nil {
		t.Fatalf("schedule: %v", err)
	}

	// Act
	s.Start()
	deadline := time.Now().Add(3 * time.Second)
	for analyzer.calls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)

	// Assert
	if analyzer.calls.Load() == 0 {
		t.Error("analysis job never ran")
	}
	if analyzer.ids != nil {
		t.Errorf("scheduled runs should analyze pending records, got ids %v", analyzer.ids)
	}
}

func TestRunAnalysis_ToleratesErrors(t *testing.T) {
	for _, err := range []error{domain.ErrAnalyzerDisabled, errors.New("boom")} {
		analyzer := &mockAnalyzer{err: err}

		RunAnalysis(context.Background(), analyzer)

		if analyzer.calls.Load() != 1 {
			t.Errorf("calls: got %d, want 1", analyzer.calls.Load())
		}
	}
}
