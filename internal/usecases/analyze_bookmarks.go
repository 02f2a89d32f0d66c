package usecases

import (
	"context"
	"errors"
	"fmt"

	"xknowledge/internal/domain"
	"xknowledge/pkg/log"
)

// Analyzer classifies and summarizes post text.
type Analyzer interface {
	Enabled() bool
	Analyze(ctx context.Context, text string) (*domain.Analysis, error)
}

// AnalysisStore selects records to analyze and stores results.
type AnalysisStore interface {
	GetMany(ctx context.Context, ids []string) ([]domain.Record, error)
	Pending(ctx context.Context, limit int) ([]domain.Record, error)
	SetAnalysis(ctx context.Context, id string, a domain.Analysis) error
}

// AnalyzeResult summarizes one analysis pass.
type AnalyzeResult struct {
	Analyzed int      `json:"analyzed"`
	Skipped  int      `json:"skipped"`
	Failed   int      `json:"failed"`
	Errors   []string `json:"errors,omitempty"`
}

// AnalyzeBookmarksUseCase attaches AI analyses to records.
type AnalyzeBookmarksUseCase struct {
	store     AnalysisStore
	analyzer  Analyzer
	batchSize int
}

// NewAnalyzeBookmarksUseCase creates a new AnalyzeBookmarksUseCase. With no
// ids, Execute analyzes up to batchSize pending records.
func NewAnalyzeBookmarksUseCase(store AnalysisStore, analyzer Analyzer, batchSize int) *AnalyzeBookmarksUseCase {
	return &AnalyzeBookmarksUseCase{store: store, analyzer: analyzer, batchSize: batchSize}
}

// Execute analyzes each record independently. A failed record is counted
// and the pass goes on; only setup problems are returned as errors.
func (uc *AnalyzeBookmarksUseCase) Execute(ctx context.Context, ids []string) (*AnalyzeResult, error) {
	if !uc.analyzer.Enabled() {
		return nil, domain.ErrAnalyzerDisabled
	}

	var (
		records []domain.Record
		err     error
	)
	if len(ids) == 0 {
		records, err = uc.store.Pending(ctx, uc.batchSize)
	} else {
		records, err = uc.store.GetMany(ctx, ids)
	}
	if err != nil {
		return nil, fmt.Errorf("select records: %w", err)
	}

	result := &AnalyzeResult{}
	for _, r := range records {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		analysis, err := uc.analyzer.Analyze(ctx, r.Text)
		if errors.Is(err, domain.ErrEmptyText) {
			result.Skipped++
			continue
		}
		if err == nil {
			err = uc.store.SetAnalysis(ctx, r.ID, *analysis)
		}
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, r.ID+": "+err.Error())
			log.GlobalWarnCtx(ctx, "analysis failed", "id", r.ID, "error", err)
			continue
		}
		result.Analyzed++
	}

	log.GlobalInfoCtx(ctx, "analysis pass finished",
		"selected", len(records),
		"analyzed", result.Analyzed,
		"skipped", result.Skipped,
		"failed", result.Failed,
	)
	return result, nil
}
