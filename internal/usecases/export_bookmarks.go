package usecases

import (
	"context"
	"io"

	"xknowledge/internal/domain"
)

// Exporter renders records in a named format.
type Exporter interface {
	Export(ctx context.Context, w io.Writer, format string, records []domain.Record) error
}

// ExportBookmarksUseCase writes stored records as an export document.
type ExportBookmarksUseCase struct {
	store    RecordReader
	exporter Exporter
}

// NewExportBookmarksUseCase creates a new ExportBookmarksUseCase.
func NewExportBookmarksUseCase(store RecordReader, exporter Exporter) *ExportBookmarksUseCase {
	return &ExportBookmarksUseCase{store: store, exporter: exporter}
}

// Execute exports the records named by ids, or all records when ids is
// empty. Unknown ids are skipped.
func (uc *ExportBookmarksUseCase) Execute(ctx context.Context, w io.Writer, format string, ids []string) error {
	records, err := selectRecords(ctx, uc.store, ids)
	if err != nil {
		return err
	}
	return uc.exporter.Export(ctx, w, format, records)
}
