package usecases

import (
	"context"

	"xknowledge/internal/domain"
	"xknowledge/pkg/log"
)

// RecordReader reads stored records.
type RecordReader interface {
	Get(ctx context.Context, id string) (*domain.Record, error)
	GetMany(ctx context.Context, ids []string) ([]domain.Record, error)
	List(ctx context.Context, f domain.ListFilter) ([]domain.Record, error)
}

// RecordDeleter removes stored records.
type RecordDeleter interface {
	Delete(ctx context.Context, id string) error
}

// GetBookmarkUseCase loads one record.
type GetBookmarkUseCase struct {
	store RecordReader
}

// NewGetBookmarkUseCase creates a new GetBookmarkUseCase.
func NewGetBookmarkUseCase(store RecordReader) *GetBookmarkUseCase {
	return &GetBookmarkUseCase{store: store}
}

// Execute returns the record or domain.ErrRecordNotFound.
func (uc *GetBookmarkUseCase) Execute(ctx context.Context, id string) (*domain.Record, error) {
	return uc.store.Get(ctx, id)
}

// ListBookmarksUseCase lists records.
type ListBookmarksUseCase struct {
	store RecordReader
}

// NewListBookmarksUseCase creates a new ListBookmarksUseCase.
func NewListBookmarksUseCase(store RecordReader) *ListBookmarksUseCase {
	return &ListBookmarksUseCase{store: store}
}

// Execute lists records matching f. The result is never nil.
func (uc *ListBookmarksUseCase) Execute(ctx context.Context, f domain.ListFilter) ([]domain.Record, error) {
	records, err := uc.store.List(ctx, f)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []domain.Record{}
	}
	return records, nil
}

// DeleteBookmarkUseCase removes a record.
type DeleteBookmarkUseCase struct {
	store RecordDeleter
}

// NewDeleteBookmarkUseCase creates a new DeleteBookmarkUseCase.
func NewDeleteBookmarkUseCase(store RecordDeleter) *DeleteBookmarkUseCase {
	return &DeleteBookmarkUseCase{store: store}
}

func (uc *DeleteBookmarkUseCase) Execute(ctx context.Context, id string) error {
	if err := uc.store.Delete(ctx, id); err != nil {
		return err
	}
	log.GlobalInfoCtx(ctx, "bookmark deleted", "id", id)
	return nil
}

// selectRecords returns the records named by ids, or every record when ids
// is empty.
func selectRecords(ctx context.Context, store RecordReader, ids []string) ([]domain.Record, error) {
	if len(ids) == 0 {
		return store.List(ctx, domain.ListFilter{})
	}
	return store.GetMany(ctx, ids)
}

// CategoryLister lists analysis categories in use.
type CategoryLister interface {
	Categories(ctx context.Context) ([]string, error)
}

// ListCategoriesUseCase lists the categories shown as library filters.
type ListCategoriesUseCase struct {
	store CategoryLister
}

// NewListCategoriesUseCase creates a new ListCategoriesUseCase.
func NewListCategoriesUseCase(store CategoryLister) *ListCategoriesUseCase {
	return &ListCategoriesUseCase{store: store}
}

func (uc *ListCategoriesUseCase) Execute(ctx context.Context) ([]string, error) {
	return uc.store.Categories(ctx)
}

// BatchLister lists recorded captures.
type BatchLister interface {
	ListBatches(ctx context.Context, limit int) ([]domain.CaptureBatch, error)
}

// ListCapturesUseCase lists capture batches, newest first.
type ListCapturesUseCase struct {
	store BatchLister
}

// NewListCapturesUseCase creates a new ListCapturesUseCase.
func NewListCapturesUseCase(store BatchLister) *ListCapturesUseCase {
	return &ListCapturesUseCase{store: store}
}

// Execute returns at most limit batches; limit 0 means all. The result is
// never nil.
func (uc *ListCapturesUseCase) Execute(ctx context.Context, limit int) ([]domain.CaptureBatch, error) {
	batches, err := uc.store.ListBatches(ctx, limit)
	if err != nil {
		return nil, err
	}
	if batches == nil {
		batches = []domain.CaptureBatch{}
	}
	return batches, nil
}
