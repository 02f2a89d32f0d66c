package usecases

import (
	"context"

	"xknowledge/internal/domain"
)

// NotionPusher creates a Notion page for a record.
type NotionPusher interface {
	Enabled() bool
	Push(ctx context.Context, r domain.Record) (string, error)
}

// PushToNotionUseCase sends one stored record to Notion.
type PushToNotionUseCase struct {
	store  RecordReader
	notion NotionPusher
}

// NewPushToNotionUseCase creates a new PushToNotionUseCase.
func NewPushToNotionUseCase(store RecordReader, notion NotionPusher) *PushToNotionUseCase {
	return &PushToNotionUseCase{store: store, notion: notion}
}

// Execute returns the created page ID.
func (uc *PushToNotionUseCase) Execute(ctx context.Context, id string) (string, error) {
	if !uc.notion.Enabled() {
		return "", domain.ErrNotionDisabled
	}
	r, err := uc.store.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return uc.notion.Push(ctx, *r)
}
