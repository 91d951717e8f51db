package repository

import (
	"context"
	"fmt"

	"github.com/carolinavmo/PMR-atlas/internal/apperr"
	"github.com/carolinavmo/PMR-atlas/internal/disease"
)

var (
	ErrNotFound        = fmt.Errorf("disease %w", apperr.ErrNotFound)
	ErrVersionMismatch = fmt.Errorf("disease version %w", apperr.ErrConflict)
	ErrDuplicate       = fmt.Errorf("disease id %w", apperr.ErrConflict)
)

// Repository is the content store for disease articles. Apply is a
// compare-and-swap: it succeeds only while the stored version equals
// expectedVersion and returns the document as written.
type Repository interface {
	Create(ctx context.Context, d *disease.Disease) error
	Get(ctx context.Context, id string) (*disease.Disease, error)
	List(ctx context.Context, f disease.Filter) ([]*disease.Disease, error)
	Apply(ctx context.Context, id string, expectedVersion int, p *disease.Patch) (*disease.Disease, error)
	Delete(ctx context.Context, id string) error
}
