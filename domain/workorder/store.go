package workorder

import (
	"coilflow/domain"
	"coilflow/event"
	"context"

	"github.com/fundwit/go-commons/types"
)

// Store persists work orders. CommitChange must write the whole change atomically and fail with
// domain.ErrConcurrencyConflict, writing nothing, when the stored version differs from change.ExpectedVersion.
type Store interface {
	LoadWorkOrder(ctx context.Context, id types.ID) (*domain.Aggregate, error)
	CommitChange(ctx context.Context, change *domain.Change) error
	QueryEvents(ctx context.Context, id types.ID) ([]event.AuditEvent, error)
}
