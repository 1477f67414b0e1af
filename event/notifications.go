package event

import (
	"context"
	"time"

	"github.com/fundwit/go-commons/types"
)

// Notification tells subscribers that a work order changed. It carries no history, subscribers re-read.
type Notification struct {
	WorkOrderID types.ID `json:"workOrderId"`
	Number      string    `json:"number"`
	Status      string    `json:"status"`
	Version     int64     `json:"version"`
	EventType   Type      `json:"eventType"`
	Timestamp   time.Time `json:"timestamp"`
}

// Publisher is invoked after commit only. Errors are reported to the caller for logging and never undo the change.
type Publisher interface {
	Publish(ctx context.Context, n Notification) error
}

type PublisherFunc func(ctx context.Context, n Notification) error

func (f PublisherFunc) Publish(ctx context.Context, n Notification) error {
	return f(ctx, n)
}

type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Notification) error {
	return nil
}
