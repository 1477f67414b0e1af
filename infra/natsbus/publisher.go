package natsbus

import (
	"coilflow/event"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"golang.org/x/time/rate"
)

const SubjectPrefix = "workorders."

var ErrRateLimited = errors.New("notification dropped by rate limit")

// Conn is the part of *nats.Conn the publisher needs.
type Conn interface {
	PublishMsg(m *nats.Msg) error
}

// Publisher broadcasts work order notifications on NATS, one subject per work order.
// Messages beyond the rate budget are dropped, subscribers re-read state on the next one.
type Publisher struct {
	conn    Conn
	limiter *rate.Limiter
	closer  func()
}

func NewPublisher(conn Conn, limiter *rate.Limiter) *Publisher {
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 0)
	}
	return &Publisher{conn: conn, limiter: limiter}
}

// Connect dials the NATS server. perSecond <= 0 disables rate limiting.
func Connect(url string, perSecond float64) (*Publisher, error) {
	conn, err := nats.Connect(url, nats.Name("coilflow"), nats.MaxReconnects(-1))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	var limiter *rate.Limiter
	if perSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(perSecond), int(perSecond)+1)
	}
	p := NewPublisher(conn, limiter)
	p.closer = conn.Close
	return p, nil
}

func Subject(n *event.Notification) string {
	return SubjectPrefix + n.WorkOrderID.String()
}

func (p *Publisher) Publish(ctx context.Context, n event.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !p.limiter.Allow() {
		return ErrRateLimited
	}
	data, err := json.Marshal(&n)
	if err != nil {
		return err
	}
	msg := nats.NewMsg(Subject(&n))
	msg.Header.Set(nats.MsgIdHdr, uuid.New().String())
	msg.Data = data
	return p.conn.PublishMsg(msg)
}

// Handler adapts the publisher to a notification fan-out.
func (p *Publisher) Handler() event.Handler {
	return func(ctx context.Context, n *event.Notification) *event.HandleResult {
		if err := p.Publish(ctx, *n); err != nil {
			return &event.HandleResult{Success: false, Message: err.Error(), HandlerIdentifier: "nats"}
		}
		return &event.HandleResult{Success: true, HandlerIdentifier: "nats"}
	}
}

func (p *Publisher) Close() error {
	if p.closer != nil {
		p.closer()
	}
	return nil
}
