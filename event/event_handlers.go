package event

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

/*
return nil if not support
*/
type Handler func(ctx context.Context, n *Notification) *HandleResult

type HandleResult struct {
	Success           bool
	Message           string
	HandlerIdentifier string
}

// HandlersPublisher fans a notification out to every handler. One failing handler does not stop the others.
type HandlersPublisher struct {
	Handlers []Handler
}

func (p *HandlersPublisher) Register(h Handler) {
	p.Handlers = append(p.Handlers, h)
}

func (p *HandlersPublisher) Publish(ctx context.Context, n Notification) error {
	var failed []string
	for _, r := range p.InvokeHandlers(ctx, &n) {
		if !r.Success {
			failed = append(failed, r.HandlerIdentifier+": "+r.Message)
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("notification handlers failed: %s", strings.Join(failed, "; "))
	}
	return nil
}

func (p *HandlersPublisher) InvokeHandlers(ctx context.Context, n *Notification) []HandleResult {
	results := []HandleResult{}
	for _, handler := range p.Handlers {
		logrus.Debug("pre handle notification ", *n)
		r := handler(ctx, n)

		if r == nil {
			continue
		}

		results = append(results, *r)

		if r.Success {
			logrus.Debug("post handle notification. ", *r)
		} else {
			logrus.Error("post handler error. ", *r)
		}
	}
	return results
}

// LoggingHandler writes every notification to the log.
func LoggingHandler(ctx context.Context, n *Notification) *HandleResult {
	logrus.WithFields(logrus.Fields{
		"workOrderId": n.WorkOrderID, "status": n.Status, "version": n.Version, "eventType": n.EventType,
	}).Info("work order changed")
	return &HandleResult{Success: true, HandlerIdentifier: "logging"}
}
