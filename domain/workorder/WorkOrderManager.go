package workorder

import (
	"coilflow/clock"
	"coilflow/common"
	"coilflow/domain"
	"coilflow/event"
	"context"
	"strings"
	"time"

	"github.com/fundwit/go-commons/types"
	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
	"github.com/sirupsen/logrus"
	"github.com/sony/sonyflake"
)

type WorkOrderManagerTraits interface {
	AssignCoil(ctx context.Context, id types.ID, coil domain.Coil, actorID string, opts ...Option) (*domain.WorkOrder, error)
	Schedule(ctx context.Context, id types.ID, start time.Time, end *time.Time, actorID string, opts ...Option) (*domain.WorkOrder, error)
	Start(ctx context.Context, id types.ID, actorID string, opts ...Option) (*domain.WorkOrder, error)
	Pause(ctx context.Context, id types.ID, actorID string, opts ...Option) (*domain.WorkOrder, error)
	Resume(ctx context.Context, id types.ID, actorID string, opts ...Option) (*domain.WorkOrder, error)
	Complete(ctx context.Context, id types.ID, actorID string, opts ...Option) (*domain.WorkOrder, error)
	Cancel(ctx context.Context, id types.ID, actorID string, opts ...Option) (*domain.WorkOrder, error)
	SwapCoil(ctx context.Context, id types.ID, coil domain.Coil, reason domain.SwapReason, note string, actorID string, opts ...Option) (*domain.WorkOrder, error)

	Detail(ctx context.Context, id types.ID) (*Detail, error)
	History(ctx context.Context, id types.ID) ([]event.AuditEvent, error)
}

// ActorResolver looks up the display identity of an actor for audit records.
type ActorResolver interface {
	Resolve(ctx context.Context, actorID string) (event.Actor, error)
}

type WorkOrderManager struct {
	store     Store
	clock     clock.Clock
	publisher event.Publisher
	recorder  *event.Recorder
	guard     *Guard
	idWorker  *sonyflake.Sonyflake

	actors  ActorResolver
	timeout time.Duration
}

func NewWorkOrderManager(store Store, clk clock.Clock, publisher event.Publisher) *WorkOrderManager {
	if publisher == nil {
		publisher = event.NopPublisher{}
	}
	idWorker := common.DefaultIDWorker()
	return &WorkOrderManager{
		store:     store,
		clock:     clk,
		publisher: publisher,
		recorder:  event.NewRecorder(idWorker),
		guard:     NewGuard(),
		idWorker:  idWorker,
	}
}

// WithIDWorker replaces the process-wide id worker, used where several id sources share a host.
func (m *WorkOrderManager) WithIDWorker(w *sonyflake.Sonyflake) *WorkOrderManager {
	m.idWorker = w
	m.recorder = event.NewRecorder(w)
	return m
}

// WithActorResolver sets the resolver used to name actors in audit events.
func (m *WorkOrderManager) WithActorResolver(r ActorResolver) *WorkOrderManager {
	m.actors = r
	return m
}

// WithTimeout bounds every operation, 0 leaves only the caller's deadline.
func (m *WorkOrderManager) WithTimeout(d time.Duration) *WorkOrderManager {
	m.timeout = d
	return m
}

func (m *WorkOrderManager) AssignCoil(ctx context.Context, id types.ID, coil domain.Coil, actorID string, opts ...Option) (*domain.WorkOrder, error) {
	return m.execute(ctx, id, &Request{Operation: domain.OpAssignCoil, ActorID: actorID, Coil: &coil}, opts)
}

// Schedule sets the planned window. A nil end keeps the previously planned duration.
func (m *WorkOrderManager) Schedule(ctx context.Context, id types.ID, start time.Time, end *time.Time, actorID string, opts ...Option) (*domain.WorkOrder, error) {
	return m.execute(ctx, id, &Request{Operation: domain.OpSchedule, ActorID: actorID, ScheduledStart: &start, ScheduledEnd: end}, opts)
}

func (m *WorkOrderManager) Start(ctx context.Context, id types.ID, actorID string, opts ...Option) (*domain.WorkOrder, error) {
	return m.execute(ctx, id, &Request{Operation: domain.OpStart, ActorID: actorID}, opts)
}

func (m *WorkOrderManager) Pause(ctx context.Context, id types.ID, actorID string, opts ...Option) (*domain.WorkOrder, error) {
	return m.execute(ctx, id, &Request{Operation: domain.OpPause, ActorID: actorID}, opts)
}

func (m *WorkOrderManager) Resume(ctx context.Context, id types.ID, actorID string, opts ...Option) (*domain.WorkOrder, error) {
	return m.execute(ctx, id, &Request{Operation: domain.OpResume, ActorID: actorID}, opts)
}

func (m *WorkOrderManager) Complete(ctx context.Context, id types.ID, actorID string, opts ...Option) (*domain.WorkOrder, error) {
	return m.execute(ctx, id, &Request{Operation: domain.OpComplete, ActorID: actorID}, opts)
}

func (m *WorkOrderManager) Cancel(ctx context.Context, id types.ID, actorID string, opts ...Option) (*domain.WorkOrder, error) {
	return m.execute(ctx, id, &Request{Operation: domain.OpCancel, ActorID: actorID}, opts)
}

func (m *WorkOrderManager) SwapCoil(ctx context.Context, id types.ID, coil domain.Coil, reason domain.SwapReason, note string,
	actorID string, opts ...Option) (*domain.WorkOrder, error) {
	return m.execute(ctx, id, &Request{Operation: domain.OpSwapCoil, ActorID: actorID, Coil: &coil, Reason: reason, Note: note}, opts)
}

func (m *WorkOrderManager) Detail(ctx context.Context, id types.ID) (*Detail, error) {
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()
	agg, err := m.store.LoadWorkOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	return NewDetail(agg, m.clock.Now()), nil
}

func (m *WorkOrderManager) History(ctx context.Context, id types.ID) ([]event.AuditEvent, error) {
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()
	if _, err := m.store.LoadWorkOrder(ctx, id); err != nil {
		return nil, err
	}
	return m.store.QueryEvents(ctx, id)
}

func (m *WorkOrderManager) execute(ctx context.Context, id types.ID, req *Request, opts []Option) (*domain.WorkOrder, error) {
	if strings.TrimSpace(req.ActorID) == "" {
		return nil, domain.ErrActorRequired
	}
	o := applyOptions(opts)
	if req.Note == "" {
		req.Note = o.note
	}
	req.EndWeight = o.endWeight
	req.ToLocation = o.toLocation

	span, ctx := opentracing.StartSpanFromContext(ctx, "workorder."+strings.ToLower(string(req.Operation)))
	defer span.Finish()
	span.SetTag("workOrderId", id.String())

	change, err := m.transition(ctx, id, req, o.expectedVersion)
	if err != nil {
		ext.Error.Set(span, true)
		span.LogKV("error", err.Error())
		logrus.WithFields(logrus.Fields{"workOrderId": id, "operation": req.Operation, "actor": req.ActorID}).
			Debugf("operation rejected: %v", err)
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"workOrderId": id, "operation": req.Operation, "actor": req.ActorID,
		"from": change.Event.FromStatus, "to": change.Event.ToStatus, "version": change.WorkOrder.Version,
	}).Info("work order transition committed")

	m.publish(ctx, change)
	wo := change.WorkOrder
	return &wo, nil
}

// transition runs read, decide and commit inside the critical section of the work order.
func (m *WorkOrderManager) transition(ctx context.Context, id types.ID, req *Request, expectedVersion *int64) (*domain.Change, error) {
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()

	release, err := m.guard.Lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer release()

	agg, err := m.store.LoadWorkOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if expectedVersion != nil && agg.WorkOrder.Version != *expectedVersion {
		return nil, domain.ErrConcurrencyConflict
	}

	req.Now = m.clock.Now()
	decision, err := Decide(agg, req, m.nextID)
	if err != nil {
		return nil, err
	}

	decision.Change.Event = m.recorder.Record(decision.Transition, m.resolveActor(ctx, req.ActorID))
	if err := m.store.CommitChange(ctx, &decision.Change); err != nil {
		return nil, err
	}
	return &decision.Change, nil
}

func (m *WorkOrderManager) publish(ctx context.Context, change *domain.Change) {
	defer func() {
		if r := recover(); r != nil {
			logrus.WithField("workOrderId", change.WorkOrder.ID).Warnf("notification publisher panicked: %v", r)
		}
	}()
	n := event.Notification{
		WorkOrderID: change.WorkOrder.ID,
		Number:      change.WorkOrder.Number,
		Status:      string(change.WorkOrder.Status),
		Version:     change.WorkOrder.Version,
		EventType:   change.Event.EventType,
		Timestamp:   change.Event.Timestamp,
	}
	if err := m.publisher.Publish(ctx, n); err != nil {
		logrus.WithField("workOrderId", change.WorkOrder.ID).Warnf("failed to publish notification: %v", err)
	}
}

func (m *WorkOrderManager) resolveActor(ctx context.Context, actorID string) event.Actor {
	if m.actors == nil {
		return event.Actor{ID: actorID}
	}
	actor, err := m.actors.Resolve(ctx, actorID)
	if err != nil {
		logrus.WithField("actor", actorID).Warnf("failed to resolve actor: %v", err)
		return event.Actor{ID: actorID}
	}
	actor.ID = actorID
	return actor
}

func (m *WorkOrderManager) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if m.timeout > 0 {
		return context.WithTimeout(ctx, m.timeout)
	}
	return context.WithCancel(ctx)
}

func (m *WorkOrderManager) nextID() types.ID {
	return common.NextId(m.idWorker)
}
