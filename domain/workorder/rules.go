package workorder

import (
	"coilflow/common"
	"coilflow/domain"
	"coilflow/event"
	"time"

	"github.com/fundwit/go-commons/types"
)

// Request is one lifecycle operation with everything the rules need to decide it.
type Request struct {
	Operation domain.Operation
	ActorID   string
	Now       time.Time

	Coil   *domain.Coil
	Reason domain.SwapReason
	Note   string

	ScheduledStart *time.Time
	ScheduledEnd   *time.Time

	// EndWeight and ToLocation are recorded on the usage closed by this operation, if any.
	EndWeight  *float64
	ToLocation string
}

// Decision is the outcome of an accepted request: the change to commit, without its audit event,
// and the transition the audit event is built from.
type Decision struct {
	Change     domain.Change
	Transition event.Transition
}

// Decide applies a request to an aggregate. It never mutates its inputs and never blocks.
func Decide(agg *domain.Aggregate, req *Request, newID func() types.ID) (*Decision, error) {
	wo := agg.WorkOrder
	from := wo.Status

	// a terminal work order reports the illegal operation, an unstarted one the missing usage
	if req.Operation == domain.OpSwapCoil && wo.ActiveUsageID == nil && !from.IsTerminal() {
		return nil, domain.ErrNoActiveUsage
	}
	to, err := domain.NextStatus(req.Operation, from)
	if err != nil {
		return nil, err
	}

	ledger := NewLedger(wo.ID, agg.Usages)
	var closed, opened *domain.CoilUsage
	var updated event.UpdatedProperties
	now := req.Now

	switch req.Operation {
	case domain.OpAssignCoil:
		if req.Coil == nil {
			return nil, common.BadParam("coil", "coil is required")
		}
		updated = append(updated, event.UpdatedProperty{PropertyName: "coil", OldValue: wo.Coil.InventoryID, NewValue: req.Coil.InventoryID})
		wo.Coil = req.Coil.Snapshot(now)

	case domain.OpSchedule:
		if req.ScheduledStart == nil {
			return nil, common.BadParam("scheduledStart", "scheduled start is required")
		}
		start := *req.ScheduledStart
		end := req.ScheduledEnd
		if end == nil && wo.ScheduledStart != nil && wo.ScheduledEnd != nil {
			kept := start.Add(wo.ScheduledEnd.Sub(*wo.ScheduledStart))
			end = &kept
		}
		if end != nil && end.Before(start) {
			return nil, common.BadParam("scheduledEnd", "scheduled end is before scheduled start")
		}
		updated = append(updated, event.UpdatedProperty{PropertyName: "scheduledStart", OldValue: formatTime(wo.ScheduledStart), NewValue: formatTime(&start)})
		wo.ScheduledStart = &start
		if end != nil {
			e := *end
			wo.ScheduledEnd = &e
		} else {
			wo.ScheduledEnd = nil
		}

	case domain.OpStart:
		if ledger.ActiveFor() == nil {
			if !wo.Coil.Assigned() {
				return nil, domain.ErrNoCoilAssigned
			}
			coil := wo.SnapshotCoil()
			opened, err = ledger.Open(newID(), Opening{
				Coil: coil.Ref(), StartWeight: coil.Weight, FromLocation: coil.Location,
				Reason: domain.ReasonInitial, StartedAt: now,
			})
			if err != nil {
				return nil, err
			}
			wo.ActiveUsageID = &opened.ID
		}
		if wo.ActualStart == nil {
			wo.ActualStart = &now
		}

	case domain.OpPause, domain.OpResume:

	case domain.OpComplete:
		active := ledger.ActiveFor()
		if active == nil || wo.ActiveUsageID == nil {
			return nil, &domain.InvariantViolationError{WorkOrderID: wo.ID, Reason: "completing without an active usage"}
		}
		if closed, err = ledger.Close(*wo.ActiveUsageID, now, req.EndWeight, req.ToLocation); err != nil {
			return nil, err
		}
		wo.ActiveUsageID = nil
		wo.ActualEnd = &now

	case domain.OpCancel:
		if wo.ActiveUsageID != nil {
			if closed, err = ledger.Close(*wo.ActiveUsageID, now, req.EndWeight, req.ToLocation); err != nil {
				return nil, err
			}
			wo.ActiveUsageID = nil
		}

	case domain.OpSwapCoil:
		if !req.Reason.ValidForSwap() {
			return nil, domain.ErrInvalidSwapReason
		}
		if req.Coil == nil {
			return nil, common.BadParam("coil", "coil is required")
		}
		previous := *wo.ActiveUsageID
		if closed, err = ledger.Close(previous, now, req.EndWeight, req.ToLocation); err != nil {
			return nil, err
		}
		opened, err = ledger.Open(newID(), Opening{
			Coil: req.Coil.Ref(), StartWeight: req.Coil.Weight, FromLocation: req.Coil.Location,
			Reason: req.Reason, StartedAt: now, Note: req.Note,
		})
		if err != nil {
			return nil, err
		}
		wo.ActiveUsageID = &opened.ID
		updated = append(updated, event.UpdatedProperty{PropertyName: "activeUsage", OldValue: previous.String(), NewValue: opened.ID.String()})

	default:
		return nil, &domain.InvalidTransitionError{From: from, Operation: req.Operation}
	}

	wo.Status = to
	wo.Version = agg.WorkOrder.Version + 1
	wo.LastUpdatedBy = req.ActorID
	wo.LastUpdatedAt = now

	if err := ledger.Verify(&wo); err != nil {
		return nil, err
	}

	if from != to {
		updated = append(updated, event.UpdatedProperty{PropertyName: "status", OldValue: string(from), NewValue: string(to)})
	}
	return &Decision{
		Change: domain.Change{ExpectedVersion: agg.WorkOrder.Version, WorkOrder: wo, Closed: closed, Opened: opened},
		Transition: event.Transition{
			SubjectID:   wo.ID,
			SubjectDesc: wo.Number,
			EventType:   event.Type(req.Operation),
			FromStatus:  string(from),
			ToStatus:    string(to),
			Timestamp:   now,
			Note:        req.Note,
			Updated:     updated,
		},
	}, nil
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
