package workorder

import (
	"coilflow/domain"
	"time"

	"github.com/fundwit/go-commons/types"
)

// Ledger is the in-memory view of one work order's coil usages. It owns sequencing and
// the single-open-usage rule, whichever operation asks it to open or close a usage.
type Ledger struct {
	workOrderID types.ID
	usages      []domain.CoilUsage
}

type Opening struct {
	Coil         domain.CoilRef
	StartWeight  *float64
	FromLocation string
	Reason       domain.SwapReason
	StartedAt    time.Time
	Note         string
}

func NewLedger(workOrderID types.ID, usages []domain.CoilUsage) *Ledger {
	l := &Ledger{workOrderID: workOrderID, usages: make([]domain.CoilUsage, len(usages))}
	copy(l.usages, usages)
	return l
}

// ActiveFor returns the open usage, or nil when the work order is not consuming material.
func (l *Ledger) ActiveFor() *domain.CoilUsage {
	for i := range l.usages {
		if l.usages[i].Active() {
			u := l.usages[i]
			return &u
		}
	}
	return nil
}

func (l *Ledger) Open(id types.ID, o Opening) (*domain.CoilUsage, error) {
	if l.ActiveFor() != nil {
		return nil, domain.ErrUsageAlreadyOpen
	}

	sequence := 1
	for _, u := range l.usages {
		if u.Sequence >= sequence {
			sequence = u.Sequence + 1
		}
	}
	if sequence > 1 && o.Reason == domain.ReasonInitial {
		return nil, domain.ErrInvalidSwapReason
	}
	if sequence == 1 && o.Reason != domain.ReasonInitial {
		return nil, &domain.InvariantViolationError{WorkOrderID: l.workOrderID, Reason: "first usage must be initial"}
	}

	u := domain.CoilUsage{
		ID:           id,
		WorkOrderID:  l.workOrderID,
		Sequence:     sequence,
		Coil:         o.Coil,
		StartWeight:  o.StartWeight,
		FromLocation: o.FromLocation,
		StartedAt:    o.StartedAt,
		Reason:       o.Reason,
		Note:         o.Note,
	}
	l.usages = append(l.usages, u)
	return &u, nil
}

// Close stamps the end of a usage. The reason of the usage is left unchanged.
func (l *Ledger) Close(usageID types.ID, endedAt time.Time, endWeight *float64, toLocation string) (*domain.CoilUsage, error) {
	for i := range l.usages {
		u := &l.usages[i]
		if u.ID != usageID {
			continue
		}
		if !u.Active() {
			return nil, domain.ErrUsageAlreadyClosed
		}
		u.EndedAt = &endedAt
		u.EndWeight = endWeight
		u.ToLocation = toLocation
		closed := *u
		return &closed, nil
	}
	return nil, &domain.InvariantViolationError{WorkOrderID: l.workOrderID, Reason: "closing unknown usage " + usageID.String()}
}

func (l *Ledger) Usages() []domain.CoilUsage {
	usages := make([]domain.CoilUsage, len(l.usages))
	copy(usages, l.usages)
	return usages
}

// Verify checks the usages against the work order that references them.
func (l *Ledger) Verify(wo *domain.WorkOrder) error {
	return domain.CheckInvariants(wo, l.usages)
}
