package domain

import (
	"coilflow/event"
)

// Aggregate is a work order together with every usage ever opened for it.
type Aggregate struct {
	WorkOrder WorkOrder   `json:"workOrder"`
	Usages    []CoilUsage `json:"usages"`
}

func (a *Aggregate) ActiveUsage() *CoilUsage {
	if a.WorkOrder.ActiveUsageID == nil {
		return nil
	}
	for i := range a.Usages {
		if a.Usages[i].ID == *a.WorkOrder.ActiveUsageID {
			return &a.Usages[i]
		}
	}
	return nil
}

// Change is everything one accepted transition writes, committed as a single unit.
type Change struct {
	ExpectedVersion int64
	WorkOrder       WorkOrder
	Closed          *CoilUsage
	Opened          *CoilUsage
	Event           event.AuditEvent
}

// Apply returns the aggregate as it would look once the change is committed.
func (a *Aggregate) Apply(c *Change) *Aggregate {
	next := &Aggregate{WorkOrder: c.WorkOrder, Usages: make([]CoilUsage, 0, len(a.Usages)+1)}
	for _, u := range a.Usages {
		if c.Closed != nil && u.ID == c.Closed.ID {
			u = *c.Closed
		}
		next.Usages = append(next.Usages, u)
	}
	if c.Opened != nil {
		next.Usages = append(next.Usages, *c.Opened)
	}
	return next
}
