package domain

import (
	"sort"
)

// CheckInvariants verifies a work order against its full usage set.
func CheckInvariants(wo *WorkOrder, usages []CoilUsage) error {
	if !wo.Status.Valid() {
		return violation(wo.ID, "unknown status %q", wo.Status)
	}
	if wo.Status.ConsumesMaterial() != (wo.ActiveUsageID != nil) {
		return violation(wo.ID, "status %s with active usage pointer set=%t", wo.Status, wo.ActiveUsageID != nil)
	}

	sorted := make([]CoilUsage, len(usages))
	copy(sorted, usages)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Sequence < sorted[j].Sequence })

	var open *CoilUsage
	for i := range sorted {
		u := &sorted[i]
		if u.WorkOrderID != wo.ID {
			return violation(wo.ID, "usage %d belongs to work order %d", u.ID, u.WorkOrderID)
		}
		if u.Sequence != i+1 {
			return violation(wo.ID, "usage sequence %d found at position %d", u.Sequence, i+1)
		}
		if (u.Sequence == 1) != (u.Reason == ReasonInitial) {
			return violation(wo.ID, "usage %d has reason %s", u.Sequence, u.Reason)
		}
		if u.EndedAt != nil && u.EndedAt.Before(u.StartedAt) {
			return violation(wo.ID, "usage %d ends before it starts", u.Sequence)
		}
		if u.Active() {
			if open != nil {
				return violation(wo.ID, "usages %d and %d are both open", open.Sequence, u.Sequence)
			}
			open = u
		}
	}

	switch {
	case open == nil && wo.ActiveUsageID != nil:
		return violation(wo.ID, "active usage %d is not open", *wo.ActiveUsageID)
	case open != nil && wo.ActiveUsageID == nil:
		return violation(wo.ID, "usage %d is open but not referenced", open.Sequence)
	case open != nil && open.ID != *wo.ActiveUsageID:
		return violation(wo.ID, "open usage %d differs from active usage %d", open.ID, *wo.ActiveUsageID)
	}
	return nil
}
