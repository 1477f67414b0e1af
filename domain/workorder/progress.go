package workorder

import (
	"coilflow/domain"
	"time"
)

type UsageDetail struct {
	domain.CoilUsage
	ConsumedWeight *float64 `json:"consumedWeight"`
}

// Detail is the read model of a work order. Progress and SwapCount are derived, never stored.
type Detail struct {
	domain.WorkOrder
	Usages    []UsageDetail `json:"usages"`
	Progress  float64       `json:"progress"`
	SwapCount int           `json:"swapCount"`
}

func NewDetail(agg *domain.Aggregate, now time.Time) *Detail {
	d := &Detail{
		WorkOrder: agg.WorkOrder,
		Usages:    make([]UsageDetail, 0, len(agg.Usages)),
		Progress:  Progress(&agg.WorkOrder, now),
		SwapCount: SwapCount(agg.Usages),
	}
	for _, u := range agg.Usages {
		ud := UsageDetail{CoilUsage: u}
		if consumed, ok := u.ConsumedWeight(); ok {
			ud.ConsumedWeight = &consumed
		}
		d.Usages = append(d.Usages, ud)
	}
	return d
}

// Progress is the elapsed share of the estimated duration, clamped to [0, 1]. It is 0 unless the work order is running.
func Progress(wo *domain.WorkOrder, now time.Time) float64 {
	if wo.Status != domain.StatusInProgress || wo.EstimatedMinutes <= 0 || wo.ActualStart == nil {
		return 0
	}
	p := now.Sub(*wo.ActualStart).Minutes() / float64(wo.EstimatedMinutes)
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

func SwapCount(usages []domain.CoilUsage) int {
	if len(usages) == 0 {
		return 0
	}
	return len(usages) - 1
}
