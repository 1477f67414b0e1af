package domain

import (
	"time"

	"github.com/fundwit/go-commons/types"
)

// WorkOrder is a schedulable production task run on a machine against a physical coil.
// Status, ActiveUsageID and Version are only written by the lifecycle operations.
type WorkOrder struct {
	ID     types.ID `json:"id" gorm:"primary_key"`
	Number string    `json:"number" gorm:"size:64;unique_index;not null"`
	Status Status    `json:"status" gorm:"size:32;not null"`

	ScheduledStart   *time.Time `json:"scheduledStart" gorm:"precision:6"`
	ScheduledEnd     *time.Time `json:"scheduledEnd" gorm:"precision:6"`
	EstimatedMinutes int        `json:"estimatedMinutes"`
	ActualStart      *time.Time `json:"actualStart" gorm:"precision:6"`
	ActualEnd        *time.Time `json:"actualEnd" gorm:"precision:6"`

	Coil CoilSnapshot `json:"coil" gorm:"embedded;embedded_prefix:coil_"`

	ActiveUsageID *types.ID `json:"activeUsageId"`
	Version       int64      `json:"version" gorm:"not null"`

	CreateTime    time.Time `json:"createTime" gorm:"precision:6"`
	LastUpdatedBy string    `json:"lastUpdatedBy" gorm:"size:128"`
	LastUpdatedAt time.Time `json:"lastUpdatedAt" gorm:"precision:6"`
}

func (WorkOrder) TableName() string {
	return "work_orders"
}

// CoilSnapshot is copied from the inventory when a coil is assigned, it is not refreshed afterwards.
type CoilSnapshot struct {
	InventoryID string     `json:"inventoryId" gorm:"size:128"`
	TagNumber   string     `json:"tagNumber" gorm:"size:64"`
	ItemID      string     `json:"itemId" gorm:"size:64"`
	Description string     `json:"description" gorm:"size:256"`
	Weight      *float64   `json:"weight"`
	Location    string     `json:"location" gorm:"size:64"`
	SnapshotAt  *time.Time `json:"snapshotAt" gorm:"precision:6"`
}

func (s CoilSnapshot) Assigned() bool {
	return s.SnapshotAt != nil
}

// Coil is the inventory view of a physical coil, as handed over by the inventory collaborator.
type Coil struct {
	InventoryID string   `json:"inventoryId" validate:"required"`
	TagNumber   string   `json:"tagNumber"`
	ItemID      string   `json:"itemId" validate:"required"`
	Description string   `json:"description"`
	Weight      *float64 `json:"weight" validate:"omitempty,gte=0"`
	Location    string   `json:"location"`
}

const UnknownTagNumber = "N/A"

func (c Coil) Snapshot(at time.Time) CoilSnapshot {
	return CoilSnapshot{
		InventoryID: c.InventoryID,
		TagNumber:   c.tagNumber(),
		ItemID:      c.ItemID,
		Description: c.Description,
		Weight:      copyFloat(c.Weight),
		Location:    c.Location,
		SnapshotAt:  &at,
	}
}

func (c Coil) Ref() CoilRef {
	return CoilRef{InventoryID: c.InventoryID, TagNumber: c.tagNumber(), ItemID: c.ItemID, Description: c.Description}
}

func (c Coil) tagNumber() string {
	if c.TagNumber == "" {
		return UnknownTagNumber
	}
	return c.TagNumber
}

// SnapshotCoil rebuilds the inventory view recorded at assignment time.
func (w *WorkOrder) SnapshotCoil() Coil {
	return Coil{
		InventoryID: w.Coil.InventoryID,
		TagNumber:   w.Coil.TagNumber,
		ItemID:      w.Coil.ItemID,
		Description: w.Coil.Description,
		Weight:      copyFloat(w.Coil.Weight),
		Location:    w.Coil.Location,
	}
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
