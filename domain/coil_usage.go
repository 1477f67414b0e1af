package domain

import (
	"time"

	"github.com/fundwit/go-commons/types"
)

type SwapReason string

const (
	ReasonInitial       SwapReason = "INITIAL"
	ReasonSwapDefective SwapReason = "SWAP_DEFECTIVE"
	ReasonSwapEmpty     SwapReason = "SWAP_EMPTY"
	ReasonSwapOther     SwapReason = "SWAP_OTHER"
)

// ValidForSwap reports whether an operator may give this reason, INITIAL belongs to the first usage only.
func (r SwapReason) ValidForSwap() bool {
	switch r {
	case ReasonSwapDefective, ReasonSwapEmpty, ReasonSwapOther:
		return true
	}
	return false
}

type CoilRef struct {
	InventoryID string `json:"inventoryId" gorm:"size:128;not null"`
	TagNumber   string `json:"tagNumber" gorm:"size:64;not null"`
	ItemID      string `json:"itemId" gorm:"size:64"`
	Description string `json:"description" gorm:"size:256"`
}

// CoilUsage is one interval during which a coil fed a work order. EndedAt is nil while it is the active one.
type CoilUsage struct {
	ID          types.ID `json:"id" gorm:"primary_key"`
	WorkOrderID types.ID `json:"workOrderId" gorm:"not null;unique_index:uix_coil_usages_sequence"`
	Sequence    int       `json:"sequence" gorm:"not null;unique_index:uix_coil_usages_sequence"`

	Coil         CoilRef  `json:"coil" gorm:"embedded;embedded_prefix:coil_"`
	StartWeight  *float64 `json:"startWeight"`
	EndWeight    *float64 `json:"endWeight"`
	FromLocation string   `json:"fromLocation" gorm:"size:64"`
	ToLocation   string   `json:"toLocation" gorm:"size:64"`

	StartedAt time.Time  `json:"startedAt" gorm:"precision:6;not null"`
	EndedAt   *time.Time `json:"endedAt" gorm:"precision:6"`

	Reason SwapReason `json:"reason" gorm:"size:32;not null"`
	Note   string     `json:"note" gorm:"size:512"`
}

func (CoilUsage) TableName() string {
	return "coil_usages"
}

func (u *CoilUsage) Active() bool {
	return u.EndedAt == nil
}

// ConsumedWeight is start minus end weight, undefined until both are known.
func (u *CoilUsage) ConsumedWeight() (float64, bool) {
	if u.StartWeight == nil || u.EndWeight == nil {
		return 0, false
	}
	return *u.StartWeight - *u.EndWeight, true
}
