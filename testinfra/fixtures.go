package testinfra

import (
	"coilflow/domain"
	"coilflow/persistence"
	"context"
	"fmt"
	"time"

	"github.com/fundwit/go-commons/types"
	. "github.com/onsi/gomega"
)

var FixtureTime = time.Date(2021, 3, 1, 8, 0, 0, 0, time.UTC)

func Weight(v float64) *float64 {
	return &v
}

// CoilA and CoilB are two distinct inventory coils of the same item.
var (
	CoilA = domain.Coil{InventoryID: "INV-A", TagNumber: "TAG-A", ItemID: "ITEM-1", Description: "galvanized 0.5mm", Weight: Weight(1000), Location: "RACK-1"}
	CoilB = domain.Coil{InventoryID: "INV-B", TagNumber: "TAG-B", ItemID: "ITEM-1", Description: "galvanized 0.5mm", Weight: Weight(800), Location: "RACK-2"}
)

// PrepareStore migrates the schema and returns a store on the test database.
func PrepareStore(testDatabase *TestDatabase) *persistence.GormStore {
	Expect(persistence.Migrate(testDatabase.DS.GormDB())).To(Succeed())
	return persistence.NewGormStore(testDatabase.DS)
}

// SeedWorkOrder stores a work order in the given status, with CoilA assigned unless withoutCoil is set.
func SeedWorkOrder(store *persistence.GormStore, id uint64, status domain.Status, withoutCoil ...bool) *domain.WorkOrder {
	wo := &domain.WorkOrder{
		ID:               types.ID(id),
		Number:           fmt.Sprintf("WO-%d", id),
		Status:           status,
		EstimatedMinutes: 60,
		CreateTime:       FixtureTime,
		LastUpdatedBy:    "seed",
		LastUpdatedAt:    FixtureTime,
	}
	if len(withoutCoil) == 0 || !withoutCoil[0] {
		wo.Coil = CoilA.Snapshot(FixtureTime)
	}
	Expect(store.CreateWorkOrder(context.Background(), wo)).To(Succeed())
	return wo
}
