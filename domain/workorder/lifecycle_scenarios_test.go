package workorder_test

import (
	"coilflow/clock"
	"coilflow/domain"
	"coilflow/domain/workorder"
	"coilflow/persistence"
	"coilflow/testinfra"
	"context"
	"time"

	"github.com/fundwit/go-commons/types"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Work order lifecycle", func() {
	const id = types.ID(1)
	var (
		ctx     context.Context
		db      *testinfra.TestDatabase
		store   *persistence.GormStore
		clk     *clock.ManualClock
		manager *workorder.WorkOrderManager
	)

	load := func() *domain.Aggregate {
		agg, err := store.LoadWorkOrder(ctx, id)
		Expect(err).To(BeNil())
		Expect(domain.CheckInvariants(&agg.WorkOrder, agg.Usages)).To(Succeed())
		return agg
	}

	BeforeEach(func() {
		ctx = context.Background()
		db = testinfra.StartTestDatabase("lifecycle")
		store = testinfra.PrepareStore(db)
		clk = clock.NewManualClock(testinfra.FixtureTime)
		manager = workorder.NewWorkOrderManager(store, clk, nil)
		testinfra.SeedWorkOrder(store, uint64(id), domain.StatusPending)
	})

	AfterEach(func() {
		testinfra.StopTestDatabase(db)
	})

	Context("when a pending work order is started", func() {
		var started *domain.WorkOrder

		BeforeEach(func() {
			var err error
			started, err = manager.Start(ctx, id, "operator")
			Expect(err).To(BeNil())
		})

		It("should open usage #1 as the initial usage", func() {
			Expect(started.Status).To(Equal(domain.StatusInProgress))
			agg := load()
			Expect(agg.Usages).To(HaveLen(1))
			Expect(agg.Usages[0].Sequence).To(Equal(1))
			Expect(agg.Usages[0].Reason).To(Equal(domain.ReasonInitial))
			Expect(agg.Usages[0].EndedAt).To(BeNil())
			Expect(*agg.Usages[0].StartWeight).To(Equal(1000.0))
			Expect(*agg.WorkOrder.ActiveUsageID).To(Equal(agg.Usages[0].ID))
		})

		Context("and then paused", func() {
			BeforeEach(func() {
				clk.Advance(time.Minute)
				_, err := manager.Pause(ctx, id, "operator")
				Expect(err).To(BeNil())
			})

			It("should keep the active usage", func() {
				agg := load()
				Expect(agg.WorkOrder.Status).To(Equal(domain.StatusPaused))
				Expect(*agg.WorkOrder.ActiveUsageID).To(Equal(*started.ActiveUsageID))
			})

			It("should not open a usage when resumed", func() {
				clk.Advance(time.Minute)
				resumed, err := manager.Resume(ctx, id, "operator")
				Expect(err).To(BeNil())
				Expect(resumed.Status).To(Equal(domain.StatusInProgress))
				agg := load()
				Expect(agg.Usages).To(HaveLen(1))
				Expect(*agg.WorkOrder.ActiveUsageID).To(Equal(*started.ActiveUsageID))
			})

			It("should not open a usage when started again", func() {
				_, err := manager.Start(ctx, id, "operator")
				Expect(err).To(BeNil())
				Expect(load().Usages).To(HaveLen(1))
			})
		})

		Context("and the coil is swapped", func() {
			BeforeEach(func() {
				clk.Advance(time.Hour)
				_, err := manager.SwapCoil(ctx, id, testinfra.CoilB, domain.ReasonSwapEmpty, "empty core", "operator")
				Expect(err).To(BeNil())
			})

			It("should close usage #1 and make usage #2 active", func() {
				agg := load()
				Expect(agg.Usages).To(HaveLen(2))
				Expect(agg.Usages[0].EndedAt).ToNot(BeNil())
				Expect(agg.Usages[0].EndedAt.Equal(clk.Now())).To(BeTrue())
				Expect(agg.Usages[1].Sequence).To(Equal(2))
				Expect(agg.Usages[1].Reason).To(Equal(domain.ReasonSwapEmpty))
				Expect(agg.Usages[1].EndedAt).To(BeNil())
				Expect(*agg.WorkOrder.ActiveUsageID).To(Equal(agg.Usages[1].ID))
			})

			It("should close usage #2 on completion", func() {
				clk.Advance(time.Hour)
				completed, err := manager.Complete(ctx, id, "operator")
				Expect(err).To(BeNil())
				Expect(completed.Status).To(Equal(domain.StatusCompleted))
				Expect(completed.ActiveUsageID).To(BeNil())
				agg := load()
				Expect(agg.Usages[1].EndedAt).ToNot(BeNil())
				Expect(agg.WorkOrder.ActiveUsageID).To(BeNil())
			})
		})

		It("should close the active usage when canceled", func() {
			_, err := manager.Cancel(ctx, id, "operator")
			Expect(err).To(BeNil())
			agg := load()
			Expect(agg.WorkOrder.Status).To(Equal(domain.StatusCanceled))
			Expect(agg.Usages[0].EndedAt).ToNot(BeNil())
			Expect(agg.Usages[0].Reason).To(Equal(domain.ReasonInitial))
		})
	})

	It("should reject a swap on a pending work order without changing it", func() {
		_, err := manager.SwapCoil(ctx, id, testinfra.CoilB, domain.ReasonSwapEmpty, "", "operator")
		Expect(err).To(Equal(domain.ErrNoActiveUsage))
		agg := load()
		Expect(agg.WorkOrder.Status).To(Equal(domain.StatusPending))
		Expect(agg.WorkOrder.Version).To(BeEquivalentTo(1))
		Expect(agg.Usages).To(BeEmpty())
	})

	It("should reject every operation on a canceled work order except reads", func() {
		_, err := manager.Cancel(ctx, id, "operator")
		Expect(err).To(BeNil())
		for _, op := range []func() (*domain.WorkOrder, error){
			func() (*domain.WorkOrder, error) { return manager.Start(ctx, id, "operator") },
			func() (*domain.WorkOrder, error) { return manager.Cancel(ctx, id, "operator") },
			func() (*domain.WorkOrder, error) { return manager.AssignCoil(ctx, id, testinfra.CoilB, "operator") },
		} {
			_, err := op()
			var invalid *domain.InvalidTransitionError
			Expect(err).To(BeAssignableToTypeOf(invalid))
		}
		_, err = manager.Detail(ctx, id)
		Expect(err).To(BeNil())
	})
})
