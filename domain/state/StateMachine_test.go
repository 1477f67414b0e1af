package state_test

import (
	"coilflow/domain/state"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("StateMachine", func() {
	var (
		stateMachine *state.StateMachine
		pending      = state.State{Name: "PENDING", Category: state.InBacklog}
		running      = state.State{Name: "RUNNING", Category: state.InProcess}
		finished     = state.State{Name: "FINISHED", Category: state.Done}
	)

	BeforeEach(func() {
		//           PENDING   RUNNING       FINISHED
		// PENDING   -         V (start)     V (cancel)
		// RUNNING   X         V (swap)      V (complete, cancel)
		// FINISHED  X         X             -
		stateMachine = state.NewStateMachine(
			[]state.State{pending, running, finished},
			[]state.Transition{
				{Name: "start", From: pending, To: running},
				{Name: "swap", From: running, To: running},
				{Name: "complete", From: running, To: finished},
				{Name: "cancel", From: pending, To: finished},
				{Name: "cancel", From: running, To: finished},
			})
	})

	Describe("AvailableTransitions", func() {
		It("should filter transitions by name and source state", func() {
			Ω(stateMachine.AvailableTransitions("cancel", "RUNNING")).Should(Equal([]state.Transition{
				{Name: "cancel", From: running, To: finished},
			}))
			Ω(stateMachine.AvailableTransitions("swap", "RUNNING")).Should(Equal([]state.Transition{
				{Name: "swap", From: running, To: running},
			}))
			Ω(stateMachine.AvailableTransitions("start", "FINISHED")).Should(BeEmpty())
			Ω(stateMachine.AvailableTransitions("unknown", "")).Should(BeEmpty())
		})

		It("should match all when arguments are empty", func() {
			Ω(stateMachine.AvailableTransitions("", "RUNNING")).Should(HaveLen(3))
			Ω(stateMachine.AvailableTransitions("cancel", "")).Should(HaveLen(2))
			Ω(stateMachine.AvailableTransitions("", "")).Should(HaveLen(5))
		})
	})

	Describe("FindState", func() {
		It("should find declared states only", func() {
			found, ok := stateMachine.FindState("RUNNING")
			Expect(ok).To(BeTrue())
			Expect(found).To(Equal(running))

			_, ok = stateMachine.FindState("UNKNOWN")
			Expect(ok).To(BeFalse())
		})
	})

	Describe("SourceStates", func() {
		It("should list source states of a transition", func() {
			Expect(stateMachine.SourceStates("cancel")).To(Equal([]state.State{pending, running}))
			Expect(stateMachine.SourceStates("unknown")).To(BeEmpty())
		})
	})

	Describe("Category", func() {
		It("should have readable names", func() {
			Expect(state.InBacklog.String()).To(Equal("IN_BACKLOG"))
			Expect(state.InProcess.String()).To(Equal("IN_PROCESS"))
			Expect(state.Done.String()).To(Equal("DONE"))
			Expect(state.Category(9).String()).To(Equal("UNKNOWN"))
		})
	})
})
