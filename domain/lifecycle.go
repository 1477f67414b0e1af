package domain

import (
	"coilflow/domain/state"
)

type Status string

const (
	StatusDraft      Status = "DRAFT"
	StatusPending    Status = "PENDING"
	StatusInProgress Status = "IN_PROGRESS"
	StatusPaused     Status = "PAUSED"
	StatusCompleted  Status = "COMPLETED"
	StatusCanceled   Status = "CANCELED"
	StatusAwaiting   Status = "AWAITING"
)

type Operation string

const (
	OpAssignCoil Operation = "ASSIGN_COIL"
	OpSchedule   Operation = "SCHEDULE"
	OpStart      Operation = "START"
	OpPause      Operation = "PAUSE"
	OpResume     Operation = "RESUME"
	OpComplete   Operation = "COMPLETE"
	OpCancel     Operation = "CANCEL"
	OpSwapCoil   Operation = "SWAP_COIL"
)

var Operations = []Operation{OpAssignCoil, OpSchedule, OpStart, OpPause, OpResume, OpComplete, OpCancel, OpSwapCoil}

var (
	StateDraft      = state.State{Name: string(StatusDraft), Category: state.InBacklog}
	StatePending    = state.State{Name: string(StatusPending), Category: state.InBacklog}
	StateAwaiting   = state.State{Name: string(StatusAwaiting), Category: state.InBacklog}
	StateInProgress = state.State{Name: string(StatusInProgress), Category: state.InProcess}
	StatePaused     = state.State{Name: string(StatusPaused), Category: state.InProcess}
	StateCompleted  = state.State{Name: string(StatusCompleted), Category: state.Done}
	StateCanceled   = state.State{Name: string(StatusCanceled), Category: state.Done}
)

// WorkOrderStateMachine is the only source of legal (operation, from) pairs. Awaiting is entered by
// upstream batch logic only, nothing here leads into it.
var WorkOrderStateMachine = state.NewStateMachine(
	[]state.State{StateDraft, StatePending, StateAwaiting, StateInProgress, StatePaused, StateCompleted, StateCanceled},
	[]state.Transition{
		{Name: string(OpAssignCoil), From: StateDraft, To: StateDraft},
		{Name: string(OpAssignCoil), From: StatePending, To: StatePending},

		{Name: string(OpSchedule), From: StateDraft, To: StatePending},
		{Name: string(OpSchedule), From: StatePending, To: StatePending},

		{Name: string(OpStart), From: StatePending, To: StateInProgress},
		{Name: string(OpStart), From: StatePaused, To: StateInProgress},

		{Name: string(OpPause), From: StateInProgress, To: StatePaused},
		{Name: string(OpResume), From: StatePaused, To: StateInProgress},

		{Name: string(OpComplete), From: StateInProgress, To: StateCompleted},
		{Name: string(OpComplete), From: StatePaused, To: StateCompleted},

		{Name: string(OpCancel), From: StateDraft, To: StateCanceled},
		{Name: string(OpCancel), From: StatePending, To: StateCanceled},
		{Name: string(OpCancel), From: StateAwaiting, To: StateCanceled},
		{Name: string(OpCancel), From: StateInProgress, To: StateCanceled},
		{Name: string(OpCancel), From: StatePaused, To: StateCanceled},

		{Name: string(OpSwapCoil), From: StateInProgress, To: StateInProgress},
		{Name: string(OpSwapCoil), From: StatePaused, To: StatePaused},
	},
)

func (s Status) Valid() bool {
	_, found := WorkOrderStateMachine.FindState(string(s))
	return found
}

func (s Status) Category() state.Category {
	found, ok := WorkOrderStateMachine.FindState(string(s))
	if !ok {
		return state.InBacklog
	}
	return found.Category
}

// ConsumesMaterial reports whether a work order in this status must hold an open coil usage.
func (s Status) ConsumesMaterial() bool {
	return s.Valid() && s.Category() == state.InProcess
}

func (s Status) IsTerminal() bool {
	return s.Valid() && s.Category() == state.Done
}

// NextStatus resolves the status an operation leads to, or rejects it.
func NextStatus(op Operation, from Status) (Status, error) {
	transitions := WorkOrderStateMachine.AvailableTransitions(string(op), string(from))
	if len(transitions) != 1 {
		return from, &InvalidTransitionError{From: from, Operation: op}
	}
	return Status(transitions[0].To.Name), nil
}

// AllowedFrom lists the statuses an operation may be requested from.
func AllowedFrom(op Operation) []Status {
	var r []Status
	for _, s := range WorkOrderStateMachine.SourceStates(string(op)) {
		r = append(r, Status(s.Name))
	}
	return r
}
