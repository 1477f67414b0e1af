package state

// stateless object, just used for state computing
type StateMachine struct {
	States      []State      `json:"states"`
	Transitions []Transition `json:"transitions"`
}

type Category uint

const (
	InBacklog Category = iota
	InProcess
	Done
)

func (c Category) String() string {
	switch c {
	case InBacklog:
		return "IN_BACKLOG"
	case InProcess:
		return "IN_PROCESS"
	case Done:
		return "DONE"
	}
	return "UNKNOWN"
}

type State struct {
	Name     string   `json:"name"`
	Category Category `json:"category"`
}

// Transition is named after the operation that drives it. Operations which keep the state
// are modelled as self transitions.
type Transition struct {
	Name string `json:"name"`
	From State  `json:"from"`
	To   State  `json:"to"`
}

func NewStateMachine(states []State, transitions []Transition) *StateMachine {
	return &StateMachine{States: states, Transitions: transitions}
}

// AvailableTransitions filters transitions by name and source state, empty arguments match all.
func (sm *StateMachine) AvailableTransitions(name string, fromState string) []Transition {
	r := []Transition{}
	for _, transition := range sm.Transitions {
		if (name == "" || name == transition.Name) && (fromState == "" || fromState == transition.From.Name) {
			r = append(r, transition)
		}
	}
	return r
}

func (sm *StateMachine) FindState(name string) (State, bool) {
	for _, s := range sm.States {
		if s.Name == name {
			return s, true
		}
	}
	return State{}, false
}

// SourceStates lists the states a named transition may start from, in declaration order.
func (sm *StateMachine) SourceStates(name string) []State {
	r := []State{}
	for _, transition := range sm.Transitions {
		if transition.Name == name {
			r = append(r, transition.From)
		}
	}
	return r
}
