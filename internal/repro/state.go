package repro

// State is a step of a Procedure run.
type State int

// States in the order a successful run visits them.
const (
	StateIdle State = iota
	StateConnected
	StateInitialized
	StatePreFaultQuery
	StateFaultingQuery
	StatePostFaultQuery
	StateClosed
)

var stateNames = [...]string{
	StateIdle:           "idle",
	StateConnected:      "connected",
	StateInitialized:    "initialized",
	StatePreFaultQuery:  "pre_fault_query",
	StateFaultingQuery:  "faulting_query",
	StatePostFaultQuery: "post_fault_query",
	StateClosed:         "closed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// canTransition reports whether a run may move from s to next. Every state
// after Connected may jump to Closed, since the release runs on any exit.
func (s State) canTransition(next State) bool {
	if next == StateClosed {
		return s >= StateConnected && s < StateClosed
	}
	return next == s+1
}
