package workflow

// State is the approval status of an expense request
type State string

const (
	StatePendingManager  State = "PENDING_MANAGER"
	StatePendingFinance  State = "PENDING_FINANCE"
	StatePaid            State = "PAID"
	StateRejectedManager State = "REJECTED_MANAGER"
	StateRejectedFinance State = "REJECTED_FINANCE"
)

// InitialState is the status every newly submitted expense starts in
const InitialState = StatePendingManager

// IsTerminal returns true if no transition leaves the state
func (s State) IsTerminal() bool {
	return s == StatePaid
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// IsValid returns true if the state is a known expense status. It must not
// depend on package-level variables: the transition table calls it during init.
func (s State) IsValid() bool {
	switch s {
	case StatePendingManager, StatePendingFinance, StatePaid, StateRejectedManager, StateRejectedFinance:
		return true
	}
	return false
}

// ParseState converts a stored status string into a State
func ParseState(s string) (State, error) {
	st := State(s)
	if !st.IsValid() {
		return "", ErrInvalidState
	}
	return st, nil
}
