package capture

// State is a position in the auto-capture state machine.
type State int

const (
	StateIdle State = iota
	StateArmed
	StateCaptured
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateArmed:
		return "armed"
	case StateCaptured:
		return "captured"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Action is the side effect a transition asks the driver to perform.
type Action int

const (
	ActionNone Action = iota
	// ActionArm starts the countdown ticker.
	ActionArm
	// ActionDisarm stops the countdown ticker.
	ActionDisarm
	// ActionFire grabs the still frame.
	ActionFire
)

// Machine is the pure auto-capture transition core. It holds no timers;
// the driver feeds it detection samples and countdown ticks.
type Machine struct {
	state     State
	start     int
	countdown int
	enabled   bool
}

// NewMachine creates a machine that counts down from countdown once armed.
// A disabled machine never arms.
func NewMachine(countdown int, enabled bool) *Machine {
	return &Machine{
		state:   StateIdle,
		start:   max(countdown, 1),
		enabled: enabled,
	}
}

// Observe consumes one detection sample.
func (m *Machine) Observe(present bool) Action {
	switch m.state {
	case StateIdle:
		if present && m.enabled {
			m.state = StateArmed
			m.countdown = m.start
			return ActionArm
		}
	case StateArmed:
		if !present {
			m.state = StateIdle
			m.countdown = 0
			return ActionDisarm
		}
	}
	return ActionNone
}

// Tick advances an armed countdown by one step. Reaching zero moves the
// machine to Captured and returns ActionFire exactly once.
func (m *Machine) Tick() Action {
	if m.state != StateArmed {
		return ActionNone
	}

	m.countdown--
	if m.countdown <= 0 {
		m.countdown = 0
		m.state = StateCaptured
		return ActionFire
	}
	return ActionNone
}

// Cancel moves the machine to Cancelled from any state.
func (m *Machine) Cancel() {
	m.state = StateCancelled
	m.countdown = 0
}

func (m *Machine) State() State {
	return m.state
}

// Countdown returns the remaining count while armed, zero otherwise.
func (m *Machine) Countdown() int {
	return m.countdown
}

// Done reports whether the machine reached a terminal state.
func (m *Machine) Done() bool {
	return m.state == StateCaptured || m.state == StateCancelled
}
