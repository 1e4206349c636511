package monitor

import "github.com/pkg/errors"

// ErrNotConnected is returned when a Monitor is used outside an Open/Close scope.
var ErrNotConnected = errors.New("monitor is not connected")

// Monitor is the interface that all display control backends must satisfy.
// It represents one physical display reachable over DDC/CI.
type Monitor interface {
	// Open starts a control session with the display. Every other call
	// except Close requires an open session.
	Open() error

	// Close ends the control session. It is safe to call on a closed monitor.
	Close() error

	// Capabilities returns the MCCS capability report of the display
	Capabilities() (*Capabilities, error)

	// InputSource returns the active input source. A value the backend
	// cannot name is reported as *UnreadableSourceError.
	InputSource() (InputSource, error)

	// SetInputSource switches the active input source
	SetInputSource(source InputSource) error
}

// Enumerator lists the displays attached to the system
type Enumerator interface {
	// Monitors returns the displays in a stable order. The order must be the
	// same across invocations on the same machine.
	Monitors() ([]Monitor, error)

	// IsAvailable checks if this backend can run on the current system
	IsAvailable() bool

	// Name returns the backend name, e.g. "ddcutil"
	Name() string
}
