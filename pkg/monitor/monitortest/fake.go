// Package monitortest provides in-memory monitors for tests.
package monitortest

import (
	"github.com/display-toggle/display-toggle/pkg/monitor"
)

// Monitor is a fake monitor.Monitor that records every call.
// Source values that are not MCCS named sources are reported through
// *monitor.UnreadableSourceError, like real displays on USB-C.
type Monitor struct {
	Model  string
	Source monitor.InputSource

	// CapabilityString replaces the generated capability report when set
	CapabilityString string

	// Errors injected into the matching calls
	OpenErr         error
	CapabilitiesErr error
	InputSourceErr  error
	SetErr          error
	CloseErr        error

	Opens             int
	Closes            int
	CapabilitiesCalls int
	InputSourceCalls  int
	SetCalls          int
	SetSources        []monitor.InputSource

	connected bool
}

// NewMonitor returns a fake display with the given model and active source
func NewMonitor(model string, source monitor.InputSource) *Monitor {
	return &Monitor{Model: model, Source: source}
}

func (m *Monitor) Open() error {
	m.Opens++
	if m.OpenErr != nil {
		return m.OpenErr
	}
	m.connected = true
	return nil
}

func (m *Monitor) Close() error {
	m.Closes++
	m.connected = false
	return m.CloseErr
}

// Connected reports whether the monitor is inside an Open/Close scope
func (m *Monitor) Connected() bool {
	return m.connected
}

func (m *Monitor) Capabilities() (*monitor.Capabilities, error) {
	m.CapabilitiesCalls++
	if !m.connected {
		return nil, monitor.ErrNotConnected
	}
	if m.CapabilitiesErr != nil {
		return nil, m.CapabilitiesErr
	}
	if m.CapabilityString != "" {
		return monitor.ParseCapabilities(m.CapabilityString)
	}
	return monitor.ParseCapabilities("(prot(monitor)type(LCD)model(" + m.Model + ")vcp(10 12 60(0F 11 1B))mccs_ver(2.1))")
}

func (m *Monitor) InputSource() (monitor.InputSource, error) {
	m.InputSourceCalls++
	if !m.connected {
		return 0, monitor.ErrNotConnected
	}
	if m.InputSourceErr != nil {
		return 0, m.InputSourceErr
	}
	if !m.Source.IsNamed() {
		return 0, &monitor.UnreadableSourceError{Raw: int(m.Source)}
	}
	return m.Source, nil
}

func (m *Monitor) SetInputSource(source monitor.InputSource) error {
	m.SetCalls++
	if !m.connected {
		return monitor.ErrNotConnected
	}
	if m.SetErr != nil {
		return m.SetErr
	}
	m.Source = source
	m.SetSources = append(m.SetSources, source)
	return nil
}

// Enumerator returns a fixed list of fake monitors
type Enumerator struct {
	List []*Monitor
	Err  error

	Calls int
}

// NewEnumerator returns an enumerator over the given monitors
func NewEnumerator(monitors ...*Monitor) *Enumerator {
	return &Enumerator{List: monitors}
}

func (e *Enumerator) Monitors() ([]monitor.Monitor, error) {
	e.Calls++
	if e.Err != nil {
		return nil, e.Err
	}
	monitors := make([]monitor.Monitor, len(e.List))
	for i, m := range e.List {
		monitors[i] = m
	}
	return monitors, nil
}

func (e *Enumerator) IsAvailable() bool {
	return true
}

func (e *Enumerator) Name() string {
	return "fake"
}

// Sources returns the active source of every monitor, in order
func (e *Enumerator) Sources() []monitor.InputSource {
	sources := make([]monitor.InputSource, len(e.List))
	for i, m := range e.List {
		sources[i] = m.Source
	}
	return sources
}
