// Package display wraps a monitor handle with the per-run state the toggle
// needs: the model string and capability report, each fetched at most once.
package display

import (
	"github.com/display-toggle/display-toggle/pkg/monitor"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Display is one physical monitor for the duration of a run
type Display struct {
	handle       monitor.Monitor
	model        *string
	capabilities *monitor.Capabilities
}

// New wraps a monitor handle. The Display owns the handle from now on.
func New(handle monitor.Monitor) *Display {
	return &Display{handle: handle}
}

// FromMonitors wraps every handle, preserving order
func FromMonitors(handles []monitor.Monitor) []*Display {
	displays := make([]*Display, len(handles))
	for i, h := range handles {
		displays[i] = New(h)
	}
	return displays
}

// KnownModel returns the model if it was read from the display or seeded from the cache
func (d *Display) KnownModel() (string, bool) {
	if d.model == nil {
		return "", false
	}
	return *d.model, true
}

// SeedModel sets the model from a cache entry without touching hardware
func (d *Display) SeedModel(model string) {
	d.model = &model
}

// Open starts the hardware session. Callers must Close it on every path.
func (d *Display) Open() error {
	if err := d.handle.Open(); err != nil {
		return errors.Wrap(err, "failed to connect to display")
	}
	return nil
}

// Close ends the hardware session
func (d *Display) Close() error {
	return d.handle.Close()
}

// Capabilities returns the capability report, querying the display only on
// the first call.
func (d *Display) Capabilities() (*monitor.Capabilities, error) {
	if d.capabilities != nil {
		return d.capabilities, nil
	}

	caps, err := d.handle.Capabilities()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get capabilities")
	}
	log.Debug().Str("capabilities", caps.Raw).Msg("Capabilities")
	d.capabilities = caps
	return caps, nil
}

// KnownCapabilities returns the capability report if it was already queried.
// It never touches the hardware.
func (d *Display) KnownCapabilities() (*monitor.Capabilities, bool) {
	return d.capabilities, d.capabilities != nil
}

// Model returns the display model. learned is true when the model was not
// known before this call and had to be read from the display; the caller
// uses it to mark the model cache dirty. Once a model is known no further
// capability query is issued.
func (d *Display) Model() (model string, learned bool, err error) {
	if d.model != nil {
		return *d.model, false, nil
	}

	caps, err := d.Capabilities()
	if err != nil {
		return "", false, err
	}
	model = caps.Model
	d.model = &model
	return model, true, nil
}

// Reading is the result of reading the active input source.
// Unreadable is set when the display reported a value the backend could not
// name; Source then holds that raw value. USB-C commonly reads this way and
// is a normal state, not a fault.
type Reading struct {
	Source     monitor.InputSource
	Unreadable bool
}

// InputSource reads the active input source
func (d *Display) InputSource() (Reading, error) {
	source, err := d.handle.InputSource()
	if err != nil {
		var unreadable *monitor.UnreadableSourceError
		if errors.As(err, &unreadable) {
			log.Debug().Int("raw", unreadable.Raw).Msg("Input source is not a named source")
			return Reading{Source: monitor.InputSource(unreadable.Raw), Unreadable: true}, nil
		}
		return Reading{}, errors.Wrap(err, "failed to read input source")
	}
	return Reading{Source: source}, nil
}

// SetInputSource switches the active input source
func (d *Display) SetInputSource(source monitor.InputSource) error {
	if err := d.handle.SetInputSource(source); err != nil {
		return errors.Wrapf(err, "failed to switch input source to %s", source)
	}
	return nil
}
