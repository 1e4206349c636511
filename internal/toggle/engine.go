package toggle

import (
	"github.com/display-toggle/display-toggle/internal/cache"
	"github.com/display-toggle/display-toggle/internal/display"
	"github.com/display-toggle/display-toggle/internal/mapping"
	"github.com/display-toggle/display-toggle/pkg/monitor"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// ModelStore persists display models between runs
type ModelStore interface {
	Load() cache.Models
	Save(displays []*display.Display) error
}

// Options control a single run
type Options struct {
	// Override forces the direction instead of reading it from a display
	Override Direction
	// DryRun logs the switches without applying them
	DryRun bool
}

// Switch is one switch decided during a run
type Switch struct {
	Position  int
	Model     string
	Direction Direction
	Target    monitor.InputSource
	DryRun    bool
	// Unlisted is set when the display's capability report does not list
	// Target among its input sources. The switch is still attempted.
	Unlisted bool
}

// Result summarises a run
type Result struct {
	// Direction stays Undecided when no display has an alternate source
	Direction  Direction
	Switches   []Switch
	Displays   int
	Skipped    int // displays skipped by the cache without any hardware access
	Learned    int // models read from hardware
	CacheSaved bool
}

// Engine toggles the input source of every display with an alternate source
type Engine struct {
	enumerator monitor.Enumerator
	table      *mapping.Table
	store      ModelStore
	opts       Options
}

// NewEngine creates an engine. A nil store disables the model cache.
func NewEngine(enumerator monitor.Enumerator, table *mapping.Table, store ModelStore, opts Options) *Engine {
	return &Engine{
		enumerator: enumerator,
		table:      table,
		store:      store,
		opts:       opts,
	}
}

// run is the mutable state of one invocation. The direction is written at
// most once; dirty is set when a model was read from hardware.
type run struct {
	direction Direction
	dirty     bool
	result    *Result
}

// Run enumerates the displays, decides the direction once and applies it to
// every display with an alternate source. Displays are visited one at a
// time in enumeration order.
//
// If a display fails, processing stops and the error is returned; models
// learned before the failure are still saved when possible.
func (e *Engine) Run() (*Result, error) {
	handles, err := e.enumerator.Monitors()
	if err != nil {
		return nil, errors.Wrap(err, "failed to enumerate displays")
	}
	displays := display.FromMonitors(handles)
	log.Debug().Int("displays", len(displays)).Str("backend", e.enumerator.Name()).Msg("Enumerated displays")

	if e.store != nil {
		seeded := e.store.Load().ApplyTo(displays)
		log.Debug().Int("seeded", seeded).Msg("Applied cached models")
	}

	r := &run{
		direction: e.opts.Override,
		result:    &Result{Displays: len(displays)},
	}

	for i, d := range displays {
		if err := e.process(r, i, d); err != nil {
			if r.dirty && e.store != nil {
				if saveErr := e.store.Save(displays); saveErr != nil {
					log.Warn().Err(saveErr).Msg("Failed to save model cache")
				} else {
					r.result.CacheSaved = true
				}
			}
			r.result.Direction = r.direction
			return r.result, errors.Wrapf(err, "display %d", i)
		}
	}

	r.result.Direction = r.direction
	if r.dirty && e.store != nil {
		if err := e.store.Save(displays); err != nil {
			return r.result, errors.Wrap(err, "failed to save model cache")
		}
		r.result.CacheSaved = true
	}
	return r.result, nil
}

// process handles one display. The hardware session, when opened, is
// closed on every return path.
func (e *Engine) process(r *run, position int, d *display.Display) (err error) {
	if model, ok := d.KnownModel(); ok {
		if _, has := e.table.Alternate(model); !has {
			log.Debug().Msgf("%s: No changes (cached)", model)
			r.result.Skipped++
			return nil
		}
	}

	if err := d.Open(); err != nil {
		return err
	}
	defer func() {
		closeErr := d.Close()
		if closeErr == nil {
			return
		}
		if err == nil {
			err = errors.Wrap(closeErr, "failed to disconnect")
			return
		}
		log.Debug().Err(closeErr).Int("display", position).Msg("Failed to disconnect after error")
	}()

	model, learned, err := d.Model()
	if err != nil {
		return err
	}
	if learned {
		r.dirty = true
		r.result.Learned++
	}

	alternate, ok := e.table.Alternate(model)
	if !ok {
		log.Info().Msgf("%s: No changes", model)
		return nil
	}

	if r.direction == Undecided {
		reading, err := d.InputSource()
		if err != nil {
			return err
		}
		r.direction = Decide(reading.Source, e.table.Primary)
		log.Debug().
			Str("model", model).
			Stringer("current", reading.Source).
			Bool("unreadable", reading.Unreadable).
			Stringer("direction", r.direction).
			Msg("Decided direction")
	}

	target := e.table.Primary
	if r.direction == ToAlternate {
		target = alternate
	}

	unlisted := false
	if caps, ok := d.KnownCapabilities(); ok && !listsSource(caps, target) {
		unlisted = true
		log.Warn().Msgf("%s: %s is not listed in the capability report", model, target)
	}

	if e.opts.DryRun {
		log.Info().Msgf("%s: Switch to %s (dry run)", model, target)
	} else {
		log.Info().Msgf("%s: Switch to %s", model, target)
		if err := d.SetInputSource(target); err != nil {
			return err
		}
	}

	r.result.Switches = append(r.result.Switches, Switch{
		Position:  position,
		Model:     model,
		Direction: r.direction,
		Target:    target,
		DryRun:    e.opts.DryRun,
		Unlisted:  unlisted,
	})
	return nil
}

// listsSource reports whether caps allows switching to source. A report
// whose vcp entry could not be parsed, or that lists the feature without
// values, gives no information and counts as listing every source.
func listsSource(caps *monitor.Capabilities, source monitor.InputSource) bool {
	for _, name := range caps.Malformed {
		if name == "vcp" {
			return true
		}
	}
	if !caps.SupportsInputSource() {
		return false
	}
	sources := caps.InputSources()
	if len(sources) == 0 {
		return true
	}
	for _, s := range sources {
		if s == source {
			return true
		}
	}
	return false
}
