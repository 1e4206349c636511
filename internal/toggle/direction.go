package toggle

import (
	"github.com/display-toggle/display-toggle/pkg/monitor"
	"github.com/pkg/errors"
)

// Direction is the single switch applied to every eligible display of a run
type Direction int

const (
	// Undecided means the direction is read from the first eligible display
	Undecided Direction = iota
	// ToPrimary switches every eligible display to the primary source
	ToPrimary
	// ToAlternate switches every eligible display to its alternate source
	ToAlternate
)

func (d Direction) String() string {
	switch d {
	case ToPrimary:
		return "primary"
	case ToAlternate:
		return "alternate"
	default:
		return "undecided"
	}
}

// ErrInvalidTarget is returned for a target other than "usb" or "alt"
var ErrInvalidTarget = errors.New("invalid target")

// ParseTarget maps a command-line target to a direction override.
// "usb" forces the primary (USB-C) input, "alt" forces the alternate input.
func ParseTarget(target string) (Direction, error) {
	switch target {
	case "usb":
		return ToPrimary, nil
	case "alt":
		return ToAlternate, nil
	}
	return Undecided, errors.Wrapf(ErrInvalidTarget, `the target %q must be "usb" or "alt"`, target)
}

// TargetFromArgs parses the optional positional target. No argument means
// no override.
func TargetFromArgs(args []string) (Direction, error) {
	if len(args) == 0 {
		return Undecided, nil
	}
	if len(args) > 1 {
		return Undecided, errors.Wrapf(ErrInvalidTarget, "expected at most one target, got %d", len(args))
	}
	return ParseTarget(args[0])
}

// Decide returns the direction for a display currently showing current.
// A display on the primary source goes to its alternate; anything else
// goes back to primary.
func Decide(current, primary monitor.InputSource) Direction {
	if current == primary {
		return ToAlternate
	}
	return ToPrimary
}
