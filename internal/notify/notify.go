// Package notify summarises a run in a desktop notification.
package notify

import (
	"fmt"
	"strings"

	"github.com/display-toggle/display-toggle/internal/toggle"
	"github.com/gen2brain/beeep"
	"github.com/pkg/errors"
)

const title = "Display toggle"

// Sender delivers one notification
type Sender func(title, message string) error

func desktop(title, message string) error {
	return beeep.Notify(title, message, "")
}

// Notifier sends run summaries when enabled
type Notifier struct {
	enabled bool
	send    Sender
}

// New returns a notifier using desktop notifications
func New(enabled bool) *Notifier {
	return &Notifier{enabled: enabled, send: desktop}
}

// Summary renders the switches of a run, one line per display
func Summary(result *toggle.Result) string {
	lines := make([]string, 0, len(result.Switches))
	for _, s := range result.Switches {
		model := s.Model
		if model == "" {
			model = fmt.Sprintf("Display %d", s.Position+1)
		}
		lines = append(lines, fmt.Sprintf("%s: %s", model, s.Target))
	}
	return strings.Join(lines, "\n")
}

// RunFinished notifies about the switches of a run. Nothing is sent when
// disabled, for dry runs, or when no display was switched.
func (n *Notifier) RunFinished(result *toggle.Result) error {
	if !n.enabled || result == nil || len(result.Switches) == 0 {
		return nil
	}
	if result.Switches[0].DryRun {
		return nil
	}
	if err := n.send(title, Summary(result)); err != nil {
		return errors.Wrap(err, "failed to send notification")
	}
	return nil
}
