package ddcutil

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/display-toggle/display-toggle/pkg/monitor"
	"github.com/pkg/errors"
)

// Monitor implements monitor.Monitor for one display addressed by I2C bus
type Monitor struct {
	backend   *Backend
	info      displayInfo
	connected bool
}

// String returns a short description used in logs
func (m *Monitor) String() string {
	if m.info.description != "" {
		return fmt.Sprintf("display %d (%s)", m.info.number, m.info.description)
	}
	return fmt.Sprintf("display %d", m.info.number)
}

// Open starts a control session
func (m *Monitor) Open() error {
	if m.connected {
		return errors.Errorf("%s is already connected", m)
	}
	m.connected = true
	return nil
}

// Close ends the control session
func (m *Monitor) Close() error {
	m.connected = false
	return nil
}

// Capabilities queries and parses the MCCS capability string
func (m *Monitor) Capabilities() (*monitor.Capabilities, error) {
	if !m.connected {
		return nil, monitor.ErrNotConnected
	}

	output, err := m.backend.invoke(m.busArgs("capabilities", "--verbose")...)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get capabilities of %s", m)
	}

	caps, err := parseCapabilitiesOutput(string(output))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse capabilities of %s", m)
	}
	return caps, nil
}

// InputSource reads VCP feature 0x60
func (m *Monitor) InputSource() (monitor.InputSource, error) {
	if !m.connected {
		return 0, monitor.ErrNotConnected
	}

	output, err := m.backend.invoke(m.busArgs("getvcp", fmt.Sprintf("%02x", monitor.InputSourceVCP), "--brief")...)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to get input source of %s", m)
	}

	value, err := parseGetVCP(string(output))
	if err != nil {
		return 0, errors.Wrapf(err, "failed to get input source of %s", m)
	}

	source := monitor.InputSource(value)
	if !source.IsNamed() {
		return 0, &monitor.UnreadableSourceError{Raw: value}
	}
	return source, nil
}

// SetInputSource writes VCP feature 0x60. Verification is disabled because
// many displays stop answering on the old input right after the switch.
func (m *Monitor) SetInputSource(source monitor.InputSource) error {
	if !m.connected {
		return monitor.ErrNotConnected
	}

	args := m.busArgs("setvcp", fmt.Sprintf("%02x", monitor.InputSourceVCP), fmt.Sprintf("0x%02x", int(source)), "--noverify")
	if _, err := m.backend.invoke(args...); err != nil {
		return errors.Wrapf(err, "failed to set input source of %s to %s", m, source)
	}
	return nil
}

func (m *Monitor) busArgs(args ...string) []string {
	return append([]string{"--bus", strconv.Itoa(m.info.bus)}, args...)
}

// parseCapabilitiesOutput extracts the raw capability string from
// "ddcutil capabilities --verbose" output. Without it, the "Model:" line is used.
func parseCapabilitiesOutput(output string) (*monitor.Capabilities, error) {
	var model string
	hasModel := false

	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)

		switch strings.ToLower(strings.TrimSpace(key)) {
		case "unparsed capabilities string", "capabilities string":
			return monitor.ParseCapabilities(value)
		case "model":
			if !hasModel {
				model = value
				hasModel = true
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read capabilities output")
	}

	if !hasModel {
		return nil, errors.New("no capabilities string in ddcutil output")
	}
	return &monitor.Capabilities{
		Raw:    output,
		Model:  model,
		VCP:    map[int][]int{},
		Fields: map[string]string{"model": model},
	}, nil
}

// parseGetVCP parses "ddcutil getvcp --brief" output: "VCP 60 SNC x1b" for
// non-continuous features, "VCP 10 C 50 100" (current, max) for continuous ones.
func parseGetVCP(output string) (int, error) {
	fields := strings.Fields(strings.TrimSpace(output))
	if len(fields) < 4 || fields[0] != "VCP" {
		return 0, errors.Errorf("unexpected getvcp output %q", strings.TrimSpace(output))
	}
	if fields[2] == "ERR" {
		return 0, errors.Errorf("display reported an error for feature %s", fields[1])
	}

	var value int64
	var err error
	switch fields[2] {
	case "SNC":
		value, err = strconv.ParseInt(strings.TrimPrefix(fields[3], "x"), 16, 32)
	case "C":
		value, err = strconv.ParseInt(fields[3], 10, 32)
	default:
		return 0, errors.Errorf("unsupported feature type %q in getvcp output", fields[2])
	}
	if err != nil {
		return 0, errors.Errorf("invalid value %q in getvcp output", fields[3])
	}
	return int(value), nil
}
