package ddcutil

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/display-toggle/display-toggle/pkg/monitor"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// DefaultCommand is the ddcutil binary looked up in PATH
const DefaultCommand = "ddcutil"

// runner executes a command and returns its standard output
type runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Backend implements monitor.Enumerator on top of the ddcutil CLI
type Backend struct {
	command    string
	timeout    time.Duration
	run        runner
	hasDdcutil bool
}

// NewBackend creates a ddcutil backend. Every ddcutil invocation is bounded
// by timeout.
func NewBackend(command string, timeout time.Duration) *Backend {
	if command == "" {
		command = DefaultCommand
	}
	b := &Backend{
		command: command,
		timeout: timeout,
		run:     runCommand,
	}
	b.hasDdcutil = b.commandExists(command)
	return b
}

// commandExists checks if a command is available in PATH
func (b *Backend) commandExists(cmd string) bool {
	_, err := exec.LookPath(cmd)
	return err == nil
}

// IsAvailable checks if ddcutil can be used
func (b *Backend) IsAvailable() bool {
	return b.hasDdcutil
}

// Name returns "ddcutil"
func (b *Backend) Name() string {
	return "ddcutil"
}

// Monitors lists the displays ddcutil reports as valid, in ddcutil order
func (b *Backend) Monitors() ([]monitor.Monitor, error) {
	if !b.hasDdcutil {
		return nil, errors.Errorf("%s not found in PATH", b.command)
	}

	output, err := b.invoke("detect", "--brief")
	if err != nil {
		return nil, errors.Wrap(err, "failed to detect displays")
	}

	found, err := parseDetect(string(output))
	if err != nil {
		return nil, err
	}

	monitors := make([]monitor.Monitor, 0, len(found))
	for _, d := range found {
		log.Debug().Int("display", d.number).Int("bus", d.bus).Str("monitor", d.description).Msg("Detected display")
		monitors = append(monitors, &Monitor{backend: b, info: d})
	}
	return monitors, nil
}

func (b *Backend) invoke(args ...string) ([]byte, error) {
	ctx := context.Background()
	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}

	log.Trace().Str("command", b.command).Strs("args", args).Msg("Running")
	output, err := b.run(ctx, b.command, args...)
	if ctx.Err() == context.DeadlineExceeded {
		return nil, errors.Errorf("%s %s timed out after %v", b.command, strings.Join(args, " "), b.timeout)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "%s %s", b.command, strings.Join(args, " "))
	}
	log.Trace().Str("output", string(output)).Msg("Finished")
	return output, nil
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	output, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%w: %s", err, msg)
		}
		return nil, err
	}
	return output, nil
}

// displayInfo is one valid display from "ddcutil detect --brief"
type displayInfo struct {
	number      int
	bus         int
	connector   string
	description string
}

// parseDetect parses "ddcutil detect --brief" output. Blocks headed
// "Invalid display" are skipped.
func parseDetect(output string) ([]displayInfo, error) {
	var displays []displayInfo
	var current *displayInfo

	flush := func() error {
		if current == nil {
			return nil
		}
		if current.bus < 0 {
			return errors.Errorf("display %d has no I2C bus", current.number)
		}
		displays = append(displays, *current)
		current = nil
		return nil
	}

	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)

		if trimmed == "" || line[0] != ' ' && line[0] != '\t' {
			if err := flush(); err != nil {
				return nil, err
			}
			if strings.HasPrefix(trimmed, "Display ") {
				n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(trimmed, "Display ")))
				if err != nil {
					return nil, errors.Errorf("invalid display header %q", trimmed)
				}
				current = &displayInfo{number: n, bus: -1}
			}
			continue
		}

		if current == nil {
			continue
		}

		key, value, ok := strings.Cut(trimmed, ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		switch strings.TrimSpace(key) {
		case "I2C bus":
			idx := strings.LastIndex(value, "i2c-")
			if idx < 0 {
				return nil, errors.Errorf("invalid I2C bus %q", value)
			}
			bus, err := strconv.Atoi(value[idx+len("i2c-"):])
			if err != nil {
				return nil, errors.Errorf("invalid I2C bus %q", value)
			}
			current.bus = bus
		case "DRM connector":
			current.connector = value
		case "Monitor":
			current.description = value
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read detect output")
	}
	if err := flush(); err != nil {
		return nil, err
	}

	return displays, nil
}
