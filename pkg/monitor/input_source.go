package monitor

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// InputSource is a value of the MCCS "Input Source" VCP feature (0x60)
type InputSource int

// Named MCCS input sources.
const (
	Off        InputSource = 0x00
	Analog1    InputSource = 0x01
	Analog2    InputSource = 0x02
	DVI1       InputSource = 0x03
	DVI2       InputSource = 0x04
	Composite1 InputSource = 0x05
	Composite2 InputSource = 0x06
	SVideo1    InputSource = 0x07
	SVideo2    InputSource = 0x08
	Tuner1     InputSource = 0x09
	Tuner2     InputSource = 0x0A
	Tuner3     InputSource = 0x0B
	Component1 InputSource = 0x0C
	Component2 InputSource = 0x0D
	Component3 InputSource = 0x0E
	DP1        InputSource = 0x0F
	DP2        InputSource = 0x10
	HDMI1      InputSource = 0x11
	HDMI2      InputSource = 0x12
)

// InputSourceVCP is the VCP feature code of the input source
const InputSourceVCP = 0x60

var sourceNames = map[InputSource]string{
	Off:        "OFF",
	Analog1:    "ANALOG1",
	Analog2:    "ANALOG2",
	DVI1:       "DVI1",
	DVI2:       "DVI2",
	Composite1: "COMPOSITE1",
	Composite2: "COMPOSITE2",
	SVideo1:    "SVIDEO1",
	SVideo2:    "SVIDEO2",
	Tuner1:     "TUNER1",
	Tuner2:     "TUNER2",
	Tuner3:     "TUNER3",
	Component1: "COMPONENT1",
	Component2: "COMPONENT2",
	Component3: "COMPONENT3",
	DP1:        "DP1",
	DP2:        "DP2",
	HDMI1:      "HDMI1",
	HDMI2:      "HDMI2",
}

// IsNamed reports whether s is one of the MCCS named input sources
func (s InputSource) IsNamed() bool {
	_, ok := sourceNames[s]
	return ok
}

// String returns the MCCS name, or the decimal value for unnamed sources
func (s InputSource) String() string {
	if name, ok := sourceNames[s]; ok {
		return name
	}
	return strconv.Itoa(int(s))
}

// ParseInputSource parses a source name ("DP1", "hdmi1"), a decimal value
// ("27") or a hex value ("0x1b").
func ParseInputSource(s string) (InputSource, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("empty input source")
	}

	upper := strings.ToUpper(s)
	for source, name := range sourceNames {
		if name == upper {
			return source, nil
		}
	}

	value, err := strconv.ParseInt(s, 0, 32)
	if err != nil {
		return 0, errors.Errorf("invalid input source %q", s)
	}
	if value < 0 || value > 0xFFFF {
		return 0, errors.Errorf("input source %q out of range", s)
	}
	return InputSource(value), nil
}

// UnreadableSourceError reports a current input source the backend could not
// represent as a named source. Raw carries the value read from the display.
// Many panels report USB-C this way.
type UnreadableSourceError struct {
	Raw int
}

func (e *UnreadableSourceError) Error() string {
	return fmt.Sprintf("input source value %d (0x%02x) is not a named source", e.Raw, e.Raw)
}
