package monitor

import (
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Capabilities is the parsed MCCS capability report of a display, e.g.
//
//	(prot(monitor)type(LCD)model(U2723QX)cmds(01 02 03)vcp(10 12 60(0F 11 1B))mccs_ver(2.1))
type Capabilities struct {
	Raw         string
	Protocol    string
	Type        string
	Model       string // empty when the display does not report one
	MCCSVersion string
	Commands    []int

	// VCP maps each supported feature code to its permitted values.
	// A nil slice means the display did not list values for the code.
	VCP map[int][]int

	// Fields holds every top-level entry verbatim, keyed by name
	Fields map[string]string

	// Malformed names the entries ("cmds", "vcp") that failed to parse and
	// were left empty
	Malformed []string
}

// ParseCapabilities parses an MCCS capability string. Only the overall
// key(value) structure must be valid; a malformed cmds or vcp entry is
// recorded in Malformed and leaves that field empty.
func ParseCapabilities(raw string) (*Capabilities, error) {
	body := strings.TrimSpace(raw)
	if body == "" {
		return nil, errors.New("empty capabilities string")
	}
	if strings.HasPrefix(body, "(") && matchingParen(body, 0) == len(body)-1 {
		body = body[1 : len(body)-1]
	}

	fields, err := splitFields(body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse capabilities")
	}

	caps := &Capabilities{
		Raw:         raw,
		Protocol:    fields["prot"],
		Type:        fields["type"],
		Model:       fields["model"],
		MCCSVersion: fields["mccs_ver"],
		Fields:      fields,
		VCP:         map[int][]int{},
	}

	if cmds, ok := fields["cmds"]; ok {
		commands, err := parseHexList(cmds)
		if err != nil {
			log.Debug().Err(err).Str("model", caps.Model).Msg("Ignoring malformed cmds")
			caps.Malformed = append(caps.Malformed, "cmds")
		} else {
			caps.Commands = commands
		}
	}

	if vcp, ok := fields["vcp"]; ok {
		codes, err := parseVCP(vcp)
		if err != nil {
			log.Debug().Err(err).Str("model", caps.Model).Msg("Ignoring malformed vcp")
			caps.Malformed = append(caps.Malformed, "vcp")
		} else {
			caps.VCP = codes
		}
	}

	return caps, nil
}

// InputSources returns the input sources the display lists for VCP 0x60, sorted
func (c *Capabilities) InputSources() []InputSource {
	values := c.VCP[InputSourceVCP]
	sources := make([]InputSource, 0, len(values))
	for _, v := range values {
		sources = append(sources, InputSource(v))
	}
	sort.Slice(sources, func(i, j int) bool { return sources[i] < sources[j] })
	return sources
}

// SupportsInputSource reports whether the input source feature is listed
func (c *Capabilities) SupportsInputSource() bool {
	_, ok := c.VCP[InputSourceVCP]
	return ok
}

// splitFields splits "key(value)key(value)" into a map. Values keep their
// nested parentheses.
func splitFields(s string) (map[string]string, error) {
	fields := make(map[string]string)
	i := 0
	for i < len(s) {
		for i < len(s) && (s[i] == ' ' || s[i] == '\t' || s[i] == '\n' || s[i] == '\r') {
			i++
		}
		if i >= len(s) {
			break
		}

		start := i
		for i < len(s) && s[i] != '(' {
			i++
		}
		if i >= len(s) {
			return nil, errors.Errorf("missing value for %q", strings.TrimSpace(s[start:]))
		}
		key := strings.ToLower(strings.TrimSpace(s[start:i]))

		end := matchingParen(s, i)
		if end < 0 {
			return nil, errors.Errorf("unbalanced parentheses in %q", key)
		}
		fields[key] = strings.TrimSpace(s[i+1 : end])
		i = end + 1
	}
	return fields, nil
}

// matchingParen returns the index of the parenthesis closing the one at
// open, or -1.
func matchingParen(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func parseHexList(s string) ([]int, error) {
	var values []int
	for _, tok := range strings.Fields(s) {
		v, err := strconv.ParseInt(tok, 16, 32)
		if err != nil {
			return nil, errors.Errorf("invalid hex value %q", tok)
		}
		values = append(values, int(v))
	}
	return values, nil
}

func parseVCP(s string) (map[int][]int, error) {
	vcp := make(map[int][]int)
	i := 0
	for i < len(s) {
		if s[i] == ' ' || s[i] == '\t' {
			i++
			continue
		}

		start := i
		for i < len(s) && s[i] != ' ' && s[i] != '\t' && s[i] != '(' {
			i++
		}
		code, err := strconv.ParseInt(s[start:i], 16, 32)
		if err != nil {
			return nil, errors.Errorf("invalid feature code %q", s[start:i])
		}

		j := i
		for j < len(s) && (s[j] == ' ' || s[j] == '\t') {
			j++
		}
		if j < len(s) && s[j] == '(' {
			end := matchingParen(s, j)
			if end < 0 {
				return nil, errors.Errorf("unbalanced values for feature %02X", code)
			}
			values, err := parseHexList(s[j+1 : end])
			if err != nil {
				return nil, errors.Wrapf(err, "feature %02X", code)
			}
			if values == nil {
				values = []int{}
			}
			vcp[int(code)] = values
			i = end + 1
			continue
		}
		vcp[int(code)] = nil
	}
	return vcp, nil
}
