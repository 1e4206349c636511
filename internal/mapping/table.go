package mapping

import (
	"os"
	"sort"

	"github.com/display-toggle/display-toggle/pkg/monitor"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// PrimarySource is the default input every display returns to. On the
// supported Dell panels it is the USB-C input, which MCCS leaves unnamed.
const PrimarySource = monitor.InputSource(27)

// Table maps display models to their alternate input source. A model
// without an entry never switches.
type Table struct {
	Primary    monitor.InputSource
	alternates map[string]monitor.InputSource
}

// Default returns the built-in table
func Default() *Table {
	return &Table{
		Primary: PrimarySource,
		alternates: map[string]monitor.InputSource{
			"U2723QX": monitor.DP1,
			"P3223QE": monitor.HDMI1,
		},
	}
}

// Alternate returns the alternate source of a model
func (t *Table) Alternate(model string) (monitor.InputSource, bool) {
	source, ok := t.alternates[model]
	return source, ok
}

// Set adds or replaces the alternate source of a model
func (t *Table) Set(model string, source monitor.InputSource) {
	t.alternates[model] = source
}

// Models returns the models with an alternate source, sorted
func (t *Table) Models() []string {
	models := make([]string, 0, len(t.alternates))
	for model := range t.alternates {
		models = append(models, model)
	}
	sort.Strings(models)
	return models
}

// file is the on-disk override format:
//
//	primary: 27
//	alternates:
//	  U2723QX: DP1
//	  P3223QE: HDMI1
type file struct {
	Primary    *sourceValue           `yaml:"primary"`
	Alternates map[string]sourceValue `yaml:"alternates"`
}

type sourceValue monitor.InputSource

func (v *sourceValue) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return errors.Errorf("line %d: input source must be a scalar", node.Line)
	}
	source, err := monitor.ParseInputSource(node.Value)
	if err != nil {
		return errors.Wrapf(err, "line %d", node.Line)
	}
	*v = sourceValue(source)
	return nil
}

// Load returns the built-in table merged with the overrides in path.
// A missing file is not an error, just no overrides.
func Load(path string) (*Table, error) {
	table := Default()
	if path == "" {
		return table, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return table, nil
		}
		return nil, errors.Wrapf(err, "failed to read sources file %s", path)
	}

	if err := table.merge(data); err != nil {
		return nil, errors.Wrapf(err, "failed to parse sources file %s", path)
	}
	return table, nil
}

func (t *Table) merge(data []byte) error {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return err
	}

	if f.Primary != nil {
		t.Primary = monitor.InputSource(*f.Primary)
	}
	for model, source := range f.Alternates {
		t.Set(model, monitor.InputSource(source))
	}
	return t.validate()
}

// validate rejects entries whose alternate is the primary source; such a
// display could never be toggled.
func (t *Table) validate() error {
	for _, model := range t.Models() {
		if t.alternates[model] == t.Primary {
			return errors.Errorf("alternate source of %s equals the primary source %s", model, t.Primary)
		}
	}
	return nil
}
