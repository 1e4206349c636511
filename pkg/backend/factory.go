package backend

import (
	"path/filepath"
	"time"

	"github.com/display-toggle/display-toggle/pkg/integrations/ddcutil"
	"github.com/display-toggle/display-toggle/pkg/monitor"
	"github.com/pkg/errors"
)

// i2cDevices matches the character devices created by the i2c-dev kernel module
var i2cDevices = "/dev/i2c-*"

// New returns the first available display control backend
func New(command string, timeout time.Duration) (monitor.Enumerator, error) {
	return Select(ddcutil.NewBackend(command, timeout))
}

// Select returns the first backend that reports itself available
func Select(candidates ...monitor.Enumerator) (monitor.Enumerator, error) {
	var names []string
	for _, c := range candidates {
		if c.IsAvailable() {
			return c, nil
		}
		names = append(names, c.Name())
	}

	if !HasI2CDevices() {
		return nil, errors.Errorf("no display control backend available (tried %v); no %s devices, is the i2c-dev module loaded?", names, i2cDevices)
	}
	return nil, errors.Errorf("no display control backend available (tried %v)", names)
}

// HasI2CDevices reports whether any I2C character device exists
func HasI2CDevices() bool {
	matches, err := filepath.Glob(i2cDevices)
	return err == nil && len(matches) > 0
}
