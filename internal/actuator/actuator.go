// Package actuator mediates access to the physical curtain drive. The
// calibration cycle is an opaque capability: callers trigger it and
// await completion, the hardware owns duration and motion.
package actuator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrUnknownDriver     = errors.New("actuator: unknown driver")
	ErrCalibrateTimeout  = errors.New("actuator: calibration did not complete in time")
	ErrEndpointRequired  = errors.New("actuator: modbus endpoint required")
	ErrSerialPortMissing = errors.New("actuator: serial port required")
)

// Actuator is the calibration capability the dispatcher awaits.
type Actuator interface {
	Calibrate(ctx context.Context) error
}

// DefaultNoopDelay matches the reference firmware's placeholder cycle.
const DefaultNoopDelay = 200 * time.Millisecond

// Noop stands in for hardware that is not wired up. It burns a fixed
// delay so the serve loop still sees a realistic await.
type Noop struct {
	Delay time.Duration
}

func (n Noop) Calibrate(ctx context.Context) error {
	d := n.Delay
	if d <= 0 {
		d = DefaultNoopDelay
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Config selects and parameterizes the concrete driver.
type Config struct {
	Driver string // noop | modbus | serial
	Modbus ModbusConfig
	Serial SerialConfig
}

func DefaultConfig() Config {
	return Config{
		Driver: "noop",
		Modbus: DefaultModbusConfig(),
		Serial: DefaultSerialConfig(),
	}
}

// New builds the configured driver. An empty driver name means the
// no-op stub.
func New(cfg Config) (Actuator, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", "noop":
		return Noop{}, nil
	case "modbus":
		return NewModbus(cfg.Modbus)
	case "serial":
		return NewSerial(cfg.Serial)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}
