package actuator

import (
	"context"
	"encoding/binary"
	"fmt"
	"strings"
	"sync"
	"time"

	mb "github.com/goburrow/modbus"
	"github.com/rs/zerolog/log"
)

// coilOn is the Modbus FC5 "force coil on" payload value.
const coilOn uint16 = 0xFF00

// ModbusConfig describes a drive controller reachable over Modbus.
// Calibration is one coil write to start the homing cycle, then a poll
// of a busy register until it reads zero.
type ModbusConfig struct {
	Protocol string // tcp | rtu
	Endpoint string // host:port, tcp only

	// rtu line settings
	SerialPort string
	BaudRate   int
	DataBits   int
	StopBits   int
	Parity     string

	SlaveID      uint8
	Timeout      time.Duration
	TriggerCoil  uint16
	BusyRegister uint16
	PollInterval time.Duration
	MaxWait      time.Duration
}

func DefaultModbusConfig() ModbusConfig {
	return ModbusConfig{
		Protocol:     "tcp",
		SlaveID:      1,
		Timeout:      5 * time.Second,
		TriggerCoil:  0,
		BusyRegister: 0,
		PollInterval: 250 * time.Millisecond,
		MaxWait:      60 * time.Second,
	}
}

// handlerWithConn is the slice of mb.ClientHandler lifecycle we drive.
type handlerWithConn interface {
	mb.ClientHandler
	Connect() error
	Close() error
}

// modbusClient is the request surface Calibrate needs; narrowed from
// mb.Client so tests can fake it.
type modbusClient interface {
	WriteSingleCoil(address, value uint16) ([]byte, error)
	ReadHoldingRegisters(address, quantity uint16) ([]byte, error)
}

// ModbusActuator serializes calibration cycles over one Modbus
// connection. The mutex is held for the whole cycle; overlapping
// calibrations make no sense against a single drive.
type ModbusActuator struct {
	mu      sync.Mutex
	cfg     ModbusConfig
	handler handlerWithConn
	client  modbusClient
}

func NewModbus(cfg ModbusConfig) (*ModbusActuator, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 250 * time.Millisecond
	}
	if cfg.MaxWait <= 0 {
		cfg.MaxWait = 60 * time.Second
	}

	h, err := newModbusHandler(cfg)
	if err != nil {
		return nil, err
	}
	if err := h.Connect(); err != nil {
		return nil, fmt.Errorf("actuator: modbus connect: %w", err)
	}
	return &ModbusActuator{
		cfg:     cfg,
		handler: h,
		client:  mb.NewClient(h),
	}, nil
}

func newModbusHandler(cfg ModbusConfig) (handlerWithConn, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Protocol)) {
	case "", "tcp", "modbus-tcp":
		if strings.TrimSpace(cfg.Endpoint) == "" {
			return nil, ErrEndpointRequired
		}
		h := mb.NewTCPClientHandler(cfg.Endpoint)
		h.Timeout = cfg.Timeout
		h.SlaveId = cfg.SlaveID
		return h, nil
	case "rtu", "modbus-rtu":
		if strings.TrimSpace(cfg.SerialPort) == "" {
			return nil, ErrSerialPortMissing
		}
		h := mb.NewRTUClientHandler(cfg.SerialPort)
		if cfg.BaudRate > 0 {
			h.BaudRate = cfg.BaudRate
		}
		if cfg.DataBits > 0 {
			h.DataBits = cfg.DataBits
		}
		if cfg.StopBits > 0 {
			h.StopBits = cfg.StopBits
		}
		if p := strings.ToUpper(strings.TrimSpace(cfg.Parity)); p != "" {
			h.Parity = p
		}
		h.Timeout = cfg.Timeout
		h.SlaveId = cfg.SlaveID
		return h, nil
	default:
		return nil, fmt.Errorf("actuator: modbus protocol %q not implemented", cfg.Protocol)
	}
}

func (a *ModbusActuator) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.handler == nil {
		return nil
	}
	return a.handler.Close()
}

// Calibrate forces the trigger coil on and polls the busy register
// until the drive reports idle again.
func (a *ModbusActuator) Calibrate(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, err := a.client.WriteSingleCoil(a.cfg.TriggerCoil, coilOn); err != nil {
		return fmt.Errorf("actuator: trigger calibration: %w", err)
	}
	log.Debug().Uint16("coil", a.cfg.TriggerCoil).Msg("calibration cycle triggered")

	deadline := time.Now().Add(a.cfg.MaxWait)
	for {
		regs, err := a.client.ReadHoldingRegisters(a.cfg.BusyRegister, 1)
		if err != nil {
			return fmt.Errorf("actuator: poll busy register: %w", err)
		}
		if len(regs) >= 2 && binary.BigEndian.Uint16(regs) == 0 {
			return nil
		}
		if time.Now().After(deadline) {
			return ErrCalibrateTimeout
		}
		timer := time.NewTimer(a.cfg.PollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
