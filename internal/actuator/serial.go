package actuator

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tarm/serial"
)

// calibrateOp is the drive board's homing command mnemonic.
var calibrateOp = []byte("CAL")

// doneByte is the single status byte the board emits when the homing
// cycle finishes.
const doneByte = 'D'

// SerialConfig describes a drive board on a raw UART line. The board
// speaks CR-terminated commands framed with a CRC16 trailer.
type SerialConfig struct {
	Port        string
	Baud        int
	UnitID      int
	ReadTimeout time.Duration
	MaxWait     time.Duration
}

func DefaultSerialConfig() SerialConfig {
	return SerialConfig{
		Baud:        115200,
		UnitID:      1,
		ReadTimeout: 300 * time.Millisecond,
		MaxWait:     60 * time.Second,
	}
}

// SerialActuator drives one UART-attached curtain controller board.
type SerialActuator struct {
	mu   sync.Mutex
	cfg  SerialConfig
	port io.ReadWriteCloser
}

func NewSerial(cfg SerialConfig) (*SerialActuator, error) {
	if cfg.Port == "" {
		return nil, ErrSerialPortMissing
	}
	if cfg.Baud <= 0 {
		cfg.Baud = 115200
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 300 * time.Millisecond
	}
	if cfg.MaxWait <= 0 {
		cfg.MaxWait = 60 * time.Second
	}

	port, err := serial.OpenPort(&serial.Config{
		Name:        cfg.Port,
		Baud:        cfg.Baud,
		Parity:      serial.ParityNone,
		Size:        8,
		StopBits:    serial.Stop1,
		ReadTimeout: cfg.ReadTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("actuator: open serial port: %w", err)
	}
	return &SerialActuator{cfg: cfg, port: port}, nil
}

func (a *SerialActuator) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.port == nil {
		return nil
	}
	return a.port.Close()
}

// Calibrate writes the framed homing command and waits for the board's
// done byte. The serial read timeout paces the wait loop.
func (a *SerialActuator) Calibrate(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	cmd := frameCommand(a.cfg.UnitID, calibrateOp)
	if _, err := a.port.Write(cmd); err != nil {
		return fmt.Errorf("actuator: write calibrate command: %w", err)
	}
	log.Debug().Int("unit", a.cfg.UnitID).Msg("calibrate command written")

	deadline := time.Now().Add(a.cfg.MaxWait)
	buf := make([]byte, 16)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := a.port.Read(buf)
		if err != nil && err != io.EOF {
			return fmt.Errorf("actuator: read calibrate status: %w", err)
		}
		for _, b := range buf[:n] {
			if b == doneByte {
				return nil
			}
		}
		if time.Now().After(deadline) {
			return ErrCalibrateTimeout
		}
	}
}

// frameCommand builds "0<unit><op><crc16>\r", the board's command
// framing.
func frameCommand(unit int, op []byte) []byte {
	cmd := []byte{'0', byte(unit + '0')}
	cmd = append(cmd, op...)
	cmd = append(cmd, crc16(cmd)...)
	return append(cmd, '\r')
}

func crc16(data []byte) []byte {
	cs := uint16(0)
	for _, b := range data {
		cs ^= uint16(b) << 8
		for i := 0; i < 8; i++ {
			carry := cs & 0x8000
			if carry != 0 {
				cs ^= 0x8810
			}
			cs = (cs << 1) + (carry >> 15)
		}
	}
	buf := make([]byte, 2)
	binary.BigEndian.PutUint16(buf, cs)
	return buf
}
