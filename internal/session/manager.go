package session

import (
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/curtainlabs/curtainctl/internal/actuator"
	"github.com/curtainlabs/curtainctl/internal/protocol"
	"github.com/curtainlabs/curtainctl/internal/protocol/frame"
)

var (
	ErrAddressRequired = errors.New("session: controller address required")
	ErrUUIDRequired    = errors.New("session: client uuid required")
)

// Dialer acquires one transport to the controller.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Manager owns the controller session lifecycle. Exactly one session
// is active at a time; the device state cache lives on the manager and
// is untouched by reconnects.
type Manager struct {
	cfg      Config
	dialer   Dialer
	dispatch *dispatcher
	log      zerolog.Logger
}

func NewManager(cfg Config, act actuator.Actuator) (*Manager, error) {
	cfg = cfg.WithDefaults()
	if strings.TrimSpace(cfg.Address) == "" {
		return nil, ErrAddressRequired
	}
	if strings.TrimSpace(cfg.UUID) == "" {
		return nil, ErrUUIDRequired
	}
	if act == nil {
		act = actuator.Noop{}
	}
	dialer := cfg.Dialer
	if dialer == nil {
		dialer = &net.Dialer{Timeout: cfg.ConnectTimeout}
	}
	return &Manager{
		cfg:      cfg,
		dialer:   dialer,
		dispatch: newDispatcher(act),
		log:      log.With().Str("component", "session").Logger(),
	}, nil
}

// Setpoint reports the cached actuator target.
func (m *Manager) Setpoint() uint8 {
	return m.dispatch.state.setpoint
}

// Run drives connection attempts until ctx is cancelled. Every exit
// from a session, whatever the cause, funnels into the same reconnect
// delay.
func (m *Manager) Run(ctx context.Context) error {
	for {
		if err := sleep(ctx, m.cfg.AttemptDelay); err != nil {
			return err
		}

		conn, err := m.dialer.DialContext(ctx, "tcp", m.cfg.Address)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			m.log.Warn().Err(err).Str("addr", m.cfg.Address).Msg("connect failed")
			if err := sleep(ctx, m.cfg.ReconnectDelay); err != nil {
				return err
			}
			continue
		}

		m.log.Info().Str("addr", m.cfg.Address).Msg("connected")
		m.runSession(ctx, conn)
		_ = conn.Close()

		if err := sleep(ctx, m.cfg.ReconnectDelay); err != nil {
			return err
		}
	}
}

func (m *Manager) runSession(ctx context.Context, conn net.Conn) {
	// a cancelled ctx unblocks the idle read by closing the transport
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	if err := m.register(conn); err != nil {
		m.log.Error().Err(err).Msg("register failed")
		return
	}
	m.serve(ctx, conn)
}

// register sends the one self-identifying message of this session.
func (m *Manager) register(conn net.Conn) error {
	payload, err := protocol.EncodeRegister(m.cfg.UUID)
	if err != nil {
		return err
	}
	m.log.Debug().Str("line", lineForLog(payload)).Msg("tx")
	if _, err := conn.Write(payload); err != nil {
		return err
	}
	m.log.Info().Msg("sent register")
	return nil
}

// serve reads transport bytes into the framer and answers completed
// lines until the session dies. Buffers are owned here, per session,
// and never shared.
func (m *Manager) serve(ctx context.Context, conn net.Conn) {
	framer := frame.New(m.cfg.LineCapacity)
	chunk := make([]byte, m.cfg.ChunkSize)

	for {
		n, err := conn.Read(chunk)
		if err != nil {
			if errors.Is(err, io.EOF) {
				m.log.Info().Msg("controller closed connection")
			} else if ctx.Err() == nil {
				m.log.Warn().Err(err).Msg("read error")
			}
			return
		}
		m.log.Trace().Int("bytes", n).Msg("rx chunk")

		for _, line := range framer.Feed(chunk[:n]) {
			m.log.Debug().Str("line", line).Msg("rx")
			resp, ok := m.dispatch.dispatch(ctx, line)
			if !ok {
				continue
			}
			payload, err := protocol.EncodeResponse(resp)
			if err != nil {
				m.log.Error().Err(err).Msg("encode response")
				continue
			}
			m.log.Debug().Str("line", lineForLog(payload)).Msg("tx")
			if _, err := conn.Write(payload); err != nil {
				// a failed response write poisons ordering; drop the
				// session and let the controller re-request state
				m.log.Warn().Err(err).Msg("write error, closing session")
				return
			}
		}
	}
}

func lineForLog(payload []byte) string {
	return strings.TrimSuffix(string(payload), "\n")
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
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
