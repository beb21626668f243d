package link

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// State is the supervisor's view of the wireless link.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// Config holds the supervisor's fixed-delay retry policy. There is no
// backoff growth and no attempt cap: an always-on client retries
// forever.
type Config struct {
	Credentials Credentials
	RetryDelay  time.Duration // after a failed connect attempt
	Quiescence  time.Duration // after a disconnect notification
}

func DefaultConfig() Config {
	return Config{
		RetryDelay: 5 * time.Second,
		Quiescence: 5 * time.Second,
	}
}

func (c Config) WithDefaults() Config {
	if c.RetryDelay <= 0 {
		c.RetryDelay = 5 * time.Second
	}
	if c.Quiescence <= 0 {
		c.Quiescence = 5 * time.Second
	}
	return c
}

// Supervisor owns the radio connection lifecycle. Failures are logged
// and retried; nothing here is ever fatal to the process.
type Supervisor struct {
	cfg   Config
	radio Radio
	state atomic.Int32
	log   zerolog.Logger
}

func NewSupervisor(cfg Config, radio Radio) *Supervisor {
	return &Supervisor{
		cfg:   cfg.WithDefaults(),
		radio: radio,
		log:   log.With().Str("component", "link").Logger(),
	}
}

// State reports the current link state.
func (s *Supervisor) State() State {
	return State(s.state.Load())
}

func (s *Supervisor) setState(st State) {
	s.state.Store(int32(st))
}

// Run drives the link until ctx is cancelled. While connected it parks
// on the disconnect notification; otherwise it ensures the radio is
// configured and started, then attempts a connection.
func (s *Supervisor) Run(ctx context.Context) error {
	s.log.Info().Str("capabilities", s.radio.Capabilities()).Msg("link supervisor started")
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if s.State() == StateConnected {
			if err := s.radio.WaitDisconnect(ctx); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				s.log.Warn().Err(err).Msg("disconnect wait failed")
			}
			s.setState(StateDisconnected)
			s.log.Warn().Msg("station disconnected")
			if err := sleep(ctx, s.cfg.Quiescence); err != nil {
				return err
			}
		}

		if err := s.ensureStarted(ctx); err != nil {
			s.log.Error().Err(err).Msg("radio start failed")
			if err := sleep(ctx, s.cfg.RetryDelay); err != nil {
				return err
			}
			continue
		}

		s.setState(StateConnecting)
		if err := s.radio.Connect(ctx); err != nil {
			s.setState(StateDisconnected)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.log.Error().Err(err).Msg("wifi connect failed")
			if err := sleep(ctx, s.cfg.RetryDelay); err != nil {
				return err
			}
			continue
		}
		s.setState(StateConnected)
		s.log.Info().Msg("wifi connected")
	}
}

func (s *Supervisor) ensureStarted(ctx context.Context) error {
	started, err := s.radio.IsStarted()
	if err != nil {
		return err
	}
	if started {
		return nil
	}
	if err := s.radio.Configure(s.cfg.Credentials); err != nil {
		return err
	}
	if err := s.radio.Start(ctx); err != nil {
		return err
	}
	s.log.Info().Msg("radio started")
	return nil
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
