package session

import (
	"time"

	"github.com/curtainlabs/curtainctl/internal/protocol/frame"
)

// Config defines the controller endpoint, the client identity, and the
// fixed retry policy. Delays are deliberately constant, not backed off:
// the client is the only consumer of its controller and a steady retry
// cadence is the wanted behavior.
type Config struct {
	Address string // controller host:port
	UUID    string // static identity token

	AttemptDelay   time.Duration // before every connect attempt
	ReconnectDelay time.Duration // after a failed connect or a dead session
	ConnectTimeout time.Duration

	LineCapacity int // line framer bound
	ChunkSize    int // transport read chunk

	// Dialer overrides transport acquisition; nil means a net.Dialer
	// with ConnectTimeout.
	Dialer Dialer
}

func DefaultConfig() Config {
	return Config{
		AttemptDelay:   1 * time.Second,
		ReconnectDelay: 2 * time.Second,
		ConnectTimeout: 5 * time.Second,
		LineCapacity:   frame.DefaultCapacity,
		ChunkSize:      128,
	}
}

func (c Config) WithDefaults() Config {
	def := DefaultConfig()
	if c.AttemptDelay <= 0 {
		c.AttemptDelay = def.AttemptDelay
	}
	if c.ReconnectDelay <= 0 {
		c.ReconnectDelay = def.ReconnectDelay
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = def.ConnectTimeout
	}
	if c.LineCapacity <= 0 {
		c.LineCapacity = def.LineCapacity
	}
	if c.ChunkSize <= 0 {
		c.ChunkSize = def.ChunkSize
	}
	return c
}
