package link

import (
	"context"
	"net"
)

// Credentials configures the station association.
type Credentials struct {
	SSID     string
	Password string
}

// Radio is the wireless driver contract the supervisor drives.
type Radio interface {
	IsStarted() (bool, error)
	Configure(creds Credentials) error
	Start(ctx context.Context) error
	Connect(ctx context.Context) error
	// WaitDisconnect blocks until the station drops or ctx is
	// cancelled.
	WaitDisconnect(ctx context.Context) error
	// Capabilities returns a human-readable diagnostic summary.
	Capabilities() string
}

// IPv4Config is the assigned address a ready stack reports.
type IPv4Config struct {
	Address net.IP
}

// NetStack reports link-layer and address readiness.
type NetStack interface {
	IsLinkUp() bool
	IPv4Config() (IPv4Config, bool)
}
