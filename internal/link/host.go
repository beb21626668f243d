package link

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"
)

var ErrLinkDown = errors.New("link: interface down")

// HostNetStack reads readiness from the host's network interfaces. An
// empty interface name means "any non-loopback interface".
type HostNetStack struct {
	Interface string
}

func NewHostNetStack(iface string) *HostNetStack {
	return &HostNetStack{Interface: strings.TrimSpace(iface)}
}

func (h *HostNetStack) IsLinkUp() bool {
	ifaces, err := net.Interfaces()
	if err != nil {
		return false
	}
	for _, iface := range ifaces {
		if !h.matches(iface) {
			continue
		}
		if iface.Flags&net.FlagUp != 0 {
			return true
		}
	}
	return false
}

func (h *HostNetStack) IPv4Config() (IPv4Config, bool) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return IPv4Config{}, false
	}
	for _, iface := range ifaces {
		if !h.matches(iface) || iface.Flags&net.FlagUp == 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			ipNet, ok := addr.(*net.IPNet)
			if !ok {
				continue
			}
			ip4 := ipNet.IP.To4()
			if ip4 == nil || !ipNet.IP.IsGlobalUnicast() {
				continue
			}
			return IPv4Config{Address: ip4}, true
		}
	}
	return IPv4Config{}, false
}

func (h *HostNetStack) matches(iface net.Interface) bool {
	if iface.Flags&net.FlagLoopback != 0 {
		return false
	}
	if h.Interface == "" {
		return true
	}
	return iface.Name == h.Interface
}

// ManagedRadio satisfies Radio on hosts where the operating system owns
// the Wi-Fi association. Start and Configure are no-ops, Connect
// succeeds once the stack reports link-up, and WaitDisconnect watches
// for the link to drop.
type ManagedRadio struct {
	stack NetStack
	poll  time.Duration
}

func NewManagedRadio(stack NetStack, poll time.Duration) *ManagedRadio {
	if poll <= 0 {
		poll = DefaultPollInterval
	}
	return &ManagedRadio{stack: stack, poll: poll}
}

func (r *ManagedRadio) IsStarted() (bool, error) {
	return true, nil
}

func (r *ManagedRadio) Configure(Credentials) error {
	return nil
}

func (r *ManagedRadio) Start(context.Context) error {
	return nil
}

func (r *ManagedRadio) Connect(ctx context.Context) error {
	if r.stack.IsLinkUp() {
		return nil
	}
	return fmt.Errorf("%w: association managed by host", ErrLinkDown)
}

func (r *ManagedRadio) WaitDisconnect(ctx context.Context) error {
	for r.stack.IsLinkUp() {
		if err := sleep(ctx, r.poll); err != nil {
			return err
		}
	}
	return nil
}

func (r *ManagedRadio) Capabilities() string {
	return "host-managed station"
}
