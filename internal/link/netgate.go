package link

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultPollInterval paces the readiness gate. Polling is fine here;
// the gate runs once at startup, not in the hot path.
const DefaultPollInterval = 500 * time.Millisecond

// WaitReady blocks until the link layer is up and an IPv4 address has
// been assigned, or ctx is cancelled.
func WaitReady(ctx context.Context, stack NetStack, poll time.Duration) error {
	if poll <= 0 {
		poll = DefaultPollInterval
	}

	for !stack.IsLinkUp() {
		if err := sleep(ctx, poll); err != nil {
			return err
		}
	}

	log.Info().Msg("waiting to get IP address")
	for {
		if cfg, ok := stack.IPv4Config(); ok {
			log.Info().Str("ip", cfg.Address.String()).Msg("got IP")
			return nil
		}
		if err := sleep(ctx, poll); err != nil {
			return err
		}
	}
}
