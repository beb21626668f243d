package session

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/curtainlabs/curtainctl/internal/actuator"
	"github.com/curtainlabs/curtainctl/internal/protocol"
)

// deviceState is the single cached actuator target. It belongs to the
// manager, not to one session, so it survives reconnects. Only a fully
// validated set_value mutates it.
type deviceState struct {
	setpoint uint8
}

type dispatcher struct {
	state deviceState
	act   actuator.Actuator
	log   zerolog.Logger
}

func newDispatcher(act actuator.Actuator) *dispatcher {
	return &dispatcher{
		act: act,
		log: log.With().Str("component", "dispatch").Logger(),
	}
}

// dispatch applies one complete line against the device state. The
// bool reports whether a response must be written; malformed and
// unaddressable input yield none, by protocol contract.
func (d *dispatcher) dispatch(ctx context.Context, line string) (protocol.Response, bool) {
	cmd, err := protocol.ParseCommand(line)
	if err != nil {
		// robustness over strictness: a bad line gets no feedback
		d.log.Debug().Err(err).Msg("dropping unparseable line")
		return protocol.Response{}, false
	}

	switch cmd.Kind {
	case protocol.KindSetValue:
		return d.setValue(cmd)
	case protocol.KindGetValue:
		return d.getValue(cmd)
	case protocol.KindCalibrate:
		return d.calibrate(ctx, cmd)
	default:
		return protocol.Response{}, false
	}
}

func (d *dispatcher) setValue(cmd protocol.Command) (protocol.Response, bool) {
	if cmd.ID == nil {
		// no id, no way to correlate an error
		return protocol.Response{}, false
	}
	id := *cmd.ID
	if cmd.Value == nil {
		return protocol.NewError(id, "missing value"), true
	}
	v := *cmd.Value
	if v > protocol.MaxSetpoint {
		return protocol.NewError(id, "value out of range 0..100"), true
	}
	d.state.setpoint = uint8(v) // narrow only after the range check
	d.log.Info().Uint32("id", id).Uint32("value", v).Msg("set_value")
	return protocol.NewAck(id), true
}

func (d *dispatcher) getValue(cmd protocol.Command) (protocol.Response, bool) {
	if cmd.ID == nil {
		return protocol.Response{}, false
	}
	d.log.Info().Uint32("id", *cmd.ID).Uint8("value", d.state.setpoint).Msg("get_value")
	return protocol.NewValue(*cmd.ID, d.state.setpoint), true
}

// calibrate awaits the actuator; the serve loop reads no further bytes
// until it resolves, so commands stay strictly serialized.
func (d *dispatcher) calibrate(ctx context.Context, cmd protocol.Command) (protocol.Response, bool) {
	if cmd.ID == nil {
		return protocol.Response{}, false
	}
	id := *cmd.ID
	d.log.Info().Uint32("id", id).Msg("calibrate start")
	if err := d.act.Calibrate(ctx); err != nil {
		d.log.Error().Err(err).Uint32("id", id).Msg("calibrate failed")
		return protocol.NewError(id, "calibration failed"), true
	}
	d.log.Info().Uint32("id", id).Msg("calibrate done")
	return protocol.NewAck(id), true
}
