package session

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/curtainlabs/curtainctl/internal/protocol"
	"github.com/curtainlabs/curtainctl/internal/testutil/testlog"
)

type fakeActuator struct {
	calls int
	err   error
}

func (f *fakeActuator) Calibrate(ctx context.Context) error {
	f.calls++
	return f.err
}

func encode(t *testing.T, resp protocol.Response) string {
	t.Helper()
	payload, err := protocol.EncodeResponse(resp)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	return string(payload)
}

func TestDispatchSetThenGet(t *testing.T) {
	testlog.Start(t)
	d := newDispatcher(&fakeActuator{})
	ctx := context.Background()

	resp, ok := d.dispatch(ctx, `{"type":"set_value","id":7,"value":42}`)
	if !ok {
		t.Fatal("expected an ack")
	}
	if got := encode(t, resp); got != `{"type":"ack","id":7,"ok":true}`+"\n" {
		t.Fatalf("ack wire mismatch: %q", got)
	}
	if d.state.setpoint != 42 {
		t.Fatalf("setpoint: %d", d.state.setpoint)
	}

	resp, ok = d.dispatch(ctx, `{"type":"get_value","id":8}`)
	if !ok {
		t.Fatal("expected a value response")
	}
	if got := encode(t, resp); got != `{"type":"value","id":8,"value":42}`+"\n" {
		t.Fatalf("value wire mismatch: %q", got)
	}
}

func TestDispatchSetValueBoundaries(t *testing.T) {
	testlog.Start(t)
	d := newDispatcher(&fakeActuator{})
	ctx := context.Background()

	for _, v := range []uint32{0, 100} {
		line := `{"type":"set_value","id":1,"value":` + strconv.Itoa(int(v)) + `}`
		if _, ok := d.dispatch(ctx, line); !ok {
			t.Fatalf("value %d rejected", v)
		}
		if d.state.setpoint != uint8(v) {
			t.Fatalf("setpoint after %d: %d", v, d.state.setpoint)
		}
	}
}

func TestDispatchSetValueOutOfRangeLeavesState(t *testing.T) {
	testlog.Start(t)
	d := newDispatcher(&fakeActuator{})
	ctx := context.Background()

	d.dispatch(ctx, `{"type":"set_value","id":1,"value":42}`)
	resp, ok := d.dispatch(ctx, `{"type":"set_value","id":9,"value":250}`)
	if !ok {
		t.Fatal("expected an error response")
	}
	if got := encode(t, resp); got != `{"type":"error","id":9,"message":"value out of range 0..100"}`+"\n" {
		t.Fatalf("error wire mismatch: %q", got)
	}
	if d.state.setpoint != 42 {
		t.Fatalf("state mutated on rejected set: %d", d.state.setpoint)
	}

	resp, _ = d.dispatch(ctx, `{"type":"get_value","id":10}`)
	if resp.Value == nil || *resp.Value != 42 {
		t.Fatalf("get after rejected set: %+v", resp)
	}
}

func TestDispatchSetValueMissingValue(t *testing.T) {
	testlog.Start(t)
	d := newDispatcher(&fakeActuator{})

	resp, ok := d.dispatch(context.Background(), `{"type":"set_value","id":3}`)
	if !ok {
		t.Fatal("expected an error response")
	}
	if resp.Type != "error" || resp.ID != 3 || resp.Message != "missing value" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if d.state.setpoint != 0 {
		t.Fatalf("state mutated: %d", d.state.setpoint)
	}
}

func TestDispatchMissingIDYieldsNoResponse(t *testing.T) {
	testlog.Start(t)
	act := &fakeActuator{}
	d := newDispatcher(act)
	ctx := context.Background()

	for _, line := range []string{
		`{"type":"set_value","value":10}`,
		`{"type":"get_value"}`,
		`{"type":"calibrate"}`,
	} {
		if _, ok := d.dispatch(ctx, line); ok {
			t.Fatalf("line %q: expected silence", line)
		}
	}
	if act.calls != 0 {
		t.Fatalf("calibration ran without an id: %d calls", act.calls)
	}
	if d.state.setpoint != 0 {
		t.Fatalf("state mutated: %d", d.state.setpoint)
	}
}

func TestDispatchUnknownAndMalformedAreSilent(t *testing.T) {
	testlog.Start(t)
	d := newDispatcher(&fakeActuator{})
	ctx := context.Background()

	for _, line := range []string{
		`{"type":"reboot","id":1}`,
		`{"type":"set_value","id":`,
		`garbage`,
	} {
		if _, ok := d.dispatch(ctx, line); ok {
			t.Fatalf("line %q: expected silence", line)
		}
	}
}

func TestDispatchCalibrate(t *testing.T) {
	testlog.Start(t)
	act := &fakeActuator{}
	d := newDispatcher(act)

	resp, ok := d.dispatch(context.Background(), `{"type":"calibrate","id":5}`)
	if !ok {
		t.Fatal("expected an ack")
	}
	if got := encode(t, resp); got != `{"type":"ack","id":5,"ok":true}`+"\n" {
		t.Fatalf("ack wire mismatch: %q", got)
	}
	if act.calls != 1 {
		t.Fatalf("calibrate calls: %d", act.calls)
	}
}

func TestDispatchCalibrateFailure(t *testing.T) {
	testlog.Start(t)
	d := newDispatcher(&fakeActuator{err: errors.New("motor stalled")})

	resp, ok := d.dispatch(context.Background(), `{"type":"calibrate","id":6}`)
	if !ok {
		t.Fatal("expected an error response")
	}
	if resp.Type != "error" || resp.ID != 6 || resp.Message != "calibration failed" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}
