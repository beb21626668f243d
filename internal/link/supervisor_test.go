package link

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/curtainlabs/curtainctl/internal/testutil/testlog"
)

type fakeRadio struct {
	started     atomic.Bool
	configured  atomic.Int32
	connectErrs atomic.Int32 // attempts that fail before one succeeds
	connects    atomic.Int32
	disconnect  chan struct{}
}

func newFakeRadio(failFirst int32) *fakeRadio {
	r := &fakeRadio{disconnect: make(chan struct{}, 1)}
	r.connectErrs.Store(failFirst)
	return r
}

func (r *fakeRadio) IsStarted() (bool, error) {
	return r.started.Load(), nil
}

func (r *fakeRadio) Configure(Credentials) error {
	r.configured.Add(1)
	return nil
}

func (r *fakeRadio) Start(context.Context) error {
	r.started.Store(true)
	return nil
}

func (r *fakeRadio) Connect(context.Context) error {
	r.connects.Add(1)
	if r.connectErrs.Add(-1) >= 0 {
		return errors.New("association failed")
	}
	return nil
}

func (r *fakeRadio) WaitDisconnect(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-r.disconnect:
		return nil
	}
}

func (r *fakeRadio) Capabilities() string {
	return "fake station"
}

func waitForState(t *testing.T, s *Supervisor, want State) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for s.State() != want {
		if time.Now().After(deadline) {
			t.Fatalf("state never reached %v, still %v", want, s.State())
		}
		time.Sleep(time.Millisecond)
	}
}

func TestSupervisorRetriesUntilConnected(t *testing.T) {
	testlog.Start(t)

	radio := newFakeRadio(2)
	sup := NewSupervisor(Config{RetryDelay: time.Millisecond, Quiescence: time.Millisecond}, radio)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sup.Run(ctx) }()

	waitForState(t, sup, StateConnected)
	if got := radio.connects.Load(); got != 3 {
		t.Fatalf("connect attempts: %d", got)
	}
	if radio.configured.Load() == 0 {
		t.Fatal("radio never configured")
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("run exit: %v", err)
	}
}

func TestSupervisorReconnectsAfterDisconnect(t *testing.T) {
	testlog.Start(t)

	radio := newFakeRadio(0)
	sup := NewSupervisor(Config{RetryDelay: time.Millisecond, Quiescence: time.Millisecond}, radio)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- sup.Run(ctx) }()

	waitForState(t, sup, StateConnected)
	before := radio.connects.Load()

	radio.disconnect <- struct{}{}
	deadline := time.Now().Add(2 * time.Second)
	for radio.connects.Load() != before+1 {
		if time.Now().After(deadline) {
			t.Fatalf("expected exactly one reconnect attempt, got %d", radio.connects.Load()-before)
		}
		time.Sleep(time.Millisecond)
	}
	waitForState(t, sup, StateConnected)

	cancel()
	<-done
}

type fakeStack struct {
	linkAfter int32 // polls before the link reports up
	ipAfter   int32 // polls before an address is assigned
	linkPolls atomic.Int32
	ipPolls   atomic.Int32
}

func (s *fakeStack) IsLinkUp() bool {
	return s.linkPolls.Add(1) > s.linkAfter
}

func (s *fakeStack) IPv4Config() (IPv4Config, bool) {
	if s.ipPolls.Add(1) > s.ipAfter {
		return IPv4Config{Address: []byte{192, 168, 178, 40}}, true
	}
	return IPv4Config{}, false
}

func TestWaitReadyPollsUntilReady(t *testing.T) {
	testlog.Start(t)

	stack := &fakeStack{linkAfter: 3, ipAfter: 2}
	if err := WaitReady(context.Background(), stack, time.Millisecond); err != nil {
		t.Fatalf("wait ready: %v", err)
	}
	if stack.linkPolls.Load() < 4 {
		t.Fatalf("link polls: %d", stack.linkPolls.Load())
	}
	if stack.ipPolls.Load() < 3 {
		t.Fatalf("ip polls: %d", stack.ipPolls.Load())
	}
}

func TestWaitReadyHonorsContext(t *testing.T) {
	testlog.Start(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := WaitReady(ctx, &fakeStack{linkAfter: 1 << 30}, time.Millisecond)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
