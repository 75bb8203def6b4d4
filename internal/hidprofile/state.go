package hidprofile

import (
	"context"
	"sync"
	"time"

	"github.com/jadeai/bthid/pkg/hidreport"
)

type connState uint8

const (
	connIdle connState = iota
	connHalfAttached
	connConnected
)

// State is the shared protocol state of spec.md §4.C/§9: connection state,
// protocol mode, LED byte, and the two peer handles, guarded by a single
// mutex. Waiters for Connected are signaled through a close-and-replace
// channel, standing in for a condition variable with a timed wait (which
// sync.Cond does not support).
type State struct {
	mu sync.Mutex

	conn         connState
	protocolMode uint8
	ledStatus    uint8
	control      ControlPeer
	interrupt    InterruptPeer

	running bool
	changed chan struct{}

	onChange func()
}

// NewState creates a State in the Idle connection state with protocol mode
// defaulted to report mode and LEDs cleared.
func NewState() *State {
	return &State{
		protocolMode: uint8(hidreport.ModeReport),
		running:      true,
		changed:      make(chan struct{}),
	}
}

// OnChange registers a callback invoked (without the lock held) after every
// AttachControl, AttachInterrupt and Reset. Protocol-mode and LED changes
// and Shutdown do not invoke it.
func (s *State) OnChange(fn func()) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

func (s *State) notifyLocked() {
	close(s.changed)
	s.changed = make(chan struct{})
}

func (s *State) fireOnChange() {
	s.mu.Lock()
	fn := s.onChange
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// IsConnected reports whether both channels are currently attached.
func (s *State) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn == connConnected
}

// CurrentProtocol returns the active protocol mode (0=boot, 1=report).
func (s *State) CurrentProtocol() uint8 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.protocolMode
}

// LEDState returns the last LED byte captured from a SET_REPORT output
// report.
func (s *State) LEDState() uint8 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledStatus
}

func (s *State) recomputeLocked() {
	switch {
	case s.control != nil && s.interrupt != nil:
		if s.conn != connConnected {
			s.conn = connConnected
			s.protocolMode = uint8(hidreport.ModeReport)
			s.ledStatus = 0
		}
	case s.control != nil || s.interrupt != nil:
		s.conn = connHalfAttached
	default:
		s.conn = connIdle
	}
	s.notifyLocked()
}

// AttachControl installs a newly accepted control peer, transitioning
// Idle->HalfAttached or HalfAttached->Connected per spec.md's state
// machine. Ordering between the two channels is never assumed.
func (s *State) AttachControl(peer ControlPeer) {
	s.mu.Lock()
	if old := s.control; old != nil {
		old.Close()
	}
	s.control = peer
	s.recomputeLocked()
	s.mu.Unlock()
	s.fireOnChange()
}

// AttachInterrupt installs a newly accepted interrupt peer.
func (s *State) AttachInterrupt(peer InterruptPeer) {
	s.mu.Lock()
	if old := s.interrupt; old != nil {
		old.Close()
	}
	s.interrupt = peer
	s.recomputeLocked()
	s.mu.Unlock()
	s.fireOnChange()
}

// SnapshotInterruptPeer returns the attached interrupt peer iff the state is
// Connected, for the emitter to write to outside the lock.
func (s *State) SnapshotInterruptPeer() (InterruptPeer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != connConnected || s.interrupt == nil {
		return nil, false
	}
	return s.interrupt, true
}

// snapshotControlPeer returns the currently attached control peer, or nil
// if none is attached, for the control thread to read from outside the
// lock.
func (s *State) snapshotControlPeer() ControlPeer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.control
}

// setProtocolMode is called by the control-channel handler's SET_PROTOCOL
// dispatch.
func (s *State) setProtocolMode(mode uint8) {
	s.mu.Lock()
	s.protocolMode = mode
	s.mu.Unlock()
}

// setLEDStatus is called by the control-channel handler's SET_REPORT
// dispatch.
func (s *State) setLEDStatus(led uint8) {
	s.mu.Lock()
	s.ledStatus = led
	s.mu.Unlock()
}

// Reset closes both peers and returns to Idle with protocol mode and LEDs
// defaulted, per invariant 1 and the Virtual Cable Unplug handler.
func (s *State) Reset() {
	s.mu.Lock()
	cp, ip := s.control, s.interrupt
	s.control = nil
	s.interrupt = nil
	s.conn = connIdle
	s.protocolMode = uint8(hidreport.ModeReport)
	s.ledStatus = 0
	s.notifyLocked()
	s.mu.Unlock()
	if cp != nil {
		cp.Close()
	}
	if ip != nil {
		ip.Close()
	}
	s.fireOnChange()
}

// ForceDisconnect is Reset's public name for an operator-initiated
// disconnect (the classic variant's DISCONNECT command).
func (s *State) ForceDisconnect() {
	s.Reset()
}

// Shutdown marks the state not-running, releases both peers, and wakes any
// waiter in WaitConnected so it observes NotConnected immediately.
func (s *State) Shutdown() {
	s.mu.Lock()
	s.running = false
	cp, ip := s.control, s.interrupt
	s.control = nil
	s.interrupt = nil
	s.conn = connIdle
	s.notifyLocked()
	s.mu.Unlock()
	if cp != nil {
		cp.Close()
	}
	if ip != nil {
		ip.Close()
	}
}

// WaitConnected blocks until the state becomes Connected, the timeout
// elapses, ctx is done, or the engine is shutting down, whichever comes
// first. It returns true only when the state is Connected.
func (s *State) WaitConnected(ctx context.Context, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		s.mu.Lock()
		if s.conn == connConnected {
			s.mu.Unlock()
			return true
		}
		if !s.running {
			s.mu.Unlock()
			return false
		}
		ch := s.changed
		s.mu.Unlock()

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return false
		}
		timer := time.NewTimer(remaining)
		select {
		case <-ch:
			timer.Stop()
		case <-timer.C:
			return false
		case <-ctx.Done():
			timer.Stop()
			return false
		}
	}
}
