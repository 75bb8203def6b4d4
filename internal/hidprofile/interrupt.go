package hidprofile

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// DefaultWaitForHostTimeout is the fixed wait-for-host timeout (spec.md
// §4.E, §9 open question (c)). Both the classic and the BLE daemon pass it
// to NewEmitter; it is not read from the config file.
const DefaultWaitForHostTimeout = 30 * time.Second

// Emitter is the interrupt-channel component of spec.md §4.E. Sends are
// serialized through sendMu: at most one write is ever in flight, matching
// invariant 4.
type Emitter struct {
	sendMu      sync.Mutex
	state       *State
	waitTimeout time.Duration
}

// NewEmitter builds an Emitter bound to state, waiting up to waitTimeout for
// a host to attach before giving up on a send.
func NewEmitter(state *State, waitTimeout time.Duration) *Emitter {
	return &Emitter{state: state, waitTimeout: waitTimeout}
}

// Send waits for Connected (bounded by waitTimeout), snapshots the
// interrupt peer under the state lock, then writes with the lock released.
// On transport failure it resets the connection before returning.
func (e *Emitter) Send(ctx context.Context, data []byte) error {
	e.sendMu.Lock()
	defer e.sendMu.Unlock()

	if !e.state.WaitConnected(ctx, e.waitTimeout) {
		return ErrNotConnected
	}
	peer, ok := e.state.SnapshotInterruptPeer()
	if !ok {
		return ErrNotConnected
	}
	if err := peer.Send(data); err != nil {
		e.state.Reset()
		return fmt.Errorf("%w: %v", ErrTransportFailure, err)
	}
	return nil
}
