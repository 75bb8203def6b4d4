package hidprofile

import "context"

// ControlPeer is an accepted control-channel connection. Recv blocks until a
// message arrives, the peer closes (returned as a zero-length message with a
// nil error), or ctx is done.
type ControlPeer interface {
	Recv(ctx context.Context) ([]byte, error)
	Send(data []byte) error
	Close() error
}

// InterruptPeer is an accepted interrupt-channel connection. It only ever
// needs to send.
type InterruptPeer interface {
	Send(data []byte) error
	Close() error
}

// Transport is the pluggable channel-pair capability both the classic
// (L2CAP) and BLE (GATT) variants implement. The engine's accept loop polls
// both accept methods on a fixed quantum; each returns immediately with
// ok=false when nothing is ready, matching a non-blocking accept(2) on raw
// sockets and a drained-channel check on the D-Bus-backed BLE transport.
type Transport interface {
	// Start binds listen endpoints (classic) or registers the GATT
	// application/advertisement (BLE). Called once before the accept loop
	// starts.
	Start(ctx context.Context) error

	// PollControlAccept returns a newly accepted control peer, if one is
	// ready. ok is false and err is nil when nothing is ready yet.
	PollControlAccept() (peer ControlPeer, ok bool, err error)

	// PollInterruptAccept is PollControlAccept's interrupt-channel sibling.
	PollInterruptAccept() (peer InterruptPeer, ok bool, err error)

	// Close releases listen endpoints and any registered services.
	Close() error
}
