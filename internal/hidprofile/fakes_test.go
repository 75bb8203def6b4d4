package hidprofile_test

import (
	"context"
	"errors"
	"sync"

	"github.com/jadeai/bthid/internal/hidprofile"
)

// fakeControlPeer is an in-memory hidprofile.ControlPeer for tests: Recv
// drains an inbound queue, Send records outbound messages.
type fakeControlPeer struct {
	mu     sync.Mutex
	inbox  chan []byte
	sent   [][]byte
	closed bool
}

func newFakeControlPeer() *fakeControlPeer {
	return &fakeControlPeer{inbox: make(chan []byte, 16)}
}

func (p *fakeControlPeer) push(msg []byte) {
	p.inbox <- msg
}

func (p *fakeControlPeer) Recv(ctx context.Context) ([]byte, error) {
	select {
	case msg, ok := <-p.inbox:
		if !ok {
			return nil, nil
		}
		return msg, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *fakeControlPeer) Send(data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return errors.New("fakeControlPeer: closed")
	}
	p.sent = append(p.sent, append([]byte(nil), data...))
	return nil
}

func (p *fakeControlPeer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.closed = true
		close(p.inbox)
	}
	return nil
}

func (p *fakeControlPeer) sentMessages() [][]byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([][]byte(nil), p.sent...)
}

// fakeInterruptPeer is an in-memory hidprofile.InterruptPeer for tests.
type fakeInterruptPeer struct {
	mu      sync.Mutex
	sent    [][]byte
	closed  bool
	failing bool
}

func newFakeInterruptPeer() *fakeInterruptPeer {
	return &fakeInterruptPeer{}
}

func (p *fakeInterruptPeer) Send(data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failing {
		return errors.New("fakeInterruptPeer: induced failure")
	}
	p.sent = append(p.sent, append([]byte(nil), data...))
	return nil
}

func (p *fakeInterruptPeer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func (p *fakeInterruptPeer) sentReports() [][]byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([][]byte(nil), p.sent...)
}

func (p *fakeInterruptPeer) setFailing(v bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failing = v
}

var _ hidprofile.ControlPeer = (*fakeControlPeer)(nil)
var _ hidprofile.InterruptPeer = (*fakeInterruptPeer)(nil)
