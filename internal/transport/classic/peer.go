//go:build linux

package classic

import (
	"context"
	"io"
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// peer wraps one accepted L2CAP SOCK_SEQPACKET connection as an
// *os.File, giving it blocking Read/Write semantics and a deadline-aware
// Recv for the control thread's blocking reads (spec.md §5).
type peer struct {
	f *os.File
}

func newPeer(fd int, name string) *peer {
	// Keep the fd non-blocking so os.NewFile registers it with the runtime
	// poller; only then does SetReadDeadline work on it.
	unix.SetNonblock(fd, true)
	return &peer{f: os.NewFile(uintptr(fd), name)}
}

// Recv blocks until one SEQPACKET datagram arrives, the peer closes
// (returned as a zero-length slice and a nil error), or ctx is done. Since
// ctx carries no deadline in the control loop's usage, cancellation is
// delivered by racing a watcher goroutine that forces the blocking read to
// return via SetReadDeadline.
func (p *peer) Recv(ctx context.Context) ([]byte, error) {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			p.f.SetReadDeadline(time.Now())
		case <-done:
		}
	}()

	buf := make([]byte, 256)
	n, err := p.f.Read(buf)
	if err != nil {
		if n == 0 {
			if err == io.EOF {
				return nil, nil
			}
			return nil, err
		}
	}
	return buf[:n], nil
}

func (p *peer) Send(data []byte) error {
	_, err := p.f.Write(data)
	return err
}

func (p *peer) Close() error {
	return p.f.Close()
}
