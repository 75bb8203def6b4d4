//go:build linux

// Package classic implements the BR/EDR HID transport: two L2CAP
// SOCK_SEQPACKET listen sockets (control PSM 0x11, interrupt PSM 0x13) plus
// the SDP service record that advertises them, per spec.md §6.
package classic

import (
	"context"
	"fmt"

	"github.com/jadeai/bthid/internal/hidprofile"
	"golang.org/x/sys/unix"
)

const (
	// PSMControl and PSMInterrupt are the well-known HID profile PSMs.
	PSMControl   uint16 = 0x11
	PSMInterrupt uint16 = 0x13

	listenBacklog = 1
)

// Transport implements hidprofile.Transport over raw L2CAP sockets. It does
// not itself register the SDP record with bluetoothd's SDP server; that is
// the caller's job (see RegisterSDP), since it requires a D-Bus or sdptool
// round-trip that's independent of the socket lifecycle.
type Transport struct {
	controlFD   int
	interruptFD int
}

// New returns an unstarted Transport.
func New() *Transport {
	return &Transport{controlFD: -1, interruptFD: -1}
}

func listenOn(psm uint16) (int, error) {
	fd, err := unix.Socket(unix.AF_BLUETOOTH, unix.SOCK_SEQPACKET, unix.BTPROTO_L2CAP)
	if err != nil {
		return -1, fmt.Errorf("classic: socket psm 0x%x: %w", psm, err)
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		return -1, fmt.Errorf("classic: set nonblocking: %w", err)
	}
	if err := requireSecureMaster(fd); err != nil {
		unix.Close(fd)
		return -1, err
	}
	if err := rawBind(fd, bindAddr(psm)); err != nil {
		unix.Close(fd)
		return -1, err
	}
	if err := rawListen(fd, listenBacklog); err != nil {
		unix.Close(fd)
		return -1, err
	}
	return fd, nil
}

// Start binds and listens on both PSMs. It does not block.
func (t *Transport) Start(ctx context.Context) error {
	cfd, err := listenOn(PSMControl)
	if err != nil {
		return err
	}
	ifd, err := listenOn(PSMInterrupt)
	if err != nil {
		unix.Close(cfd)
		return err
	}
	t.controlFD = cfd
	t.interruptFD = ifd
	return nil
}

// PollControlAccept performs one non-blocking accept4(2) on the control
// listen socket.
func (t *Transport) PollControlAccept() (hidprofile.ControlPeer, bool, error) {
	fd, ok, err := rawAccept(t.controlFD)
	if err != nil || !ok {
		return nil, false, err
	}
	return newPeer(fd, "l2cap-control"), true, nil
}

// PollInterruptAccept performs one non-blocking accept4(2) on the interrupt
// listen socket.
func (t *Transport) PollInterruptAccept() (hidprofile.InterruptPeer, bool, error) {
	fd, ok, err := rawAccept(t.interruptFD)
	if err != nil || !ok {
		return nil, false, err
	}
	return newPeer(fd, "l2cap-interrupt"), true, nil
}

// Close releases both listen sockets.
func (t *Transport) Close() error {
	var err error
	if t.controlFD >= 0 {
		if cerr := unix.Close(t.controlFD); cerr != nil {
			err = cerr
		}
		t.controlFD = -1
	}
	if t.interruptFD >= 0 {
		if cerr := unix.Close(t.interruptFD); cerr != nil {
			err = cerr
		}
		t.interruptFD = -1
	}
	return err
}

var _ hidprofile.Transport = (*Transport)(nil)
