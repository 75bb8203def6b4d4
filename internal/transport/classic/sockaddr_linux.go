//go:build linux

package classic

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// sockaddrL2 mirrors the kernel's struct sockaddr_l2 (bluetooth/l2cap.h):
// family, PSM, remote address, channel identifier, address type, and one
// byte of trailing padding to match the kernel's 14-byte layout.
type sockaddrL2 struct {
	Family     uint16
	Psm        uint16
	Bdaddr     [6]byte
	Cid        uint16
	BdaddrType uint8
	pad        uint8
}

func bindAddr(psm uint16) *sockaddrL2 {
	return &sockaddrL2{
		Family: unix.AF_BLUETOOTH,
		Psm:    psm,
	}
}

// rawBind, rawListen and rawAccept go around x/sys/unix's Sockaddr
// interface: that interface's single method is unexported, so a caller
// outside the unix package cannot satisfy it for a socket family the
// package doesn't model (L2CAP isn't among the address families unix.go
// wraps). The raw syscalls underneath are exported, so we lay out the
// kernel struct by hand and drive bind(2)/listen(2)/accept4(2) directly --
// the same direct-syscall idiom as an ioctl(2) wrapper, just one layer
// lower.
func rawBind(fd int, addr *sockaddrL2) error {
	_, _, errno := unix.Syscall(unix.SYS_BIND, uintptr(fd), uintptr(unsafe.Pointer(addr)), unsafe.Sizeof(*addr))
	if errno != 0 {
		return fmt.Errorf("classic: bind psm 0x%x: %w", addr.Psm, errno)
	}
	return nil
}

func rawListen(fd int, backlog int) error {
	_, _, errno := unix.Syscall(unix.SYS_LISTEN, uintptr(fd), uintptr(backlog), 0)
	if errno != 0 {
		return fmt.Errorf("classic: listen: %w", errno)
	}
	return nil
}

// rawAccept returns a non-blocking accept4(2) result: fd=-1, ok=false and a
// nil error when nothing is pending (EAGAIN/EWOULDBLOCK).
func rawAccept(listenFD int) (fd int, ok bool, err error) {
	var addr sockaddrL2
	addrLen := uint32(unsafe.Sizeof(addr))
	r, _, errno := unix.Syscall6(unix.SYS_ACCEPT4,
		uintptr(listenFD),
		uintptr(unsafe.Pointer(&addr)),
		uintptr(unsafe.Pointer(&addrLen)),
		uintptr(unix.SOCK_NONBLOCK),
		0, 0)
	if errno == unix.EAGAIN || errno == unix.EWOULDBLOCK {
		return -1, false, nil
	}
	if errno != 0 {
		return -1, false, fmt.Errorf("classic: accept4: %w", errno)
	}
	return int(r), true, nil
}
