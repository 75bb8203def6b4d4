//go:build linux

package classic

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// L2CAP/Bluetooth socket option constants from bluetooth/bluetooth.h and
// bluetooth/l2cap.h. x/sys/unix carries the protocol and socket-option
// *level* constants (BTPROTO_L2CAP, SOL_BLUETOOTH) but not these
// option-number constants, so they're declared locally the way the kernel
// headers define them.
const (
	btSecurity     = 4
	btSecurityHigh = 3
	l2capLM        = 0x03
	l2capLMMaster  = 0x0001
	l2capLMAuth    = 0x0002
	l2capLMEncrypt = 0x0004
)

type btSecurityOpt struct {
	Level   uint8
	KeySize uint8
}

// requireSecureMaster requests authentication, encryption and master role
// on a freshly created L2CAP socket, matching spec.md §6's "link-mode
// flags requesting encryption, authentication, and master role".
func requireSecureMaster(fd int) error {
	sec := btSecurityOpt{Level: btSecurityHigh}
	if err := unix.SetsockoptString(fd, unix.SOL_BLUETOOTH, btSecurity, securityOptBytes(sec)); err != nil {
		return fmt.Errorf("classic: set BT_SECURITY: %w", err)
	}
	lm := l2capLMAuth | l2capLMEncrypt | l2capLMMaster
	if err := unix.SetsockoptInt(fd, unix.SOL_L2CAP, l2capLM, lm); err != nil {
		return fmt.Errorf("classic: set L2CAP_LM: %w", err)
	}
	return nil
}

func securityOptBytes(s btSecurityOpt) string {
	return string([]byte{s.Level, s.KeySize})
}
