package ble

import (
	"context"
	"fmt"

	"github.com/godbus/dbus/v5"
	"github.com/jadeai/bthid/pkg/hidreport"
)

// controlPeer adapts GATT writes to Protocol Mode (2A4E) and HID Control
// Point (2A4C) into the same hidprofile.ControlPeer contract the classic
// transport's L2CAP control channel satisfies, synthesizing a single HIDP
// header byte per write so State.HandleControl can dispatch both
// transports through one code path.
type controlPeer struct {
	inbox chan []byte
}

func newControlPeer() *controlPeer {
	return &controlPeer{inbox: make(chan []byte, 8)}
}

// onProtocolModeWrite is wired as the Protocol Mode characteristic's
// onWrite callback: a single byte (0=boot, 1=report) becomes a synthesized
// SET_PROTOCOL message (header 0x70 | param).
func (p *controlPeer) onProtocolModeWrite(data []byte) {
	if len(data) == 0 {
		return
	}
	p.inbox <- []byte{0x70 | (data[0] & 0x01)}
}

// onControlPointWrite is wired as the HID Control Point characteristic's
// onWrite callback: HID-over-GATT defines 0=Suspend, 1=Exit Suspend, which
// this maps onto the HID_CONTROL message family as a harmless ack (neither
// value is Virtual Cable Unplug, so the connection never resets here).
func (p *controlPeer) onControlPointWrite(data []byte) {
	if len(data) == 0 {
		return
	}
	p.inbox <- []byte{0x10 | (data[0] & 0x0F)}
}

func (p *controlPeer) Recv(ctx context.Context) ([]byte, error) {
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

// Send is a no-op on BLE: GET_PROTOCOL's reply is served by a subsequent
// ReadValue on the Protocol Mode characteristic rather than an app-level
// acknowledgement, since GATT's write-response already completes the
// request/response cycle at the ATT layer.
func (p *controlPeer) Send(data []byte) error {
	return nil
}

func (p *controlPeer) Close() error {
	close(p.inbox)
	return nil
}

// interruptPeer fans a single encoded report out to the matching Report
// characteristic (keyboard or mouse, report or boot variant) by inspecting
// its length and leading Report ID byte.
type interruptPeer struct {
	conn *dbus.Conn

	keyboardReport *characteristic
	mouseReport    *characteristic
	bootKeyboard   *characteristic
	bootMouse      *characteristic
}

func (p *interruptPeer) Send(data []byte) error {
	var target *characteristic
	switch {
	case len(data) == 9 && data[0] == hidreport.KeyboardReportID:
		target = p.keyboardReport
	case len(data) == 8:
		target = p.bootKeyboard
	case len(data) == 5 && data[0] == hidreport.MouseReportID:
		target = p.mouseReport
	case len(data) == 3:
		target = p.bootMouse
	default:
		return fmt.Errorf("ble: report of unrecognized shape (%d bytes)", len(data))
	}
	if target == nil || !target.isNotifying() {
		return nil
	}
	return target.notify(p.conn, data)
}

func (p *interruptPeer) Close() error {
	return nil
}
