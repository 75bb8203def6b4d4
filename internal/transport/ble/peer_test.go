package ble

import (
	"context"
	"testing"
	"time"

	"github.com/jadeai/bthid/pkg/hidreport"
	"github.com/stretchr/testify/require"
)

func TestControlPeerSynthesizesSetProtocol(t *testing.T) {
	cp := newControlPeer()
	cp.onProtocolModeWrite([]byte{0x00})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	msg, err := cp.Recv(ctx)
	require.NoError(t, err)
	require.Equal(t, []byte{0x70}, msg)
}

func TestControlPeerSynthesizesHIDControl(t *testing.T) {
	cp := newControlPeer()
	cp.onControlPointWrite([]byte{0x01})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	msg, err := cp.Recv(ctx)
	require.NoError(t, err)
	require.Equal(t, []byte{0x11}, msg)
}

func TestCharacteristicReadWriteRoundtrip(t *testing.T) {
	var written []byte
	c := newCharacteristic([]byte{0xAA}, func(data []byte) { written = data })

	v, derr := c.ReadValue(nil)
	require.Nil(t, derr)
	require.Equal(t, []byte{0xAA}, v)

	derr = c.WriteValue([]byte{0x01, 0x02}, nil)
	require.Nil(t, derr)
	require.Equal(t, []byte{0x01, 0x02}, written)

	v, derr = c.ReadValue(nil)
	require.Nil(t, derr)
	require.Equal(t, []byte{0x01, 0x02}, v)
}

func TestCharacteristicStartNotifyFiresHookOnce(t *testing.T) {
	calls := 0
	c := newCharacteristic(nil, nil)
	c.onSubscribe = func() { calls++ }

	require.Nil(t, c.StartNotify())
	require.Nil(t, c.StartNotify())
	require.Equal(t, 1, calls)
	require.True(t, c.isNotifying())

	require.Nil(t, c.StopNotify())
	require.False(t, c.isNotifying())
}

func TestInterruptPeerDispatchesByReportShape(t *testing.T) {
	kb := newCharacteristic(make([]byte, 9), nil)
	kb.notifying = true
	mouse := newCharacteristic(make([]byte, 5), nil)
	mouse.notifying = true

	p := &interruptPeer{keyboardReport: kb, mouseReport: mouse}

	kbReport := hidreport.KeyboardReport{Modifiers: 0x02}.Encode(hidreport.ModeReport)
	require.NoError(t, p.Send(kbReport))
	require.Equal(t, kbReport, kb.value)

	mouseReport := hidreport.MouseReport{Buttons: 1}.Encode(hidreport.ModeReport)
	require.NoError(t, p.Send(mouseReport))
	require.Equal(t, mouseReport, mouse.value)
}

func TestInterruptPeerSkipsUnsubscribedCharacteristic(t *testing.T) {
	kb := newCharacteristic(make([]byte, 9), nil) // notifying left false
	p := &interruptPeer{keyboardReport: kb}

	kbReport := hidreport.KeyboardReport{}.Encode(hidreport.ModeReport)
	require.NoError(t, p.Send(kbReport))
	require.NotEqual(t, kbReport, kb.value) // untouched, still zeroed
}
