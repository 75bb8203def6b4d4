package hidprofile_test

import (
	"testing"

	"github.com/jadeai/bthid/internal/hidprofile"
	"github.com/stretchr/testify/require"
)

func connectedState(t *testing.T) *hidprofile.State {
	t.Helper()
	s := hidprofile.NewState()
	s.AttachControl(newFakeControlPeer())
	s.AttachInterrupt(newFakeInterruptPeer())
	require.True(t, s.IsConnected())
	return s
}

func TestHandshakeIsNoOp(t *testing.T) {
	s := connectedState(t)
	resp, reset := s.HandleControl([]byte{0x00})
	require.Nil(t, resp)
	require.False(t, reset)
}

func TestHIDControlVirtualCableUnplugResetsToIdle(t *testing.T) {
	s := connectedState(t)
	resp, reset := s.HandleControl([]byte{0x15})
	require.Equal(t, []byte{0x00}, resp)
	require.True(t, reset)
}

func TestHIDControlOtherParamJustAcks(t *testing.T) {
	s := connectedState(t)
	resp, reset := s.HandleControl([]byte{0x10})
	require.Equal(t, []byte{0x00}, resp)
	require.False(t, reset)
}

func TestGetReportIsUnsupported(t *testing.T) {
	s := connectedState(t)
	resp, reset := s.HandleControl([]byte{0x40})
	require.Equal(t, []byte{0x03}, resp)
	require.False(t, reset)
}

func TestSetProtocolRoundtrip(t *testing.T) {
	s := connectedState(t)
	resp, reset := s.HandleControl([]byte{0x70}) // SET_PROTOCOL boot
	require.Equal(t, []byte{0x00}, resp)
	require.False(t, reset)
	require.Equal(t, uint8(0), s.CurrentProtocol())

	resp, reset = s.HandleControl([]byte{0x60})
	require.Equal(t, []byte{0xA3, 0x00}, resp)
	require.False(t, reset)
}

func TestSetReportCapturesLEDForKeyboard(t *testing.T) {
	s := connectedState(t)
	resp, reset := s.HandleControl([]byte{0x52, 0x01, 0x02})
	require.Equal(t, []byte{0x00}, resp)
	require.False(t, reset)
	require.Equal(t, uint8(0x01), s.LEDState())
}

func TestSetReportIgnoresEmptyPayload(t *testing.T) {
	s := connectedState(t)
	resp, reset := s.HandleControl([]byte{0x50})
	require.Equal(t, []byte{0x00}, resp)
	require.False(t, reset)
	require.Equal(t, uint8(0), s.LEDState())
}

func TestSetReportIgnoresNonOutputReportType(t *testing.T) {
	s := connectedState(t)
	resp, reset := s.HandleControl([]byte{0x51, 0x01, 0x02})
	require.Equal(t, []byte{0x00}, resp)
	require.False(t, reset)
	require.Equal(t, uint8(0), s.LEDState())
}

func TestDataIsIgnored(t *testing.T) {
	s := connectedState(t)
	resp, reset := s.HandleControl([]byte{0xA0})
	require.Nil(t, resp)
	require.False(t, reset)
}

func TestUnknownTypeAcks(t *testing.T) {
	s := connectedState(t)
	resp, reset := s.HandleControl([]byte{0xF0})
	require.Equal(t, []byte{0x00}, resp)
	require.False(t, reset)
}
