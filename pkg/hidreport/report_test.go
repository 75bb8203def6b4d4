package hidreport_test

import (
	"testing"

	"github.com/jadeai/bthid/pkg/hidreport"
	"github.com/stretchr/testify/require"
)

func TestKeyboardReportEncodeReportMode(t *testing.T) {
	r := hidreport.KeyboardReport{Modifiers: 0x02, Keys: [6]uint8{0x0B}}
	require.Equal(t, []byte{0x01, 0x02, 0x00, 0x0B, 0x00, 0x00, 0x00, 0x00, 0x00}, r.Encode(hidreport.ModeReport))
}

func TestKeyboardReportEncodeBootMode(t *testing.T) {
	r := hidreport.KeyboardReport{Modifiers: 0x02, Keys: [6]uint8{0x0B}}
	require.Equal(t, []byte{0x02, 0x00, 0x0B, 0x00, 0x00, 0x00, 0x00, 0x00}, r.Encode(hidreport.ModeBoot))
}

func TestReleaseKeyboardIsAllZero(t *testing.T) {
	require.Equal(t, []byte{0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}, hidreport.ReleaseKeyboard().Encode(hidreport.ModeReport))
}

func TestMouseReportEncodeReportMode(t *testing.T) {
	r := hidreport.MouseReport{Buttons: 0x02, DX: 0x7F, DY: -0x7F, Wheel: 0x00}
	require.Equal(t, []byte{0x02, 0x02, 0x7F, 0x81, 0x00}, r.Encode(hidreport.ModeReport))
}

func TestMouseReportEncodeBootModeDropsWheel(t *testing.T) {
	r := hidreport.MouseReport{Buttons: 0x01, DX: 10, DY: -10, Wheel: 5}
	dy := int8(-10)
	require.Equal(t, []byte{0x01, 10, byte(dy)}, r.Encode(hidreport.ModeBoot))
}

func TestClampAxis(t *testing.T) {
	require.Equal(t, int8(127), hidreport.ClampAxis(200))
	require.Equal(t, int8(-127), hidreport.ClampAxis(-300))
	require.Equal(t, int8(42), hidreport.ClampAxis(42))
}

func TestDescriptorDeclaresBothReportIDs(t *testing.T) {
	require.Contains(t, hidreport.Descriptor, byte(hidreport.KeyboardReportID))
	require.Contains(t, hidreport.Descriptor, byte(hidreport.MouseReportID))
	require.Equal(t, byte(0xC0), hidreport.Descriptor[len(hidreport.Descriptor)-1])
}
