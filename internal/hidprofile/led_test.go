package hidprofile_test

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLEDFlagsDecodesNumLockAndCapsLock(t *testing.T) {
	s := connectedState(t)
	// SET_REPORT, output report, no report-ID byte; LED byte sets bits 0+1.
	_, _ = s.HandleControl([]byte{0x52, 0x03})

	flags := s.LEDFlags()
	require.True(t, flags.NumLock)
	require.True(t, flags.CapsLock)
	require.False(t, flags.ScrollLock)
	require.False(t, flags.Compose)
	require.False(t, flags.Kana)
}

func TestLEDFlagsAllClearAfterReset(t *testing.T) {
	s := connectedState(t)
	_, _ = s.HandleControl([]byte{0x52, 0x1F})
	require.True(t, s.LEDFlags().Kana)

	s.Reset()
	flags := s.LEDFlags()
	require.False(t, flags.NumLock)
	require.False(t, flags.CapsLock)
	require.False(t, flags.ScrollLock)
	require.False(t, flags.Compose)
	require.False(t, flags.Kana)
}
