package hidprofile

// Bit positions, within the keyboard output report's LED byte, of the HID
// LED usage page (0x08) indicators (usages 1-5, packed from bit 0 up).
const (
	ledNumLock = iota
	ledCapsLock
	ledScrollLock
	ledCompose
	ledKana
)

// LEDFlags decodes the individual indicator bits out of the single LED
// output-report byte captured by handleSetReport.
type LEDFlags struct {
	NumLock    bool
	CapsLock   bool
	ScrollLock bool
	Compose    bool
	Kana       bool
}

func ledBitSet(led uint8, bit int) bool {
	return led&(1<<uint(bit)) != 0
}

func decodeLEDFlags(led uint8) LEDFlags {
	return LEDFlags{
		NumLock:    ledBitSet(led, ledNumLock),
		CapsLock:   ledBitSet(led, ledCapsLock),
		ScrollLock: ledBitSet(led, ledScrollLock),
		Compose:    ledBitSet(led, ledCompose),
		Kana:       ledBitSet(led, ledKana),
	}
}

// LEDFlags returns the last-captured LED byte decoded into named indicators.
func (s *State) LEDFlags() LEDFlags {
	return decodeLEDFlags(s.LEDState())
}
