package hidprofile

// HIDP message header nibbles (high nibble of the single header byte).
const (
	hidpHandshake   = 0x00
	hidpHIDControl  = 0x10
	hidpGetReport   = 0x40
	hidpSetReport   = 0x50
	hidpGetProtocol = 0x60
	hidpSetProtocol = 0x70
	hidpData        = 0xA0
)

// HID_CONTROL params.
const (
	hidControlVirtualCableUnplug = 0x05
)

// SET_REPORT report-type values carried in the header's low nibble.
const (
	reportTypeOutput = 0x02
)

// HandleControl parses one inbound HIDP control message per spec.md §4.D
// and returns the response bytes to send back (nil if none) and whether
// the caller must reset the connection to Idle afterward. A zero-length
// message signals peer closure and is handled by the caller before reaching
// here (spec.md §4.D).
func (s *State) HandleControl(msg []byte) (resp []byte, shouldReset bool) {
	header := msg[0]
	msgType := header & 0xF0
	param := header & 0x0F

	switch msgType {
	case hidpHandshake:
		return nil, false
	case hidpHIDControl:
		if param == hidControlVirtualCableUnplug {
			return []byte{0x00}, true
		}
		return []byte{0x00}, false
	case hidpGetReport:
		return []byte{0x03}, false
	case hidpSetReport:
		s.handleSetReport(param, msg[1:])
		return []byte{0x00}, false
	case hidpGetProtocol:
		return []byte{0xA0 | 0x03, s.CurrentProtocol()}, false
	case hidpSetProtocol:
		s.setProtocolMode(param & 0x01)
		return []byte{0x00}, false
	case hidpData:
		return nil, false
	default:
		return []byte{0x00}, false
	}
}

// handleSetReport strips the optional leading report-ID byte and, for an
// output report addressed to the keyboard, captures the LED byte. An empty
// payload is a no-op (spec.md §9 open question (b)).
func (s *State) handleSetReport(param uint8, payload []byte) {
	if len(payload) == 0 {
		return
	}
	hasReportID := param&0x08 != 0
	reportType := param & 0x03

	reportID := uint8(0)
	data := payload
	if hasReportID {
		reportID = payload[0]
		data = payload[1:]
	}

	isKeyboardReport := !hasReportID || reportID == 1 // keyboard Report ID
	if reportType == reportTypeOutput && isKeyboardReport && len(data) > 0 {
		s.setLEDStatus(data[0])
	}
}
