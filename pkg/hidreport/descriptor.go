package hidreport

// Descriptor is the bit-exact HID Report Descriptor this profile advertises:
// a two-application-collection descriptor declaring a boot keyboard
// (Report ID 1: 8-bit modifier byte, constant reserved byte, 5 LED output
// bits + 3 constant padding bits, 6-key input array over usage range
// 0x00-0x65) and a 3-button relative wheel mouse (Report ID 2: 3 button
// bits + 5 constant padding bits, then X/Y/Wheel as signed 8-bit values).
//
// Hosts parse these bytes verbatim; any rewrite of this profile must emit
// exactly this sequence.
var Descriptor = []byte{
	// Keyboard application collection.
	0x05, 0x01, //   Usage Page (Generic Desktop)
	0x09, 0x06, //   Usage (Keyboard)
	0xA1, 0x01, //   Collection (Application)
	0x85, KeyboardReportID, //     Report ID (1)
	0x05, 0x07, //     Usage Page (Keyboard/Keypad)
	0x19, 0xE0, //     Usage Minimum (224, Left Control)
	0x29, 0xE7, //     Usage Maximum (231, Right GUI)
	0x15, 0x00, //     Logical Minimum (0)
	0x25, 0x01, //     Logical Maximum (1)
	0x75, 0x01, //     Report Size (1)
	0x95, 0x08, //     Report Count (8) -- modifier byte
	0x81, 0x02, //     Input (Data, Variable, Absolute)
	0x95, 0x01, //     Report Count (1)
	0x75, 0x08, //     Report Size (8) -- reserved byte
	0x81, 0x01, //     Input (Constant)
	0x95, 0x05, //     Report Count (5) -- LED bits
	0x75, 0x01, //     Report Size (1)
	0x05, 0x08, //     Usage Page (LEDs)
	0x19, 0x01, //     Usage Minimum (1, Num Lock)
	0x29, 0x05, //     Usage Maximum (5, Kana)
	0x91, 0x02, //     Output (Data, Variable, Absolute)
	0x95, 0x01, //     Report Count (1) -- LED padding
	0x75, 0x03, //     Report Size (3)
	0x91, 0x01, //     Output (Constant)
	0x95, 0x06, //     Report Count (6) -- key array
	0x75, 0x08, //     Report Size (8)
	0x15, 0x00, //     Logical Minimum (0)
	0x25, 0x65, //     Logical Maximum (101)
	0x05, 0x07, //     Usage Page (Keyboard/Keypad)
	0x19, 0x00, //     Usage Minimum (0)
	0x29, 0x65, //     Usage Maximum (101)
	0x81, 0x00, //     Input (Data, Array)
	0xC0, //        End Collection

	// Mouse application collection.
	0x05, 0x01, //   Usage Page (Generic Desktop)
	0x09, 0x02, //   Usage (Mouse)
	0xA1, 0x01, //   Collection (Application)
	0x85, MouseReportID, //     Report ID (2)
	0x09, 0x01, //     Usage (Pointer)
	0xA1, 0x00, //     Collection (Physical)
	0x05, 0x09, //       Usage Page (Button)
	0x19, 0x01, //       Usage Minimum (Button 1)
	0x29, 0x03, //       Usage Maximum (Button 3)
	0x15, 0x00, //       Logical Minimum (0)
	0x25, 0x01, //       Logical Maximum (1)
	0x95, 0x03, //       Report Count (3) -- button bits
	0x75, 0x01, //       Report Size (1)
	0x81, 0x02, //       Input (Data, Variable, Absolute)
	0x95, 0x01, //       Report Count (1) -- button padding
	0x75, 0x05, //       Report Size (5)
	0x81, 0x01, //       Input (Constant)
	0x05, 0x01, //       Usage Page (Generic Desktop)
	0x09, 0x30, //       Usage (X)
	0x09, 0x31, //       Usage (Y)
	0x09, 0x38, //       Usage (Wheel)
	0x15, 0x81, //       Logical Minimum (-127)
	0x25, 0x7F, //       Logical Maximum (127)
	0x75, 0x08, //       Report Size (8)
	0x95, 0x03, //       Report Count (3) -- X, Y, Wheel
	0x81, 0x06, //       Input (Data, Variable, Relative)
	0xC0, //          End Collection
	0xC0, //        End Collection
}
