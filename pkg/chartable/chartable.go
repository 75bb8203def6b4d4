// Package chartable maps a single US-ASCII input character to a USB HID
// keyboard usage code and shift requirement. The mapping is total over the
// recognized set, deterministic, and built once into a static lookup table
// rather than branching code, so coverage is trivial to property-test.
package chartable

// KeyInfo is the usage code and modifier requirement produced for a
// recognized character.
type KeyInfo struct {
	Usage         uint8
	RequiresShift bool
}

// Keyboard/Keypad usage page codes, USB HID Usage Tables.
const (
	usageA         uint8 = 0x04
	usage1         uint8 = 0x1E
	usage0         uint8 = 0x27
	usageEnter     uint8 = 0x28
	usageEscape    uint8 = 0x29
	usageBackspace uint8 = 0x2A
	usageTab       uint8 = 0x2B
	usageSpace     uint8 = 0x2C
	usageMinus     uint8 = 0x2D
	usageEqual     uint8 = 0x2E
	usageLBracket  uint8 = 0x2F
	usageRBracket  uint8 = 0x30
	usageBackslash uint8 = 0x31
	usageSemicolon uint8 = 0x33
	usageQuote     uint8 = 0x34
	usageGrave     uint8 = 0x35
	usageComma     uint8 = 0x36
	usagePeriod    uint8 = 0x37
	usageSlash     uint8 = 0x38
)

var table = map[byte]KeyInfo{}

func init() {
	for c := byte('a'); c <= 'z'; c++ {
		table[c] = KeyInfo{Usage: usageA + (c - 'a')}
	}
	for c := byte('A'); c <= 'Z'; c++ {
		table[c] = KeyInfo{Usage: usageA + (c - 'A'), RequiresShift: true}
	}
	for c := byte('1'); c <= '9'; c++ {
		table[c] = KeyInfo{Usage: usage1 + (c - '1')}
	}
	table['0'] = KeyInfo{Usage: usage0}

	shiftedDigits := "!@#$%^&*()"
	for i := 0; i < len(shiftedDigits); i++ {
		usage := usage1 + byte(i)
		if i == 9 {
			usage = usage0
		}
		table[shiftedDigits[i]] = KeyInfo{Usage: usage, RequiresShift: true}
	}

	table['\t'] = KeyInfo{Usage: usageTab}
	table[' '] = KeyInfo{Usage: usageSpace}
	table['\n'] = KeyInfo{Usage: usageEnter}
	table['\r'] = KeyInfo{Usage: usageEnter}
	table['\b'] = KeyInfo{Usage: usageBackspace}
	table[0x1B] = KeyInfo{Usage: usageEscape}

	unshifted := map[byte]uint8{
		'-':  usageMinus,
		'=':  usageEqual,
		'[':  usageLBracket,
		']':  usageRBracket,
		'\\': usageBackslash,
		';':  usageSemicolon,
		'\'': usageQuote,
		'`':  usageGrave,
		',':  usageComma,
		'.':  usagePeriod,
		'/':  usageSlash,
	}
	for c, usage := range unshifted {
		table[c] = KeyInfo{Usage: usage}
	}

	shifted := map[byte]uint8{
		'_': usageMinus,
		'+': usageEqual,
		'{': usageLBracket,
		'}': usageRBracket,
		'|': usageBackslash,
		':': usageSemicolon,
		'"': usageQuote,
		'~': usageGrave,
		'<': usageComma,
		'>': usagePeriod,
		'?': usageSlash,
	}
	for c, usage := range shifted {
		table[c] = KeyInfo{Usage: usage, RequiresShift: true}
	}
}

// Lookup returns the KeyInfo for a recognized character. Unknown characters
// return ok=false; callers must skip them rather than treating it as an
// error (spec.md §4.B, §7 UnsupportedCharacter).
func Lookup(c byte) (KeyInfo, bool) {
	info, ok := table[c]
	return info, ok
}
