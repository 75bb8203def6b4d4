package configsvc

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"

	"github.com/goccy/go-yaml"
)

// DeviceConfig is the BLE/classic daemon's config surface per spec.md §6:
// device identity, enable flags, the safety block bounding pacing/clamping,
// and the HTTP bind address the BLE variant's API listens on.
type DeviceConfig struct {
	Name         string `json:"name"`
	AdapterID    string `json:"adapter_id"`
	Manufacturer string `json:"manufacturer"`
	Appearance   uint16 `json:"appearance"`

	KeyboardEnabled bool `json:"keyboard_enabled"`
	MouseEnabled    bool `json:"mouse_enabled"`

	Safety SafetyConfig `json:"safety"`

	HTTPBindAddr string `json:"http_bind_addr"`

	// DefaultButton is the button CLICK/ "/hid/click" use when the caller
	// doesn't name one.
	DefaultButton ButtonMask `json:"default_button" yaml:"default_button"`
}

// ButtonMask is a mouse button's HID report bitmask, given a textual
// identity ("left", "right", "middle") at the config layer the way
// hidsvc.Address gives a backend/id pair a textual identity -- marshaled
// through the name, not the numeric mask, so config files stay readable.
type ButtonMask uint8

const (
	ButtonLeft   ButtonMask = 0x01
	ButtonRight  ButtonMask = 0x02
	ButtonMiddle ButtonMask = 0x04
)

func (b ButtonMask) String() string {
	switch b {
	case ButtonLeft:
		return "left"
	case ButtonRight:
		return "right"
	case ButtonMiddle:
		return "middle"
	default:
		return fmt.Sprintf("0x%02x", uint8(b))
	}
}

// ParseButtonMask accepts the canonical names plus a raw "0xNN" mask, the
// way hidsvc.ParseAddress falls back from a structured form to a string.
func ParseButtonMask(s string) (ButtonMask, error) {
	switch s {
	case "left", "":
		return ButtonLeft, nil
	case "right":
		return ButtonRight, nil
	case "middle":
		return ButtonMiddle, nil
	}
	var raw uint8
	if _, err := fmt.Sscanf(s, "0x%02x", &raw); err == nil {
		return ButtonMask(raw), nil
	}
	return 0, fmt.Errorf("configsvc: unknown button %q", s)
}

func (b ButtonMask) MarshalYAML() ([]byte, error) {
	return yaml.Marshal(b.String())
}

func (b *ButtonMask) UnmarshalYAML(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	var s string
	if err := yaml.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseButtonMask(s)
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}

func (b ButtonMask) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.String())
}

func (b *ButtonMask) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseButtonMask(s)
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}

// SafetyConfig bounds input pacing and motion step size (spec.md §6).
type SafetyConfig struct {
	KeypressDelayMs  int `json:"keypress_delay_ms"`
	MouseMoveDelayMs int `json:"mouse_move_delay_ms"`
	MouseStepLimit   int `json:"mouse_step_limit"`
}

// DefaultDeviceConfig matches spec.md §6's stated defaults.
func DefaultDeviceConfig() DeviceConfig {
	return DeviceConfig{
		Name:            "JadeAI HID",
		AdapterID:       "hci0",
		Manufacturer:    "JadeAI",
		Appearance:      0x03C1, // HID Generic
		KeyboardEnabled: true,
		MouseEnabled:    true,
		Safety: SafetyConfig{
			KeypressDelayMs:  20,
			MouseMoveDelayMs: 5,
			MouseStepLimit:   50,
		},
		HTTPBindAddr:  "0.0.0.0:8003",
		DefaultButton: ButtonLeft,
	}
}

var envTokenPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::([^}]*))?\}`)

// ExpandEnvTokens replaces every ${NAME:default} token in s with the named
// environment variable's value, or default when NAME is unset or empty,
// per spec.md §6's "Env tokens ${NAME:default} are expanded in string
// values."
func ExpandEnvTokens(s string) string {
	return envTokenPattern.ReplaceAllStringFunc(s, func(token string) string {
		m := envTokenPattern.FindStringSubmatch(token)
		name, def := m[1], m[2]
		if v, ok := os.LookupEnv(name); ok && v != "" {
			return v
		}
		return def
	})
}

// ExpandConfig walks the string fields env tokens can plausibly appear in
// (name, adapter id, manufacturer, bind address) and expands them in
// place.
func ExpandConfig(c DeviceConfig) DeviceConfig {
	c.Name = ExpandEnvTokens(c.Name)
	c.AdapterID = ExpandEnvTokens(c.AdapterID)
	c.Manufacturer = ExpandEnvTokens(c.Manufacturer)
	c.HTTPBindAddr = ExpandEnvTokens(c.HTTPBindAddr)
	return c
}
