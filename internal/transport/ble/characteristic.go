package ble

import (
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/puzpuzpuz/xsync/v3"
)

// characteristic implements org.bluez.GattCharacteristic1 for one value.
// Reads and static fields (HID Information, Report Map, PnP ID,
// Manufacturer Name) are served straight out of value. Writable
// characteristics (Protocol Mode, HID Control Point) forward WriteValue
// calls to onWrite. Notifying characteristics (the two Report chars, the
// boot input chars) track subscriber sessions in subscribers and push
// through PropertiesChanged.
type characteristic struct {
	mu      sync.Mutex
	path    dbus.ObjectPath
	uuid    string
	service dbus.ObjectPath
	value   []byte

	onWrite     func(data []byte)
	onSubscribe func()

	notifying   bool
	subscribers *xsync.MapOf[string, struct{}]
}

func newCharacteristic(initial []byte, onWrite func([]byte)) *characteristic {
	return &characteristic{
		value:       append([]byte(nil), initial...),
		onWrite:     onWrite,
		subscribers: xsync.NewMapOf[string, struct{}](),
	}
}

// ReadValue implements org.bluez.GattCharacteristic1.ReadValue.
func (c *characteristic) ReadValue(options map[string]dbus.Variant) ([]byte, *dbus.Error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]byte(nil), c.value...), nil
}

// WriteValue implements org.bluez.GattCharacteristic1.WriteValue.
func (c *characteristic) WriteValue(value []byte, options map[string]dbus.Variant) *dbus.Error {
	c.mu.Lock()
	c.value = append([]byte(nil), value...)
	cb := c.onWrite
	c.mu.Unlock()
	if cb != nil {
		cb(value)
	}
	return nil
}

// StartNotify implements org.bluez.GattCharacteristic1.StartNotify. BlueZ
// calls this once per central subscribing to this characteristic; the
// session key isn't exposed by the API, so a single "any subscriber" flag
// (not a count: one StopNotify clears it) stands in for per-device
// bookkeeping, and subscribers holds only the fixed "primary" key.
func (c *characteristic) StartNotify() *dbus.Error {
	c.mu.Lock()
	first := !c.notifying
	c.notifying = true
	hook := c.onSubscribe
	c.mu.Unlock()
	c.subscribers.Store("primary", struct{}{})
	if first && hook != nil {
		hook()
	}
	return nil
}

func (c *characteristic) StopNotify() *dbus.Error {
	c.mu.Lock()
	c.notifying = false
	c.mu.Unlock()
	c.subscribers.Delete("primary")
	return nil
}

func (c *characteristic) isNotifying() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.notifying
}

// notify pushes a new value out via PropertiesChanged on the Value
// property, which is how BlueZ forwards GATT notifications to subscribed
// centrals.
func (c *characteristic) notify(conn *dbus.Conn, value []byte) error {
	c.mu.Lock()
	c.value = append([]byte(nil), value...)
	path := c.path
	c.mu.Unlock()

	if conn == nil {
		return nil
	}
	changed := map[string]dbus.Variant{"Value": dbus.MakeVariant(value)}
	return conn.Emit(path, propsIface+".PropertiesChanged", gattChar1, changed, []string{})
}
