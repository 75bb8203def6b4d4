package ble

import (
	"context"
	"fmt"

	"github.com/godbus/dbus/v5"
)

const (
	leAdvManager  = "org.bluez.LEAdvertisingManager1"
	leAdvIface    = "org.bluez.LEAdvertisement1"
	advObjectPath = "/jadeai/bthid/advertisement0"
)

// advertisement implements org.bluez.LEAdvertisement1, exposing the
// peripheral type, both service UUIDs, the local name and appearance per
// spec.md §6's "LE advertisement exposes peripheral type, both service
// UUIDs, the configured local name, and an appearance value."
type advertisement struct {
	device DeviceInfo
}

func (a *advertisement) Release() *dbus.Error { return nil }

func (a *advertisement) getAll() map[string]dbus.Variant {
	return map[string]dbus.Variant{
		"Type":         dbus.MakeVariant("peripheral"),
		"ServiceUUIDs": dbus.MakeVariant([]string{uuidHIDService, uuidDeviceInfoService}),
		"LocalName":    dbus.MakeVariant(a.device.Name),
		"Appearance":   dbus.MakeVariant(a.device.Appearance),
	}
}

// Get implements org.freedesktop.DBus.Properties.Get for the advertisement
// object, which BlueZ queries while registering it.
func (a *advertisement) Get(iface, prop string) (dbus.Variant, *dbus.Error) {
	if v, ok := a.getAll()[prop]; ok {
		return v, nil
	}
	return dbus.Variant{}, &dbus.Error{Name: "org.freedesktop.DBus.Error.UnknownProperty"}
}

func (a *advertisement) GetAll(iface string) (map[string]dbus.Variant, *dbus.Error) {
	return a.getAll(), nil
}

func registerAdvertisement(ctx context.Context, conn *dbus.Conn, adapterPath dbus.ObjectPath, device DeviceInfo) (unregister func(), err error) {
	path := dbus.ObjectPath(advObjectPath)
	adv := &advertisement{device: device}
	if err := conn.Export(adv, path, leAdvIface); err != nil {
		return nil, fmt.Errorf("ble: export advertisement: %w", err)
	}
	if err := conn.Export(adv, path, propsIface); err != nil {
		return nil, fmt.Errorf("ble: export advertisement properties: %w", err)
	}

	obj := conn.Object(bluezService, adapterPath)
	call := obj.CallWithContext(ctx, leAdvManager+".RegisterAdvertisement", 0, path, map[string]dbus.Variant{})
	if call.Err != nil {
		return nil, fmt.Errorf("ble: RegisterAdvertisement: %w", call.Err)
	}

	return func() {
		obj.Call(leAdvManager+".UnregisterAdvertisement", 0, path)
	}, nil
}
