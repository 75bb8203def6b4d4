// Package ble implements the BLE HID transport: a GATT HID-over-GATT (HOGP)
// service and a Device Information service, registered with bluetoothd over
// D-Bus, plus an LE advertisement -- per spec.md §6's GATT services list.
package ble

import (
	"context"
	"fmt"

	"github.com/godbus/dbus/v5"
	"go.uber.org/zap"
)

const (
	bluezService    = "org.bluez"
	objManagerIface = "org.freedesktop.DBus.ObjectManager"
	gattManager     = "org.bluez.GattManager1"
	gattService1    = "org.bluez.GattService1"
	gattChar1       = "org.bluez.GattCharacteristic1"
	gattDesc1       = "org.bluez.GattDescriptor1"
	propsIface      = "org.freedesktop.DBus.Properties"

	appRootPath = "/jadeai/bthid/hid0"
)

// UUIDs named by spec.md §6's GATT services list.
const (
	uuidHIDService     = "1812"
	uuidHIDInformation = "2a4a"
	uuidReportMap      = "2a4b"
	uuidHIDControlPt   = "2a4c"
	uuidReport         = "2a4d"
	uuidProtocolMode   = "2a4e"
	uuidBootKeyboardIn = "2a22"
	uuidBootMouseIn    = "2a33"
	uuidReportRef      = "2908"

	uuidDeviceInfoService = "180a"
	uuidManufacturerName  = "2a29"
	uuidPnPID             = "2a50"
)

// application is the exported ObjectManager root that bundles every GATT
// service/characteristic/descriptor object BlueZ discovers via
// GetManagedObjects when RegisterApplication is called.
type application struct {
	log  *zap.Logger
	conn *dbus.Conn
	path dbus.ObjectPath

	objects map[dbus.ObjectPath]map[string]map[string]dbus.Variant
	chars   map[string]*characteristic // keyed by UUID for quick lookup
}

func newApplication(log *zap.Logger, conn *dbus.Conn) *application {
	return &application{
		log:     log,
		conn:    conn,
		path:    dbus.ObjectPath(appRootPath),
		objects: make(map[dbus.ObjectPath]map[string]map[string]dbus.Variant),
		chars:   make(map[string]*characteristic),
	}
}

// GetManagedObjects implements org.freedesktop.DBus.ObjectManager for the
// application root object.
func (a *application) GetManagedObjects() (map[dbus.ObjectPath]map[string]map[string]dbus.Variant, *dbus.Error) {
	return a.objects, nil
}

func (a *application) addService(index int, uuid string, primary bool) dbus.ObjectPath {
	path := dbus.ObjectPath(fmt.Sprintf("%s/service%d", a.path, index))
	a.objects[path] = map[string]map[string]dbus.Variant{
		gattService1: {
			"UUID":    dbus.MakeVariant(uuid),
			"Primary": dbus.MakeVariant(primary),
		},
	}
	// No methods need exporting for GattService1: bluetoothd learns its
	// UUID/Primary properties from GetManagedObjects above and never calls
	// into the service object directly.
	return path
}

func (a *application) addCharacteristic(servicePath dbus.ObjectPath, index int, uuid string, flags []string, c *characteristic) dbus.ObjectPath {
	path := dbus.ObjectPath(fmt.Sprintf("%s/char%d", servicePath, index))
	c.path = path
	c.uuid = uuid
	c.service = servicePath

	a.objects[path] = map[string]map[string]dbus.Variant{
		gattChar1: {
			"UUID":    dbus.MakeVariant(uuid),
			"Service": dbus.MakeVariant(servicePath),
			"Flags":   dbus.MakeVariant(flags),
		},
	}
	if err := a.conn.Export(c, path, gattChar1); err != nil {
		a.log.Warn("export gatt characteristic failed", zap.Error(err))
	}
	if err := a.conn.Export(c, path, propsIface); err != nil {
		a.log.Warn("export gatt characteristic properties failed", zap.Error(err))
	}
	a.chars[uuid] = c
	return path
}

func (a *application) addReportReference(charPath dbus.ObjectPath, index int, reportID, reportType uint8) {
	path := dbus.ObjectPath(fmt.Sprintf("%s/desc%d", charPath, index))
	value := []byte{reportID, reportType}
	d := &descriptor{path: path, uuid: uuidReportRef, char: charPath, value: value}
	a.objects[path] = map[string]map[string]dbus.Variant{
		gattDesc1: {
			"UUID":           dbus.MakeVariant(uuidReportRef),
			"Characteristic": dbus.MakeVariant(charPath),
		},
	}
	if err := a.conn.Export(d, path, gattDesc1); err != nil {
		a.log.Warn("export gatt descriptor failed", zap.Error(err))
	}
}

// descriptor implements org.bluez.GattDescriptor1 for a fixed, read-only
// value (Report Reference is the only descriptor this service uses).
type descriptor struct {
	path  dbus.ObjectPath
	uuid  string
	char  dbus.ObjectPath
	value []byte
}

func (d *descriptor) ReadValue(options map[string]dbus.Variant) ([]byte, *dbus.Error) {
	return d.value, nil
}

// register calls GattManager1.RegisterApplication, handing bluetoothd the
// whole object tree built by addService/addCharacteristic.
func (a *application) register(ctx context.Context, adapterPath dbus.ObjectPath) error {
	if err := a.conn.Export(a, a.path, objManagerIface); err != nil {
		return fmt.Errorf("ble: export object manager: %w", err)
	}
	obj := a.conn.Object(bluezService, adapterPath)
	call := obj.CallWithContext(ctx, gattManager+".RegisterApplication", 0, a.path, map[string]dbus.Variant{})
	if call.Err != nil {
		return fmt.Errorf("ble: RegisterApplication: %w", call.Err)
	}
	return nil
}

func (a *application) unregister(adapterPath dbus.ObjectPath) {
	obj := a.conn.Object(bluezService, adapterPath)
	obj.Call(gattManager+".UnregisterApplication", 0, a.path)
}
