package ble

import (
	"context"
	"fmt"
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/jadeai/bthid/internal/hidprofile"
	"github.com/jadeai/bthid/pkg/hidreport"
	"go.uber.org/zap"
)

// DeviceInfo names the identity the GATT services advertise, sourced from
// config (spec.md §6 "Environment": device name, adapter id, manufacturer,
// appearance).
type DeviceInfo struct {
	Name         string
	AdapterID    string // e.g. "hci0"
	Manufacturer string
	Appearance   uint16
}

// Transport implements hidprofile.Transport over a BlueZ GATT application
// plus an LE advertisement. Unlike the classic transport's two L2CAP listen
// sockets, BLE has one persistent GATT server; "accept" here means the
// control plane becomes available as soon as the application registers,
// and the interrupt plane becomes available the first time a central
// subscribes to either Report characteristic.
type Transport struct {
	log    *zap.Logger
	device DeviceInfo

	conn          *dbus.Conn
	app           *application
	adapterPath   dbus.ObjectPath
	unregisterApp func()
	unregisterAdv func()

	keyboardReport *characteristic
	mouseReport    *characteristic
	bootKeyboard   *characteristic
	bootMouse      *characteristic

	control *controlPeer

	mu             sync.Mutex
	controlSent    bool
	interruptReady chan struct{}
	interruptOnce  sync.Once
}

// New returns an unstarted BLE Transport.
func New(log *zap.Logger, device DeviceInfo) *Transport {
	return &Transport{
		log:            log,
		device:         device,
		interruptReady: make(chan struct{}, 1),
	}
}

func (t *Transport) onInterruptSubscribed() {
	t.interruptOnce.Do(func() {
		t.interruptReady <- struct{}{}
	})
}

// Start connects to the system bus, builds the GATT application (HID
// service + Device Information service), registers it, and starts an LE
// advertisement naming both service UUIDs.
func (t *Transport) Start(ctx context.Context) error {
	conn, err := dbus.SystemBus()
	if err != nil {
		return fmt.Errorf("ble: connect system bus: %w", err)
	}
	t.conn = conn
	t.adapterPath = dbus.ObjectPath("/org/bluez/" + t.device.AdapterID)

	t.app = newApplication(t.log, conn)
	t.control = newControlPeer()

	hidSvc := t.app.addService(0, uuidHIDService, true)

	infoChar := newCharacteristic([]byte{0x11, 0x01, 0x00, 0x02}, nil)
	t.app.addCharacteristic(hidSvc, 0, uuidHIDInformation, []string{"read"}, infoChar)

	reportMapChar := newCharacteristic(hidreport.Descriptor, nil)
	t.app.addCharacteristic(hidSvc, 1, uuidReportMap, []string{"read"}, reportMapChar)

	controlPtChar := newCharacteristic([]byte{0x00}, t.control.onControlPointWrite)
	t.app.addCharacteristic(hidSvc, 2, uuidHIDControlPt, []string{"write-without-response"}, controlPtChar)

	protocolChar := newCharacteristic([]byte{0x01}, t.control.onProtocolModeWrite)
	t.app.addCharacteristic(hidSvc, 3, uuidProtocolMode, []string{"read", "write-without-response"}, protocolChar)

	t.keyboardReport = newCharacteristic(make([]byte, 9), nil)
	t.keyboardReport.onSubscribe = t.onInterruptSubscribed
	kPath := t.app.addCharacteristic(hidSvc, 4, uuidReport, []string{"read", "notify"}, t.keyboardReport)
	t.app.addReportReference(kPath, 0, hidreport.KeyboardReportID, 0x01)

	t.mouseReport = newCharacteristic(make([]byte, 5), nil)
	t.mouseReport.onSubscribe = t.onInterruptSubscribed
	mPath := t.app.addCharacteristic(hidSvc, 5, uuidReport, []string{"read", "notify"}, t.mouseReport)
	t.app.addReportReference(mPath, 0, hidreport.MouseReportID, 0x01)

	t.bootKeyboard = newCharacteristic(make([]byte, 8), nil)
	t.bootKeyboard.onSubscribe = t.onInterruptSubscribed
	t.app.addCharacteristic(hidSvc, 6, uuidBootKeyboardIn, []string{"read", "notify"}, t.bootKeyboard)

	t.bootMouse = newCharacteristic(make([]byte, 3), nil)
	t.bootMouse.onSubscribe = t.onInterruptSubscribed
	t.app.addCharacteristic(hidSvc, 7, uuidBootMouseIn, []string{"read", "notify"}, t.bootMouse)

	devInfoSvc := t.app.addService(1, uuidDeviceInfoService, true)
	t.app.addCharacteristic(devInfoSvc, 0, uuidManufacturerName, []string{"read"}, newCharacteristic([]byte(t.device.Manufacturer), nil))
	t.app.addCharacteristic(devInfoSvc, 1, uuidPnPID, []string{"read"}, newCharacteristic([]byte{0x02, 0xD4, 0x04, 0x34, 0x12, 0x01, 0x00}, nil))

	if err := t.app.register(ctx, t.adapterPath); err != nil {
		return err
	}
	t.unregisterApp = func() { t.app.unregister(t.adapterPath) }

	unregisterAdv, err := registerAdvertisement(ctx, conn, t.adapterPath, t.device)
	if err != nil {
		t.unregisterApp()
		return err
	}
	t.unregisterAdv = unregisterAdv

	return nil
}

// PollControlAccept returns the always-available control peer exactly once,
// right after the GATT application has registered -- BLE's control plane
// has no connection-oriented accept step.
func (t *Transport) PollControlAccept() (hidprofile.ControlPeer, bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.controlSent {
		return nil, false, nil
	}
	t.controlSent = true
	return t.control, true, nil
}

// PollInterruptAccept returns the interrupt peer the first time a central
// subscribes to any Report characteristic.
func (t *Transport) PollInterruptAccept() (hidprofile.InterruptPeer, bool, error) {
	select {
	case <-t.interruptReady:
		return &interruptPeer{
			conn:           t.conn,
			keyboardReport: t.keyboardReport,
			mouseReport:    t.mouseReport,
			bootKeyboard:   t.bootKeyboard,
			bootMouse:      t.bootMouse,
		}, true, nil
	default:
		return nil, false, nil
	}
}

// Close unregisters the advertisement and the GATT application, and
// releases the bus connection.
func (t *Transport) Close() error {
	if t.unregisterAdv != nil {
		t.unregisterAdv()
	}
	if t.unregisterApp != nil {
		t.unregisterApp()
	}
	if t.conn != nil {
		return t.conn.Close()
	}
	return nil
}

var _ hidprofile.Transport = (*Transport)(nil)
