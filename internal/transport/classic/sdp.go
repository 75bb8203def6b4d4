//go:build linux

package classic

import (
	"context"
	"fmt"

	"github.com/godbus/dbus/v5"
	"github.com/jadeai/bthid/pkg/hidreport"
)

const (
	hidUUID              = "00001124-0000-1000-8000-00805f9b34fb"
	profileManagerObject = "/org/bluez"
	profileManagerIface  = "org.bluez.ProfileManager1"
	hidProfileObjectPath = "/jadeai/bthid/profile"
)

// serviceRecordXML renders the attribute block spec.md §6 names as the SDP
// record XML BlueZ's ProfileManager1.RegisterProfile accepts in its
// "ServiceRecord" option -- BlueZ's own supported path for publishing a
// record, superseding direct SDP-server socket writes.
func serviceRecordXML(deviceName string) string {
	reportDescHex := fmt.Sprintf("%x", hidreport.Descriptor)
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8" ?>
<record>
  <attribute id="0x0001"><sequence><uuid value="0x1124"/></sequence></attribute>
  <attribute id="0x0004">
    <sequence>
      <sequence><uuid value="0x0100"/><uint16 value="0x0011"/></sequence>
      <sequence><uuid value="0x0011"/></sequence>
    </sequence>
  </attribute>
  <attribute id="0x0005"><sequence><uuid value="0x1002"/></sequence></attribute>
  <attribute id="0x0006"><sequence><uint16 value="0x656e"/><uint16 value="0x006a"/><uint16 value="0x0100"/></sequence></attribute>
  <attribute id="0x0009"><sequence><sequence><uuid value="0x1124"/><uint16 value="0x0100"/></sequence></sequence></attribute>
  <attribute id="0x000d">
    <sequence>
      <sequence>
        <sequence><uuid value="0x0100"/><uint16 value="0x0013"/></sequence>
        <sequence><uuid value="0x0011"/></sequence>
      </sequence>
    </sequence>
  </attribute>
  <attribute id="0x0100"><text value="%s"/></attribute>
  <attribute id="0x0101"><text value="JadeAI virtual keyboard and mouse"/></attribute>
  <attribute id="0x0200"><uint16 value="0x0100"/></attribute>
  <attribute id="0x0201"><uint16 value="0x0111"/></attribute>
  <attribute id="0x0202"><uint8 value="0xc0"/></attribute>
  <attribute id="0x0203"><uint8 value="0x00"/></attribute>
  <attribute id="0x0204"><boolean value="true"/></attribute>
  <attribute id="0x0205"><boolean value="true"/></attribute>
  <attribute id="0x0206">
    <sequence><sequence><uint8 value="0x22"/><text encoding="hex" value="%s"/></sequence></sequence>
  </attribute>
  <attribute id="0x0207"><sequence><sequence><uint16 value="0x0409"/><uint16 value="0x0100"/></sequence></sequence></attribute>
  <attribute id="0x020b"><uint16 value="0x0100"/></attribute>
  <attribute id="0x020c"><uint16 value="0x0c80"/></attribute>
  <attribute id="0x020d"><boolean value="false"/></attribute>
  <attribute id="0x020e"><boolean value="true"/></attribute>
  <attribute id="0x020f"><boolean value="true"/></attribute>
</record>`, deviceName, reportDescHex)
}

// RegisterSDP registers the HID profile and its SDP record with bluetoothd
// over the system bus, so a scanning host discovers PSM 0x11/0x13 and the
// report descriptor before ever touching the raw sockets this package
// listens on. Grounded on the same dbus.SystemBus + ProfileManager1 pattern
// connmgr uses for SPP registration, generalized from RFCOMM channels to
// L2CAP PSMs.
func RegisterSDP(ctx context.Context, deviceName string) (unregister func(), err error) {
	conn, err := dbus.SystemBus()
	if err != nil {
		return nil, fmt.Errorf("classic: connect system bus: %w", err)
	}

	opts := map[string]dbus.Variant{
		"Name":                  dbus.MakeVariant(deviceName),
		"Role":                  dbus.MakeVariant("server"),
		"RequireAuthentication": dbus.MakeVariant(true),
		"RequireAuthorization":  dbus.MakeVariant(false),
		"ServiceRecord":         dbus.MakeVariant(serviceRecordXML(deviceName)),
	}

	mgr := conn.Object("org.bluez", dbus.ObjectPath(profileManagerObject))
	call := mgr.Call(profileManagerIface+".RegisterProfile", 0,
		dbus.ObjectPath(hidProfileObjectPath), hidUUID, opts)
	if call.Err != nil {
		conn.Close()
		return nil, fmt.Errorf("classic: RegisterProfile: %w", call.Err)
	}

	return func() {
		mgr.Call(profileManagerIface+".UnregisterProfile", 0, dbus.ObjectPath(hidProfileObjectPath))
		conn.Close()
	}, nil
}
