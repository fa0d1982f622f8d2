package devicefactory

import (
	"github.com/srg/beacons/internal/device"
	"github.com/srg/beacons/internal/device/go-ble"
)

// DeviceFactory creates a device.ScanningDevice for the host Bluetooth adapter.
// This is a variable so that it can be overridden in tests.
var DeviceFactory = func() (device.ScanningDevice, error) {
	return goble.NewScanner()
}
