package main

import (
	"errors"

	"github.com/srg/beacons/internal/device"
	"github.com/srg/beacons/scanner"
)

// Command-level errors
var (
	// ErrNotIBeacon is returned by decode when the frame carries no beacon signature.
	ErrNotIBeacon = errors.New("not an iBeacon frame")
)

// FormatUserError turns known errors into a message for the terminal.
// Unknown errors are printed as is.
func FormatUserError(err error) string {
	switch {
	case errors.Is(err, device.ErrBluetoothOff):
		return "Bluetooth is turned off or unavailable. Turn it on and try again."
	case errors.Is(err, device.ErrUnsupported):
		return "Bluetooth scanning is not supported on this system: " + err.Error()
	case errors.Is(err, scanner.ErrScanInProgress):
		return "A scan is already running."
	default:
		return err.Error()
	}
}
