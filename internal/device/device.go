package device

import (
	"context"
	"errors"
)

// Adapter errors
var (
	// ErrBluetoothOff indicates the host radio is powered off or unavailable.
	ErrBluetoothOff = errors.New("bluetooth is turned off")
	ErrUnsupported  = errors.New("unsupported")
)

// ScanningDevice represents a host BLE adapter capable of scanning for advertisements.
// Scan blocks until ctx is done or the adapter fails, invoking handler per received advertisement.
type ScanningDevice interface {
	Scan(ctx context.Context, allowDup bool, handler func(Advertisement)) error
}

// ServiceData is a service-data AD structure.
type ServiceData struct {
	UUID string
	Data []byte
}

// Advertisement is a single detection event delivered by the host adapter.
type Advertisement interface {
	LocalName() string
	ManufacturerData() []byte
	ServiceData() []ServiceData
	Services() []string
	TxPowerLevel() int
	Connectable() bool

	RSSI() int
	Addr() string

	// RawData returns the advertisement frame as received (advertising data
	// followed by scan response, when present).
	RawData() []byte
}

// TxPowerUnknown is reported by TxPowerLevel when the advertisement carries no TX power.
const TxPowerUnknown = 127
