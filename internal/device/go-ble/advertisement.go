package goble

import (
	"github.com/go-ble/ble"
	"github.com/srg/beacons/internal/device"
)

// rawFrame is implemented by platform advertisements that keep the received PDU (linux HCI).
type rawFrame interface {
	Data() []byte
	ScanResponse() []byte
}

// BLEAdvertisement wraps ble.Advertisement to implement device.Advertisement interface
type BLEAdvertisement struct {
	adv ble.Advertisement
}

// NewBLEAdvertisement creates a new BLEAdvertisement wrapper
func NewBLEAdvertisement(adv ble.Advertisement) device.Advertisement {
	return &BLEAdvertisement{adv: adv}
}

func (a *BLEAdvertisement) LocalName() string        { return a.adv.LocalName() }
func (a *BLEAdvertisement) ManufacturerData() []byte { return a.adv.ManufacturerData() }
func (a *BLEAdvertisement) TxPowerLevel() int        { return a.adv.TxPowerLevel() }
func (a *BLEAdvertisement) Connectable() bool        { return a.adv.Connectable() }
func (a *BLEAdvertisement) RSSI() int                { return a.adv.RSSI() }

func (a *BLEAdvertisement) Addr() string {
	if addr := a.adv.Addr(); addr != nil {
		return addr.String()
	}
	return ""
}

func (a *BLEAdvertisement) ServiceData() []device.ServiceData {
	bleServiceData := a.adv.ServiceData()
	result := make([]device.ServiceData, len(bleServiceData))
	for i, sd := range bleServiceData {
		result[i] = device.ServiceData{UUID: device.NormalizeUUID(sd.UUID.String()), Data: sd.Data}
	}
	return result
}

func (a *BLEAdvertisement) Services() []string {
	bleServices := a.adv.Services()
	result := make([]string, len(bleServices))
	for i, svc := range bleServices {
		result[i] = device.NormalizeUUID(svc.String())
	}
	return result
}

// RawData returns the received advertising data and scan response when the platform
// keeps them. CoreBluetooth only hands out parsed fields, so there the frame is
// re-encoded from those.
func (a *BLEAdvertisement) RawData() []byte {
	if rf, ok := a.adv.(rawFrame); ok {
		data := rf.Data()
		if len(data) > 0 {
			out := make([]byte, 0, len(data)+len(rf.ScanResponse()))
			out = append(out, data...)
			return append(out, rf.ScanResponse()...)
		}
	}
	return device.EncodeAdvertisingData(a)
}

// Unwrap returns the underlying ble.Advertisement for internal use within go-ble package
func (a *BLEAdvertisement) Unwrap() ble.Advertisement {
	return a.adv
}
