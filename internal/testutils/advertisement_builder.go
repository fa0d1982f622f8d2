package testutils

import (
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/srg/beacons/internal/device"
)

// AppleCompanyID is the Bluetooth SIG company identifier carried by iBeacon manufacturer data.
const AppleCompanyID uint16 = 0x004C

// FakeAdvertisement is an in-memory device.Advertisement.
type FakeAdvertisement struct {
	Name        string
	Address     string
	Rssi        int
	ServiceList []string
	ManufData   []byte
	SvcData     []device.ServiceData
	TxPower     int
	IsConnect   bool
	Raw         []byte // nil means "encode from the parsed fields"
}

func (a *FakeAdvertisement) LocalName() string                 { return a.Name }
func (a *FakeAdvertisement) ManufacturerData() []byte          { return a.ManufData }
func (a *FakeAdvertisement) ServiceData() []device.ServiceData { return a.SvcData }
func (a *FakeAdvertisement) Services() []string                { return a.ServiceList }
func (a *FakeAdvertisement) TxPowerLevel() int                 { return a.TxPower }
func (a *FakeAdvertisement) Connectable() bool                 { return a.IsConnect }
func (a *FakeAdvertisement) RSSI() int                         { return a.Rssi }
func (a *FakeAdvertisement) Addr() string                      { return a.Address }

// RawData returns the explicit frame if one was set, otherwise the AD encoding of the fields.
func (a *FakeAdvertisement) RawData() []byte {
	if a.Raw != nil {
		return a.Raw
	}
	return device.EncodeAdvertisingData(a)
}

// AdvertisementBuilder builds fake BLE advertisements for testing.
// It provides a fluent API; every With* call returns the builder.
type AdvertisementBuilder struct {
	adv FakeAdvertisement
}

// NewAdvertisementBuilder creates a new AdvertisementBuilder with default values.
// The builder starts connectable, with RSSI -50 and no TX power.
func NewAdvertisementBuilder() *AdvertisementBuilder {
	return &AdvertisementBuilder{
		adv: FakeAdvertisement{
			Rssi:      -50,
			TxPower:   device.TxPowerUnknown,
			IsConnect: true,
		},
	}
}

// WithName sets the local name for the advertisement.
func (b *AdvertisementBuilder) WithName(name string) *AdvertisementBuilder {
	b.adv.Name = name
	return b
}

// WithAddress sets the device address for the advertisement.
func (b *AdvertisementBuilder) WithAddress(addr string) *AdvertisementBuilder {
	b.adv.Address = addr
	return b
}

// WithRSSI sets the signal strength for the advertisement.
func (b *AdvertisementBuilder) WithRSSI(rssi int) *AdvertisementBuilder {
	b.adv.Rssi = rssi
	return b
}

// WithServices adds service UUIDs to the advertisement.
// UUIDs can be in short form (e.g., "180D") or full form.
func (b *AdvertisementBuilder) WithServices(uuids ...string) *AdvertisementBuilder {
	b.adv.ServiceList = append(b.adv.ServiceList, uuids...)
	return b
}

// WithManufacturerData sets the manufacturer-specific data.
func (b *AdvertisementBuilder) WithManufacturerData(data []byte) *AdvertisementBuilder {
	b.adv.ManufData = data
	return b
}

// WithServiceData adds service-specific data for the given service UUID.
func (b *AdvertisementBuilder) WithServiceData(uuid string, data []byte) *AdvertisementBuilder {
	b.adv.SvcData = append(b.adv.SvcData, device.ServiceData{UUID: uuid, Data: data})
	return b
}

// WithTxPower sets the transmission power level.
func (b *AdvertisementBuilder) WithTxPower(power int) *AdvertisementBuilder {
	b.adv.TxPower = power
	return b
}

// WithConnectable sets whether the device accepts connections.
func (b *AdvertisementBuilder) WithConnectable(c bool) *AdvertisementBuilder {
	b.adv.IsConnect = c
	return b
}

// WithRawData sets the frame returned by RawData, bypassing AD encoding.
func (b *AdvertisementBuilder) WithRawData(raw []byte) *AdvertisementBuilder {
	b.adv.Raw = raw
	return b
}

// WithRawHex is WithRawData for a hex string; spaces are ignored. Panics on invalid hex.
func (b *AdvertisementBuilder) WithRawHex(s string) *AdvertisementBuilder {
	raw, err := hex.DecodeString(strings.ReplaceAll(s, " ", ""))
	if err != nil {
		panic(fmt.Sprintf("WithRawHex: %v", err))
	}
	return b.WithRawData(raw)
}

// WithIBeacon sets Apple manufacturer data carrying an iBeacon payload.
// Panics on an invalid proximity UUID as this is intended for test data setup.
func (b *AdvertisementBuilder) WithIBeacon(proximityID string, major, minor uint16, power int8) *AdvertisementBuilder {
	return b.WithManufacturerData(IBeaconManufacturerData(proximityID, major, minor, power))
}

// IBeaconManufacturerData builds the 25-byte manufacturer data of an iBeacon advertisement.
func IBeaconManufacturerData(proximityID string, major, minor uint16, power int8) []byte {
	id := uuid.MustParse(proximityID)

	data := make([]byte, 0, 25)
	data = binary.LittleEndian.AppendUint16(data, AppleCompanyID)
	data = append(data, 0x02, 0x15)
	data = append(data, id[:]...)
	data = binary.BigEndian.AppendUint16(data, major)
	data = binary.BigEndian.AppendUint16(data, minor)
	return append(data, byte(power))
}

// FromJSON fills builder fields from a JSON string with format support.
// Only keys present in the JSON are applied. Panics on invalid JSON as this
// is intended for test data setup.
func (b *AdvertisementBuilder) FromJSON(jsonStrFmt string, args ...interface{}) *AdvertisementBuilder {
	jsonStr := fmt.Sprintf(jsonStrFmt, args...)

	var data struct {
		Name             *string           `json:"name"`
		Address          *string           `json:"address"`
		RSSI             *int              `json:"rssi"`
		Services         []string          `json:"services"`
		ManufacturerData []byte            `json:"manufacturerData"`
		ServiceData      map[string][]byte `json:"serviceData"`
		TxPower          *int              `json:"txPower"`
		Connectable      *bool             `json:"connectable"`
		Raw              *string           `json:"raw"`
	}
	if err := json.Unmarshal([]byte(jsonStr), &data); err != nil {
		panic(fmt.Sprintf("FromJSON: %v", err))
	}

	if data.Name != nil {
		b.WithName(*data.Name)
	}
	if data.Address != nil {
		b.WithAddress(*data.Address)
	}
	if data.RSSI != nil {
		b.WithRSSI(*data.RSSI)
	}
	if data.Services != nil {
		b.WithServices(data.Services...)
	}
	if data.ManufacturerData != nil {
		b.WithManufacturerData(data.ManufacturerData)
	}
	for u, d := range data.ServiceData {
		b.WithServiceData(u, d)
	}
	if data.TxPower != nil {
		b.WithTxPower(*data.TxPower)
	}
	if data.Connectable != nil {
		b.WithConnectable(*data.Connectable)
	}
	if data.Raw != nil {
		b.WithRawHex(*data.Raw)
	}
	return b
}

// Build returns a copy of the configured advertisement.
func (b *AdvertisementBuilder) Build() *FakeAdvertisement {
	adv := b.adv
	return &adv
}
