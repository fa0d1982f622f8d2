package device_test

import (
	"encoding/hex"
	"testing"

	"github.com/srg/beacons/internal/beacon"
	"github.com/srg/beacons/internal/device"
	"github.com/srg/beacons/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const airLocateID = "e2c56db5-dffb-48d2-b060-d0f5a71096e0"

func TestEncodeAdvertisingData_IBeacon(t *testing.T) {
	adv := testutils.NewAdvertisementBuilder().
		WithConnectable(true).
		WithIBeacon(airLocateID, 1, 2, -59).
		Build()

	raw := device.EncodeAdvertisingData(adv)
	assert.Equal(t, "0201061aff4c000215e2c56db5dffb48d2b060d0f5a71096e000010002c5", hex.EncodeToString(raw))

	rec, ok := beacon.Decode(raw, -65, "aa:bb", "")
	require.True(t, ok, "encoded iBeacon advertisement MUST decode")
	assert.Equal(t, beacon.DialectIBeacon, rec.Dialect)
	assert.Equal(t, airLocateID, rec.ProximityID)
	assert.Equal(t, uint16(1), rec.Major)
	assert.Equal(t, uint16(2), rec.Minor)
	assert.Equal(t, int8(-59), rec.CalibratedPower)
}

func TestEncodeAdvertisingData_Layout(t *testing.T) {
	tests := []struct {
		name     string
		adv      device.Advertisement
		expected string
	}{
		{
			name:     "flags only, non-connectable",
			adv:      testutils.NewAdvertisementBuilder().WithConnectable(false).Build(),
			expected: "020104",
		},
		{
			name:     "name and tx power",
			adv:      testutils.NewAdvertisementBuilder().WithName("Tag").WithTxPower(-4).Build(),
			expected: "020106" + "04095461" + "67" + "020afc",
		},
		{
			name:     "16-bit services are little-endian",
			adv:      testutils.NewAdvertisementBuilder().WithServices("180D", "0000180f-0000-1000-8000-00805f9b34fb").Build(),
			expected: "020106" + "05030d180f18",
		},
		{
			name:     "128-bit service",
			adv:      testutils.NewAdvertisementBuilder().WithServices("6e400001-b5a3-f393-e0a9-e50e24dcca9e").Build(),
			expected: "020106" + "1107" + "9ecadc240ee5a9e093f3a3b50100406e",
		},
		{
			name: "service data sorted by UUID",
			adv: testutils.NewAdvertisementBuilder().
				WithServiceData("FEAA", []byte{0x10}).
				WithServiceData("180F", []byte{0x64}).
				Build(),
			expected: "020106" + "04160f1864" + "0416aafe10",
		},
		{
			name:     "invalid service UUID is skipped",
			adv:      testutils.NewAdvertisementBuilder().WithServices("not-a-uuid").Build(),
			expected: "020106",
		},
		{
			name:     "oversized manufacturer data is skipped",
			adv:      testutils.NewAdvertisementBuilder().WithManufacturerData(make([]byte, 255)).Build(),
			expected: "020106",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, hex.EncodeToString(device.EncodeAdvertisingData(tt.adv)))
		})
	}
}

func TestEncodeAdvertisingData_DoesNotMutateServiceData(t *testing.T) {
	adv := testutils.NewAdvertisementBuilder().
		WithServiceData("FEAA", []byte{0x10}).
		WithServiceData("180F", []byte{0x64}).
		Build()

	_ = device.EncodeAdvertisingData(adv)
	assert.Equal(t, "FEAA", adv.ServiceData()[0].UUID, "encoding MUST not reorder the advertisement's service data")
}
