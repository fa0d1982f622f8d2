package beacon

import (
	"bytes"
	"encoding/binary"

	"github.com/google/uuid"
)

const (
	// Offsets tested for a signature, inclusive.
	firstSignatureOffset = 2
	lastSignatureOffset  = 5

	// signatureLen is the number of bytes read at an offset to test all dialects.
	signatureLen = 4

	// MinFrameLen is the shortest frame that can hold a signature at the first offset.
	MinFrameLen = firstSignatureOffset + signatureLen

	// iBeacon payload layout relative to the matched offset:
	//
	//	o+0..o+1   company / AD header (not interpreted)
	//	o+2..o+3   0x02 0x15 (type, remaining length)
	//	o+4..o+19  proximity UUID
	//	o+20..o+21 major (big-endian)
	//	o+22..o+23 minor (big-endian)
	//	o+24       calibrated power (signed)
	proximityIDOffset = 4
	majorOffset       = 20
	minorOffset       = 22
	powerOffset       = 24
	iBeaconPayloadLen = 25

	// stubCalibratedPower is reported by the Estimote and AD77 dialects.
	stubCalibratedPower int8 = -55
)

var (
	iBeaconPrefix     = []byte{0x02, 0x15}
	estimoteSignature = []byte{0x2D, 0x24, 0xBF, 0x16}
	ad77Signature     = []byte{0xAD, 0x77, 0x00, 0xC6}
)

// Decode looks for a beacon signature in an advertisement frame and returns the
// decoded record. The second return value is false when the frame is not a
// beacon, including when it is too short to read at the offset that matched.
//
// Offsets 2 through 5 are tested in ascending order and the first matching
// signature wins. A canonical iBeacon frame is fully decoded; Estimote and
// AD77 frames yield a fixed record with zero identifiers and a calibrated
// power of -55 dBm, because their payloads are not laid out at these offsets.
func Decode(frame []byte, rssi int, address, name string) (Record, bool) {
	for o := firstSignatureOffset; o <= lastSignatureOffset; o++ {
		if len(frame) < o+signatureLen {
			break
		}
		sig := frame[o : o+signatureLen]

		switch {
		case bytes.Equal(sig[2:], iBeaconPrefix):
			if len(frame) < o+iBeaconPayloadLen {
				continue
			}
			return decodeIBeacon(frame[o:o+iBeaconPayloadLen], rssi, address, name), true
		case bytes.Equal(sig, estimoteSignature):
			return stubRecord(DialectEstimote, rssi, address, name), true
		case bytes.Equal(sig, ad77Signature):
			return stubRecord(DialectAD77, rssi, address, name), true
		}
	}
	return Record{}, false
}

// decodeIBeacon extracts fields from a payload starting at the matched offset.
// payload must hold iBeaconPayloadLen bytes.
func decodeIBeacon(payload []byte, rssi int, address, name string) Record {
	power := int8(payload[powerOffset])

	return Record{
		ProximityID:     formatProximityID(payload[proximityIDOffset:majorOffset]),
		Major:           binary.BigEndian.Uint16(payload[majorOffset:minorOffset]),
		Minor:           binary.BigEndian.Uint16(payload[minorOffset:powerOffset]),
		CalibratedPower: power,
		RSSI:            rssi,
		Distance:        EstimateDistance(rssi, int(power)),
		Address:         address,
		Name:            name,
		Dialect:         DialectIBeacon,
	}
}

func stubRecord(d Dialect, rssi int, address, name string) Record {
	return Record{
		ProximityID:     ZeroProximityID,
		CalibratedPower: stubCalibratedPower,
		RSSI:            rssi,
		Distance:        EstimateDistance(rssi, int(stubCalibratedPower)),
		Address:         address,
		Name:            name,
		Dialect:         d,
	}
}

// formatProximityID renders 16 raw bytes as lower-case 8-4-4-4-12 hex.
func formatProximityID(raw []byte) string {
	id, err := uuid.FromBytes(raw)
	if err != nil {
		// unreachable: callers always slice exactly 16 bytes
		return ZeroProximityID
	}
	return id.String()
}

// NormalizeProximityID parses a proximity UUID in any form accepted by
// uuid.Parse and returns it in the canonical form used by Record.
func NormalizeProximityID(s string) (string, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
