package device

import (
	"encoding/hex"
	"sort"
)

// AD structure types (Bluetooth Core Specification Supplement, Part A)
const (
	ADFlags            byte = 0x01
	ADServices16       byte = 0x03
	ADServices32       byte = 0x05
	ADServices128      byte = 0x07
	ADCompleteName     byte = 0x09
	ADTxPower          byte = 0x0A
	ADServiceData16    byte = 0x16
	ADServiceData128   byte = 0x21
	ADManufacturerData byte = 0xFF
)

const (
	flagsGeneralDiscoverable byte = 0x02
	flagsBREDRNotSupported   byte = 0x04
)

// EncodeAdvertisingData rebuilds the AD-structure byte layout of an advertisement
// from its parsed fields, for adapters that do not expose the raw frame.
//
// The manufacturer data structure follows the flags directly, which is where
// beacons put it: an iBeacon advertisement encodes as
// 02 01 06 1a ff 4c 00 02 15 <uuid> <major> <minor> <power>.
// Structures that would not fit a length byte are skipped.
func EncodeAdvertisingData(adv Advertisement) []byte {
	var out []byte

	flags := flagsBREDRNotSupported
	if adv.Connectable() {
		flags |= flagsGeneralDiscoverable
	}
	out = appendAD(out, ADFlags, []byte{flags})

	if md := adv.ManufacturerData(); len(md) > 0 {
		out = appendAD(out, ADManufacturerData, md)
	}

	if name := adv.LocalName(); name != "" {
		out = appendAD(out, ADCompleteName, []byte(name))
	}

	if tx := adv.TxPowerLevel(); tx != TxPowerUnknown {
		out = appendAD(out, ADTxPower, []byte{byte(int8(tx))})
	}

	var list16, list32, list128 []byte
	for _, s := range adv.Services() {
		raw := uuidBytesLE(s)
		switch len(raw) {
		case 2:
			list16 = append(list16, raw...)
		case 4:
			list32 = append(list32, raw...)
		case 16:
			list128 = append(list128, raw...)
		}
	}
	out = appendAD(out, ADServices16, list16)
	out = appendAD(out, ADServices32, list32)
	out = appendAD(out, ADServices128, list128)

	sd := adv.ServiceData()
	sorted := make([]ServiceData, len(sd))
	copy(sorted, sd)
	sort.SliceStable(sorted, func(i, j int) bool { return NormalizeUUID(sorted[i].UUID) < NormalizeUUID(sorted[j].UUID) })
	for _, entry := range sorted {
		raw := uuidBytesLE(entry.UUID)
		switch len(raw) {
		case 2:
			out = appendAD(out, ADServiceData16, append(raw, entry.Data...))
		case 16:
			out = appendAD(out, ADServiceData128, append(raw, entry.Data...))
		}
	}

	return out
}

// appendAD appends one length-prefixed AD structure; empty or oversized payloads are skipped.
func appendAD(out []byte, adType byte, payload []byte) []byte {
	if len(payload) == 0 || len(payload)+1 > 0xFF {
		return out
	}
	out = append(out, byte(len(payload)+1), adType)
	return append(out, payload...)
}

// uuidBytesLE returns the over-the-air (little-endian) bytes of a UUID, or nil if invalid.
func uuidBytesLE(uuid string) []byte {
	n := NormalizeUUID(uuid)
	if n == "" {
		return nil
	}
	raw, err := hex.DecodeString(n)
	if err != nil {
		return nil
	}
	for i, j := 0, len(raw)-1; i < j; i, j = i+1, j-1 {
		raw[i], raw[j] = raw[j], raw[i]
	}
	return raw
}
