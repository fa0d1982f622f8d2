package beacon

import "fmt"

// ZeroProximityID is reported by dialects that do not carry a proximity UUID.
const ZeroProximityID = "00000000-0000-0000-0000-000000000000"

// Dialect identifies which beacon signature matched a frame.
type Dialect uint8

const (
	DialectUnknown  Dialect = iota // not serialized; records parsed from text carry this
	DialectIBeacon                 // Apple 0x02 0x15 prefix
	DialectEstimote                // 2D 24 BF 16
	DialectAD77                    // AD 77 00 C6
)

// String returns human-readable dialect name
func (d Dialect) String() string {
	switch d {
	case DialectUnknown:
		return "unknown"
	case DialectIBeacon:
		return "iBeacon"
	case DialectEstimote:
		return "Estimote"
	case DialectAD77:
		return "AD77"
	default:
		return fmt.Sprintf("Dialect(%d)", uint8(d))
	}
}

// Record is a fully decoded beacon advertisement.
//
// Records are only produced by a successful Decode (or parsed back from their
// serialized form); there is no partially populated record.
type Record struct {
	ProximityID     string
	Major           uint16
	Minor           uint16
	CalibratedPower int8
	RSSI            int
	Distance        float64 // meters, or DistanceUnknown
	Address         string
	Name            string
	Dialect         Dialect
}

// HasDistance reports whether the distance estimate could be computed.
func (r Record) HasDistance() bool {
	return r.Distance >= 0
}
