package beacon

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Serialized field names, in output order.
const (
	FieldName     = "name"
	FieldMAC      = "mac"
	FieldDistance = "distance"
	FieldID       = "id"
	FieldRSSI     = "rssi"
	FieldPower    = "power"
	FieldMajor    = "major"
	FieldMinor    = "minor"
)

// Fields lists every serialized field in output order.
var Fields = []string{FieldName, FieldMAC, FieldDistance, FieldID, FieldRSSI, FieldPower, FieldMajor, FieldMinor}

// ErrMissingField is returned when a serialized record lacks one of Fields.
var ErrMissingField = errors.New("missing field")

type recordFields = orderedmap.OrderedMap[string, string]

func toFields(r Record) *recordFields {
	m := orderedmap.New[string, string](len(Fields))
	m.Set(FieldName, r.Name)
	m.Set(FieldMAC, r.Address)
	m.Set(FieldDistance, strconv.FormatFloat(r.Distance, 'g', -1, 64))
	m.Set(FieldID, r.ProximityID)
	m.Set(FieldRSSI, strconv.Itoa(r.RSSI))
	m.Set(FieldPower, strconv.Itoa(int(r.CalibratedPower)))
	m.Set(FieldMajor, strconv.FormatUint(uint64(r.Major), 10))
	m.Set(FieldMinor, strconv.FormatUint(uint64(r.Minor), 10))
	return m
}

// MarshalRecord encodes r as a JSON object of eight string fields, keys in
// the order of Fields.
func MarshalRecord(r Record) ([]byte, error) {
	return json.Marshal(toFields(r))
}

// MarshalRecords encodes records as a JSON array of MarshalRecord objects.
func MarshalRecords(records []Record) ([]byte, error) {
	list := make([]*recordFields, 0, len(records))
	for _, r := range records {
		list = append(list, toFields(r))
	}
	return json.Marshal(list)
}

// ParseRecord decodes a single object produced by MarshalRecord.
func ParseRecord(data []byte) (Record, error) {
	m := orderedmap.New[string, string]()
	if err := json.Unmarshal(data, m); err != nil {
		return Record{}, fmt.Errorf("invalid record: %w", err)
	}
	return fromFields(m)
}

// ParseRecords decodes an array produced by MarshalRecords.
func ParseRecords(data []byte) ([]Record, error) {
	var list []*recordFields
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("invalid record list: %w", err)
	}

	records := make([]Record, 0, len(list))
	for i, m := range list {
		if m == nil {
			return nil, fmt.Errorf("record %d: null entry", i)
		}
		r, err := fromFields(m)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		records = append(records, r)
	}
	return records, nil
}

func fromFields(m *recordFields) (Record, error) {
	get := func(key string) (string, error) {
		v, ok := m.Get(key)
		if !ok {
			return "", fmt.Errorf("%w: %q", ErrMissingField, key)
		}
		return v, nil
	}

	var (
		r   Record
		err error
		s   string
	)

	if r.Name, err = get(FieldName); err != nil {
		return Record{}, err
	}
	if r.Address, err = get(FieldMAC); err != nil {
		return Record{}, err
	}
	if r.ProximityID, err = get(FieldID); err != nil {
		return Record{}, err
	}

	if s, err = get(FieldDistance); err != nil {
		return Record{}, err
	}
	if r.Distance, err = strconv.ParseFloat(s, 64); err != nil {
		return Record{}, fmt.Errorf("invalid %s: %w", FieldDistance, err)
	}

	if s, err = get(FieldRSSI); err != nil {
		return Record{}, err
	}
	if r.RSSI, err = strconv.Atoi(s); err != nil {
		return Record{}, fmt.Errorf("invalid %s: %w", FieldRSSI, err)
	}

	if s, err = get(FieldPower); err != nil {
		return Record{}, err
	}
	power, err := strconv.ParseInt(s, 10, 8)
	if err != nil {
		return Record{}, fmt.Errorf("invalid %s: %w", FieldPower, err)
	}
	r.CalibratedPower = int8(power)

	if s, err = get(FieldMajor); err != nil {
		return Record{}, err
	}
	major, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return Record{}, fmt.Errorf("invalid %s: %w", FieldMajor, err)
	}
	r.Major = uint16(major)

	if s, err = get(FieldMinor); err != nil {
		return Record{}, err
	}
	minor, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return Record{}, fmt.Errorf("invalid %s: %w", FieldMinor, err)
	}
	r.Minor = uint16(minor)

	return r, nil
}
