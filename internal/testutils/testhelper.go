package testutils

// CreateMockAdvertisement returns a builder for a named, connectable advertisement.
func CreateMockAdvertisement(name, address string, rssi int) *AdvertisementBuilder {
	return NewAdvertisementBuilder().WithName(name).WithAddress(address).WithRSSI(rssi)
}

// CreateMockAdvertisementFromJSON returns a builder filled from a formatted JSON string.
func CreateMockAdvertisementFromJSON(jsonStrFmt string, args ...interface{}) *AdvertisementBuilder {
	return NewAdvertisementBuilder().FromJSON(jsonStrFmt, args...)
}

// CreateIBeaconAdvertisement returns a builder for a non-connectable iBeacon advertisement.
func CreateIBeaconAdvertisement(address string, rssi int, proximityID string, major, minor uint16, power int8) *AdvertisementBuilder {
	return NewAdvertisementBuilder().
		WithAddress(address).
		WithRSSI(rssi).
		WithConnectable(false).
		WithIBeacon(proximityID, major, minor, power)
}
