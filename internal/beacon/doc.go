// Package beacon decodes iBeacon-compatible BLE advertisement frames and
// estimates the distance to the transmitter from its signal strength.
//
// Both Decode and EstimateDistance are pure functions: they keep no state,
// perform no I/O and may be called concurrently from any number of scan
// callbacks. Identical inputs always yield identical records.
package beacon
