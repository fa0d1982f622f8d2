// Package device abstracts the host Bluetooth Low Energy adapter used to
// receive advertisements.
//
// The package provides:
//   - The Advertisement and ScanningDevice interfaces implemented by adapters
//   - Adapter error sentinels
//   - AD-structure encoding to rebuild a raw advertisement frame from parsed fields
//   - UUID normalization shared by filters and encoders
package device
