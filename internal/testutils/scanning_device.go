package testutils

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/srg/beacons/internal/device"
)

// FakeScanningDevice replays a fixed list of advertisements as a device.ScanningDevice.
//
// Scan delivers every advertisement to the handler (Interval apart), then
// blocks until the context is done, the way a real adapter keeps scanning.
// When ScanErr is set, Scan returns it right after replaying.
type FakeScanningDevice struct {
	Advertisements []device.Advertisement
	Interval       time.Duration
	ScanErr        error

	mu        sync.Mutex
	scans     atomic.Int32
	allowDups []bool
}

// NewFakeScanningDevice creates a fake adapter replaying advs.
func NewFakeScanningDevice(advs ...device.Advertisement) *FakeScanningDevice {
	return &FakeScanningDevice{Advertisements: advs}
}

// Scan implements device.ScanningDevice.
func (d *FakeScanningDevice) Scan(ctx context.Context, allowDup bool, handler func(device.Advertisement)) error {
	d.scans.Add(1)
	d.mu.Lock()
	d.allowDups = append(d.allowDups, allowDup)
	d.mu.Unlock()

	for _, adv := range d.Advertisements {
		if d.Interval > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(d.Interval):
			}
		} else if ctx.Err() != nil {
			return ctx.Err()
		}
		handler(adv)
	}

	if d.ScanErr != nil {
		return d.ScanErr
	}

	<-ctx.Done()
	return ctx.Err()
}

// ScanCount returns how many times Scan was called.
func (d *FakeScanningDevice) ScanCount() int {
	return int(d.scans.Load())
}

// AllowDupArgs returns the allowDup argument of every Scan call.
func (d *FakeScanningDevice) AllowDupArgs() []bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]bool(nil), d.allowDups...)
}
