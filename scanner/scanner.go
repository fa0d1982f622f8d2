package scanner

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cornelk/hashmap"
	"github.com/sirupsen/logrus"
	"github.com/srg/beacons/internal/beacon"
	"github.com/srg/beacons/internal/device"
	"github.com/srg/beacons/internal/groutine"
	"github.com/srg/beacons/internal/ringchan"
)

// Scan errors
var (
	ErrNoAdapter      = errors.New("no bluetooth adapter")
	ErrScanInProgress = errors.New("scan already in progress")
	ErrNoBeacons      = errors.New("no beacons in range")
)

const (
	// DefaultQueueSize is the capacity of the frame queue between the adapter and the decoder.
	DefaultQueueSize = 128

	eventQueueSize = 100
)

// ProgressCallback is called when the scan phase changes
type ProgressCallback func(phase string)

// EventType marks if the beacon was newly discovered or updated
type EventType int

const (
	EventNew EventType = iota
	EventUpdated
)

// Event is emitted every time a decoded beacon is stored in the session.
type Event struct {
	Type   EventType
	Record beacon.Record
	Seen   time.Time
}

// Frame is a received advertisement waiting to be decoded.
type Frame struct {
	Data    []byte
	RSSI    int
	Address string
	Name    string
	Seen    time.Time
}

// ScanOptions configures scanning behavior
type ScanOptions struct {
	Duration        time.Duration
	DuplicateFilter bool
	AllowList       []string
	BlockList       []string
	ProximityIDs    []string
	StopOnFirst     bool
	QueueSize       int
}

// DefaultScanOptions returns default scanning options
func DefaultScanOptions() *ScanOptions {
	return &ScanOptions{
		Duration:        10 * time.Second,
		DuplicateFilter: true,
		QueueSize:       DefaultQueueSize,
	}
}

// Scanner runs beacon scan sessions on a host adapter and keeps the latest
// record seen for every beacon address.
type Scanner struct {
	dev      device.ScanningDevice
	records  *hashmap.Map[string, beacon.Record]
	events   *ringchan.RingChannel[Event]
	logger   *logrus.Logger
	scanning atomic.Bool
}

// NewScanner creates a new beacon scanner on top of dev
func NewScanner(dev device.ScanningDevice, logger *logrus.Logger) (*Scanner, error) {
	if dev == nil {
		return nil, ErrNoAdapter
	}
	if logger == nil {
		logger = logrus.New()
	}

	return &Scanner{
		dev:     dev,
		records: hashmap.New[string, beacon.Record](),
		events:  ringchan.New[Event](eventQueueSize),
		logger:  logger,
	}, nil
}

// frameQueue guards the ring channel against adapters calling the handler after Scan returned.
type frameQueue struct {
	mu     sync.RWMutex
	closed bool
	ch     *ringchan.RingChannel[Frame]
}

func (q *frameQueue) push(f Frame) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return false
	}
	return q.ch.ForceSend(f)
}

func (q *frameQueue) close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.closed {
		q.closed = true
		q.ch.Close()
	}
}

// Scan performs a beacon scan session with provided options.
//
// Records found during the session are returned sorted by address. Timeout and
// cancellation end a session normally; an empty session returns ErrNoBeacons.
func (s *Scanner) Scan(ctx context.Context, opts *ScanOptions, progressCallback ProgressCallback) ([]beacon.Record, error) {
	if !s.scanning.CompareAndSwap(false, true) {
		return nil, ErrScanInProgress
	}
	defer s.scanning.Store(false)

	if opts == nil {
		opts = DefaultScanOptions()
	}
	if progressCallback == nil {
		progressCallback = func(string) {} // No-op callback
	}

	idFilter, err := proximityIDSet(opts.ProximityIDs)
	if err != nil {
		return nil, err
	}

	queueSize := opts.QueueSize
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}

	s.Clear()

	var scanCtx context.Context
	var cancel context.CancelFunc
	if opts.Duration > 0 {
		scanCtx, cancel = context.WithTimeout(ctx, opts.Duration)
	} else {
		scanCtx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	queue := &frameQueue{ch: ringchan.New[Frame](queueSize)}
	decoded := make(chan struct{})
	groutine.Go(ctx, "beacon-decoder", func(ctx context.Context) {
		defer close(decoded)
		s.decodeFrames(ctx, queue.ch, idFilter, opts.StopOnFirst, cancel)
	})

	s.logger.WithFields(logrus.Fields{
		"duration":         opts.Duration,
		"duplicate_filter": opts.DuplicateFilter,
		"queue_size":       queueSize,
	}).Info("Starting beacon scan...")

	// Report scanning phase
	progressCallback("Scanning")

	handler := func(adv device.Advertisement) {
		addr := adv.Addr()
		if !addressAllowed(addr, opts) {
			return
		}
		frame := Frame{
			Data:    append([]byte(nil), adv.RawData()...),
			RSSI:    adv.RSSI(),
			Address: addr,
			Name:    adv.LocalName(),
			Seen:    time.Now(),
		}
		if queue.push(frame) {
			s.logger.WithField("address", addr).Debug("Frame queue full, dropped oldest frame")
		}
	}

	scanErr := s.dev.Scan(scanCtx, !opts.DuplicateFilter, handler)

	queue.close()
	<-decoded

	if scanErr != nil && !errors.Is(scanErr, context.Canceled) && !errors.Is(scanErr, context.DeadlineExceeded) {
		return nil, fmt.Errorf("scan failed: %w", scanErr)
	}

	metrics := queue.ch.GetMetrics()
	s.logger.WithFields(logrus.Fields{
		"beacon_count":   s.records.Len(),
		"frames":         metrics.Written,
		"dropped_frames": metrics.Overwritten,
	}).Info("Beacon scan completed")

	// Report processing phase
	progressCallback("Processing results")

	records := s.Records()
	if len(records) == 0 {
		return records, ErrNoBeacons
	}
	return records, nil
}

// decodeFrames drains the frame queue until it is closed, or until the first
// beacon is stored when stopOnFirst is set.
func (s *Scanner) decodeFrames(ctx context.Context, frames *ringchan.RingChannel[Frame], idFilter map[string]struct{}, stopOnFirst bool, stop context.CancelFunc) {
	log := s.logger.WithField("goroutine", groutine.GetName(ctx))
	defer log.Debug("Frame decoder stopped")

	for {
		f, ok := frames.Receive()
		if !ok {
			return
		}

		rec, ok := beacon.Decode(f.Data, f.RSSI, f.Address, f.Name)
		if !ok {
			log.WithField("address", f.Address).Debug("Ignoring non-beacon advertisement")
			continue
		}

		if len(idFilter) > 0 {
			if _, wanted := idFilter[rec.ProximityID]; !wanted {
				log.WithFields(logrus.Fields{
					"address":      rec.Address,
					"proximity_id": rec.ProximityID,
				}).Debug("Ignoring beacon with unwanted proximity ID")
				continue
			}
		}

		_, existing := s.records.Get(rec.Address)
		s.records.Set(rec.Address, rec)

		event := Event{Type: EventUpdated, Record: rec, Seen: f.Seen}
		if !existing {
			event.Type = EventNew
			log.WithFields(logrus.Fields{
				"address":      rec.Address,
				"dialect":      rec.Dialect,
				"proximity_id": rec.ProximityID,
				"major":        rec.Major,
				"minor":        rec.Minor,
				"rssi":         rec.RSSI,
				"distance":     rec.Distance,
			}).Info("Discovered new beacon")
		}
		s.events.ForceSend(event)

		if stopOnFirst {
			stop()
			return
		}
	}
}

// addressAllowed applies the allow and block lists
func addressAllowed(addr string, opts *ScanOptions) bool {
	for _, blocked := range opts.BlockList {
		if strings.EqualFold(addr, blocked) {
			return false
		}
	}

	if len(opts.AllowList) == 0 {
		return true
	}
	for _, a := range opts.AllowList {
		if strings.EqualFold(addr, a) {
			return true
		}
	}
	return false
}

func proximityIDSet(ids []string) (map[string]struct{}, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		n, err := beacon.NormalizeProximityID(id)
		if err != nil {
			return nil, fmt.Errorf("invalid proximity ID filter %q: %w", id, err)
		}
		set[n] = struct{}{}
	}
	return set, nil
}

// Records returns a snapshot of the beacons found so far, sorted by address
func (s *Scanner) Records() []beacon.Record {
	records := make([]beacon.Record, 0, s.records.Len())
	s.records.Range(func(_ string, rec beacon.Record) bool {
		records = append(records, rec)
		return true
	})
	sort.Slice(records, func(i, j int) bool {
		return records[i].Address < records[j].Address
	})
	return records
}

// Clear forgets every beacon found so far
func (s *Scanner) Clear() {
	var keys []string
	s.records.Range(func(key string, _ beacon.Record) bool {
		keys = append(keys, key)
		return true
	})
	for _, key := range keys {
		s.records.Del(key)
	}
}

// Events returns a read-only channel of beacon events.
// The oldest events are dropped when nobody reads them.
func (s *Scanner) Events() <-chan Event {
	return s.events.C()
}
