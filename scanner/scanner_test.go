package scanner_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/srg/beacons/internal/beacon"
	"github.com/srg/beacons/internal/device"
	"github.com/srg/beacons/internal/testutils"
	"github.com/srg/beacons/scanner"
	"github.com/stretchr/testify/require"
	suitelib "github.com/stretchr/testify/suite"
)

const (
	airLocateID = "e2c56db5-dffb-48d2-b060-d0f5a71096e0"
	otherID     = "5a4bcfce-174e-4bac-a814-092e77f6b7e5"
)

type ScannerTestSuite struct {
	testutils.ScanningDeviceSuite

	beacon1, beacon2, stub, plain device.Advertisement
}

func (suite *ScannerTestSuite) SetupTest() {
	suite.beacon1 = testutils.CreateIBeaconAdvertisement("AA:BB:CC:DD:EE:FF", -65, airLocateID, 1, 2, -59).
		WithName("Lobby").
		Build()
	suite.beacon2 = testutils.CreateIBeaconAdvertisement("11:22:33:44:55:66", -80, otherID, 7, 8, -59).
		Build()
	// Estimote signature at offset 2
	suite.stub = testutils.NewAdvertisementBuilder().
		WithAddress("99:88:77:66:55:44").
		WithRSSI(-55).
		WithRawHex("0000 2d24bf16 0000").
		Build()
	suite.plain = testutils.CreateMockAdvertisement("Heart Rate", "00:00:00:00:00:01", -40).
		WithServices("180D").
		Build()

	suite.WithAdvertisements(suite.beacon1, suite.beacon2, suite.stub, suite.plain)
	suite.ScanningDeviceSuite.SetupTest()
}

func (suite *ScannerTestSuite) newScanner() *scanner.Scanner {
	s, err := scanner.NewScanner(suite.Device, suite.Logger)
	suite.Require().NoError(err)
	return s
}

func (suite *ScannerTestSuite) scanOpts(mod func(*scanner.ScanOptions)) *scanner.ScanOptions {
	opts := scanner.DefaultScanOptions()
	opts.Duration = 100 * time.Millisecond
	if mod != nil {
		mod(opts)
	}
	return opts
}

func addresses(records []beacon.Record) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.Address)
	}
	return out
}

func (suite *ScannerTestSuite) TestNewScanner() {
	suite.Run("creates scanner with provided logger", func() {
		s, err := scanner.NewScanner(suite.Device, suite.Logger)

		suite.NoError(err)
		suite.NotNil(s)
	})

	suite.Run("creates scanner with nil logger", func() {
		s, err := scanner.NewScanner(suite.Device, nil)

		suite.NoError(err)
		suite.NotNil(s)
	})

	suite.Run("rejects missing adapter", func() {
		s, err := scanner.NewScanner(nil, suite.Logger)

		suite.ErrorIs(err, scanner.ErrNoAdapter)
		suite.Nil(s)
	})
}

func (suite *ScannerTestSuite) TestDefaultScanOptions() {
	opts := scanner.DefaultScanOptions()

	suite.NotNil(opts)
	suite.Equal(10*time.Second, opts.Duration)
	suite.True(opts.DuplicateFilter)
	suite.Equal(scanner.DefaultQueueSize, opts.QueueSize)
	suite.False(opts.StopOnFirst)
	suite.Nil(opts.AllowList)
	suite.Nil(opts.BlockList)
	suite.Nil(opts.ProximityIDs)
}

func (suite *ScannerTestSuite) TestScanDecodesBeacons() {
	var phases []string
	records, err := suite.newScanner().Scan(context.Background(), suite.scanOpts(nil), func(phase string) {
		phases = append(phases, phase)
	})
	suite.Require().NoError(err)

	suite.Equal([]string{"Scanning", "Processing results"}, phases)

	testutils.NewJSONAsserter(suite.T()).AssertRecords(records, `[
		{"name": "", "mac": "11:22:33:44:55:66", "distance": "<<PRESENCE>>", "id": "`+otherID+`",
		 "rssi": "-80", "power": "-59", "major": "7", "minor": "8"},
		{"name": "", "mac": "99:88:77:66:55:44", "distance": "<<PRESENCE>>", "id": "00000000-0000-0000-0000-000000000000",
		 "rssi": "-55", "power": "-55", "major": "0", "minor": "0"},
		{"name": "Lobby", "mac": "AA:BB:CC:DD:EE:FF", "distance": "<<PRESENCE>>", "id": "`+airLocateID+`",
		 "rssi": "-65", "power": "-59", "major": "1", "minor": "2"}
	]`)

	suite.Require().Len(records, 3)
	suite.InDelta(1.9502685079951037, records[2].Distance, 1e-9, "distance MUST follow the estimator")
	suite.Equal(beacon.DialectEstimote, records[1].Dialect)
}

func (suite *ScannerTestSuite) TestScannerFiltering() {
	tests := []struct {
		name     string
		mod      func(*scanner.ScanOptions)
		expected []string
	}{
		{
			name:     "includes every beacon with no filters",
			expected: []string{"11:22:33:44:55:66", "99:88:77:66:55:44", "AA:BB:CC:DD:EE:FF"},
		},
		{
			name:     "excludes beacon on block list",
			mod:      func(o *scanner.ScanOptions) { o.BlockList = []string{"aa:bb:cc:dd:ee:ff"} },
			expected: []string{"11:22:33:44:55:66", "99:88:77:66:55:44"},
		},
		{
			name:     "includes only beacons on allow list",
			mod:      func(o *scanner.ScanOptions) { o.AllowList = []string{"AA:BB:CC:DD:EE:FF", "00:00:00:00:00:01"} },
			expected: []string{"AA:BB:CC:DD:EE:FF"},
		},
		{
			name:     "includes only listed proximity IDs",
			mod:      func(o *scanner.ScanOptions) { o.ProximityIDs = []string{"E2C56DB5DFFB48D2B060D0F5A71096E0"} },
			expected: []string{"AA:BB:CC:DD:EE:FF"},
		},
		{
			name:     "zero proximity ID selects stub dialects",
			mod:      func(o *scanner.ScanOptions) { o.ProximityIDs = []string{beacon.ZeroProximityID} },
			expected: []string{"99:88:77:66:55:44"},
		},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			records, err := suite.newScanner().Scan(context.Background(), suite.scanOpts(tt.mod), nil)

			suite.Require().NoError(err)
			suite.Equal(tt.expected, addresses(records))
		})
	}
}

func (suite *ScannerTestSuite) TestNoBeacons() {
	records, err := suite.newScanner().Scan(context.Background(), suite.scanOpts(func(o *scanner.ScanOptions) {
		o.AllowList = []string{"00:00:00:00:00:01"}
	}), nil)

	suite.ErrorIs(err, scanner.ErrNoBeacons)
	suite.Empty(records)
}

func (suite *ScannerTestSuite) TestInvalidProximityIDFilter() {
	_, err := suite.newScanner().Scan(context.Background(), suite.scanOpts(func(o *scanner.ScanOptions) {
		o.ProximityIDs = []string{"not-a-uuid"}
	}), nil)

	suite.Require().Error(err)
	suite.Contains(err.Error(), "not-a-uuid")
	suite.Equal(0, suite.Device.ScanCount(), "adapter MUST not be started with an invalid filter")
}

func (suite *ScannerTestSuite) TestAdapterError() {
	suite.Device.ScanErr = device.ErrBluetoothOff

	_, err := suite.newScanner().Scan(context.Background(), suite.scanOpts(nil), nil)

	suite.ErrorIs(err, device.ErrBluetoothOff)
	suite.Contains(err.Error(), "scan failed")
}

func (suite *ScannerTestSuite) TestCancellationIsNormalCompletion() {
	suite.Device.Interval = 20 * time.Millisecond
	ctx, cancel := context.WithCancel(context.Background())

	s := suite.newScanner()
	go func() {
		ev := <-s.Events()
		suite.Equal(scanner.EventNew, ev.Type)
		cancel()
	}()

	records, err := s.Scan(ctx, suite.scanOpts(func(o *scanner.ScanOptions) { o.Duration = 0 }), nil)

	suite.NoError(err)
	suite.NotEmpty(records)
}

func (suite *ScannerTestSuite) TestStopOnFirst() {
	start := time.Now()
	records, err := suite.newScanner().Scan(context.Background(), suite.scanOpts(func(o *scanner.ScanOptions) {
		o.Duration = 5 * time.Second
		o.StopOnFirst = true
	}), nil)

	suite.Require().NoError(err)
	suite.Len(records, 1, "session MUST stop after the first beacon")
	suite.Less(time.Since(start), 5*time.Second, "session MUST end before the timeout")
}

func (suite *ScannerTestSuite) TestDuplicateFilterControlsAllowDup() {
	s := suite.newScanner()

	_, err := s.Scan(context.Background(), suite.scanOpts(nil), nil)
	suite.Require().NoError(err)
	_, err = s.Scan(context.Background(), suite.scanOpts(func(o *scanner.ScanOptions) { o.DuplicateFilter = false }), nil)
	suite.Require().NoError(err)

	suite.Equal([]bool{false, true}, suite.Device.AllowDupArgs())
}

func (suite *ScannerTestSuite) TestEventsAndLatestRecord() {
	closer := testutils.CreateIBeaconAdvertisement("AA:BB:CC:DD:EE:FF", -50, airLocateID, 1, 2, -59).Build()
	suite.Device.Advertisements = []device.Advertisement{suite.beacon1, closer}

	s := suite.newScanner()
	records, err := s.Scan(context.Background(), suite.scanOpts(nil), nil)
	suite.Require().NoError(err)

	suite.Require().Len(records, 1)
	suite.Equal(-50, records[0].RSSI, "the latest sighting MUST win")

	first := <-s.Events()
	second := <-s.Events()
	suite.Equal(scanner.EventNew, first.Type)
	suite.Equal(scanner.EventUpdated, second.Type)
	suite.Equal(-50, second.Record.RSSI)
	suite.False(second.Seen.IsZero())
}

func (suite *ScannerTestSuite) TestScanResetsSession() {
	s := suite.newScanner()
	_, err := s.Scan(context.Background(), suite.scanOpts(nil), nil)
	suite.Require().NoError(err)
	suite.Len(s.Records(), 3)

	suite.Device.Advertisements = []device.Advertisement{suite.beacon2}
	records, err := s.Scan(context.Background(), suite.scanOpts(nil), nil)
	suite.Require().NoError(err)
	suite.Equal([]string{"11:22:33:44:55:66"}, addresses(records), "a new session MUST start empty")

	s.Clear()
	suite.Empty(s.Records())
}

func (suite *ScannerTestSuite) TestConcurrentScanRejected() {
	suite.Device.Interval = 50 * time.Millisecond
	s := suite.newScanner()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = s.Scan(context.Background(), suite.scanOpts(func(o *scanner.ScanOptions) { o.Duration = 300 * time.Millisecond }), nil)
	}()

	suite.Eventually(func() bool { return suite.Device.ScanCount() == 1 }, time.Second, 5*time.Millisecond)

	_, err := s.Scan(context.Background(), suite.scanOpts(nil), nil)
	suite.ErrorIs(err, scanner.ErrScanInProgress)

	wg.Wait()
}

func (suite *ScannerTestSuite) TestSmallQueueNeverBlocksAdapter() {
	var advs []device.Advertisement
	for i := 0; i < 50; i++ {
		advs = append(advs, suite.beacon1)
	}
	suite.Device.Advertisements = advs

	records, err := suite.newScanner().Scan(context.Background(), suite.scanOpts(func(o *scanner.ScanOptions) {
		o.QueueSize = 1
	}), nil)

	suite.Require().NoError(err)
	suite.Equal([]string{"AA:BB:CC:DD:EE:FF"}, addresses(records))
}

// TestScannerTestSuite runs the test suite using testify/suite
func TestScannerTestSuite(t *testing.T) {
	suitelib.Run(t, new(ScannerTestSuite))
}

func TestScanner_ErrorsAreDistinct(t *testing.T) {
	require.False(t, errors.Is(scanner.ErrNoBeacons, scanner.ErrNoAdapter))
	require.False(t, errors.Is(scanner.ErrScanInProgress, scanner.ErrNoBeacons))
}
