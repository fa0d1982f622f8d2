package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/srg/beacons/internal/device"
	"github.com/srg/beacons/internal/testutils"
	"github.com/stretchr/testify/suite"
)

type ScanTestSuite struct {
	CommandTestSuite
}

func (s *ScanTestSuite) SetupTest() {
	s.WithAdvertisements(
		testutils.CreateIBeaconAdvertisement(TestBeaconAddress1, -65, airLocateID, 1, 2, -59).WithName("Lobby").Build(),
		testutils.CreateIBeaconAdvertisement(TestBeaconAddress2, -80, "5a4bcfce-174e-4bac-a814-092e77f6b7e5", 7, 8, -59).Build(),
		testutils.CreateMockAdvertisement("Heart Rate", "00:00:00:00:00:03", -40).WithServices("180D").Build(),
	)
	s.CommandTestSuite.SetupTest()
}

func (s *ScanTestSuite) TestTableOutput() {
	out, err := s.ExecuteCommand("scan", "--duration", "100ms")
	s.Require().NoError(err)

	testutils.NewTextAsserter(s.T()).WithOptions(testutils.WithTrimSpace(true)).Assert(out, `
NAME   ADDRESS            UUID                                  MAJOR  MINOR  POWER    RSSI     DISTANCE
Lobby  00:00:00:00:00:01  e2c56db5-dffb-48d2-b060-d0f5a71096e0  1      2      -59 dBm  -65 dBm  1.95 m
-      00:00:00:00:00:02  5a4bcfce-174e-4bac-a814-092e77f6b7e5  7      8      -59 dBm  -80 dBm  8.57 m
`)
}

func (s *ScanTestSuite) TestJSONOutput() {
	out, err := s.ExecuteCommand("scan", "--duration", "100ms", "--format", "json", "--uuid", airLocateID)
	s.Require().NoError(err)

	testutils.NewJSONAsserter(s.T()).Assert(out, `[{
		"name": "Lobby", "mac": "00:00:00:00:00:01", "distance": "<<PRESENCE>>",
		"id": "`+airLocateID+`", "rssi": "-65", "power": "-59", "major": "1", "minor": "2"
	}]`)
}

func (s *ScanTestSuite) TestNoBeaconsFound() {
	out, err := s.ExecuteCommand("scan", "--duration", "100ms", "--allow", "00:00:00:00:00:03")
	s.Require().NoError(err, "an empty scan MUST not be an error exit")
	s.Equal("No beacons found\n", out)
}

func (s *ScanTestSuite) TestStopOnFirst() {
	out, err := s.ExecuteCommand("scan", "--duration", "5s", "--first", "--format", "json")
	s.Require().NoError(err)

	testutils.NewJSONAsserter(s.T()).WithOptions(testutils.WithIgnoredFields("distance")).Assert(out, `[{
		"name": "Lobby", "mac": "00:00:00:00:00:01", "id": "`+airLocateID+`",
		"rssi": "-65", "power": "-59", "major": "1", "minor": "2"
	}]`)
}

func (s *ScanTestSuite) TestDuplicateFlagReachesAdapter() {
	_, err := s.ExecuteCommand("scan", "--duration", "50ms", "--no-duplicates=false")
	s.Require().NoError(err)
	s.Equal([]bool{true}, s.Device.AllowDupArgs(), "disabling the duplicate filter MUST allow duplicates")
}

func (s *ScanTestSuite) TestConfigFile() {
	path := filepath.Join(s.T().TempDir(), "beacons.yaml")
	s.Require().NoError(os.WriteFile(path, []byte("output_format: json\nscan_duration: 50ms\nblock: [\"00:00:00:00:00:01\"]\n"), 0o600))

	out, err := s.ExecuteCommand("scan", "--config", path)
	s.Require().NoError(err)

	testutils.NewJSONAsserter(s.T()).Assert(out, `[{
		"name": "", "mac": "00:00:00:00:00:02", "distance": "<<PRESENCE>>",
		"id": "5a4bcfce-174e-4bac-a814-092e77f6b7e5", "rssi": "-80", "power": "-59", "major": "7", "minor": "8"
	}]`)

	s.Run("flags override the file", func() {
		resetFlags()
		out, err := s.ExecuteCommand("scan", "--config", path, "--format", "table", "--block", "00:00:00:00:00:02")
		s.Require().NoError(err)
		s.Contains(out, "Lobby")
		s.NotContains(out, "00:00:00:00:00:02")
	})
}

func (s *ScanTestSuite) TestInvalidArguments() {
	tests := []struct {
		name    string
		args    []string
		errPart string
	}{
		{name: "format", args: []string{"scan", "--format", "csv"}, errPart: "invalid output format"},
		{name: "uuid", args: []string{"scan", "--uuid", "nope"}, errPart: "invalid proximity UUID"},
		{name: "log level", args: []string{"scan", "--log-level", "loud"}, errPart: "invalid log level"},
		{name: "missing config", args: []string{"scan", "--config", "/nonexistent/beacons.yaml"}, errPart: "failed to read config"},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			resetFlags()
			_, err := s.ExecuteCommand(tt.args...)
			s.Require().Error(err)
			s.Contains(err.Error(), tt.errPart)
			s.Equal(0, s.Device.ScanCount(), "adapter MUST not be used with invalid arguments")
		})
	}
}

func (s *ScanTestSuite) TestAdapterError() {
	s.Device.ScanErr = device.ErrBluetoothOff

	_, err := s.ExecuteCommand("scan", "--duration", "100ms")
	s.Require().ErrorIs(err, device.ErrBluetoothOff)
	s.Contains(FormatUserError(err), "Bluetooth is turned off")
}

func TestScanTestSuite(t *testing.T) {
	suite.Run(t, new(ScanTestSuite))
}
