package testutils

import (
	"github.com/sirupsen/logrus"
	"github.com/srg/beacons/internal/device"
	"github.com/srg/beacons/internal/devicefactory"
	"github.com/stretchr/testify/suite"
)

// ScanningDeviceSuite is a testify suite that swaps the host adapter for a
// FakeScanningDevice replaying the configured advertisements.
//
// Embed it, call WithAdvertisements in SetupTest before calling
// ScanningDeviceSuite.SetupTest, and use Device in the tests.
type ScanningDeviceSuite struct {
	suite.Suite

	Logger *logrus.Logger
	Device *FakeScanningDevice

	advertisements []device.Advertisement
	origFactory    func() (device.ScanningDevice, error)
}

// WithAdvertisements sets the advertisements the fake adapter will replay.
func (s *ScanningDeviceSuite) WithAdvertisements(advs ...device.Advertisement) *ScanningDeviceSuite {
	s.advertisements = advs
	return s
}

func (s *ScanningDeviceSuite) SetupTest() {
	s.Logger = logrus.New()
	s.Logger.SetLevel(logrus.DebugLevel)

	s.Device = NewFakeScanningDevice(s.advertisements...)

	s.origFactory = devicefactory.DeviceFactory
	devicefactory.DeviceFactory = func() (device.ScanningDevice, error) {
		return s.Device, nil
	}
}

func (s *ScanningDeviceSuite) TearDownTest() {
	if s.origFactory != nil {
		devicefactory.DeviceFactory = s.origFactory
		s.origFactory = nil
	}
}
