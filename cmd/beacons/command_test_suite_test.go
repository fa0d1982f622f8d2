package main

import (
	"bytes"

	"github.com/srg/beacons/internal/testutils"
)

// Test beacon addresses for consistent fake advertisement identification
const (
	TestBeaconAddress1 = "00:00:00:00:00:01"
	TestBeaconAddress2 = "00:00:00:00:00:02"

	airLocateID = "e2c56db5-dffb-48d2-b060-d0f5a71096e0"
)

// CommandTestSuite extends ScanningDeviceSuite with command testing utilities.
type CommandTestSuite struct {
	testutils.ScanningDeviceSuite
}

func (s *CommandTestSuite) SetupTest() {
	s.ScanningDeviceSuite.SetupTest()
	resetFlags()
}

// resetFlags re-creates every command flag so no parsed value leaks between tests.
func resetFlags() {
	scanCmd.ResetFlags()
	initScanFlags()
	decodeCmd.ResetFlags()
	initDecodeFlags()
	distanceCmd.ResetFlags()
	initDistanceFlags()

	for _, name := range []string{"log-level", "verbose"} {
		f := rootCmd.PersistentFlags().Lookup(name)
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
}

// ExecuteCommand runs the root command with args, returns output and error.
func (s *CommandTestSuite) ExecuteCommand(args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}

// ExecuteCommandSplit runs the root command with args, keeping stdout and stderr apart.
func (s *CommandTestSuite) ExecuteCommandSplit(args ...string) (string, string, error) {
	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}
