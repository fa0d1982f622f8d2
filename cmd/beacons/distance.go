package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/srg/beacons/internal/beacon"
)

// distanceCmd represents the distance command
var distanceCmd = &cobra.Command{
	Use:   "distance",
	Short: "Estimate the distance to a beacon",
	Long: `Estimate the distance in meters from a received signal strength and the
beacon's calibrated power at 1 m. Both values are dBm and must be negative;
-1 is printed when no estimate can be made.`,
	Args: cobra.NoArgs,
	RunE: runDistance,
}

var (
	distanceRSSI  int
	distancePower int
)

func init() {
	initDistanceFlags()
}

func initDistanceFlags() {
	distanceCmd.Flags().IntVar(&distanceRSSI, "rssi", 0, "Received signal strength in dBm")
	distanceCmd.Flags().IntVar(&distancePower, "power", 0, "Calibrated power at 1 m in dBm")
	_ = distanceCmd.MarkFlagRequired("rssi")
	_ = distanceCmd.MarkFlagRequired("power")
}

func runDistance(cmd *cobra.Command, _ []string) error {
	logger, err := configureLogger(cmd, "verbose", "")
	if err != nil {
		return err
	}
	cmd.SilenceUsage = true

	d := beacon.EstimateDistance(distanceRSSI, distancePower)
	logger.WithField("rssi", distanceRSSI).WithField("power", distancePower).Debug("Estimated distance")

	_, err = fmt.Fprintln(cmd.OutOrStdout(), strconv.FormatFloat(d, 'g', -1, 64))
	return err
}
