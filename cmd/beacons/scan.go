package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/srg/beacons/internal/beacon"
	"github.com/srg/beacons/internal/config"
	"github.com/srg/beacons/internal/devicefactory"
	"github.com/srg/beacons/scanner"
	"golang.org/x/term"
)

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan for beacons",
	Long: `Scan for iBeacon advertisements and display every beacon found, with its
proximity UUID, major and minor numbers, calibrated power, RSSI and estimated distance.

Estimote and AD77 beacons are reported with zero identifiers and a calibrated power of -55 dBm.`,
	Args: cobra.NoArgs,
	RunE: runScan,
}

var (
	scanDuration     time.Duration
	scanFormat       string
	scanAllowList    []string
	scanBlockList    []string
	scanProximityIDs []string
	scanNoDuplicate  bool
	scanFirst        bool
	scanConfigPath   string
)

func init() {
	initScanFlags()
}

func initScanFlags() {
	defaults := config.DefaultConfig()
	scanCmd.Flags().DurationVarP(&scanDuration, "duration", "d", defaults.ScanDuration, "Scan duration (0 for indefinite)")
	scanCmd.Flags().StringVarP(&scanFormat, "format", "f", defaults.OutputFormat, "Output format (table, json)")
	scanCmd.Flags().StringSliceVar(&scanAllowList, "allow", nil, "Only show beacons with these addresses")
	scanCmd.Flags().StringSliceVar(&scanBlockList, "block", nil, "Hide beacons with these addresses")
	scanCmd.Flags().StringSliceVarP(&scanProximityIDs, "uuid", "u", nil, "Only show beacons with these proximity UUIDs")
	scanCmd.Flags().BoolVar(&scanNoDuplicate, "no-duplicates", defaults.DuplicateFilter, "Filter duplicate advertisements")
	scanCmd.Flags().BoolVar(&scanFirst, "first", defaults.StopOnFirst, "Stop after the first beacon is found")
	scanCmd.Flags().StringVarP(&scanConfigPath, "config", "c", "", "YAML configuration file")
}

// scanConfig loads the configuration file and applies the flags given on the command line.
func scanConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(scanConfigPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("duration") {
		cfg.ScanDuration = scanDuration
	}
	if flags.Changed("format") {
		cfg.OutputFormat = scanFormat
	}
	if flags.Changed("allow") {
		cfg.AllowList = scanAllowList
	}
	if flags.Changed("block") {
		cfg.BlockList = scanBlockList
	}
	if flags.Changed("uuid") {
		cfg.ProximityIDs = scanProximityIDs
	}
	if flags.Changed("no-duplicates") {
		cfg.DuplicateFilter = scanNoDuplicate
	}
	if flags.Changed("first") {
		cfg.StopOnFirst = scanFirst
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	for _, id := range cfg.ProximityIDs {
		if _, err := beacon.NormalizeProximityID(id); err != nil {
			return nil, fmt.Errorf("invalid proximity UUID '%s': %w", id, err)
		}
	}
	return cfg, nil
}

func runScan(cmd *cobra.Command, _ []string) error {
	cfg, err := scanConfig(cmd)
	if err != nil {
		return err
	}

	// Configure logger based on --log-level and --verbose flags
	logger, err := configureLogger(cmd, "verbose", cfg.LogLevel)
	if err != nil {
		return err
	}

	// All arguments validated - don't show usage on runtime errors
	cmd.SilenceUsage = true

	dev, err := devicefactory.DeviceFactory()
	if err != nil {
		return fmt.Errorf("failed to open bluetooth adapter: %w", err)
	}

	s, err := scanner.NewScanner(dev, logger)
	if err != nil {
		return fmt.Errorf("failed to create beacon scanner: %w", err)
	}

	// Create a cancellable context for signal handling
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// Listen for Ctrl+C to cancel
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			fmt.Fprintln(cmd.ErrOrStderr(), "\nCtrl+C pressed, cancelling scan...")
			cancel()
		case <-ctx.Done():
		}
	}()

	var progress scanner.ProgressCallback
	if isTerminal(os.Stderr) {
		p := NewCountdownProgressPrinter(os.Stderr, "Scanning for beacons", "Scanning", cfg.ScanDuration, "Processing results")
		p.Start()
		defer p.Stop()
		progress = p.Callback()
	}

	records, err := s.Scan(ctx, cfg.ScanOptions(), progress)
	if errors.Is(err, scanner.ErrNoBeacons) {
		_, err = fmt.Fprintln(cmd.OutOrStdout(), "No beacons found")
		return err
	}
	if err != nil {
		logger.WithError(err).Error("scan failed")
		return err
	}

	logger.WithFields(logrus.Fields{"beacons": len(records)}).Debug("Displaying scan results")
	return displayRecords(cmd.OutOrStdout(), records, cfg.OutputFormat)
}

func displayRecords(w io.Writer, records []beacon.Record, format string) error {
	switch format {
	case config.FormatJSON:
		data, err := beacon.MarshalRecords(records)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	default:
		f, ok := w.(*os.File)
		return displayRecordsTable(w, records, ok && isTerminal(f))
	}
}

func displayRecordsTable(out io.Writer, records []beacon.Record, colored bool) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tADDRESS\tUUID\tMAJOR\tMINOR\tPOWER\tRSSI\tDISTANCE")

	for _, r := range records {
		name := r.Name
		if name == "" {
			name = "-"
		} else if len(name) > 20 {
			name = name[:17] + "..."
		}

		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d dBm\t%d dBm\t%s\n",
			name, r.Address, r.ProximityID, r.Major, r.Minor, r.CalibratedPower, r.RSSI,
			formatDistance(r, colored))
	}

	return tw.Flush()
}

// formatDistance renders the estimate in meters, colored by proximity band when enabled.
func formatDistance(r beacon.Record, colored bool) string {
	if !r.HasDistance() {
		return "unknown"
	}

	var c *color.Color
	switch {
	case r.Distance < 1:
		c = color.New(color.FgGreen)
	case r.Distance < 5:
		c = color.New(color.FgYellow)
	default:
		c = color.New(color.FgRed)
	}
	if colored {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c.Sprintf("%.2f m", r.Distance)
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
