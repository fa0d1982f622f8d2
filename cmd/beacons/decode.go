package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/srg/beacons/internal/beacon"
)

// decodeCmd represents the decode command
var decodeCmd = &cobra.Command{
	Use:   "decode <hex>...",
	Short: "Decode a raw advertisement frame",
	Long: `Decode one advertisement frame given as hex and print the beacon record as JSON.

The frame may be split across arguments and may contain spaces, colons or a 0x prefix:

  beacons decode 02011a1aff4c000215e2c56db5dffb48d2b060d0f5a71096e000000000c5
  beacons decode --rssi -70 "02 01 1a 1a ff 4c 00 02 15 ..."`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDecode,
}

var (
	decodeRSSI    int
	decodeAddress string
	decodeName    string
)

func init() {
	initDecodeFlags()
}

func initDecodeFlags() {
	decodeCmd.Flags().IntVar(&decodeRSSI, "rssi", -65, "Received signal strength of the frame in dBm")
	decodeCmd.Flags().StringVar(&decodeAddress, "address", "", "Sender address to put in the record")
	decodeCmd.Flags().StringVar(&decodeName, "name", "", "Sender name to put in the record")
}

func runDecode(cmd *cobra.Command, args []string) error {
	frame, err := parseHexFrame(strings.Join(args, " "))
	if err != nil {
		return fmt.Errorf("invalid frame: %w", err)
	}

	logger, err := configureLogger(cmd, "verbose", "")
	if err != nil {
		return err
	}

	// All arguments validated - don't show usage on runtime errors
	cmd.SilenceUsage = true

	rec, ok := beacon.Decode(frame, decodeRSSI, decodeAddress, decodeName)
	if !ok {
		logger.WithField("frame", hex.EncodeToString(frame)).Debug("No beacon signature found")
		return ErrNotIBeacon
	}

	logger.WithFields(logrus.Fields{
		"dialect":  rec.Dialect,
		"distance": rec.Distance,
	}).Debug("Decoded beacon frame")

	data, err := beacon.MarshalRecord(rec)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}

// parseHexFrame decodes hex text, ignoring whitespace, colons and 0x prefixes.
func parseHexFrame(s string) ([]byte, error) {
	var sb strings.Builder
	for _, field := range strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == ':'
	}) {
		field = strings.TrimPrefix(strings.TrimPrefix(field, "0x"), "0X")
		sb.WriteString(field)
	}

	if sb.Len() == 0 {
		return nil, errors.New("empty frame")
	}
	return hex.DecodeString(sb.String())
}
