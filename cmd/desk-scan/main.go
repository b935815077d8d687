// Command desk-scan is a manual test for discovery. It polls for a desk the
// same way deskctl does and prints its identity and current height.
//
// Usage:
//
//	go run ./cmd/desk-scan [--name Desk] [--address AA:BB:CC:DD:EE:FF]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/chaz8081/deskctl/internal/ble"
	"github.com/chaz8081/deskctl/internal/desk"
)

func main() {
	name := flag.String("name", desk.DefaultName, "advertised name substring")
	address := flag.String("address", "", "exact device address")
	attempts := flag.Int("attempts", 240, "discovery polls")
	interval := flag.Duration("interval", 50*time.Millisecond, "delay between polls")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))

	matcher, err := desk.ParseMatcher(*name, *address)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	opts := desk.DefaultOptions()
	opts.Discovery.Attempts = *attempts
	opts.Discovery.PollInterval = *interval

	fmt.Printf("Looking for %s (%d x %s)...\n", matcher, *attempts, *interval)
	start := time.Now()
	d, err := desk.Connect(context.Background(), ble.NewAdapter(), matcher, opts)
	if err != nil {
		fmt.Printf("Error after %s: %v\n", time.Since(start).Round(time.Millisecond), err)
		os.Exit(1)
	}
	defer d.Close()

	h, err := d.Height()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Printf("Found %s in %s, height %.1f cm\n", d.Address(), time.Since(start).Round(time.Millisecond), h.Centimeters())
}
