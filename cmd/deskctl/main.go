// Command deskctl drives a Linak-based standing desk over Bluetooth LE.
//
// Usage:
//
//	deskctl [flags] height|up|down|stop|move <cm>|preset <name>|scan|shell|init-config
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/chaz8081/deskctl/internal/ble"
	"github.com/chaz8081/deskctl/internal/config"
	"github.com/chaz8081/deskctl/internal/desk"
	"github.com/chaz8081/deskctl/internal/desk/protocol"
	"github.com/chaz8081/deskctl/internal/progress"
	"github.com/chaz8081/deskctl/internal/shell"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "path to config file (default: ~/.config/deskctl/config.yaml)")
	name := flag.String("name", "", "advertised name substring to match (overrides config)")
	address := flag.String("address", "", "device MAC address or CoreBluetooth UUID (overrides config)")
	notify := flag.Bool("notify", false, "subscribe to position notifications")
	flag.Usage = usage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	if args[0] == "init-config" {
		initConfig()
		return
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if *name != "" {
		cfg.Device.Name = *name
	}
	if *address != "" {
		cfg.Device.Address = *address
	}
	if *notify {
		cfg.Move.Notify = true
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config validation: %v", err)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: config.ParseLogLevel(cfg.LogLevel),
	})))

	// Signal handling: cancelling ctx halts a move in progress.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	adapter := ble.NewAdapter()

	if args[0] == "scan" {
		if err := runScan(adapter); err != nil {
			log.Fatalf("scan: %v", err)
		}
		return
	}

	printBanner(cfg)

	matcher, err := desk.ParseMatcher(cfg.Device.Name, cfg.Device.Address)
	if err != nil {
		log.Fatalf("device: %v", err)
	}

	opts := desk.DefaultOptions()
	opts.Discovery.Attempts = cfg.Discovery.Attempts
	opts.Discovery.PollInterval = cfg.Discovery.PollInterval
	opts.Notify = cfg.Move.Notify

	log.Printf("Looking for desk (%s)...", matcher)
	d, err := desk.Connect(ctx, adapter, matcher, opts)
	if err != nil {
		log.Fatalf("connect: %v%s", err, hint(err))
	}
	defer d.Close()
	log.Printf("Connected to %s", d.Address())

	if err := run(ctx, d, cfg, args); err != nil {
		d.Close()
		log.Fatalf("%s: %v", args[0], err)
	}
}

func run(ctx context.Context, d *desk.Desk, cfg *config.Config, args []string) error {
	switch args[0] {
	case "height":
		h, err := d.Height()
		if err != nil {
			return err
		}
		fmt.Printf("%.1f cm\n", h.Centimeters())
		return nil
	case "up":
		return d.Raise()
	case "down":
		return d.Lower()
	case "stop":
		return d.Halt()
	case "move":
		if len(args) != 2 {
			return errors.New("usage: move <cm>")
		}
		cm, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("invalid height %q: %w", args[1], err)
		}
		return moveTo(ctx, d, cfg, protocol.FromCentimeters(cm))
	case "preset":
		if len(args) != 2 {
			return errors.New("usage: preset <name>")
		}
		h, ok := cfg.Preset(args[1])
		if !ok {
			return fmt.Errorf("no preset named %q", args[1])
		}
		return moveTo(ctx, d, cfg, h)
	case "shell":
		sh, err := shell.New(d, cfg)
		if err != nil {
			return err
		}
		log.SetOutput(sh.Stdout())
		sh.Run(ctx)
		return nil
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func moveTo(ctx context.Context, d *desk.Desk, cfg *config.Config, target protocol.Height) error {
	if cfg.Move.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Move.Timeout)
		defer cancel()
	}
	log.Printf("Moving to %.1f cm...", target.Centimeters())
	start := time.Now()
	if err := d.MoveTo(ctx, target, progress.NewPrinter(os.Stdout)); err != nil {
		return err
	}
	log.Printf("Done in %s", time.Since(start).Round(time.Millisecond))
	return nil
}

func runScan(adapter ble.Adapter) error {
	log.Println("Scanning for 5s...")
	devices, err := ble.ScanForDevices(adapter, 5*time.Second)
	if err != nil {
		return err
	}
	for _, dev := range devices {
		fmt.Printf("%-40s %4d dBm  %s\n", dev.Address, dev.RSSI, dev.Name)
	}
	return nil
}

func initConfig() {
	path, err := config.WriteDefault()
	if err != nil {
		log.Fatalf("init-config: %v", err)
	}
	if path == "" {
		log.Printf("Config already exists at %s", config.DefaultConfigPath())
		return
	}
	log.Printf("Wrote %s", path)
}

// hint adds a remedy to connection errors a user can fix.
func hint(err error) string {
	switch {
	case errors.Is(err, desk.ErrPermissionDenied):
		return "\n\nGrant Bluetooth access to your terminal in System Settings > Privacy & Security > Bluetooth."
	case errors.Is(err, desk.ErrCannotFindDevice):
		return "\n\nIs the desk powered and in range? Run 'deskctl scan' to list nearby devices."
	case errors.Is(err, desk.ErrCharacteristicsNotFound):
		return "\n\nThe device does not look like a Linak desk; check device.name / device.address."
	default:
		return ""
	}
}

// loadConfig loads the config from the specified path, or falls back to
// the default config path, or uses built-in defaults.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}

	defaultPath := config.DefaultConfigPath()
	if _, err := os.Stat(defaultPath); err == nil {
		cfg, err := config.Load(defaultPath)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", defaultPath, err)
		}
		log.Printf("Config loaded from %s", defaultPath)
		return cfg, nil
	}

	return config.Default(), nil
}

// printBanner displays the startup configuration summary.
func printBanner(cfg *config.Config) {
	target := cfg.Device.Address
	if target == "" {
		target = fmt.Sprintf("name contains %q", cfg.Device.Name)
	}
	fmt.Fprintln(os.Stderr, "=== deskctl ===")
	fmt.Fprintf(os.Stderr, "  Device:    %s\n", target)
	fmt.Fprintf(os.Stderr, "  Discovery: %d x %s\n", cfg.Discovery.Attempts, cfg.Discovery.PollInterval)
	fmt.Fprintf(os.Stderr, "  Timeout:   %s\n", cfg.Move.Timeout)
	fmt.Fprintf(os.Stderr, "  Log:       %s\n", cfg.LogLevel)
	fmt.Fprintln(os.Stderr, "===============")
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: deskctl [flags] <command>\n\nCommands:\n")
	fmt.Fprintln(os.Stderr, "  height          print the current height")
	fmt.Fprintln(os.Stderr, "  up | down       nudge the desk")
	fmt.Fprintln(os.Stderr, "  stop            halt the motor")
	fmt.Fprintln(os.Stderr, "  move <cm>       move to a height in centimetres")
	fmt.Fprintln(os.Stderr, "  preset <name>   move to a height from the config")
	fmt.Fprintln(os.Stderr, "  scan            list nearby Bluetooth devices")
	fmt.Fprintln(os.Stderr, "  shell           interactive prompt")
	fmt.Fprintln(os.Stderr, "  init-config     write the default config file")
	fmt.Fprintf(os.Stderr, "\nFlags:\n")
	flag.PrintDefaults()
}
