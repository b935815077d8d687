package desk

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/chaz8081/deskctl/internal/ble"
)

// DefaultName is the advertised-name substring matched when no name or
// address is configured.
const DefaultName = "Desk"

// Matcher selects the desk among advertising peripherals.
type Matcher interface {
	Match(p ble.Peripheral) bool
	String() string
}

type nameMatcher string

func (m nameMatcher) Match(p ble.Peripheral) bool { return strings.Contains(p.Name, string(m)) }
func (m nameMatcher) String() string              { return fmt.Sprintf("name containing %q", string(m)) }

type addressMatcher ble.Address

func (m addressMatcher) Match(p ble.Peripheral) bool { return p.Address == ble.Address(m) }
func (m addressMatcher) String() string              { return "address " + string(m) }

// MatchName matches peripherals whose advertised name contains substr.
// The comparison is case-sensitive.
func MatchName(substr string) Matcher {
	return nameMatcher(substr)
}

// MatchAddress matches the peripheral with exactly this address.
func MatchAddress(addr ble.Address) Matcher {
	return addressMatcher(addr)
}

// ParseMatcher builds a Matcher from user input. A non-empty address takes
// precedence over the name; an empty name falls back to DefaultName.
func ParseMatcher(name, address string) (Matcher, error) {
	if address != "" {
		addr, err := ble.ParseAddress(address)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrMacAddrParseFailed, address)
		}
		return MatchAddress(addr), nil
	}
	if name == "" {
		name = DefaultName
	}
	return MatchName(name), nil
}

// DiscoveryOptions bounds the discovery poll.
type DiscoveryOptions struct {
	Attempts     int
	PollInterval time.Duration
	Clock        Clock
}

// DefaultDiscoveryOptions returns 240 polls at 50ms, roughly 12 seconds.
func DefaultDiscoveryOptions() DiscoveryOptions {
	return DiscoveryOptions{
		Attempts:     240,
		PollInterval: 50 * time.Millisecond,
		Clock:        SystemClock,
	}
}

func (o DiscoveryOptions) withDefaults() DiscoveryOptions {
	def := DefaultDiscoveryOptions()
	if o.Attempts <= 0 {
		o.Attempts = def.Attempts
	}
	if o.PollInterval <= 0 {
		o.PollInterval = def.PollInterval
	}
	if o.Clock == nil {
		o.Clock = def.Clock
	}
	return o
}

// FindDevice scans until a peripheral satisfies m or the attempt budget is
// spent. Advertisements arrive asynchronously, so a single snapshot is not
// enough; running out of attempts yields ErrCannotFindDevice. Cancelling ctx
// stops the poll between attempts and returns ctx.Err wrapped in
// ErrCannotFindDevice.
func FindDevice(ctx context.Context, adapter ble.Adapter, m Matcher, opts DiscoveryOptions) (ble.Peripheral, error) {
	opts = opts.withDefaults()

	if err := adapter.Enable(); err != nil {
		return ble.Peripheral{}, scanError(err)
	}
	if err := adapter.StartScan(); err != nil {
		return ble.Peripheral{}, scanError(err)
	}
	defer func() {
		if err := adapter.StopScan(); err != nil {
			slog.Warn("[DESK] stop scan failed", "error", err)
		}
	}()

	for attempt := 1; attempt <= opts.Attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return ble.Peripheral{}, fmt.Errorf("%w: %w", ErrCannotFindDevice, err)
		}
		for _, p := range adapter.Peripherals() {
			if m.Match(p) {
				slog.Info("[DESK] found device", "name", p.Name, "address", p.Address, "attempt", attempt)
				return p, nil
			}
		}
		slog.Debug("[DESK] device not visible yet", "matcher", m.String(), "attempt", attempt)
		opts.Clock.Sleep(opts.PollInterval)
	}
	return ble.Peripheral{}, fmt.Errorf("%w: no peripheral with %s after %d attempts", ErrCannotFindDevice, m, opts.Attempts)
}

// scanError classifies a failure to start scanning. Transports only report
// authorisation problems through their error text.
func scanError(err error) error {
	msg := strings.ToLower(err.Error())
	for _, hint := range []string{"permission", "unauthorized", "not authorized", "access denied"} {
		if strings.Contains(msg, hint) {
			return fmt.Errorf("%w: %w", ErrPermissionDenied, err)
		}
	}
	return fmt.Errorf("%w: %w", ErrScanFailed, err)
}
