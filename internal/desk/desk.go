// Package desk discovers a Linak-based standing desk, resolves its control
// and position characteristics, and drives it to a requested height with a
// position-feedback loop.
package desk

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/chaz8081/deskctl/internal/ble"
	"github.com/chaz8081/deskctl/internal/desk/protocol"
)

// Options configures a Desk.
type Options struct {
	Discovery DiscoveryOptions
	// Notify subscribes to position notifications on connect.
	Notify bool
	// Clock timestamps height samples. Defaults to SystemClock.
	Clock Clock
}

// DefaultOptions returns the production defaults.
func DefaultOptions() Options {
	return Options{
		Discovery: DefaultDiscoveryOptions(),
		Clock:     SystemClock,
	}
}

// Desk is a connected desk. It is not safe for concurrent use: one
// goroutine owns it for its lifetime.
type Desk struct {
	conn     ble.Connection
	addr     ble.Address
	control  ble.Characteristic
	position ble.Characteristic
	attrs    *Attributes
	clock    Clock
}

// New builds a Desk from a connection whose characteristics have been
// resolved. It fails without side effects if either characteristic is missing.
func New(conn ble.Connection, attrs *Attributes, opts Options) (*Desk, error) {
	if conn == nil {
		return nil, errors.New("desk: nil connection")
	}
	if attrs == nil || attrs.Control == nil || attrs.Position == nil {
		return nil, fmt.Errorf("%w: attributes not resolved", ErrCharacteristicsNotFound)
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock
	}
	return &Desk{
		conn:     conn,
		addr:     conn.Address(),
		control:  attrs.Control,
		position: attrs.Position,
		attrs:    attrs,
		clock:    opts.Clock,
	}, nil
}

// Address returns the hardware address captured at construction.
func (d *Desk) Address() ble.Address {
	return d.addr
}

// Raise starts moving the desk up. Success means the transport accepted the
// write; the desk does not acknowledge motor commands.
func (d *Desk) Raise() error {
	return d.send(protocol.Raise)
}

// Lower starts moving the desk down.
func (d *Desk) Lower() error {
	return d.send(protocol.Lower)
}

// Halt stops the motor. Halting a stopped desk is harmless.
func (d *Desk) Halt() error {
	return d.send(protocol.Halt)
}

func (d *Desk) send(cmd protocol.Command) error {
	if err := d.control.Write(protocol.EncodeCommand(cmd)); err != nil {
		return fmt.Errorf("desk: write %s: %w", cmd, err)
	}
	return nil
}

// Height reads the current height.
func (d *Desk) Height() (protocol.Height, error) {
	data, err := d.position.Read()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrCannotReadPosition, err)
	}
	h, err := protocol.DecodeHeight(data)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrCannotReadPosition, err)
	}
	return h, nil
}

// LastNotifiedHeight returns the most recent height pushed by the desk.
// ok is false when not subscribed or before the first notification.
func (d *Desk) LastNotifiedHeight() (h protocol.Height, ok bool) {
	if d.attrs.notified == nil {
		return 0, false
	}
	v := d.attrs.notified.Load()
	if v < 0 {
		return 0, false
	}
	return protocol.Height(v), true
}

// Close disconnects from the desk.
func (d *Desk) Close() error {
	slog.Debug("[DESK] disconnecting", "address", d.addr)
	return d.conn.Disconnect()
}
