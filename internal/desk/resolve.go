package desk

import (
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/chaz8081/deskctl/internal/ble"
	"github.com/chaz8081/deskctl/internal/desk/protocol"
)

// Linak desk GATT identifiers.
const (
	ControlServiceUUID  = "99fa0001-338a-1024-8a49-009c0215f78a"
	ControlCharUUID     = "99fa0002-338a-1024-8a49-009c0215f78a"
	PositionServiceUUID = "99fa0020-338a-1024-8a49-009c0215f78a"
	PositionCharUUID    = "99fa0021-338a-1024-8a49-009c0215f78a"
)

// Attributes holds the two characteristics a Desk needs.
type Attributes struct {
	Control  ble.Characteristic
	Position ble.Characteristic

	// notified holds the latest height pushed by the desk, or -1.
	// Nil when not subscribed.
	notified *atomic.Int32
}

// ResolveOptions configures Resolve.
type ResolveOptions struct {
	// Notify subscribes to position notifications after resolving.
	Notify bool
}

// Resolve enumerates the connection's characteristics once and picks out
// the control and position characteristics. A connected device missing
// either is the wrong device or firmware, so there is no retry.
func Resolve(conn ble.Connection, opts ResolveOptions) (*Attributes, error) {
	chars, err := conn.DiscoverCharacteristics()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCharacteristicsDiscoveryFailed, err)
	}

	attrs := &Attributes{}
	for _, c := range chars {
		switch strings.ToLower(c.UUID()) {
		case ControlCharUUID:
			attrs.Control = c
		case PositionCharUUID:
			attrs.Position = c
		}
	}
	if attrs.Control == nil {
		return nil, &CharacteristicNotFoundError{Which: "Control", UUID: ControlCharUUID}
	}
	if attrs.Position == nil {
		return nil, &CharacteristicNotFoundError{Which: "Position", UUID: PositionCharUUID}
	}

	if opts.Notify {
		notified := new(atomic.Int32)
		notified.Store(-1)
		err := attrs.Position.Subscribe(func(data []byte) {
			h, err := protocol.DecodeHeight(data)
			if err != nil {
				slog.Debug("[DESK] ignoring malformed position notification", "error", err)
				return
			}
			notified.Store(int32(h))
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCannotSubscribePosition, err)
		}
		attrs.notified = notified
	}

	return attrs, nil
}
