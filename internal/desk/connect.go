package desk

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/chaz8081/deskctl/internal/ble"
)

// Connect finds the desk selected by m, connects to it and resolves its
// characteristics. Reconnecting after a drop needs a fresh Connect.
func Connect(ctx context.Context, adapter ble.Adapter, m Matcher, opts Options) (*Desk, error) {
	p, err := FindDevice(ctx, adapter, m, opts.Discovery)
	if err != nil {
		return nil, err
	}

	conn, err := adapter.Connect(ctx, p.Address)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	attrs, err := Resolve(conn, ResolveOptions{Notify: opts.Notify})
	if err != nil {
		_ = conn.Disconnect()
		return nil, err
	}

	d, err := New(conn, attrs, opts)
	if err != nil {
		_ = conn.Disconnect()
		return nil, err
	}

	conn.OnDisconnect(func() {
		slog.Warn("[DESK] disconnected", "address", d.Address())
	})
	slog.Info("[DESK] connected", "name", p.Name, "address", d.Address())
	return d, nil
}
