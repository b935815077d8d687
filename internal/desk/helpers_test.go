package desk

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/chaz8081/deskctl/internal/ble"
	"github.com/chaz8081/deskctl/internal/ble/bletest"
	"github.com/chaz8081/deskctl/internal/desk/protocol"
)

const testAddr = ble.Address("E8:5B:5B:24:22:E4")

// fakeClock advances only when told to; Sleep returns immediately.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(d time.Duration) { c.Advance(d) }

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// newDeskConn returns a connection exposing both desk characteristics.
func newDeskConn(h protocol.Height) (*bletest.Connection, *bletest.Characteristic, *bletest.Characteristic) {
	value, err := protocol.EncodeHeight(h)
	if err != nil {
		panic(err)
	}
	control := bletest.NewCharacteristic(ControlCharUUID, nil)
	position := bletest.NewCharacteristic(PositionCharUUID, value)
	conn := &bletest.Connection{
		Addr: testAddr,
		Chars: []*bletest.Characteristic{
			bletest.NewCharacteristic("00002a00-0000-1000-8000-00805f9b34fb", []byte("Desk 4486")),
			control,
			position,
		},
	}
	return conn, control, position
}

func mustNewDesk(t *testing.T, conn ble.Connection, clock Clock) *Desk {
	t.Helper()
	attrs, err := Resolve(conn, ResolveOptions{})
	require.NoError(t, err)
	d, err := New(conn, attrs, Options{Clock: clock})
	require.NoError(t, err)
	return d
}

// simWrite is a motor command together with the height the desk was at
// when it arrived.
type simWrite struct {
	cmd    protocol.Command
	height protocol.Height
}

// simDesk models a desk with inertia. Every position read advances the
// clock by step. If a Raise or Lower arrived since the previous read the
// desk moves rate*step in that direction, or only coast if a Halt followed
// it.
type simDesk struct {
	t     *testing.T
	clock *fakeClock
	step  time.Duration
	rate  int64 // tenth-mm per second
	coast protocol.Height

	mu      sync.Mutex
	pos     protocol.Height
	pending protocol.Command
	halted  bool
	writes  []simWrite

	conn     *bletest.Connection
	control  *bletest.Characteristic
	position *bletest.Characteristic
}

func newSimDesk(t *testing.T, start protocol.Height, rate int64, coast protocol.Height) *simDesk {
	s := &simDesk{
		t:     t,
		clock: newFakeClock(),
		step:  100 * time.Millisecond,
		rate:  rate,
		coast: coast,
		pos:   start,
	}
	s.conn, s.control, s.position = newDeskConn(start)
	s.position.OnRead(s.read)
	s.control.OnWrite(s.write)
	return s
}

func (s *simDesk) read() ([]byte, error) {
	s.clock.Advance(s.step)
	s.mu.Lock()
	defer s.mu.Unlock()

	move := protocol.Height(s.rate * int64(s.step) / int64(time.Second))
	if s.halted {
		move = s.coast
	}
	switch s.pending {
	case protocol.Raise:
		s.pos = min(s.pos+move, protocol.MaxHeight)
	case protocol.Lower:
		s.pos = max(s.pos-move, protocol.MinHeight)
	}
	s.pending = 0
	s.halted = false
	return protocol.EncodeHeight(s.pos)
}

func (s *simDesk) write(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cmd := protocol.Command(uint16(data[0]) | uint16(data[1])<<8)
	s.writes = append(s.writes, simWrite{cmd: cmd, height: s.pos})
	switch cmd {
	case protocol.Raise, protocol.Lower:
		s.pending = cmd
		s.halted = false
	case protocol.Halt:
		s.halted = true
	default:
		s.t.Errorf("unexpected opcode % x", data)
	}
	return nil
}

func (s *simDesk) Writes() []simWrite {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]simWrite, len(s.writes))
	copy(out, s.writes)
	return out
}

func (s *simDesk) Height() protocol.Height {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pos
}

// scriptedPosition makes c return heights from seq in order, repeating the
// last one. A zero entry makes that read fail with bletest.ErrInjected.
func scriptedPosition(c *bletest.Characteristic, clock *fakeClock, seq ...protocol.Height) {
	var mu sync.Mutex
	i := 0
	c.OnRead(func() ([]byte, error) {
		clock.Advance(100 * time.Millisecond)
		mu.Lock()
		h := seq[min(i, len(seq)-1)]
		i++
		mu.Unlock()
		if h == 0 {
			return nil, bletest.ErrInjected
		}
		return protocol.EncodeHeight(h)
	})
}

func decodeCommands(t *testing.T, writes [][]byte) []protocol.Command {
	t.Helper()
	out := make([]protocol.Command, len(writes))
	for i, w := range writes {
		require.Len(t, w, 2)
		out[i] = protocol.Command(uint16(w[0]) | uint16(w[1])<<8)
	}
	return out
}
