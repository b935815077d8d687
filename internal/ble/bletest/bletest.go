// Package bletest provides an in-memory implementation of the ble transport
// interfaces for tests. Every read and write is recorded so tests can assert
// on the exact I/O a component performed.
package bletest

import (
	"context"
	"errors"
	"sync"

	"github.com/chaz8081/deskctl/internal/ble"
)

// ErrInjected is a convenience error for tests that need a transport failure.
var ErrInjected = errors.New("bletest: injected failure")

// Characteristic is a fake GATT characteristic.
type Characteristic struct {
	ID string

	mu        sync.Mutex
	value     []byte
	writes    [][]byte
	reads     int
	callback  func([]byte)
	onRead    func() ([]byte, error)
	onWrite   func([]byte) error
	subscribe error
}

// NewCharacteristic returns a characteristic with the given UUID and value.
func NewCharacteristic(uuid string, value []byte) *Characteristic {
	return &Characteristic{ID: uuid, value: value}
}

func (c *Characteristic) UUID() string { return c.ID }

func (c *Characteristic) Read() ([]byte, error) {
	c.mu.Lock()
	c.reads++
	hook := c.onRead
	value := c.value
	c.mu.Unlock()
	if hook != nil {
		return hook()
	}
	cp := make([]byte, len(value))
	copy(cp, value)
	return cp, nil
}

func (c *Characteristic) Write(data []byte) error {
	cp := make([]byte, len(data))
	copy(cp, data)
	c.mu.Lock()
	c.writes = append(c.writes, cp)
	hook := c.onWrite
	c.mu.Unlock()
	if hook != nil {
		return hook(cp)
	}
	return nil
}

func (c *Characteristic) Subscribe(cb func([]byte)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.subscribe != nil {
		return c.subscribe
	}
	c.callback = cb
	return nil
}

// SetValue replaces the value returned by Read.
func (c *Characteristic) SetValue(v []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = v
}

// OnRead overrides Read. The hook runs after the read is counted.
func (c *Characteristic) OnRead(fn func() ([]byte, error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onRead = fn
}

// OnWrite is called with every written payload; its error is returned by Write.
// The payload is recorded either way.
func (c *Characteristic) OnWrite(fn func([]byte) error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onWrite = fn
}

// FailSubscribe makes Subscribe return err.
func (c *Characteristic) FailSubscribe(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscribe = err
}

// Notify delivers data to the subscriber, if any.
func (c *Characteristic) Notify(data []byte) {
	c.mu.Lock()
	cb := c.callback
	c.mu.Unlock()
	if cb != nil {
		cb(data)
	}
}

// Subscribed reports whether a notification callback is registered.
func (c *Characteristic) Subscribed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.callback != nil
}

// Writes returns a copy of every payload written so far.
func (c *Characteristic) Writes() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]byte, len(c.writes))
	copy(out, c.writes)
	return out
}

// Reads returns the number of Read calls.
func (c *Characteristic) Reads() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reads
}

// Connection is a fake connection exposing a fixed set of characteristics.
type Connection struct {
	Addr  ble.Address
	Chars []*Characteristic

	// DiscoverErr, when set, is returned by DiscoverCharacteristics.
	DiscoverErr error

	mu           sync.Mutex
	discoveries  int
	disconnected bool
	disconnectCb func()
}

func (c *Connection) Address() ble.Address { return c.Addr }

func (c *Connection) DiscoverCharacteristics() ([]ble.Characteristic, error) {
	c.mu.Lock()
	c.discoveries++
	c.mu.Unlock()
	if c.DiscoverErr != nil {
		return nil, c.DiscoverErr
	}
	out := make([]ble.Characteristic, len(c.Chars))
	for i, ch := range c.Chars {
		out[i] = ch
	}
	return out, nil
}

func (c *Connection) Disconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disconnected = true
	return nil
}

func (c *Connection) OnDisconnect(cb func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disconnectCb = cb
}

// SimulateDisconnect triggers the disconnect callback.
func (c *Connection) SimulateDisconnect() {
	c.mu.Lock()
	cb := c.disconnectCb
	c.mu.Unlock()
	if cb != nil {
		cb()
	}
}

// Discoveries returns the number of DiscoverCharacteristics calls.
func (c *Connection) Discoveries() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.discoveries
}

// Disconnected reports whether Disconnect was called.
func (c *Connection) Disconnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disconnected
}

// Adapter is a fake central. Peripherals are revealed progressively to
// simulate advertisements trickling in; see AddPeripheral.
type Adapter struct {
	// EnableErr, ScanErr and ConnectErr are returned by the matching calls.
	EnableErr  error
	ScanErr    error
	ConnectErr error

	mu          sync.Mutex
	entries     []entry
	conns       map[ble.Address]*Connection
	polls       int
	scanning    bool
	connectedTo []ble.Address
}

type entry struct {
	p     ble.Peripheral
	after int
}

// NewAdapter returns an empty fake adapter.
func NewAdapter() *Adapter {
	return &Adapter{conns: make(map[ble.Address]*Connection)}
}

// AddPeripheral makes p visible from the (after+1)-th poll on. Connect to
// p.Address returns conn.
func (a *Adapter) AddPeripheral(p ble.Peripheral, after int, conn *Connection) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, entry{p: p, after: after})
	if conn != nil {
		a.conns[p.Address] = conn
	}
}

func (a *Adapter) Enable() error { return a.EnableErr }

func (a *Adapter) StartScan() error {
	if a.ScanErr != nil {
		return a.ScanErr
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.scanning = true
	return nil
}

func (a *Adapter) StopScan() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.scanning = false
	return nil
}

func (a *Adapter) Peripherals() []ble.Peripheral {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []ble.Peripheral
	for _, e := range a.entries {
		if e.after <= a.polls {
			out = append(out, e.p)
		}
	}
	a.polls++
	return out
}

func (a *Adapter) Connect(ctx context.Context, addr ble.Address) (ble.Connection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if a.ConnectErr != nil {
		return nil, a.ConnectErr
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.connectedTo = append(a.connectedTo, addr)
	conn, ok := a.conns[addr]
	if !ok {
		return nil, errors.New("bletest: no such peripheral")
	}
	return conn, nil
}

// Polls returns the number of Peripherals calls.
func (a *Adapter) Polls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.polls
}

// Scanning reports whether a scan is active.
func (a *Adapter) Scanning() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.scanning
}

// ConnectedTo returns the addresses passed to Connect.
func (a *Adapter) ConnectedTo() []ble.Address {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]ble.Address, len(a.connectedTo))
	copy(out, a.connectedTo)
	return out
}

// Compile-time interface checks.
var (
	_ ble.Adapter        = (*Adapter)(nil)
	_ ble.Connection     = (*Connection)(nil)
	_ ble.Characteristic = (*Characteristic)(nil)
)
