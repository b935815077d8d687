package ble

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"tinygo.org/x/bluetooth"
)

// scanStartGrace is how long StartScan waits for the transport to reject
// the scan before assuming it is running.
const scanStartGrace = 200 * time.Millisecond

// readBufferSize covers the 4-byte position value with room to spare.
const readBufferSize = 32

// BluetoothAdapter wraps tinygo-org/bluetooth.
// On macOS, device addresses are CoreBluetooth UUIDs (not MAC addresses);
// Address hides the difference.
type BluetoothAdapter struct {
	adapter *bluetooth.Adapter

	// mu protects everything below.
	mu       sync.Mutex
	scanning bool
	seen     map[Address]seenPeripheral
	conns    map[Address]*bluetoothConnection
}

type seenPeripheral struct {
	peripheral Peripheral
	addr       bluetooth.Address
}

// NewAdapter creates a BLE adapter backed by the platform default radio.
func NewAdapter() *BluetoothAdapter {
	return &BluetoothAdapter{
		adapter: bluetooth.DefaultAdapter,
		seen:    make(map[Address]seenPeripheral),
		conns:   make(map[Address]*bluetoothConnection),
	}
}

func (a *BluetoothAdapter) Enable() error {
	if err := a.adapter.Enable(); err != nil {
		return err
	}

	// tinygo/bluetooth reports peripheral disconnects through the
	// adapter-level connect handler with connected=false.
	a.adapter.SetConnectHandler(func(device bluetooth.Device, connected bool) {
		if connected {
			return
		}
		addr, err := ParseAddress(device.Address.String())
		if err != nil {
			return
		}
		a.mu.Lock()
		conn, ok := a.conns[addr]
		delete(a.conns, addr)
		a.mu.Unlock()
		if ok {
			conn.fireDisconnect()
		}
	})

	return nil
}

func (a *BluetoothAdapter) StartScan() error {
	a.mu.Lock()
	if a.scanning {
		a.mu.Unlock()
		return nil
	}
	a.scanning = true
	a.seen = make(map[Address]seenPeripheral)
	a.mu.Unlock()

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.adapter.Scan(a.onScanResult)
	}()

	select {
	case err := <-errCh:
		a.mu.Lock()
		a.scanning = false
		a.mu.Unlock()
		if err != nil {
			return fmt.Errorf("ble: scan: %w", err)
		}
		return nil
	case <-time.After(scanStartGrace):
		go func() {
			if err := <-errCh; err != nil {
				slog.Warn("[BLE] scan ended with error", "error", err)
			}
			a.mu.Lock()
			a.scanning = false
			a.mu.Unlock()
		}()
		return nil
	}
}

func (a *BluetoothAdapter) onScanResult(_ *bluetooth.Adapter, result bluetooth.ScanResult) {
	addr, err := ParseAddress(result.Address.String())
	if err != nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	p := Peripheral{
		Name:    result.LocalName(),
		Address: addr,
		RSSI:    int(result.RSSI),
	}
	// Some stacks send the name only in the scan response; keep the last
	// non-empty one.
	if prev, ok := a.seen[addr]; ok && p.Name == "" {
		p.Name = prev.peripheral.Name
	}
	a.seen[addr] = seenPeripheral{peripheral: p, addr: result.Address}
}

func (a *BluetoothAdapter) StopScan() error {
	a.mu.Lock()
	scanning := a.scanning
	a.mu.Unlock()
	if !scanning {
		return nil
	}
	if err := a.adapter.StopScan(); err != nil {
		return fmt.Errorf("ble: stop scan: %w", err)
	}
	return nil
}

func (a *BluetoothAdapter) Peripherals() []Peripheral {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]Peripheral, 0, len(a.seen))
	for _, s := range a.seen {
		out = append(out, s.peripheral)
	}
	return out
}

func (a *BluetoothAdapter) Connect(ctx context.Context, addr Address) (Connection, error) {
	// Prefer the address from the advertisement: on Linux it carries the
	// public/random flag that a parsed string cannot.
	a.mu.Lock()
	s, ok := a.seen[addr]
	a.mu.Unlock()
	target := s.addr
	if !ok {
		target.Set(string(addr))
	}

	// tinygo/bluetooth's Connect blocks internally with its own timeout.
	// We wrap it to also respect ctx cancellation.
	type connectResult struct {
		device bluetooth.Device
		err    error
	}
	ch := make(chan connectResult, 1)
	go func() {
		device, err := a.adapter.Connect(target, bluetooth.ConnectionParams{})
		ch <- connectResult{device, err}
	}()

	select {
	case <-ctx.Done():
		// The underlying Connect will eventually time out or succeed;
		// it cannot be cancelled from here.
		return nil, fmt.Errorf("ble: connect to %s: %w", addr, ctx.Err())
	case result := <-ch:
		if result.err != nil {
			return nil, fmt.Errorf("ble: connect to %s: %w", addr, result.err)
		}
		conn := &bluetoothConnection{device: &result.device, addr: addr}

		a.mu.Lock()
		a.conns[addr] = conn
		a.mu.Unlock()

		slog.Debug("[BLE] connected", "address", addr)
		return conn, nil
	}
}

// Compile-time check that BluetoothAdapter implements Adapter.
var _ Adapter = (*BluetoothAdapter)(nil)

type bluetoothConnection struct {
	device *bluetooth.Device
	addr   Address

	// mu protects disconnectCb, which the adapter's connect handler reads
	// from a transport goroutine.
	mu           sync.Mutex
	disconnectCb func()
}

func (c *bluetoothConnection) Address() Address {
	return c.addr
}

func (c *bluetoothConnection) DiscoverCharacteristics() ([]Characteristic, error) {
	svcs, err := c.device.DiscoverServices(nil)
	if err != nil {
		return nil, fmt.Errorf("ble: discover services: %w", err)
	}

	var out []Characteristic
	for _, svc := range svcs {
		chars, err := svc.DiscoverCharacteristics(nil)
		if err != nil {
			return nil, fmt.Errorf("ble: discover characteristics of %s: %w", svc.UUID().String(), err)
		}
		for i := range chars {
			out = append(out, &bluetoothCharacteristic{char: &chars[i]})
		}
	}
	return out, nil
}

func (c *bluetoothConnection) Disconnect() error {
	return c.device.Disconnect()
}

func (c *bluetoothConnection) OnDisconnect(cb func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disconnectCb = cb
}

func (c *bluetoothConnection) fireDisconnect() {
	c.mu.Lock()
	cb := c.disconnectCb
	c.mu.Unlock()
	if cb != nil {
		cb()
	}
}

type bluetoothCharacteristic struct {
	char *bluetooth.DeviceCharacteristic
}

func (c *bluetoothCharacteristic) UUID() string {
	return c.char.UUID().String()
}

func (c *bluetoothCharacteristic) Read() ([]byte, error) {
	buf := make([]byte, readBufferSize)
	n, err := c.char.Read(buf)
	if err != nil {
		return nil, err
	}
	return buf[:n], nil
}

func (c *bluetoothCharacteristic) Write(data []byte) error {
	_, err := c.char.WriteWithoutResponse(data)
	return err
}

func (c *bluetoothCharacteristic) Subscribe(cb func([]byte)) error {
	return c.char.EnableNotifications(func(buf []byte) {
		cb(buf)
	})
}
