// Package ble is the transport the desk controller drives: scanning for
// advertising peripherals, connecting, and reading, writing and subscribing
// to GATT characteristics. The desk package only consumes these interfaces;
// the tinygo bluetooth implementation lives in bluetooth.go and an in-memory
// fake in the bletest subpackage.
package ble

import "context"

// Characteristic represents a remote GATT characteristic.
type Characteristic interface {
	// UUID returns the characteristic identifier in lower-case dashed form.
	UUID() string
	// Read fetches the current value.
	Read() ([]byte, error)
	// Write sends data to the characteristic.
	Write(data []byte) error
	// Subscribe registers a callback for notifications on this characteristic.
	Subscribe(callback func(data []byte)) error
}

// Peripheral is an advertising device seen during a scan.
type Peripheral struct {
	Name    string
	Address Address
	RSSI    int
}

// Connection represents an active BLE connection to a peripheral.
type Connection interface {
	// Address returns the hardware address of the connected peripheral.
	Address() Address
	// DiscoverCharacteristics enumerates every characteristic of every
	// service on the peripheral.
	DiscoverCharacteristics() ([]Characteristic, error)
	// Disconnect terminates the connection.
	Disconnect() error
	// OnDisconnect registers a callback invoked when the connection drops.
	OnDisconnect(callback func())
}

// Adapter abstracts the local BLE radio (the central role).
type Adapter interface {
	// Enable powers on the BLE adapter.
	Enable() error
	// StartScan begins collecting advertisements in the background.
	StartScan() error
	// StopScan ends a scan started with StartScan. Stopping an idle
	// adapter is not an error.
	StopScan() error
	// Peripherals returns a snapshot of the peripherals seen since the
	// scan started.
	Peripherals() []Peripheral
	// Connect establishes a connection to the peripheral at addr.
	Connect(ctx context.Context, addr Address) (Connection, error)
}
