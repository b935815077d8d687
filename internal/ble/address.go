package ble

import (
	"errors"
	"strings"

	"tinygo.org/x/bluetooth"
)

// ErrInvalidAddress is returned by ParseAddress for strings that are neither
// a MAC address nor a CoreBluetooth device UUID.
var ErrInvalidAddress = errors.New("ble: invalid device address")

// Address identifies a peripheral. On Linux and Windows it is a MAC address
// in upper case; on macOS CoreBluetooth hides MACs and hands out a per-host
// UUID instead, kept in lower-case dashed form. Addresses compare equal only
// when both are in canonical form, which ParseAddress guarantees.
type Address string

// ParseAddress parses and canonicalises a MAC address or a device UUID.
func ParseAddress(s string) (Address, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrInvalidAddress
	}
	// ParseMAC only accepts upper-case hex digits.
	if mac, err := bluetooth.ParseMAC(strings.ToUpper(s)); err == nil && strings.Count(s, ":") == 5 {
		return Address(mac.String()), nil
	}
	if strings.Count(s, "-") == 4 {
		if uuid, err := bluetooth.ParseUUID(strings.ToLower(s)); err == nil {
			return Address(uuid.String()), nil
		}
	}
	return "", ErrInvalidAddress
}

func (a Address) String() string {
	return string(a)
}
