package ble

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAddress(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Address
	}{
		{"upper mac", "AA:BB:CC:DD:EE:FF", "AA:BB:CC:DD:EE:FF"},
		{"lower mac", "e8:5b:5b:24:22:e4", "E8:5B:5B:24:22:E4"},
		{"padded mac", "  AA:BB:CC:DD:EE:01 ", "AA:BB:CC:DD:EE:01"},
		{"corebluetooth uuid", "6A1E7D24-8F2B-4C39-9E51-0D2C3B4A5F60", "6a1e7d24-8f2b-4c39-9e51-0d2c3b4a5f60"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAddress(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseAddressInvalid(t *testing.T) {
	for _, in := range []string{"", "desk", "AA:BB:CC", "AA:BB:CC:DD:EE:GG", "not-a-uuid-at-all"} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseAddress(in)
			assert.ErrorIs(t, err, ErrInvalidAddress)
		})
	}
}

func TestParseAddressLowerCaseMACMatchesScanResult(t *testing.T) {
	// Scan results come back upper case; users usually type lower case.
	addr, err := ParseAddress("e8:5b:5b:24:22:e4")
	require.NoError(t, err)
	assert.Equal(t, Address("E8:5B:5B:24:22:E4"), addr)

	mixed, err := ParseAddress("E8:5b:5B:24:22:e4")
	require.NoError(t, err)
	assert.Equal(t, addr, mixed)
}

func TestParseAddressCanonicalEquality(t *testing.T) {
	a, err := ParseAddress("aa:bb:cc:dd:ee:ff")
	require.NoError(t, err)
	b, err := ParseAddress("AA:BB:CC:DD:EE:FF")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
