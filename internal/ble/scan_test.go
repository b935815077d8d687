package ble_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chaz8081/deskctl/internal/ble"
	"github.com/chaz8081/deskctl/internal/ble/bletest"
)

func TestScanForDevices(t *testing.T) {
	adapter := bletest.NewAdapter()
	adapter.AddPeripheral(ble.Peripheral{Name: "Desk 1234", Address: "AA:BB:CC:DD:EE:01", RSSI: -70}, 0, nil)
	adapter.AddPeripheral(ble.Peripheral{Name: "Headphones", Address: "AA:BB:CC:DD:EE:02", RSSI: -40}, 0, nil)

	result, err := ble.ScanForDevices(adapter, time.Millisecond)
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, "Headphones", result[0].Name, "strongest signal first")
	assert.Equal(t, ble.Address("AA:BB:CC:DD:EE:01"), result[1].Address)
	assert.False(t, adapter.Scanning(), "scan should be stopped")
}

func TestScanForDevicesEmpty(t *testing.T) {
	result, err := ble.ScanForDevices(bletest.NewAdapter(), time.Millisecond)
	require.NoError(t, err)
	assert.Empty(t, result)
}

func TestScanForDevicesEnableError(t *testing.T) {
	adapter := bletest.NewAdapter()
	adapter.EnableErr = bletest.ErrInjected

	_, err := ble.ScanForDevices(adapter, time.Millisecond)
	assert.ErrorIs(t, err, bletest.ErrInjected)
}
