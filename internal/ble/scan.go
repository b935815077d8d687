package ble

import (
	"fmt"
	"sort"
	"time"
)

// ScanForDevices scans for timeout and returns every peripheral seen,
// strongest signal first.
func ScanForDevices(adapter Adapter, timeout time.Duration) ([]Peripheral, error) {
	if err := adapter.Enable(); err != nil {
		return nil, fmt.Errorf("ble: enable adapter: %w", err)
	}
	if err := adapter.StartScan(); err != nil {
		return nil, err
	}
	time.Sleep(timeout)
	if err := adapter.StopScan(); err != nil {
		return nil, err
	}

	devices := adapter.Peripherals()
	sort.SliceStable(devices, func(i, j int) bool {
		return devices[i].RSSI > devices[j].RSSI
	})
	return devices, nil
}
