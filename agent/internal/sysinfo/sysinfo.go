// Package sysinfo collects the host state sent with heartbeats.
package sysinfo

import (
	"context"

	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

// LastState mirrors the backend's heartbeat last_state object.
type LastState struct {
	Uptime uint64 `json:"uptime"`
	Memory uint64 `json:"memory"`
}

// Collect reads uptime (seconds) and available memory (bytes). Whatever can
// be read is returned together with the first error.
func Collect(ctx context.Context) (LastState, error) {
	var st LastState
	var firstErr error

	up, err := host.UptimeWithContext(ctx)
	if err != nil {
		firstErr = err
	} else {
		st.Uptime = up
	}

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		if firstErr == nil {
			firstErr = err
		}
	} else {
		st.Memory = vm.Available
	}
	return st, firstErr
}
