// Package diagnostics reports process and host resource usage for the
// status endpoint.
package diagnostics

import (
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
)

// Status is a point-in-time view of the serving process and its host.
type Status struct {
	InstanceID string    `json:"instance_id"`
	StartedAt  time.Time `json:"started_at"`
	UptimeSecs float64   `json:"uptime_secs"`
	Goroutines int       `json:"goroutines"`

	CPUPercent float64 `json:"cpu_percent"`
	MemTotalMB float64 `json:"mem_total_mb"`
	MemUsedMB  float64 `json:"mem_used_mb"`
	MemPercent float64 `json:"mem_percent"`

	LoadAvg1  float64 `json:"load_avg_1"`
	LoadAvg5  float64 `json:"load_avg_5"`
	LoadAvg15 float64 `json:"load_avg_15"`
}

// Collector gathers Status snapshots. The instance ID is assigned once
// per collector so restarts are distinguishable in logs and dashboards.
type Collector struct {
	mu         sync.Mutex
	instanceID string
	startedAt  time.Time
}

// NewCollector creates a collector with a fresh instance ID.
func NewCollector() *Collector {
	return &Collector{
		instanceID: uuid.NewString(),
		startedAt:  time.Now().UTC(),
	}
}

// InstanceID returns the identifier assigned to this process instance.
func (c *Collector) InstanceID() string { return c.instanceID }

// Collect gathers a snapshot. Host metrics are best-effort: a probe
// failure leaves the corresponding fields zero rather than failing the
// whole snapshot.
func (c *Collector) Collect() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := Status{
		InstanceID: c.instanceID,
		StartedAt:  c.startedAt,
		UptimeSecs: time.Since(c.startedAt).Seconds(),
		Goroutines: runtime.NumGoroutine(),
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		st.MemTotalMB = float64(vm.Total) / 1024 / 1024
		st.MemUsedMB = float64(vm.Used) / 1024 / 1024
		st.MemPercent = vm.UsedPercent
	}

	if pcts, err := cpu.Percent(0, false); err == nil && len(pcts) > 0 {
		st.CPUPercent = pcts[0]
	}

	if avg, err := load.Avg(); err == nil {
		st.LoadAvg1 = avg.Load1
		st.LoadAvg5 = avg.Load5
		st.LoadAvg15 = avg.Load15
	}

	return st
}
