// Package conditions gates suite runs on system resources. Browser trials
// are memory and CPU hungry, in monitor mode a run is skipped with a reason
// when the host is too loaded to produce trustworthy verdicts.
package conditions

import (
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"
)

// Preflight defines the resource thresholds checked before a run. Zero value
// disables a check.
type Preflight struct {
	CPUBelow      int     // skip when CPU usage percent is at or above
	MemoryBelow   int     // skip when memory usage percent is at or above
	LoadAvgBelow  float64 // skip when 1m load average is at or above
	DiskFreeAbove int     // skip when free disk percent on DiskFreePath is below
	DiskFreePath  string  // path for the disk check, default "/", screenshots land here
}

// Enabled reports if any check is configured
func (p Preflight) Enabled() bool {
	return p.CPUBelow > 0 || p.MemoryBelow > 0 || p.LoadAvgBelow > 0 || p.DiskFreeAbove > 0
}

// Check verifies all configured thresholds.
// Returns true when the run may proceed, false with a reason otherwise.
func (p Preflight) Check() (bool, string) {
	if p.CPUBelow > 0 {
		if ok, reason := checkCPU(p.CPUBelow); !ok {
			return false, reason
		}
	}
	if p.MemoryBelow > 0 {
		if ok, reason := checkMemory(p.MemoryBelow); !ok {
			return false, reason
		}
	}
	if p.LoadAvgBelow > 0 {
		if ok, reason := checkLoadAvg(p.LoadAvgBelow); !ok {
			return false, reason
		}
	}
	if p.DiskFreeAbove > 0 {
		path := p.DiskFreePath
		if path == "" {
			path = "/"
		}
		if ok, reason := checkDiskFree(p.DiskFreeAbove, path); !ok {
			return false, reason
		}
	}
	return true, ""
}

// checkCPU checks if CPU usage is below threshold
func checkCPU(threshold int) (bool, string) {
	cpuPercent, err := cpu.Percent(time.Second, false)
	if err != nil {
		return false, fmt.Sprintf("failed to get CPU: %v", err)
	}
	if len(cpuPercent) == 0 {
		return false, "no CPU data available"
	}
	current := int(cpuPercent[0])
	if current >= threshold {
		return false, fmt.Sprintf("CPU at %d%%, threshold %d%%", current, threshold)
	}
	return true, ""
}

// checkMemory checks if memory usage is below threshold
func checkMemory(threshold int) (bool, string) {
	v, err := mem.VirtualMemory()
	if err != nil {
		return false, fmt.Sprintf("failed to get memory: %v", err)
	}
	current := int(v.UsedPercent)
	if current >= threshold {
		return false, fmt.Sprintf("memory at %d%%, threshold %d%%", current, threshold)
	}
	return true, ""
}

// checkLoadAvg checks if load average is below threshold
func checkLoadAvg(threshold float64) (bool, string) {
	loads, err := load.Avg()
	if err != nil {
		return false, fmt.Sprintf("failed to get load average: %v", err)
	}
	if loads.Load1 >= threshold {
		return false, fmt.Sprintf("load at %.2f, threshold %.2f", loads.Load1, threshold)
	}
	return true, ""
}

// checkDiskFree checks if disk free space is above threshold
func checkDiskFree(minFreePercent int, path string) (bool, string) {
	usage, err := disk.Usage(path)
	if err != nil {
		return false, fmt.Sprintf("failed to get disk usage for %s: %v", path, err)
	}
	freePercent := 100 - int(usage.UsedPercent)
	if freePercent < minFreePercent {
		return false, fmt.Sprintf("disk free at %d%%, need %d%% on %s", freePercent, minFreePercent, path)
	}
	return true, ""
}
