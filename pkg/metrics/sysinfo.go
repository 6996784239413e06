package metrics

import (
	"fmt"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"
)

// hostProbe samples host-level gauges. The function fields are injectable so
// tests can pin load and memory values.
type hostProbe struct {
	loadAvg func() (float64, error)
	cores   func() (int, error)
	memory  func() (total, free uint64, err error)
}

func defaultProbe() hostProbe {
	return hostProbe{
		loadAvg: func() (float64, error) {
			avg, err := load.Avg()
			if err != nil {
				return 0, err
			}
			return avg.Load1, nil
		},
		cores: func() (int, error) {
			return cpu.Counts(true)
		},
		memory: func() (total, free uint64, err error) {
			vm, err := mem.VirtualMemory()
			if err != nil {
				return 0, 0, err
			}
			return vm.Total, vm.Free, nil
		},
	}
}

// CPUUsagePercent returns the 1-minute load average divided by the logical
// core count, as a percentage formatted to two decimals. Probe failures
// report "0.00".
func (a *Aggregator) CPUUsagePercent() string {
	load1, err := a.probe.loadAvg()
	if err != nil {
		return "0.00"
	}
	cores, err := a.probe.cores()
	if err != nil || cores <= 0 {
		return "0.00"
	}
	return fmt.Sprintf("%.2f", load1/float64(cores)*100)
}

// MemoryUsagePercent returns (total-free)/total as a percentage formatted to
// two decimals, sampled from the host at call time. Probe failures report
// "0.00".
func (a *Aggregator) MemoryUsagePercent() string {
	total, free, err := a.probe.memory()
	if err != nil || total == 0 {
		return "0.00"
	}
	used := float64(total-free) / float64(total) * 100
	return fmt.Sprintf("%.2f", used)
}
