package telemetry

import (
	"context"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
)

const (
	report_perf_cpu          = "perf.cpu-percent"
	report_perf_allocated_mb = "perf.allocated-mb"
	report_perf_live_objects = "perf.live-objects"
	report_perf_goroutines   = "perf.goroutines"
)

type perfSample struct {
	cpuPercent  float64
	cpuOk       bool
	allocatedMb int64
	liveObjects int64
	goroutines  int64
}

func samplePerf(ctx context.Context) perfSample {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	sample := perfSample{
		allocatedMb: int64(memStats.Alloc / 1_000_000),
		liveObjects: int64(memStats.Mallocs) - int64(memStats.Frees),
		goroutines:  int64(runtime.NumGoroutine()),
	}
	// an interval of 0 compares against the previous call instead of blocking
	usage, err := cpu.PercentWithContext(ctx, 0, false)
	if err == nil && len(usage) > 0 {
		sample.cpuPercent = usage[0]
		sample.cpuOk = true
	}
	return sample
}

// InstrumentPerfStats reports process statistics as counts every interval until ctx is done.
// It is meant for long running commands.
func InstrumentPerfStats(ctx context.Context, tel API, interval time.Duration) {
	tel = NewScopedAPI("runtime", tel)
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s := samplePerf(ctx)
				if s.cpuOk {
					tel.ReportCount(report_perf_cpu, int64(s.cpuPercent))
				}
				tel.ReportCount(report_perf_allocated_mb, s.allocatedMb)
				tel.ReportCount(report_perf_live_objects, s.liveObjects)
				tel.ReportCount(report_perf_goroutines, s.goroutines)
			case <-ctx.Done():
				return
			}
		}
	}()
}
