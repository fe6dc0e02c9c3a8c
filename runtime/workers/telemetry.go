package workers

import (
	"context"
	"log/slog"
	"os"
	"time"

	"boardroom/runtime"

	"github.com/shirou/gopsutil/process"
)

// TelemetryWorker periodically logs process health (RSS, CPU) and the
// number of meetings currently running. Log-only: this service has no
// monitoring endpoint, the operator reads the structured logs.
type TelemetryWorker struct {
	log      *slog.Logger
	registry *runtime.Registry
	interval time.Duration
}

func NewTelemetryWorker(log *slog.Logger, registry *runtime.Registry, interval time.Duration) *TelemetryWorker {
	return &TelemetryWorker{log: log, registry: registry, interval: interval}
}

func (w *TelemetryWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			rss, cpu, err := selfStats(proc)
			if err != nil {
				w.log.Warn("Failed to collect process stats", "error", err)
				continue
			}
			w.log.Info("Telemetry",
				"active_meetings", w.registry.Active(),
				"rss_bytes", rss,
				"cpu_percent", cpu,
			)
		}
	}
}

func selfStats(p *process.Process) (uint64, float64, error) {
	memInfo, err := p.MemoryInfo()
	if err != nil {
		return 0, 0, err
	}
	cpuPercent, err := p.CPUPercent()
	if err != nil {
		return 0, 0, err
	}
	return memInfo.RSS, cpuPercent, nil
}
