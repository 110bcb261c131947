package workers

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/shirou/gopsutil/process"

	"chat-relay/observability"
)

// TelemetryWorker samples the server process itself on a fixed interval and
// publishes CPU and resident memory to the Prometheus gauges.
type TelemetryWorker struct {
	log            *slog.Logger
	metrics        *observability.Metrics
	metricInterval time.Duration
}

func NewTelemetryWorker(log *slog.Logger, metrics *observability.Metrics, metricInterval time.Duration) *TelemetryWorker {
	return &TelemetryWorker{log: log, metrics: metrics, metricInterval: metricInterval}
}

func (w *TelemetryWorker) Run(ctx context.Context) error {
	w.log.Info("Starting telemetry worker")
	ticker := time.NewTicker(w.metricInterval)
	defer ticker.Stop()

	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			rss, cpu, err := selfStats(p)
			if err != nil {
				w.log.Error("Failed to collect self stats", "err", err)
				continue
			}
			w.metrics.ProcessCPUPercent.Set(cpu)
			w.metrics.ProcessResident.Set(float64(rss))
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
