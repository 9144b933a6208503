package workers

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/shirou/gopsutil/process"

	"streamchat/contract"
	"streamchat/telemetry"
)

var _ contract.Worker = (*ProcStats)(nil)

// ProcStats samples the engine's own process on an interval and feeds
// the CPU/memory gauges. Purely observational.
type ProcStats struct {
	log      *slog.Logger
	metrics  *telemetry.Metrics
	interval time.Duration
}

func NewProcStats(log *slog.Logger, metrics *telemetry.Metrics, interval time.Duration) *ProcStats {
	return &ProcStats{log: log, metrics: metrics, interval: interval}
}

func (w *ProcStats) Run(ctx context.Context) error {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Debug("context done, stopping procstats")
			return nil
		case <-ticker.C:
			if cpu, err := proc.CPUPercent(); err == nil {
				w.metrics.ProcessCPU.Set(cpu)
			} else {
				w.log.Debug("cpu sample failed", "err", err)
			}
			if ram, err := proc.MemoryPercent(); err == nil {
				w.metrics.ProcessRSS.Set(float64(ram))
			} else {
				w.log.Debug("memory sample failed", "err", err)
			}
		}
	}
}
