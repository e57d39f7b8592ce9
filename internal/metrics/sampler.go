// Package metrics samples process and system resource usage while the
// pipeline runs.
package metrics

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/process"
	"go.uber.org/zap"
)

// minInterval is the shortest period accepted for periodic sampling
const minInterval = time.Second

// Sample is one resource usage snapshot
type Sample struct {
	CPUPercent        float64 // System-wide CPU usage (0-100%)
	ProcessCPUPercent float64 // Can exceed 100% on multi-core
	IOWaitPercent     float64
	RSSMB             float64 // Resident set size of this process
	MemoryUsedGB      float64
	MemoryPercent     float64
	Timestamp         time.Time
}

// Sampler takes resource snapshots on demand and, once started, on a
// fixed interval. It is safe for concurrent use.
type Sampler struct {
	interval time.Duration
	logger   *zap.Logger
	proc     *process.Process

	mu           sync.Mutex
	lastCPUTimes cpu.TimesStat
	hasCPUTimes  bool
	last         *Sample
	peakRSSMB    float64
}

// NewSampler creates a sampler. Intervals below one second are raised to it.
func NewSampler(interval time.Duration, logger *zap.Logger) *Sampler {
	if interval < minInterval {
		interval = minInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		logger.Debug("Process metrics unavailable", zap.Error(err))
		proc = nil
	}
	return &Sampler{interval: interval, logger: logger, proc: proc}
}

// Start logs a sample every interval until ctx is cancelled.
func (s *Sampler) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log(s.Sample())
	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("Metrics sampling stopped")
			return
		case <-ticker.C:
			s.log(s.Sample())
		}
	}
}

// Sample takes a snapshot now and records it as the latest one.
func (s *Sampler) Sample() Sample {
	sample := Sample{Timestamp: time.Now()}

	if pct, err := cpu.Percent(0, false); err == nil && len(pct) > 0 {
		sample.CPUPercent = pct[0]
	}
	if vmem, err := mem.VirtualMemory(); err == nil {
		sample.MemoryPercent = vmem.UsedPercent
		sample.MemoryUsedGB = float64(vmem.Used) / (1 << 30)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.proc != nil {
		if pct, err := s.proc.Percent(0); err == nil {
			sample.ProcessCPUPercent = pct
		}
		if info, err := s.proc.MemoryInfo(); err == nil {
			sample.RSSMB = float64(info.RSS) / (1 << 20)
		}
	}
	sample.IOWaitPercent = s.ioWait()

	if sample.RSSMB > s.peakRSSMB {
		s.peakRSSMB = sample.RSSMB
	}
	s.last = &sample
	return sample
}

// Last returns the latest snapshot, or nil before the first one.
func (s *Sampler) Last() *Sample {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// PeakRSSMB returns the largest resident set size seen so far.
func (s *Sampler) PeakRSSMB() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.peakRSSMB
}

func (s *Sampler) log(sample Sample) {
	s.logger.Info("System metrics",
		zap.Float64("sys_cpu", sample.CPUPercent),
		zap.Float64("proc_cpu", sample.ProcessCPUPercent),
		zap.Float64("iowait", sample.IOWaitPercent),
		zap.Float64("mem_pct", sample.MemoryPercent),
		zap.String("mem_used", FormatGB(sample.MemoryUsedGB)),
		zap.String("rss", FormatMB(sample.RSSMB)),
	)
}

// ioWait returns the share of CPU time spent waiting for I/O since the
// previous call. Callers hold s.mu.
func (s *Sampler) ioWait() float64 {
	times, err := cpu.Times(false)
	if err != nil || len(times) == 0 {
		return 0
	}
	current := times[0]
	if !s.hasCPUTimes {
		s.lastCPUTimes = current
		s.hasCPUTimes = true
		return 0
	}

	last := s.lastCPUTimes
	total := (current.User - last.User) +
		(current.System - last.System) +
		(current.Idle - last.Idle) +
		(current.Iowait - last.Iowait) +
		(current.Irq - last.Irq) +
		(current.Softirq - last.Softirq) +
		(current.Steal - last.Steal)
	wait := current.Iowait - last.Iowait
	s.lastCPUTimes = current

	if total <= 0 {
		return 0
	}
	return wait / total * 100
}

// FormatGB formats gigabytes with one decimal place
func FormatGB(gb float64) string {
	return fmt.Sprintf("%.1f GB", gb)
}

// FormatMB formats megabytes with one decimal place
func FormatMB(mb float64) string {
	return fmt.Sprintf("%.1f MB", mb)
}
