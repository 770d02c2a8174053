/*
rebuild.go - Background rebuild and rollover scheduler

PURPOSE:
  Runs two kinds of background work against the materializer:
  - Rebuilds: an employee whose hire date or schedule changed gets every
    month recomputed in the background, so the next reads hit a warm cache.
  - Rollover sweep: periodically settles the current year's boundary for
    every employee, writing the carryover marker once per year.

DESIGN:
  - One goroutine owns both the ticker and the rebuild queue
  - Enqueue never blocks: a full queue drops the request (the months were
    already invalidated, the next read recomputes them)
  - Rollover is idempotent, so running the sweep every interval is safe
  - Errors are logged per employee and never stop the sweep

CONFIGURATION:
  - CheckInterval: How often to sweep (default: 1 hour)
  - Enabled: Whether the scheduler starts at all (default: true)

USAGE:
  scheduler := NewRebuildScheduler(store, balances, logger)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: TriggerRollover and RebuildEmployee endpoints
  - overtime/materializer.go: Rebuild
  - overtime/rollover.go: Rollover
*/
package api

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/overtime-engine/overtime"
)

const rebuildQueueSize = 64

// RebuildScheduler handles background rebuilds and the rollover sweep.
type RebuildScheduler struct {
	Records       overtime.RecordStore
	Balances      *overtime.Materializer
	Logger        *slog.Logger
	CheckInterval time.Duration
	Enabled       bool

	queue  chan string
	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// SweepReport summarizes one rollover sweep.
type SweepReport struct {
	Year       int                        `json:"year"`
	Processed  int                        `json:"processed"`
	Failed     int                        `json:"failed"`
	Carryovers map[string]decimal.Decimal `json:"carryovers"`
}

// NewRebuildScheduler creates a new scheduler.
func NewRebuildScheduler(records overtime.RecordStore, balances *overtime.Materializer, logger *slog.Logger) *RebuildScheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RebuildScheduler{
		Records:       records,
		Balances:      balances,
		Logger:        logger,
		CheckInterval: time.Hour,
		Enabled:       true,
		queue:         make(chan string, rebuildQueueSize),
	}
}

// Start begins the scheduler. A stopped scheduler can be started again.
func (rs *RebuildScheduler) Start() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if !rs.Enabled {
		rs.Logger.Info("rebuild scheduler disabled")
		return
	}
	if rs.ticker != nil {
		return
	}

	rs.ticker = time.NewTicker(rs.CheckInterval)
	rs.stop = make(chan struct{})
	rs.wg.Add(1)
	go rs.run(rs.ticker, rs.stop)

	rs.Logger.Info("rebuild scheduler started", slog.Duration("interval", rs.CheckInterval))
}

// Stop stops the scheduler and waits for the running job to finish.
// Queued rebuilds that have not started are dropped.
func (rs *RebuildScheduler) Stop() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.ticker != nil {
		rs.ticker.Stop()
		close(rs.stop)
		rs.wg.Wait()
		rs.ticker = nil
		rs.Logger.Info("rebuild scheduler stopped")
	}
}

// Enqueue schedules a background rebuild of one employee.
func (rs *RebuildScheduler) Enqueue(employeeID string) {
	select {
	case rs.queue <- employeeID:
	default:
		rs.Logger.Warn("rebuild queue full, dropping request", slog.String("employee_id", employeeID))
	}
}

func (rs *RebuildScheduler) run(ticker *time.Ticker, stop <-chan struct{}) {
	defer rs.wg.Done()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-stop
		cancel()
	}()

	// Run immediately on start
	rs.RunNow(ctx)

	for {
		select {
		case <-ticker.C:
			rs.RunNow(ctx)
		case id := <-rs.queue:
			rs.rebuild(ctx, id)
		case <-stop:
			return
		}
	}
}

func (rs *RebuildScheduler) rebuild(ctx context.Context, employeeID string) {
	start := time.Now()
	report, err := rs.Balances.Rebuild(ctx, employeeID)
	if err != nil {
		rs.Logger.Error("rebuild failed", slog.String("employee_id", employeeID), slog.Any("error", err))
		return
	}
	rs.Logger.Info("rebuild finished",
		slog.String("employee_id", employeeID),
		slog.Int("months", report.Months),
		slog.Duration("took", time.Since(start)),
	)
}

// RunNow settles the current year's boundary for every employee.
func (rs *RebuildScheduler) RunNow(ctx context.Context) SweepReport {
	year := rs.Balances.Calc.Clock.Today().Year()
	report := SweepReport{Year: year, Carryovers: make(map[string]decimal.Decimal)}

	employees, err := rs.Records.ListEmployees(ctx)
	if err != nil {
		rs.Logger.Error("rollover sweep: listing employees", slog.Any("error", err))
		return report
	}

	for _, emp := range employees {
		if ctx.Err() != nil {
			break
		}
		carry, err := rs.Balances.Rollover(ctx, emp.ID, year)
		if err != nil {
			report.Failed++
			rs.Logger.Error("rollover failed",
				slog.String("employee_id", emp.ID),
				slog.Int("year", year),
				slog.Any("error", err),
			)
			continue
		}
		report.Processed++
		report.Carryovers[emp.ID] = carry
	}

	if report.Processed > 0 || report.Failed > 0 {
		rs.Logger.Info("rollover sweep completed",
			slog.Int("year", year),
			slog.Int("processed", report.Processed),
			slog.Int("failed", report.Failed),
		)
	}
	return report
}
