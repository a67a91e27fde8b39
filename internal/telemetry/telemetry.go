// Package telemetry is an async, load-shedding sink for gameplay events
// (joins, pickups, deposits, retirements, ticks), batched into ClickHouse
// inserts. Adapted from the teacher's worker.Pool: a buffered job queue
// drained by a fixed set of workers, flushing on batch size or a timer,
// with a graceful drain on Stop (A4).
package telemetry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"go.uber.org/zap"

	"github.com/dogwalk/server/internal/metrics"
)

// Event is one gameplay occurrence worth recording for analytics.
type Event struct {
	Kind      string // "join", "pickup", "deposit", "retire", "tick"
	MapID     string
	DogID     int64
	PlayerID  string
	Score     int
	Timestamp time.Time
}

// Config controls pool sizing and flush cadence.
type Config struct {
	WorkerCount   int
	QueueSize     int
	BatchSize     int
	FlushInterval time.Duration
	ClickHouse    driver.Conn
	Logger        *zap.Logger
}

// Sink is the async event pipeline. Enqueue never blocks: a full queue
// sheds the event and counts it, rather than stalling the tick loop that
// produced it.
type Sink struct {
	cfg    Config
	queue  chan Event
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	log    *zap.SugaredLogger
}

// New builds a Sink with defaulted pool sizing.
func New(cfg Config) *Sink {
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 2
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 5000
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 200
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = time.Second
	}
	return &Sink{
		cfg:   cfg,
		queue: make(chan Event, cfg.QueueSize),
		log:   cfg.Logger.Sugar(),
	}
}

// Start launches the worker goroutines.
func (s *Sink) Start(ctx context.Context) {
	s.ctx, s.cancel = context.WithCancel(ctx)
	for i := 0; i < s.cfg.WorkerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}
	go s.reportQueueDepth()
	s.log.Infow("telemetry sink started", "workers", s.cfg.WorkerCount, "queueSize", s.cfg.QueueSize)
}

// Stop cancels background work, closes the queue and waits for every
// worker to flush its final batch.
func (s *Sink) Stop() {
	s.cancel()
	close(s.queue)
	s.wg.Wait()
	s.log.Info("telemetry sink stopped")
}

// Enqueue submits an event for async recording. It never blocks: when the
// queue is full or the sink is shutting down, the event is dropped and
// counted as load-shed, never returned as an error to the caller (§7 —
// telemetry failures must never surface to players).
func (s *Sink) Enqueue(ev Event) {
	defer func() {
		if r := recover(); r != nil {
			metrics.TelemetryEventsLoadShed.Inc()
		}
	}()

	select {
	case s.queue <- ev:
		metrics.TelemetryEventsIngested.Inc()
	case <-s.ctx.Done():
		metrics.TelemetryEventsLoadShed.Inc()
	default:
		metrics.TelemetryEventsLoadShed.Inc()
	}
}

func (s *Sink) reportQueueDepth() {
	t := time.NewTicker(time.Second)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			metrics.TelemetryQueueDepth.Set(float64(len(s.queue)))
		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Sink) worker(id int) {
	defer s.wg.Done()

	batch := make([]Event, 0, s.cfg.BatchSize)
	ticker := time.NewTicker(s.cfg.FlushInterval)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := s.insertBatch(batch); err != nil {
			s.log.Errorw("telemetry batch insert failed", "worker", id, "size", len(batch), "error", err)
		}
		batch = batch[:0]
	}

	for {
		select {
		case ev, ok := <-s.queue:
			if !ok {
				flush()
				return
			}
			batch = append(batch, ev)
			if len(batch) >= s.cfg.BatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}

// insertBatch writes one batch to ClickHouse. With no ClickHouse
// connection configured (local/dev runs), it is a no-op — telemetry is
// always optional, never load-bearing for gameplay.
func (s *Sink) insertBatch(batch []Event) error {
	if s.cfg.ClickHouse == nil {
		return nil
	}

	ctx := context.Background()
	batchInsert, err := s.cfg.ClickHouse.PrepareBatch(ctx, `
		INSERT INTO dogwalk_events (kind, map_id, dog_id, player_id, score, ts)
	`)
	if err != nil {
		return fmt.Errorf("telemetry: prepare batch: %w", err)
	}

	for _, ev := range batch {
		if err := batchInsert.Append(ev.Kind, ev.MapID, ev.DogID, ev.PlayerID, ev.Score, ev.Timestamp); err != nil {
			return fmt.Errorf("telemetry: append row: %w", err)
		}
	}

	return batchInsert.Send()
}
