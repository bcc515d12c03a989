package processing

import (
	"errors"
	"sync"
	"time"

	"github.com/open-teleop/rovcontrol/domain/control"
	customlog "github.com/open-teleop/rovcontrol/pkg/log"
)

var (
	// ErrPoolStopped is returned when a snapshot is submitted to a pool that is not running.
	ErrPoolStopped = errors.New("processing pool is not running")
	// ErrQueueFull is returned when the pool queue has no room for another snapshot.
	ErrQueueFull = errors.New("processing pool queue is full")
)

// ProcessResult carries one processed snapshot to the ResultHandler.
type ProcessResult struct {
	Sequence  uint64
	Snapshot  control.Snapshot
	Data      []byte
	Timestamp int64
	Error     error
}

type ResultHandler func(result *ProcessResult)

// SnapshotProcessor turns a cycle snapshot into an encoded message.
type SnapshotProcessor func(s control.Snapshot) ([]byte, error)

// PoolMetrics is a point-in-time copy of a pool's counters. Times are in
// microseconds; the average is exponentially weighted.
type PoolMetrics struct {
	ProcessedCount    int64 `json:"processed"`
	ErrorCount        int64 `json:"errors"`
	QueuedCount       int64 `json:"queued"`
	DroppedCount      int64 `json:"dropped"`
	LastProcessedTime int64 `json:"last_processed_ns"`
	ProcessingTimeAvg int64 `json:"avg_time_us"`
	ProcessingTimeMax int64 `json:"max_time_us"`
}

type poolStats struct {
	mu sync.Mutex
	PoolMetrics
}

func (s *poolStats) queued(ok bool) {
	s.mu.Lock()
	if ok {
		s.QueuedCount++
	} else {
		s.DroppedCount++
	}
	s.mu.Unlock()
}

func (s *poolStats) processed(took time.Duration, failed bool) {
	us := took.Microseconds()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.ProcessedCount++
	s.LastProcessedTime = time.Now().UnixNano()
	if failed {
		s.ErrorCount++
	}
	if s.ProcessedCount == 1 {
		s.ProcessingTimeAvg = us
	} else {
		s.ProcessingTimeAvg += (us - s.ProcessingTimeAvg) / 8
	}
	if us > s.ProcessingTimeMax {
		s.ProcessingTimeMax = us
	}
}

func (s *poolStats) read() PoolMetrics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.PoolMetrics
}

// ProcessingPool encodes and publishes cycle snapshots on worker goroutines so
// the control loop never waits on telemetry. It implements control.SnapshotSink.
type ProcessingPool struct {
	name    string
	workers int
	logger  customlog.Logger
	queue   chan control.Snapshot
	stats   poolStats
	wg      sync.WaitGroup

	mu        sync.Mutex
	running   bool
	stopped   bool
	processor SnapshotProcessor
	onResult  ResultHandler
}

// NewProcessingPool creates a stopped pool. Non-positive sizes become 1.
func NewProcessingPool(name string, workers, queueSize int, logger customlog.Logger) *ProcessingPool {
	return &ProcessingPool{
		name:    name,
		workers: max(workers, 1),
		logger:  logger,
		queue:   make(chan control.Snapshot, max(queueSize, 1)),
	}
}

func (p *ProcessingPool) SetProcessor(processor SnapshotProcessor) {
	p.mu.Lock()
	p.processor = processor
	p.mu.Unlock()
}

func (p *ProcessingPool) SetResultHandler(handler ResultHandler) {
	p.mu.Lock()
	p.onResult = handler
	p.mu.Unlock()
}

// Enqueue queues s without blocking.
func (p *ProcessingPool) Enqueue(s control.Snapshot) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return ErrPoolStopped
	}
	select {
	case p.queue <- s:
		p.stats.queued(true)
		return nil
	default:
		p.stats.queued(false)
		return ErrQueueFull
	}
}

// Submit is Enqueue for the control loop: failures are logged and dropped.
func (p *ProcessingPool) Submit(s control.Snapshot) bool {
	if err := p.Enqueue(s); err != nil {
		p.logger.Debugf("%s pool discarding snapshot %d: %v", p.name, s.Sequence, err)
		return false
	}
	return true
}

// Start launches the workers. A stopped pool cannot be restarted.
func (p *ProcessingPool) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch {
	case p.stopped:
		return ErrPoolStopped
	case p.running:
		return nil
	}
	p.running = true
	p.wg.Add(p.workers)
	for i := 0; i < p.workers; i++ {
		go p.work(i)
	}
	p.logger.Infof("%s pool started with %d workers", p.name, p.workers)
	return nil
}

// Stop lets the workers finish what is queued, then returns.
func (p *ProcessingPool) Stop() {
	p.mu.Lock()
	wasRunning := p.running
	p.running = false
	p.stopped = true
	if wasRunning {
		close(p.queue)
	}
	p.mu.Unlock()

	if !wasRunning {
		return
	}
	p.wg.Wait()

	m := p.GetMetrics()
	p.logger.Infof("%s pool stopped: processed=%d errors=%d dropped=%d avg=%dµs max=%dµs",
		p.name, m.ProcessedCount, m.ErrorCount, m.DroppedCount, m.ProcessingTimeAvg, m.ProcessingTimeMax)
}

func (p *ProcessingPool) work(id int) {
	defer p.wg.Done()
	for snapshot := range p.queue {
		p.process(snapshot)
	}
	p.logger.Debugf("%s pool worker %d exiting", p.name, id)
}

func (p *ProcessingPool) process(snapshot control.Snapshot) {
	p.mu.Lock()
	processor, onResult := p.processor, p.onResult
	p.mu.Unlock()

	if processor == nil {
		p.logger.Errorf("%s pool has no processor; snapshot %d skipped", p.name, snapshot.Sequence)
		return
	}

	began := time.Now()
	data, err := processor(snapshot)
	p.stats.processed(time.Since(began), err != nil)
	if err != nil {
		p.logger.Errorf("%s pool failed on snapshot %d: %v", p.name, snapshot.Sequence, err)
	}

	if onResult != nil {
		onResult(&ProcessResult{
			Sequence:  snapshot.Sequence,
			Snapshot:  snapshot,
			Data:      data,
			Timestamp: snapshot.Time.UnixNano(),
			Error:     err,
		})
	}
}

func (p *ProcessingPool) GetMetrics() PoolMetrics {
	return p.stats.read()
}

// GetQueueLength returns the number of snapshots waiting for a worker.
func (p *ProcessingPool) GetQueueLength() int {
	return len(p.queue)
}

func (p *ProcessingPool) GetQueueCapacity() int {
	return cap(p.queue)
}
