package server

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"gitlab.ozon.dev/pupkingeorgij/packagesync/internal/kafka"
	"gitlab.ozon.dev/pupkingeorgij/packagesync/internal/metrics"
)

const publishTimeout = 5 * time.Second

type AuditConfig struct {
	Topic       string
	WorkerCount int
	BatchSize   int
	Timeout     time.Duration
}

// AuditManager batches audit entries and publishes them through a Producer.
// Entries reach the producer in batches of BatchSize or after Timeout, whichever comes first.
type AuditManager struct {
	producer kafka.Producer
	logger   *zap.Logger

	topic       string
	workerCount int
	batchSize   int
	timeout     time.Duration

	inputChan  chan AuditLogEntry
	batchChan  chan []AuditLogEntry
	shutdownCh chan struct{}
	once       sync.Once

	// closeMu orders LogEntry sends before the close of shutdownCh
	closeMu sync.RWMutex
	closed  bool

	wg           sync.WaitGroup
	pendingMu    sync.Mutex
	pendingCount int
}

func NewAuditManager(producer kafka.Producer, cfg AuditConfig, logger *zap.Logger) *AuditManager {
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 1
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 500 * time.Millisecond
	}

	return &AuditManager{
		producer:    producer,
		logger:      logger,
		topic:       cfg.Topic,
		workerCount: cfg.WorkerCount,
		batchSize:   cfg.BatchSize,
		timeout:     cfg.Timeout,
		inputChan:   make(chan AuditLogEntry, cfg.WorkerCount*cfg.BatchSize*2),
		batchChan:   make(chan []AuditLogEntry, cfg.WorkerCount*2),
		shutdownCh:  make(chan struct{}),
	}
}

func (m *AuditManager) Start(ctx context.Context) {
	m.logger.Info("starting audit manager",
		zap.Int("workers", m.workerCount),
		zap.Int("batch_size", m.batchSize),
		zap.Duration("timeout", m.timeout),
	)

	m.wg.Add(1)
	go m.runAggregator()

	for i := 0; i < m.workerCount; i++ {
		m.wg.Add(1)
		go m.runWorker(i)
	}

	go m.monitorShutdown(ctx)
}

// Shutdown stops accepting entries, flushes what is buffered and closes the producer.
func (m *AuditManager) Shutdown(ctx context.Context) {
	m.once.Do(func() {
		m.logger.Info("initiating audit manager shutdown")
		m.closeMu.Lock()
		m.closed = true
		close(m.shutdownCh)
		m.closeMu.Unlock()

		done := make(chan struct{})
		go func() {
			m.wg.Wait()
			close(done)
		}()

		select {
		case <-done:
			m.logger.Info("audit manager shutdown completed")
		case <-ctx.Done():
			m.logger.Warn("audit manager shutdown interrupted", zap.Int("pending", m.Pending()))
		}

		if err := m.producer.Close(); err != nil {
			m.logger.Error("failed to close audit producer", zap.Error(err))
		}
	})
}

func (m *AuditManager) monitorShutdown(ctx context.Context) {
	select {
	case <-ctx.Done():
		m.logger.Info("context cancelled, stopping audit manager")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		m.Shutdown(shutdownCtx)
	case <-m.shutdownCh:
	}
}

// LogEntry queues entry for publishing. Entries that cannot be queued are written to the log.
// Every entry queued before Shutdown is drained by the aggregator.
func (m *AuditManager) LogEntry(ctx context.Context, entry AuditLogEntry) {
	m.updatePendingCount(1)

	m.closeMu.RLock()
	defer m.closeMu.RUnlock()

	if m.closed {
		m.emergencyLog(entry)
		return
	}

	select {
	case m.inputChan <- entry:
	case <-ctx.Done():
		m.emergencyLog(entry)
	}
}

func (m *AuditManager) Pending() int {
	m.pendingMu.Lock()
	defer m.pendingMu.Unlock()
	return m.pendingCount
}

// runAggregator stops only on shutdownCh so that LogEntry calls holding closeMu can always complete.
func (m *AuditManager) runAggregator() {
	defer m.wg.Done()

	var (
		batch    []AuditLogEntry
		timer    *time.Timer
		timeoutC <-chan time.Time
	)

	stopTimer := func() {
		if timer != nil {
			timer.Stop()
		}
		timeoutC = nil
	}

	defer func() {
		stopTimer()
	drain:
		for {
			select {
			case entry := <-m.inputChan:
				batch = append(batch, entry)
				if len(batch) >= m.batchSize {
					m.dispatchBatch(batch)
					batch = nil
				}
			default:
				break drain
			}
		}
		if len(batch) > 0 {
			m.dispatchBatch(batch)
		}
		close(m.batchChan)
	}()

	for {
		select {
		case entry := <-m.inputChan:
			batch = append(batch, entry)
			if len(batch) >= m.batchSize {
				stopTimer()
				m.dispatchBatch(batch)
				batch = nil
			} else if len(batch) == 1 {
				timer = time.NewTimer(m.timeout)
				timeoutC = timer.C
			}

		case <-timeoutC:
			timeoutC = nil
			m.dispatchBatch(batch)
			batch = nil

		case <-m.shutdownCh:
			return
		}
	}
}

func (m *AuditManager) dispatchBatch(batch []AuditLogEntry) {
	batchCopy := make([]AuditLogEntry, len(batch))
	copy(batchCopy, batch)

	select {
	case m.batchChan <- batchCopy:
	default:
		// workers are saturated, publish from the aggregator
		m.publishBatch(-1, batchCopy)
	}
}

func (m *AuditManager) runWorker(id int) {
	defer m.wg.Done()
	m.logger.Debug("audit worker started", zap.Int("worker", id))

	for batch := range m.batchChan {
		m.publishBatch(id, batch)
	}
	m.logger.Debug("audit worker exiting", zap.Int("worker", id))
}

func (m *AuditManager) publishBatch(workerID int, batch []AuditLogEntry) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	for _, entry := range batch {
		value, err := json.Marshal(entry)
		if err != nil {
			m.logger.Error("failed to marshal audit entry", zap.Error(err), zap.String("request_id", entry.RequestID))
			m.updatePendingCount(-1)
			continue
		}

		if err := m.producer.SendMessage(ctx, m.topic, []byte(entry.RequestID), value); err != nil {
			m.logger.Error("failed to publish audit entry",
				zap.Int("worker", workerID),
				zap.String("request_id", entry.RequestID),
				zap.Error(err),
			)
			m.emergencyLog(entry)
			continue
		}
		m.updatePendingCount(-1)
	}
}

func (m *AuditManager) emergencyLog(entry AuditLogEntry) {
	m.logger.Warn("audit entry not published",
		zap.String("request_id", entry.RequestID),
		zap.String("method", entry.Method),
		zap.String("path", entry.Path),
		zap.Int("status", entry.StatusCode),
	)
	m.updatePendingCount(-1)
}

func (m *AuditManager) updatePendingCount(delta int) {
	m.pendingMu.Lock()
	defer m.pendingMu.Unlock()
	m.pendingCount += delta
	metrics.AuditPendingEntries.Set(float64(m.pendingCount))
}
