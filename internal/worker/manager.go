package worker

import (
	"context"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/lbryio/comment-server/internal/queue"
)

const (
	DefaultWorkerCount  = 2
	DefaultBatchSize    = 10
	DefaultBlockTimeout = 5 * time.Second

	// readBackoff is the pause after a failed stream read.
	readBackoff = time.Second
)

// Manager runs the goroutines that consume the notification stream.
type Manager struct {
	consumer    queue.Consumer
	handler     *Handler
	workerCount int
	batchSize   int64
	blockTime   time.Duration

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// ManagerConfig holds configuration for the worker manager.
type ManagerConfig struct {
	WorkerCount  int           // Number of worker goroutines
	BatchSize    int64         // Messages per read
	BlockTimeout time.Duration // Block time for XREADGROUP
}

func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		WorkerCount:  DefaultWorkerCount,
		BatchSize:    DefaultBatchSize,
		BlockTimeout: DefaultBlockTimeout,
	}
}

func NewManager(consumer queue.Consumer, handler *Handler, cfg ManagerConfig) *Manager {
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = DefaultWorkerCount
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.BlockTimeout <= 0 {
		cfg.BlockTimeout = DefaultBlockTimeout
	}

	return &Manager{
		consumer:    consumer,
		handler:     handler,
		workerCount: cfg.WorkerCount,
		batchSize:   cfg.BatchSize,
		blockTime:   cfg.BlockTimeout,
	}
}

// Start creates the consumer group and launches the workers. Workers exit
// when ctx is cancelled or Stop is called.
func (m *Manager) Start(ctx context.Context) error {
	if err := m.consumer.EnsureGroup(ctx); err != nil {
		return err
	}

	ctx, m.cancel = context.WithCancel(ctx)
	for i := 1; i <= m.workerCount; i++ {
		m.wg.Add(1)
		go m.runWorker(ctx, i)
	}

	log.Printf("[Manager] Started: workers=%d batch=%d", m.workerCount, m.batchSize)
	return nil
}

// Stop cancels the workers and waits for in-flight deliveries to finish.
func (m *Manager) Stop() {
	if m.cancel == nil {
		return
	}
	m.cancel()
	m.wg.Wait()
	log.Printf("[Manager] Stopped")
}

func (m *Manager) runWorker(ctx context.Context, workerID int) {
	defer m.wg.Done()
	consumer := consumerNameForWorker(workerID)

	// entries left pending by a previous run of this consumer
	for ctx.Err() == nil {
		messages, err := m.consumer.ReadPending(ctx, consumer, m.batchSize)
		if err != nil {
			log.Printf("[Worker-%d] ReadPending FAILED: err=%v", workerID, err)
			break
		}
		if len(messages) == 0 {
			break
		}
		m.deliver(ctx, workerID, messages)
	}

	for ctx.Err() == nil {
		messages, err := m.consumer.Read(ctx, consumer, m.batchSize, m.blockTime)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			log.Printf("[Worker-%d] Read FAILED: err=%v", workerID, err)
			select {
			case <-ctx.Done():
			case <-time.After(readBackoff):
			}
			continue
		}
		m.deliver(ctx, workerID, messages)
	}
}

// deliver acknowledges each message before handing it to the handler, so a
// crash mid-delivery drops the event rather than sending it twice.
func (m *Manager) deliver(ctx context.Context, workerID int, messages []queue.Message) {
	for _, msg := range messages {
		if err := m.consumer.Ack(ctx, msg.ID); err != nil {
			log.Printf("[Worker-%d] Ack FAILED: msgID=%s err=%v", workerID, msg.ID, err)
			continue
		}
		// delivery outlives shutdown of the read loop
		if err := m.handler.HandleEvent(context.WithoutCancel(ctx), msg.Event); err != nil {
			log.Printf("[Worker-%d] Delivery FAILED: msgID=%s err=%v", workerID, msg.ID, err)
		}
	}
}

func consumerNameForWorker(workerID int) string {
	return "notifier-" + strconv.Itoa(workerID)
}
