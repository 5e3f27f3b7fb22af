package broker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	domain "bondscalc/internal/domain/entity/bonds"

	"github.com/sirupsen/logrus"
)

var (
	ErrNotRunning  = errors.New("batch buffer is not running")
	ErrFlushFailed = errors.New("batch flush failed")
)

// BatchConfig controls batching thresholds for catalog ingestion.
type BatchConfig struct {
	Size    int
	Timeout time.Duration
}

// BondStore persists batches of catalog entries.
type BondStore interface {
	UpsertBonds(ctx context.Context, items []domain.Bond) error
}

// SettleFunc is called exactly once per added bond: with nil after its batch
// is stored, or with the error that kept it from being stored.
type SettleFunc func(err error)

type pendingBond struct {
	bond   domain.Bond
	settle SettleFunc
}

// BatchWriter buffers bonds received from the broker and upserts them in batches.
type BatchWriter struct {
	bonds *batchBuffer[pendingBond]
}

func NewBatchWriter(cfg BatchConfig, store BondStore, logger *logrus.Logger) *BatchWriter {
	componentLogger := logger.WithField("component", "batch_writer")
	return &BatchWriter{
		bonds: newBatchBuffer(cfg, func(ctx context.Context, batch []pendingBond) error {
			items := make([]domain.Bond, len(batch))
			for i, p := range batch {
				items[i] = p.bond
			}
			err := store.UpsertBonds(ctx, items)
			for _, p := range batch {
				p.settle(err)
			}
			return err
		}, componentLogger.WithField("entity", "bond")),
	}
}

// Run sets the base context for asynchronous flush operations.
func (b *BatchWriter) Run(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	b.bonds.setContext(ctx)
}

// Stop flushes the remaining buffer using the provided context.
func (b *BatchWriter) Stop(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	b.bonds.setContext(ctx)
	return b.bonds.drain(ctx)
}

// AddBond buffers bond. settle may be nil. A returned error wrapping
// ErrFlushFailed means the bond was accepted and settled with the flush
// error; any other error means it was rejected and settled with that error.
func (b *BatchWriter) AddBond(bond *domain.Bond, settle SettleFunc) error {
	if settle == nil {
		settle = func(error) {}
	}
	if bond == nil {
		settle(ErrNilBond)
		return ErrNilBond
	}
	err := b.bonds.enqueue(pendingBond{bond: *bond, settle: settle})
	if err != nil && !errors.Is(err, ErrFlushFailed) {
		settle(err)
	}
	return err
}

type batchBuffer[T any] struct {
	cfg     BatchConfig
	mu      sync.Mutex
	items   []T
	timer   *time.Timer
	flushFn func(context.Context, []T) error
	logger  *logrus.Entry
	ctx     context.Context
}

func newBatchBuffer[T any](cfg BatchConfig, flushFn func(context.Context, []T) error, logger *logrus.Entry) *batchBuffer[T] {
	return &batchBuffer[T]{
		cfg:     cfg,
		flushFn: flushFn,
		logger:  logger,
	}
}

func (bb *batchBuffer[T]) setContext(ctx context.Context) {
	bb.mu.Lock()
	defer bb.mu.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}
	bb.ctx = ctx
}

func (bb *batchBuffer[T]) enqueue(item T) error {
	bb.mu.Lock()
	ctx := bb.ctx
	if ctx == nil {
		bb.mu.Unlock()
		return ErrNotRunning
	}
	if err := ctx.Err(); err != nil {
		bb.mu.Unlock()
		return err
	}
	bb.items = append(bb.items, item)
	var batch []T
	limit := bb.cfg.Size
	if limit <= 0 {
		limit = 1
	}
	if len(bb.items) >= limit {
		batch = bb.takeBatchLocked()
	} else if bb.timer == nil && bb.cfg.Timeout > 0 {
		bb.startTimerLocked()
	}
	bb.mu.Unlock()

	if len(batch) == 0 {
		return nil
	}
	return bb.flushWithContext(ctx, batch)
}

func (bb *batchBuffer[T]) startTimerLocked() {
	timeout := bb.cfg.Timeout
	if timeout <= 0 {
		return
	}
	bb.timer = time.AfterFunc(timeout, func() {
		batch := bb.takeBatch()
		if len(batch) == 0 {
			return
		}
		if err := bb.flushWithCurrentContext(batch); err != nil && bb.logger != nil {
			bb.logger.WithError(err).Warn("batch flush failed")
		}
	})
}

func (bb *batchBuffer[T]) takeBatch() []T {
	bb.mu.Lock()
	defer bb.mu.Unlock()
	return bb.takeBatchLocked()
}

func (bb *batchBuffer[T]) takeBatchLocked() []T {
	if bb.timer != nil {
		bb.timer.Stop()
		bb.timer = nil
	}
	if len(bb.items) == 0 {
		return nil
	}
	batch := make([]T, len(bb.items))
	copy(batch, bb.items)
	bb.items = bb.items[:0]
	return batch
}

func (bb *batchBuffer[T]) flushWithCurrentContext(batch []T) error {
	bb.mu.Lock()
	ctx := bb.ctx
	bb.mu.Unlock()
	return bb.flushWithContext(ctx, batch)
}

func (bb *batchBuffer[T]) flushWithContext(ctx context.Context, batch []T) error {
	if len(batch) == 0 {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	start := time.Now()
	if err := bb.flushFn(ctx, batch); err != nil {
		return fmt.Errorf("%w: %w", ErrFlushFailed, err)
	}
	if bb.logger != nil {
		bb.logger.WithFields(logrus.Fields{
			"size":    len(batch),
			"took_ms": time.Since(start).Milliseconds(),
		}).Debug("flushed batch")
	}
	return nil
}

func (bb *batchBuffer[T]) drain(ctx context.Context) error {
	batch := bb.takeBatch()
	if len(batch) == 0 {
		return nil
	}
	return bb.flushWithContext(ctx, batch)
}
