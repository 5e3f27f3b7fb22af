package broker

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"bondscalc/internal/config"
	domain "bondscalc/internal/domain/entity/bonds"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	mu       sync.Mutex
	batches  [][]domain.Bond
	stored   map[string]domain.Bond
	failures int
	err      error
}

func (s *memStore) UpsertBonds(_ context.Context, items []domain.Bond) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failures > 0 {
		s.failures--
		return s.err
	}
	s.batches = append(s.batches, items)
	if s.stored == nil {
		s.stored = make(map[string]domain.Bond)
	}
	for _, b := range items {
		s.stored[b.SecID] = b
	}
	return nil
}

func (s *memStore) sizes() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int, 0, len(s.batches))
	for _, b := range s.batches {
		out = append(out, len(b))
	}
	return out
}

func (s *memStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.stored)
}

// settleLog records the outcome reported for each bond.
type settleLog struct {
	mu      sync.Mutex
	results map[string]error
}

func newSettleLog() *settleLog {
	return &settleLog{results: make(map[string]error)}
}

func (l *settleLog) For(secID string) SettleFunc {
	return func(err error) {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.results[secID] = err
	}
}

func (l *settleLog) snapshot() map[string]error {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[string]error, len(l.results))
	for k, v := range l.results {
		out[k] = v
	}
	return out
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func bond(secID string) *domain.Bond {
	return &domain.Bond{SecID: secID, UID: domain.StableUID(secID), ShortName: secID}
}

func TestBatchWriter_NotRunning(t *testing.T) {
	w := NewBatchWriter(BatchConfig{Size: 2}, &memStore{}, quietLogger())
	log := newSettleLog()

	require.ErrorIs(t, w.AddBond(bond("A"), log.For("A")), ErrNotRunning)
	require.ErrorIs(t, w.AddBond(nil, log.For("nil")), ErrNilBond)
	assert.ErrorIs(t, log.snapshot()["A"], ErrNotRunning)
	assert.ErrorIs(t, log.snapshot()["nil"], ErrNilBond)
}

func TestBatchWriter_FlushesOnSize(t *testing.T) {
	store := &memStore{}
	w := NewBatchWriter(BatchConfig{Size: 2}, store, quietLogger())
	w.Run(context.Background())
	log := newSettleLog()

	for _, id := range []string{"A", "B", "C"} {
		require.NoError(t, w.AddBond(bond(id), log.For(id)))
	}
	assert.Equal(t, []int{2}, store.sizes())
	assert.Len(t, log.snapshot(), 2)

	require.NoError(t, w.Stop(context.Background()))
	assert.Equal(t, []int{2, 1}, store.sizes())
	assert.Equal(t, map[string]error{"A": nil, "B": nil, "C": nil}, log.snapshot())
}

func TestBatchWriter_FlushesOnTimeout(t *testing.T) {
	store := &memStore{}
	w := NewBatchWriter(BatchConfig{Size: 100, Timeout: 10 * time.Millisecond}, store, quietLogger())
	w.Run(context.Background())
	log := newSettleLog()

	require.NoError(t, w.AddBond(bond("A"), log.For("A")))
	require.Eventually(t, func() bool {
		return len(store.sizes()) == 1
	}, time.Second, 5*time.Millisecond)
	require.NoError(t, w.Stop(context.Background()))
	assert.Equal(t, []int{1}, store.sizes())
	assert.Equal(t, map[string]error{"A": nil}, log.snapshot())
}

func TestBatchWriter_StoreFailureSettlesWholeBatch(t *testing.T) {
	storeErr := errors.New("db down")
	store := &memStore{failures: 1, err: storeErr}
	w := NewBatchWriter(BatchConfig{Size: 3}, store, quietLogger())
	w.Run(context.Background())
	log := newSettleLog()

	require.NoError(t, w.AddBond(bond("A"), log.For("A")))
	require.NoError(t, w.AddBond(bond("B"), log.For("B")))
	assert.Empty(t, log.snapshot())

	err := w.AddBond(bond("C"), log.For("C"))
	require.ErrorIs(t, err, ErrFlushFailed)
	require.ErrorIs(t, err, storeErr)

	failed := log.snapshot()
	require.Len(t, failed, 3)
	for id, got := range failed {
		assert.ErrorIs(t, got, storeErr, id)
	}

	// Every failed bond comes back and is stored.
	retry := newSettleLog()
	for _, id := range []string{"A", "B", "C"} {
		require.NoError(t, w.AddBond(bond(id), retry.For(id)))
	}
	assert.Equal(t, 3, store.count())
	assert.Equal(t, map[string]error{"A": nil, "B": nil, "C": nil}, retry.snapshot())
}

func TestBatchWriter_TimedFlushFailureSettles(t *testing.T) {
	storeErr := errors.New("db down")
	w := NewBatchWriter(BatchConfig{Size: 10, Timeout: 5 * time.Millisecond},
		&memStore{failures: 1, err: storeErr}, quietLogger())
	w.Run(context.Background())
	log := newSettleLog()

	require.NoError(t, w.AddBond(bond("A"), log.For("A")))
	require.Eventually(t, func() bool {
		_, ok := log.snapshot()["A"]
		return ok
	}, time.Second, 5*time.Millisecond)
	assert.ErrorIs(t, log.snapshot()["A"], storeErr)
}

func TestBatchWriter_CanceledContext(t *testing.T) {
	w := NewBatchWriter(BatchConfig{Size: 10}, &memStore{}, quietLogger())
	ctx, cancel := context.WithCancel(context.Background())
	w.Run(ctx)
	cancel()
	log := newSettleLog()
	require.ErrorIs(t, w.AddBond(bond("A"), log.For("A")), context.Canceled)
	assert.ErrorIs(t, log.snapshot()["A"], context.Canceled)
}

func TestEncodeDecodeBond(t *testing.T) {
	_, err := encodeBond(nil)
	require.ErrorIs(t, err, ErrNilBond)

	price := 99.5
	in := bond("RU000A107RZ0")
	in.PrevPrice = &price
	body, err := encodeBond(in)
	require.NoError(t, err)

	out, err := decodeBond(body)
	require.NoError(t, err)
	assert.Equal(t, in.SecID, out.SecID)
	assert.Equal(t, in.UID, out.UID)
	assert.Equal(t, 99.5, *out.PrevPrice)
}

func TestDecodeBond_Invalid(t *testing.T) {
	for name, body := range map[string]string{
		"not json": `{`,
		"no bond":  `{}`,
		"no secid": `{"bond":{"shortname":"x"}}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := decodeBond([]byte(body))
			require.Error(t, err)
		})
	}
}

type ackCall struct {
	tag     uint64
	ack     bool
	requeue bool
}

type fakeAcknowledger struct {
	mu    sync.Mutex
	calls []ackCall
}

func (a *fakeAcknowledger) Ack(tag uint64, _ bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls = append(a.calls, ackCall{tag: tag, ack: true})
	return nil
}

func (a *fakeAcknowledger) Nack(tag uint64, _ bool, requeue bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls = append(a.calls, ackCall{tag: tag, requeue: requeue})
	return nil
}

func (a *fakeAcknowledger) Reject(tag uint64, requeue bool) error {
	return a.Nack(tag, false, requeue)
}

func (a *fakeAcknowledger) snapshot() []ackCall {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]ackCall(nil), a.calls...)
}

func newTestConsumer(t *testing.T, store BondStore, batchSize int) *Consumer {
	t.Helper()
	c, err := NewConsumer(config.RabbitMQConfig{
		URL:           "amqp://localhost",
		BondsExchange: "bonds.catalog",
		BatchSize:     batchSize,
	}, store, quietLogger())
	require.NoError(t, err)
	c.batcher.Run(context.Background())
	return c
}

func delivery(acks *fakeAcknowledger, tag uint64, body string) amqp.Delivery {
	return amqp.Delivery{Acknowledger: acks, DeliveryTag: tag, Body: []byte(body)}
}

func TestConsumer_AcksAfterFlush(t *testing.T) {
	store := &memStore{}
	c := newTestConsumer(t, store, 2)
	acks := &fakeAcknowledger{}

	c.handle(delivery(acks, 1, `{"bond":{"secid":"A"}}`))
	assert.Empty(t, acks.snapshot())

	c.handle(delivery(acks, 2, `{"bond":{"secid":"B"}}`))
	assert.ElementsMatch(t, []ackCall{{tag: 1, ack: true}, {tag: 2, ack: true}}, acks.snapshot())
	require.NoError(t, c.Close(context.Background()))
}

func TestConsumer_DropsMalformed(t *testing.T) {
	c := newTestConsumer(t, &memStore{}, 1)
	acks := &fakeAcknowledger{}

	c.handle(delivery(acks, 7, `{"bond":null}`))
	assert.Equal(t, []ackCall{{tag: 7, requeue: false}}, acks.snapshot())
}

func TestConsumer_RequeuesBatchOnStoreFailure(t *testing.T) {
	store := &memStore{failures: 1, err: errors.New("db down")}
	c := newTestConsumer(t, store, 3)
	acks := &fakeAcknowledger{}

	for i, id := range []string{"A", "B", "C"} {
		c.handle(delivery(acks, uint64(i+1), `{"bond":{"secid":"`+id+`"}}`))
	}
	assert.ElementsMatch(t, []ackCall{
		{tag: 1, requeue: true},
		{tag: 2, requeue: true},
		{tag: 3, requeue: true},
	}, acks.snapshot())
	assert.Zero(t, store.count())

	redelivered := &fakeAcknowledger{}
	for i, id := range []string{"A", "B", "C"} {
		c.handle(delivery(redelivered, uint64(i+4), `{"bond":{"secid":"`+id+`"}}`))
	}
	assert.Equal(t, 3, store.count())
	assert.Len(t, redelivered.snapshot(), 3)
	for _, call := range redelivered.snapshot() {
		assert.True(t, call.ack)
	}
}

func TestNewConsumer_Validation(t *testing.T) {
	_, err := NewConsumer(config.RabbitMQConfig{BondsExchange: "x"}, &memStore{}, quietLogger())
	require.Error(t, err)
	_, err = NewConsumer(config.RabbitMQConfig{URL: "amqp://localhost"}, &memStore{}, quietLogger())
	require.Error(t, err)
}
