package broker

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"bondscalc/internal/config"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// Consumer subscribes to the catalog fanout exchange and upserts received
// bonds through a buffered batch writer.
type Consumer struct {
	cfg    config.RabbitMQConfig
	logger *logrus.Entry

	conn    *amqp.Connection
	channel *amqp.Channel
	wg      sync.WaitGroup
	batcher *BatchWriter
}

func NewConsumer(cfg config.RabbitMQConfig, store BondStore, logger *logrus.Logger) (*Consumer, error) {
	if cfg.URL == "" {
		return nil, errors.New("rabbitmq url is required")
	}
	if cfg.BondsExchange == "" {
		return nil, errors.New("bonds exchange is required")
	}
	batchCfg := BatchConfig{
		Size:    cfg.BatchSize,
		Timeout: cfg.BatchTimeout,
	}
	return &Consumer{
		cfg:     cfg,
		logger:  logger.WithField("component", "consumer"),
		batcher: NewBatchWriter(batchCfg, store, logger),
	}, nil
}

// Start establishes the AMQP connection and begins consuming the exchange.
func (c *Consumer) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	conn, err := amqp.Dial(c.cfg.URL)
	if err != nil {
		return fmt.Errorf("connect to rabbitmq: %w", err)
	}
	c.conn = conn
	c.batcher.Run(ctx)

	deliveries, err := c.subscribe()
	if err != nil {
		c.Close(ctx)
		return err
	}
	c.wg.Add(1)
	go c.consumeLoop(ctx, deliveries)

	c.logger.WithField("exchange", c.cfg.BondsExchange).Info("rabbitmq consumer started")
	return nil
}

// Close flushes pending batches while the channel can still ack them, then
// stops consumption and releases resources. Deliveries left unacked are
// redelivered by the broker.
func (c *Consumer) Close(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	var err error
	if c.batcher != nil {
		err = c.batcher.Stop(ctx)
	}
	if c.channel != nil {
		_ = c.channel.Close()
		c.channel = nil
	}
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
	c.wg.Wait()
	return err
}

func (c *Consumer) subscribe() (<-chan amqp.Delivery, error) {
	exchange := c.cfg.BondsExchange
	ch, err := c.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "fanout", true, false, false, false, nil); err != nil {
		ch.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	queue, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		ch.Close()
		return nil, fmt.Errorf("declare queue: %w", err)
	}
	if err := ch.QueueBind(queue.Name, "", exchange, false, nil); err != nil {
		ch.Close()
		return nil, fmt.Errorf("bind queue %s to %s: %w", queue.Name, exchange, err)
	}
	prefetch := c.cfg.Prefetch
	if prefetch <= 0 {
		prefetch = 1
	}
	if err := ch.Qos(prefetch, 0, false); err != nil {
		ch.Close()
		return nil, fmt.Errorf("set qos: %w", err)
	}
	deliveries, err := ch.Consume(queue.Name, "", false, true, false, false, nil)
	if err != nil {
		ch.Close()
		return nil, fmt.Errorf("start consume: %w", err)
	}
	c.channel = ch
	return deliveries, nil
}

func (c *Consumer) consumeLoop(ctx context.Context, deliveries <-chan amqp.Delivery) {
	defer c.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case delivery, ok := <-deliveries:
			if !ok {
				return
			}
			c.handle(delivery)
		}
	}
}

// handle buffers the bond carried by d. The delivery is acked once its batch
// is stored and requeued when storing fails; malformed payloads are dropped.
func (c *Consumer) handle(d amqp.Delivery) {
	bond, err := decodeBond(d.Body)
	if err != nil {
		c.logger.WithError(err).Warn("drop malformed message")
		if nackErr := d.Nack(false, false); nackErr != nil {
			c.logger.WithError(nackErr).Warn("failed to nack delivery")
		}
		return
	}
	_ = c.batcher.AddBond(bond, c.settle(d))
}

func (c *Consumer) settle(d amqp.Delivery) SettleFunc {
	return func(err error) {
		if err != nil {
			c.logger.WithError(err).WithField("delivery_tag", d.DeliveryTag).Warn("requeue message")
			if nackErr := d.Nack(false, true); nackErr != nil {
				c.logger.WithError(nackErr).Warn("failed to nack delivery")
			}
			return
		}
		if ackErr := d.Ack(false); ackErr != nil {
			c.logger.WithError(ackErr).Warn("failed to ack delivery")
		}
	}
}
