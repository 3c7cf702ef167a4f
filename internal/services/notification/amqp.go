package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

const (
	reconnectDelay       = 5 * time.Second
	maxReconnectAttempts = 10
)

// ErrNotConnected is returned by Dispatch while the broker connection is
// being re-established.
var ErrNotConnected = errors.New("amqp publisher is not connected")

// Channel is the subset of *amqp.Channel used for publishing.
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Connection is the subset of *amqp.Connection the publisher watches.
type Connection interface {
	NotifyClose(receiver chan *amqp.Error) chan *amqp.Error
	Close() error
}

// DialFunc opens a connection and a channel with the exchange declared.
type DialFunc func() (Connection, Channel, error)

// AMQPPublisher publishes alerts to a durable topic exchange with routing
// keys of the form wallet.alert.<type>. When the broker drops the
// connection it redials in the background.
type AMQPPublisher struct {
	dial     DialFunc
	exchange string
	log      *logrus.Logger
	delay    time.Duration

	mu      sync.RWMutex
	conn    Connection
	channel Channel

	ctx    context.Context
	cancel context.CancelFunc
}

// NewAMQPPublisher dials the broker and declares the exchange.
func NewAMQPPublisher(url, exchange string, log *logrus.Logger) (*AMQPPublisher, error) {
	return NewAMQPPublisherWithDialer(BrokerDialer(url, exchange), exchange, reconnectDelay, log)
}

// NewAMQPPublisherWithDialer connects through dial and uses it again for
// every reconnect, waiting delay times the attempt number in between.
func NewAMQPPublisherWithDialer(dial DialFunc, exchange string, delay time.Duration, log *logrus.Logger) (*AMQPPublisher, error) {
	ctx, cancel := context.WithCancel(context.Background())
	p := &AMQPPublisher{
		dial:     dial,
		exchange: exchange,
		log:      log,
		delay:    delay,
		ctx:      ctx,
		cancel:   cancel,
	}
	if err := p.connect(); err != nil {
		cancel()
		return nil, err
	}
	return p, nil
}

// NewAMQPPublisherWithChannel wraps an already open channel. It never
// reconnects.
func NewAMQPPublisherWithChannel(ch Channel, exchange string, log *logrus.Logger) *AMQPPublisher {
	ctx, cancel := context.WithCancel(context.Background())
	return &AMQPPublisher{channel: ch, exchange: exchange, log: log, ctx: ctx, cancel: cancel}
}

// BrokerDialer dials url and declares exchange as a durable topic.
func BrokerDialer(url, exchange string) DialFunc {
	return func() (Connection, Channel, error) {
		conn, err := amqp.Dial(url)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to dial RabbitMQ: %w", err)
		}

		ch, err := conn.Channel()
		if err != nil {
			conn.Close()
			return nil, nil, fmt.Errorf("failed to open channel: %w", err)
		}

		if err := ch.ExchangeDeclare(
			exchange,
			"topic",
			true,  // durable
			false, // auto-deleted
			false, // internal
			false, // no-wait
			nil,
		); err != nil {
			ch.Close()
			conn.Close()
			return nil, nil, fmt.Errorf("failed to declare exchange: %w", err)
		}
		return conn, ch, nil
	}
}

func (p *AMQPPublisher) connect() error {
	conn, ch, err := p.dial()
	if err != nil {
		return err
	}

	p.mu.Lock()
	if p.ctx.Err() != nil {
		p.mu.Unlock()
		ch.Close()
		conn.Close()
		return p.ctx.Err()
	}
	p.conn = conn
	p.channel = ch
	p.mu.Unlock()

	p.log.WithField("exchange", p.exchange).Info("connected to RabbitMQ")

	go p.monitorConnection(conn)
	return nil
}

func (p *AMQPPublisher) monitorConnection(conn Connection) {
	notifyClose := conn.NotifyClose(make(chan *amqp.Error, 1))

	select {
	case err := <-notifyClose:
		// A nil error means Close was called on purpose.
		if err != nil {
			p.log.WithError(err).Error("RabbitMQ connection closed unexpectedly")
			p.reconnect()
		}
	case <-p.ctx.Done():
	}
}

func (p *AMQPPublisher) reconnect() {
	p.mu.Lock()
	if p.channel != nil {
		p.channel.Close()
		p.channel = nil
	}
	if p.conn != nil {
		p.conn.Close()
		p.conn = nil
	}
	p.mu.Unlock()

	for attempt := 1; attempt <= maxReconnectAttempts; attempt++ {
		if p.ctx.Err() != nil {
			return
		}
		p.log.WithField("attempt", attempt).Info("attempting to reconnect to RabbitMQ")

		err := p.connect()
		if err == nil {
			return
		}

		delay := p.delay * time.Duration(attempt)
		p.log.WithError(err).WithFields(logrus.Fields{
			"attempt": attempt,
			"delay":   delay,
		}).Warn("reconnection failed, retrying")

		select {
		case <-time.After(delay):
		case <-p.ctx.Done():
			return
		}
	}

	p.log.Error("max reconnection attempts reached, alerts will not be published")
}

func RoutingKey(t AlertType) string {
	return "wallet.alert." + string(t)
}

func (p *AMQPPublisher) Dispatch(ctx context.Context, alert Alert) error {
	body, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("failed to marshal alert: %w", err)
	}

	p.mu.RLock()
	ch := p.channel
	p.mu.RUnlock()
	if ch == nil {
		return ErrNotConnected
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    alert.At,
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, p.exchange, RoutingKey(alert.Type), false, false, msg); err != nil {
		return fmt.Errorf("failed to publish alert: %w", err)
	}

	p.log.WithFields(logrus.Fields{
		"alert":     alert.Type,
		"wallet_id": alert.WalletID,
	}).Debug("alert published")
	return nil
}

func (p *AMQPPublisher) Close() error {
	p.cancel()

	p.mu.Lock()
	defer p.mu.Unlock()

	var errs []error
	if p.channel != nil {
		errs = append(errs, p.channel.Close())
		p.channel = nil
	}
	if p.conn != nil {
		errs = append(errs, p.conn.Close())
		p.conn = nil
	}
	return errors.Join(errs...)
}
