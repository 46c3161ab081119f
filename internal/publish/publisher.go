package publish

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/whoomp/whoomp/internal/feed"
	"github.com/whoomp/whoomp/internal/logging"
)

const (
	// DefaultTopicPrefix is used when no prefix is configured.
	DefaultTopicPrefix = "whoomp"

	connectTimeout = 30 * time.Second
	publishTimeout = 10 * time.Second
)

// ErrNotConnected is returned when publishing before Connect succeeds.
var ErrNotConnected = errors.New("mqtt: not connected")

// Config holds the broker connection settings.
type Config struct {
	Broker      string // e.g. "tcp://localhost:1883"
	ClientID    string // random when empty
	Username    string
	Password    string
	TopicPrefix string
	QoS         byte
	Retain      bool
}

// Publisher sends feed events to an MQTT broker as JSON.
type Publisher struct {
	cfg       Config
	client    paho.Client
	published atomic.Int64
	failed    atomic.Int64
}

// New creates a publisher. Call Connect before publishing.
func New(cfg Config) *Publisher {
	if cfg.TopicPrefix == "" {
		cfg.TopicPrefix = DefaultTopicPrefix
	}
	if cfg.ClientID == "" {
		cfg.ClientID = "whoomp-" + uuid.NewString()[:8]
	}
	return &Publisher{cfg: cfg}
}

// newWithClient wires an existing client, used by tests.
func newWithClient(cfg Config, client paho.Client) *Publisher {
	p := New(cfg)
	p.client = client
	return p
}

// Connect dials the broker, retrying in the background on connection loss.
func (p *Publisher) Connect(ctx context.Context) error {
	if p.cfg.Broker == "" {
		return errors.New("mqtt: broker URL is required")
	}

	opts := paho.NewClientOptions().
		AddBroker(p.cfg.Broker).
		SetClientID(p.cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectRetryInterval(5 * time.Second).
		SetMaxReconnectInterval(2 * time.Minute).
		SetKeepAlive(60 * time.Second).
		SetPingTimeout(10 * time.Second).
		SetCleanSession(true).
		SetOrderMatters(false).
		SetOnConnectHandler(func(paho.Client) {
			logging.Info("Connected to MQTT broker", zap.String("broker", p.cfg.Broker))
		}).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			logging.Warn("MQTT connection lost", zap.String("broker", p.cfg.Broker), zap.Error(err))
		})
	if p.cfg.Username != "" {
		opts.SetUsername(p.cfg.Username)
	}
	if p.cfg.Password != "" {
		opts.SetPassword(p.cfg.Password)
	}

	p.client = paho.NewClient(opts)
	token := p.client.Connect()

	timeout := connectTimeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}
	select {
	case <-token.Done():
	case <-ctx.Done():
		return fmt.Errorf("connecting to broker: %w", ctx.Err())
	case <-time.After(timeout):
		return errors.New("mqtt: connection timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("connecting to broker: %w", err)
	}
	return nil
}

// Topic returns the topic an event of the given kind is published to.
// Rejected frames go to the frame topic with their error set.
func Topic(prefix, kind string) string {
	switch kind {
	case feed.EventHeartRate, feed.EventMetadata:
		return prefix + "/" + kind
	default:
		return prefix + "/" + feed.EventFrame
	}
}

// Publish sends ev and waits for the broker to acknowledge it.
func (p *Publisher) Publish(ev feed.Event) error {
	token, err := p.send(ev)
	if err != nil {
		return err
	}
	if !token.WaitTimeout(publishTimeout) {
		p.failed.Add(1)
		return errors.New("mqtt: timeout publishing event")
	}
	if err := token.Error(); err != nil {
		p.failed.Add(1)
		return fmt.Errorf("mqtt: publish failed: %w", err)
	}
	p.published.Add(1)
	return nil
}

// Listener returns a non-blocking callback suitable for feed.Server.OnEvent.
// Failures are logged, not returned.
func (p *Publisher) Listener() func(feed.Event) {
	return func(ev feed.Event) {
		token, err := p.send(ev)
		if err != nil {
			logging.Debug("Event not published", zap.String("kind", ev.Kind), zap.Error(err))
			return
		}
		go func() {
			if token.WaitTimeout(publishTimeout) && token.Error() == nil {
				p.published.Add(1)
				return
			}
			p.failed.Add(1)
			logging.Warn("MQTT publish failed", zap.String("kind", ev.Kind), zap.Error(token.Error()))
		}()
	}
}

func (p *Publisher) send(ev feed.Event) (paho.Token, error) {
	if p.client == nil || !p.client.IsConnected() {
		p.failed.Add(1)
		return nil, ErrNotConnected
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		p.failed.Add(1)
		return nil, fmt.Errorf("mqtt: failed to encode event: %w", err)
	}
	topic := Topic(p.cfg.TopicPrefix, ev.Kind)
	logging.Debug("Publishing event", zap.String("topic", topic), zap.Int("bytes", len(payload)))
	return p.client.Publish(topic, p.cfg.QoS, p.cfg.Retain, payload), nil
}

// Published returns how many events the broker acknowledged.
func (p *Publisher) Published() int64 {
	return p.published.Load()
}

// Failed returns how many events could not be published.
func (p *Publisher) Failed() int64 {
	return p.failed.Load()
}

// Close disconnects, giving in-flight messages a second to drain.
func (p *Publisher) Close() {
	if p.client != nil && p.client.IsConnected() {
		p.client.Disconnect(1000)
	}
}
