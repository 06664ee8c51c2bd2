package mqtt

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/kilianp07/fieldsim/core/logger"
	coremon "github.com/kilianp07/fieldsim/core/monitoring"
	"github.com/kilianp07/fieldsim/core/model"
)

// Publisher forwards timeline events to an MQTT broker, one topic per
// technician. It satisfies timeline.Observer.
type Publisher struct {
	cli     pahoClient
	prefix  string
	qos     byte
	retain  bool
	retries int
	backoff time.Duration
	log     logger.Logger
	monitor coremon.Monitor
	sleep   func(time.Duration)

	mu        sync.Mutex
	published int
	failed    int
}

// NewPublisher connects to the broker described by cfg.
func NewPublisher(cfg Config, log logger.Logger, monitor coremon.Monitor) (*Publisher, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Nop{}
	}
	if monitor == nil {
		monitor = coremon.NopMonitor{}
	}
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}
	opts.OnConnect = func(paho.Client) {
		log.Infof("MQTT connected to %s", cfg.Broker)
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
	}
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) {
		log.Warnf("reconnecting to MQTT broker")
	}
	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect: %w", token.Error())
	}
	return &Publisher{
		cli:     c,
		prefix:  cfg.TopicPrefix,
		qos:     cfg.QoS,
		retain:  cfg.Retain,
		retries: cfg.MaxRetries,
		backoff: time.Duration(cfg.BackoffMS) * time.Millisecond,
		log:     log,
		monitor: monitor,
		sleep:   time.Sleep,
	}, nil
}

// Topic returns the topic events of technician are published to.
func (p *Publisher) Topic(technician string) string {
	return p.prefix + "/" + model.NormalizeID(technician)
}

// OnEvent publishes ev. Failures are logged and reported, never returned,
// so a broken broker cannot stall the simulation.
func (p *Publisher) OnEvent(ev model.SimulationEvent) {
	if err := p.Publish(ev); err != nil {
		p.log.Errorf("publish event for %s: %v", ev.Technician, err)
		p.monitor.CaptureException(err, map[string]string{
			"module":     "mqtt",
			"technician": ev.Technician,
			"state":      string(ev.State),
		})
	}
}

// Publish sends ev as JSON, retrying with exponential backoff.
func (p *Publisher) Publish(ev model.SimulationEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	topic := p.Topic(ev.Technician)
	var publishErr error
	for attempt := 0; attempt <= p.retries; attempt++ {
		token := p.cli.Publish(topic, p.qos, p.retain, payload)
		token.Wait()
		publishErr = token.Error()
		if publishErr == nil {
			p.mu.Lock()
			p.published++
			p.mu.Unlock()
			return nil
		}
		p.log.Warnf("publish attempt %d to %s failed: %v", attempt+1, topic, publishErr)
		if attempt < p.retries {
			p.sleep(backoffFor(p.backoff, attempt))
		}
	}
	p.mu.Lock()
	p.failed++
	p.mu.Unlock()
	return fmt.Errorf("publish to %s: %w", topic, publishErr)
}

// Stats returns the number of delivered and dropped events.
func (p *Publisher) Stats() (published, failed int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.published, p.failed
}

// Disconnect gracefully closes the MQTT connection.
func (p *Publisher) Disconnect() {
	if p.cli != nil && p.cli.IsConnected() {
		p.cli.Disconnect(250)
	}
}
