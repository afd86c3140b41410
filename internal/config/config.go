package config

import (
	"errors"
	"fmt"

	"github.com/roach88/fieldnet/internal/mailbox"
	"github.com/roach88/fieldnet/internal/message"
	"github.com/roach88/fieldnet/internal/network"
	"github.com/roach88/fieldnet/internal/platform"
	"github.com/roach88/fieldnet/internal/sensor"
)

// Network kinds.
const (
	NetworkMQTT   = "mqtt"
	NetworkMemory = "memory"
)

// Config is the configuration of one device.
type Config struct {
	Device    message.DeviceID   `yaml:"device" json:"device"`
	Neighbors []message.DeviceID `yaml:"neighbors" json:"neighbors"`
	Interval  Duration           `yaml:"interval" json:"interval"`
	Policy    mailbox.Policy     `yaml:"policy" json:"policy"`
	Sensors   Sensors            `yaml:"sensors" json:"sensors"`
	Network   Network            `yaml:"network" json:"network"`
	Trace     Trace              `yaml:"trace" json:"trace"`
}

// Sensors holds untyped sensor seeds. They are resolved into typed values
// by LocalSensors and NeighborSensors.
type Sensors struct {
	Local    map[string]any                      `yaml:"local" json:"local"`
	Neighbor map[string]map[message.DeviceID]any `yaml:"neighbor" json:"neighbor"`
}

// Network configures the transport.
type Network struct {
	Kind        string   `yaml:"kind" json:"kind"`
	Broker      string   `yaml:"broker" json:"broker,omitempty"`
	TopicPrefix string   `yaml:"topic_prefix" json:"topic_prefix"`
	QoS         int      `yaml:"qos" json:"qos"`
	KeepAlive   Duration `yaml:"keep_alive" json:"keep_alive"`
	InboxSize   int      `yaml:"inbox_size" json:"inbox_size"`
	ReceiveWait Duration `yaml:"receive_wait" json:"receive_wait"`
}

// Trace configures round recording.
type Trace struct {
	DB string `yaml:"db" json:"db,omitempty"` // SQLite path; empty disables tracing
}

// Default returns a configuration with every default filled in.
func Default() Config {
	return Config{
		Interval: Duration(platform.DefaultInterval),
		Policy:   mailbox.MemoryLess,
		Network: Network{
			Kind:        NetworkMQTT,
			TopicPrefix: network.DefaultTopicPrefix,
			QoS:         0,
			KeepAlive:   Duration(network.DefaultKeepAlive),
			InboxSize:   network.DefaultInboxSize,
		},
	}
}

// Validate reports every problem with c.
func (c *Config) Validate() error {
	var errs []error

	if c.Device < 0 {
		errs = append(errs, fmt.Errorf("device: must be non-negative, got %d", c.Device))
	}
	seen := make(map[message.DeviceID]bool, len(c.Neighbors))
	for _, n := range c.Neighbors {
		if n < 0 {
			errs = append(errs, fmt.Errorf("neighbors: must be non-negative, got %d", n))
		}
		if seen[n] {
			errs = append(errs, fmt.Errorf("neighbors: %d listed twice", n))
		}
		seen[n] = true
	}
	if c.Interval <= 0 {
		errs = append(errs, fmt.Errorf("interval: must be positive, got %s", c.Interval))
	}
	if _, err := c.Policy.MarshalText(); err != nil {
		errs = append(errs, fmt.Errorf("policy: %w", err))
	}

	if _, err := c.LocalSensors(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.NeighborSensors(); err != nil {
		errs = append(errs, err)
	}

	errs = append(errs, c.Network.validate()...)

	return errors.Join(errs...)
}

func (n *Network) validate() []error {
	var errs []error
	switch n.Kind {
	case NetworkMQTT:
		if n.Broker == "" {
			errs = append(errs, errors.New("network.broker: required for mqtt"))
		}
	case NetworkMemory:
	default:
		errs = append(errs, fmt.Errorf("network.kind: unknown kind %q (want mqtt or memory)", n.Kind))
	}
	if err := (network.Topics{Prefix: n.TopicPrefix}).Validate(); err != nil {
		errs = append(errs, fmt.Errorf("network.topic_prefix: %w", err))
	}
	if n.QoS < 0 || n.QoS > 2 {
		errs = append(errs, fmt.Errorf("network.qos: must be 0, 1 or 2, got %d", n.QoS))
	}
	if n.KeepAlive <= 0 {
		errs = append(errs, fmt.Errorf("network.keep_alive: must be positive, got %s", n.KeepAlive))
	}
	if n.InboxSize <= 0 {
		errs = append(errs, fmt.Errorf("network.inbox_size: must be positive, got %d", n.InboxSize))
	}
	if n.ReceiveWait < 0 {
		errs = append(errs, fmt.Errorf("network.receive_wait: must not be negative, got %s", n.ReceiveWait))
	}
	return errs
}

// LocalSensors resolves the local sensor seeds.
func (c *Config) LocalSensors() (sensor.Local, error) {
	return sensor.ResolveLocal(c.Sensors.Local)
}

// NeighborSensors resolves the neighbor sensor seeds. When no nbr_range
// readings are configured, every neighbor is one hop away and the device
// itself, if listed, zero.
func (c *Config) NeighborSensors() (sensor.Neighbor, error) {
	nbr, err := sensor.ResolveNeighbor(c.Sensors.Neighbor)
	if err != nil {
		return nil, err
	}
	if _, ok := nbr[sensor.NbrRange]; !ok {
		for _, id := range c.Neighbors {
			r := 1.0
			if id == c.Device {
				r = 0
			}
			nbr.Set(sensor.NbrRange, id, sensor.Number(r))
		}
	}
	return nbr, nil
}

// MQTT returns the transport configuration for an MQTT network.
func (c *Config) MQTT() network.MQTTConfig {
	return network.MQTTConfig{
		Broker:      c.Network.Broker,
		Device:      c.Device,
		Topics:      network.Topics{Prefix: c.Network.TopicPrefix},
		QoS:         byte(c.Network.QoS),
		KeepAlive:   c.Network.KeepAlive.Std(),
		InboxSize:   c.Network.InboxSize,
		ReceiveWait: c.Network.ReceiveWait.Std(),
	}
}

// BrokerOptions returns the options for an in-memory broker.
func (c *Config) BrokerOptions() []network.BrokerOption {
	return []network.BrokerOption{
		network.WithTopics(network.Topics{Prefix: c.Network.TopicPrefix}),
		network.WithInboxSize(c.Network.InboxSize),
		network.WithReceiveWait(c.Network.ReceiveWait.Std()),
	}
}
