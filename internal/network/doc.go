// Package network delivers serialized messages between devices over a
// publish/subscribe transport.
//
// Each device publishes on its own topic and subscribes to the topics of
// its neighbors. Two transports implement Network:
//
//   - MemoryNetwork, attached to an in-process Broker, for simulation and tests
//   - MQTTNetwork, backed by an MQTT broker through the paho client
//
// Inbound payloads never reach the platform loop directly. The transport's
// delivery goroutine offers them to a bounded Inbox and the platform samples
// at most one per round with Receive.
package network
