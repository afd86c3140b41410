// Package platform drives one device through its execution rounds.
//
// Every cycle the platform:
//
//  1. collects a snapshot of neighbor states from the mailbox
//  2. evaluates the round with the externally supplied Evaluator
//  3. publishes the resulting export on the device's topic
//  4. ingests at most one inbound update into the mailbox
//
// and then sleeps for the configured interval.
//
// Error policy:
//   - network.ErrClosed stops the loop and is returned to the caller
//   - transient *network.TransportError values are logged and the cycle
//     proceeds; the next cycle retries
//   - *message.CodecError drops the offending payload
//   - *EvaluatorError stops the loop immediately
//
// The Platform owns its Mailbox and Network. All mutation happens on the
// goroutine calling Step or Run; AddNeighbor and RemoveNeighbor may be
// called from any goroutine and take effect at the start of the next cycle.
package platform
