// Package mailbox buffers inbound neighbor messages and resolves, at the
// start of every round, which message per neighbor is current.
//
// Three policies are supported, selected at construction time:
//
//	memoryless    keep only the latest message per neighbor; reads are repeatable
//	most-recent   keep all messages ordered by timestamp; each read returns the newest and drops the rest
//	least-recent  keep all messages ordered by timestamp; each read pops the oldest
//
// A Mailbox is owned by a single platform loop and is not safe for
// concurrent use.
package mailbox
