// Package message defines the unit devices exchange each round: a Message
// carrying one device's export together with the time it was produced.
//
// Messages are immutable once constructed. The wire form is canonical JSON
//
//	{"export":{...},"source":3,"timestamp":1700000000000000000}
//
// with keys in sorted order and the timestamp in Unix nanoseconds, so every
// process of a deployment encodes equal messages to identical bytes.
package message
