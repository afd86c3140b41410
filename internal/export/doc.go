// Package export models the per-device export tree produced by one round of
// an aggregate program.
//
// An Export maps execution paths to values. A Path is the ordered list of
// slots (nbr, rep, branch, foldhood, exchange) the program crossed to reach
// a value; the empty path is the root and holds the round's result.
//
// The platform treats exports as opaque: it moves them between devices and
// hands them to the evaluator, but never interprets the entries. The only
// contract it relies on is lossless, stable serialization:
//
//   - Object keys are emitted in sorted order
//   - Strings are NFC normalized and never HTML-escaped
//   - Floats are encoded as strings so +Inf, -Inf and NaN survive the wire
//
// Two processes that build equal exports therefore produce identical bytes.
package export
