// Package config loads device configuration.
//
// Two formats are accepted, chosen by file extension:
//
//	.yaml, .yml  strict YAML: unknown fields are rejected
//	.cue         CUE, unified with the embedded #Config schema
//
// Both produce the same Config, with defaults filled in, which is then
// checked by Validate.
package config
