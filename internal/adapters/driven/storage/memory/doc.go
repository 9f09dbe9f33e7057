// Package memory provides in-memory implementations of the driven
// storage ports. Used in tests and for ephemeral one-shot runs; the
// durable implementations live in the sqlite package.
//
// A single mutex per store serialises lease and status transitions, so
// the same exclusivity guarantees hold as in the durable stores.
package memory
