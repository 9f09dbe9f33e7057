// Package normalisers provides the format adapters that turn raw source
// bytes into normalised documents. The format set is closed: the
// Registry maps each SourceFormat to its adapter and sniffs content when
// the declared format is unknown.
package normalisers
