// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - JobStore: durable job queue state (lease transitions are serialised here)
//   - ReviewStore: manual review backlog persistence
//   - DocumentStore: document and chunk persistence (atomic multi-record write)
//   - ArtifactStore: relocation of terminally failed source files
//   - OCREngine: a single OCR vendor implementation
//   - Tokenizer: language-aware tokenisation with sentence boundaries
//   - FormatAdapter / AdapterRegistry: format-specific text extraction
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, connector or normaliser package
package driven
