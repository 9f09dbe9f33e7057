// Package domain contains the core entities of the ingestion pipeline:
// jobs, normalised documents, OCR results, review items and chunks.
// Types here carry no infrastructure dependencies; state machines and
// derivation rules (priority, backoff eligibility) are pure functions so
// they can be tested in isolation.
package domain
