// Package services implements the driving port interfaces: the durable
// job queue, the OCR coordinator, the review queue, the org metadata
// cache and the ingestion pipeline. Services contain the business logic
// and orchestrate calls to driven ports (adapters); persistence and
// transport stay behind those ports.
package services
