// Package sqlite provides the durable storage adapter for the ingestion
// pipeline: job queue, review backlog, documents and chunks share one
// WAL-mode SQLite database with embedded schema migrations.
//
// The job table is the single source of truth for job status. Lease
// claims run as one guarded UPDATE statement, so exclusivity holds
// across goroutines and across processes sharing the database file.
package sqlite
