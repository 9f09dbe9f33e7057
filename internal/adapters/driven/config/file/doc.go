// Package file reads the TOML configuration that drives the ingest CLI:
// directories, queue and OCR tuning, worker pool size, and per
// organisation processing profiles. The profile table doubles as the
// OrgStore the pipeline resolves organisations through.
package file
