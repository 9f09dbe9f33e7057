// Package connectors holds source connectors that feed the ingestion
// queue. The built-in connector watches a local drop directory; mail,
// chat and API pollers are external collaborators that enqueue through
// the same JobQueue port.
package connectors
