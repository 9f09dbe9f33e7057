package domain

// Organisation is the tenant namespace all ingestion data is
// partitioned by. Metadata here tunes processing per tenant.
type Organisation struct {
	// ID is the organisation identifier used in namespacing.
	ID string

	// Name is the display name.
	Name string

	// Chunking overrides the default chunk configuration. Zero value
	// means defaults.
	Chunking ChunkConfig

	// DocType is the default document-type hint for OCR when a source
	// does not declare one.
	DocType DocumentType
}

// ChunkConfigOrDefault returns the organisation's chunking overrides,
// falling back to the standard configuration when unset.
func (o *Organisation) ChunkConfigOrDefault() ChunkConfig {
	if o == nil || o.Chunking == (ChunkConfig{}) {
		return DefaultChunkConfig()
	}
	return o.Chunking
}

// DocTypeOrDefault returns the organisation's document-type hint,
// defaulting to mixed.
func (o *Organisation) DocTypeOrDefault() DocumentType {
	if o == nil || o.DocType == "" {
		return TypeMixed
	}
	return o.DocType
}
