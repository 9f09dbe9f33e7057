package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/parchmint/ingest-cli/internal/core/domain"
	"github.com/parchmint/ingest-cli/internal/core/ports/driven"
)

// documentStore implements driven.DocumentStore.
type documentStore struct {
	store *Store
}

var _ driven.DocumentStore = (*documentStore)(nil)

// Save stores a document and its full chunk sequence in one
// transaction. A document with the same (org, checksum) is replaced
// wholesale, which makes reprocessing after a lease expiry idempotent.
func (s *documentStore) Save(ctx context.Context, doc *domain.Document, chunks []domain.Chunk) error {
	if doc == nil || doc.ID == "" {
		return domain.ErrInvalidInput
	}

	sections, err := json.Marshal(doc.Sections)
	if err != nil {
		return fmt.Errorf("marshalling sections: %w", err)
	}
	tables, err := json.Marshal(doc.Tables)
	if err != nil {
		return fmt.Errorf("marshalling tables: %w", err)
	}
	// Image bytes stay out of the database; persist placement metadata only.
	images := make([]domain.ImageSegment, len(doc.Images))
	for i, img := range doc.Images {
		img.Data = nil
		images[i] = img
	}
	imagesJSON, err := json.Marshal(images)
	if err != nil {
		return fmt.Errorf("marshalling images: %w", err)
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning save transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	// Displace any prior document holding this checksum.
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM documents WHERE org_id = ? AND checksum = ? AND id != ?
	`, doc.OrgID, doc.Checksum, doc.ID); err != nil {
		return fmt.Errorf("displacing prior document: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO documents (id, org_id, checksum, format, content, sections, tables, images, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			content = excluded.content,
			sections = excluded.sections,
			tables = excluded.tables,
			images = excluded.images
	`, doc.ID, doc.OrgID, doc.Checksum, string(doc.Format), doc.Content,
		string(sections), string(tables), string(imagesJSON),
		formatTime(doc.CreatedAt)); err != nil {
		return fmt.Errorf("upserting document: %w", err)
	}

	// Replace the chunk sequence wholesale; partial sequences are never
	// visible to readers.
	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE document_id = ?`, doc.ID); err != nil {
		return fmt.Errorf("clearing chunks: %w", err)
	}

	for i := range chunks {
		c := &chunks[i]
		features, err := json.Marshal(c.Features)
		if err != nil {
			return fmt.Errorf("marshalling chunk features: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO chunks (id, document_id, chunk_index, content, token_count,
				start_rune, end_rune, section_title, section_level, page,
				is_table, is_list, is_code, features)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, c.ID, c.DocumentID, c.Index, c.Content, c.TokenCount,
			c.StartRune, c.EndRune, c.SectionTitle, c.SectionLevel, c.Page,
			boolToInt(c.IsTable), boolToInt(c.IsList), boolToInt(c.IsCode),
			string(features)); err != nil {
			return fmt.Errorf("inserting chunk %d: %w", c.Index, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing save: %w", err)
	}
	return nil
}

// Get retrieves a document by ID.
func (s *documentStore) Get(ctx context.Context, id string) (*domain.Document, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, org_id, checksum, format, content, sections, tables, images, created_at
		FROM documents WHERE id = ?
	`, id)

	var doc domain.Document
	var format, sections, tables, images, createdAt string

	err := row.Scan(&doc.ID, &doc.OrgID, &doc.Checksum, &format, &doc.Content,
		&sections, &tables, &images, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning document: %w", err)
	}

	doc.Format = domain.SourceFormat(format)
	if err := json.Unmarshal([]byte(sections), &doc.Sections); err != nil {
		return nil, fmt.Errorf("unmarshalling sections: %w", err)
	}
	if err := json.Unmarshal([]byte(tables), &doc.Tables); err != nil {
		return nil, fmt.Errorf("unmarshalling tables: %w", err)
	}
	if err := json.Unmarshal([]byte(images), &doc.Images); err != nil {
		return nil, fmt.Errorf("unmarshalling images: %w", err)
	}
	if doc.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}

	return &doc, nil
}

// GetChunks retrieves a document's chunks ordered by index.
func (s *documentStore) GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, document_id, chunk_index, content, token_count,
			start_rune, end_rune, section_title, section_level, page,
			is_table, is_list, is_code, features
		FROM chunks WHERE document_id = ? ORDER BY chunk_index ASC
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var chunks []domain.Chunk //nolint:prealloc // size unknown from query
	for rows.Next() {
		var c domain.Chunk
		var isTable, isList, isCode int
		var features string

		if err := rows.Scan(&c.ID, &c.DocumentID, &c.Index, &c.Content,
			&c.TokenCount, &c.StartRune, &c.EndRune, &c.SectionTitle,
			&c.SectionLevel, &c.Page, &isTable, &isList, &isCode,
			&features); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}

		c.IsTable = isTable != 0
		c.IsList = isList != 0
		c.IsCode = isCode != 0
		if err := json.Unmarshal([]byte(features), &c.Features); err != nil {
			return nil, fmt.Errorf("unmarshalling chunk features: %w", err)
		}

		chunks = append(chunks, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}
	return chunks, nil
}
