// internal/services/archive/store.go
package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS perfume_descriptions (
	id          UUID PRIMARY KEY,
	session_id  TEXT NOT NULL,
	brand       TEXT NOT NULL,
	model       TEXT NOT NULL,
	product_url TEXT NOT NULL,
	attributes  JSONB,
	draft       TEXT NOT NULL DEFAULT '',
	final_text  TEXT NOT NULL,
	final_copy  TEXT NOT NULL DEFAULT '',
	llm_model   TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const insertSQL = `
INSERT INTO perfume_descriptions
	(id, session_id, brand, model, product_url, attributes, draft, final_text, final_copy, llm_model, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

const recentSQL = `
SELECT id, session_id, brand, model, product_url, attributes, draft, final_text, final_copy, llm_model, created_at
FROM perfume_descriptions
ORDER BY created_at DESC
LIMIT $1`

// Store keeps completed runs in postgres.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createTableSQL); err != nil {
		return fmt.Errorf("create perfume_descriptions: %w", err)
	}
	return nil
}

func (s *Store) Save(ctx context.Context, r Record) error {
	attrs, err := r.attributesJSON()
	if err != nil {
		return fmt.Errorf("encode attributes: %w", err)
	}

	_, err = s.db.ExecContext(ctx, insertSQL,
		r.ID, r.SessionID, r.Brand, r.Model, r.ProductURL,
		attrs, r.Draft, r.FinalText, r.FinalCopy, r.LLMModel, r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert description: %w", err)
	}
	return nil
}

func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, recentSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("query descriptions: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			r     Record
			attrs []byte
		)
		if err := rows.Scan(
			&r.ID, &r.SessionID, &r.Brand, &r.Model, &r.ProductURL,
			&attrs, &r.Draft, &r.FinalText, &r.FinalCopy, &r.LLMModel, &r.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan description: %w", err)
		}
		if len(attrs) > 0 {
			if err := json.Unmarshal(attrs, &r.Attributes); err != nil {
				return nil, fmt.Errorf("decode attributes of %s: %w", r.ID, err)
			}
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
