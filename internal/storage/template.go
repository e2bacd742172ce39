package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"maileditor/internal/domain"
)

// TemplateStore implements domain.TemplateStore on SQLite. The whole
// document is stored as JSON; name, subject and block count are copied into
// columns for listing.
type TemplateStore struct {
	db *DB
}

func NewTemplateStore(db *DB) *TemplateStore {
	return &TemplateStore{db: db}
}

func (s *TemplateStore) SaveTemplate(ctx context.Context, t *domain.Template) error {
	doc, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("encode template: %w", err)
	}
	_, err = s.db.Conn().ExecContext(ctx,
		`INSERT INTO templates (id, name, subject, preheader, block_count, document_json, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			subject = excluded.subject,
			preheader = excluded.preheader,
			block_count = excluded.block_count,
			document_json = excluded.document_json,
			updated_at = excluded.updated_at`,
		t.ID, t.Name, t.Subject, t.Preheader, len(t.Blocks), string(doc), t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save template: %w", err)
	}
	return nil
}

func (s *TemplateStore) GetTemplate(ctx context.Context, id string) (*domain.Template, error) {
	var doc string
	err := s.db.Conn().QueryRowContext(ctx,
		`SELECT document_json FROM templates WHERE id = ?`, id,
	).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.TemplateNotFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("get template: %w", err)
	}
	return DecodeTemplate([]byte(doc))
}

func (s *TemplateStore) ListTemplates(ctx context.Context) ([]domain.TemplateSummary, error) {
	rows, err := s.db.Conn().QueryContext(ctx,
		`SELECT id, name, subject, block_count, updated_at FROM templates ORDER BY updated_at DESC, name ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	out := []domain.TemplateSummary{}
	for rows.Next() {
		var t domain.TemplateSummary
		if err := rows.Scan(&t.ID, &t.Name, &t.Subject, &t.BlockCount, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// DeleteTemplate removes the template and its revisions.
func (s *TemplateStore) DeleteTemplate(ctx context.Context, id string) error {
	tx, err := s.db.Conn().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM templates WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.TemplateNotFound(id)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM template_revisions WHERE template_id = ?`, id); err != nil {
		return fmt.Errorf("delete revisions: %w", err)
	}
	return tx.Commit()
}

// DecodeTemplate parses a stored or imported template document.
func DecodeTemplate(data []byte) (*domain.Template, error) {
	var t domain.Template
	if err := json.Unmarshal(data, &t); err != nil {
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			return nil, err
		}
		return nil, &domain.ValidationError{Field: "document", Message: err.Error()}
	}
	if t.ID == "" {
		return nil, &domain.ValidationError{Field: "id", Message: "template id is required"}
	}
	if t.Blocks == nil {
		t.Blocks = []domain.Block{}
	}
	return &t, nil
}
