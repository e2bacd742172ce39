package dbclient

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"maileditor/internal/domain"
)

// dialect captures what differs between the database/sql backends.
type dialect struct {
	driver      string
	placeholder func(n int) string // 1-based
	upsert      string
	createTable string
}

// bind rewrites ? placeholders into the dialect's form.
func (d dialect) bind(query string) string {
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString(d.placeholder(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// sqlStore is the shared implementation for Postgres, MySQL and SQLite.
type sqlStore struct {
	dialect dialect
	db      *sql.DB
	log     zerolog.Logger
}

func newSQLStore(d dialect, dsn string, log zerolog.Logger) (*sqlStore, error) {
	db, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", d.driver, err)
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(10 * time.Minute)
	if d.driver == "sqlite" {
		db.SetMaxOpenConns(1)
	}
	return &sqlStore{dialect: d, db: db, log: log}, nil
}

func (s *sqlStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.db.PingContext(ctx)
}

func (s *sqlStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, s.dialect.createTable); err != nil {
		return fmt.Errorf("create email_templates: %w", err)
	}
	return nil
}

func (s *sqlStore) SaveTemplate(ctx context.Context, t *domain.Template) error {
	doc, err := encodeTemplate(t)
	if err != nil {
		return err
	}
	query := s.dialect.bind(`INSERT INTO email_templates (id, name, subject, block_count, document_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?) ` + s.dialect.upsert)

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if _, err := s.db.ExecContext(ctx, query,
		t.ID, t.Name, t.Subject, len(t.Blocks), doc, t.CreatedAt.UTC(), t.UpdatedAt.UTC(),
	); err != nil {
		return fmt.Errorf("save template: %w", err)
	}
	s.log.Debug().Str("template", t.ID).Msg("template saved")
	return nil
}

func (s *sqlStore) GetTemplate(ctx context.Context, id string) (*domain.Template, error) {
	var doc string
	err := s.db.QueryRowContext(ctx,
		s.dialect.bind(`SELECT document_json FROM email_templates WHERE id = ?`), id,
	).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.TemplateNotFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("get template: %w", err)
	}
	return decodeTemplate([]byte(doc))
}

func (s *sqlStore) ListTemplates(ctx context.Context) ([]domain.TemplateSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, subject, block_count, updated_at FROM email_templates ORDER BY updated_at DESC`,
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

func (s *sqlStore) DeleteTemplate(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.dialect.bind(`DELETE FROM email_templates WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.TemplateNotFound(id)
	}
	return nil
}

func (s *sqlStore) Close() error {
	return s.db.Close()
}

func decodeTemplate(data []byte) (*domain.Template, error) {
	var t domain.Template
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("decode template: %w", err)
	}
	if t.Blocks == nil {
		t.Blocks = []domain.Block{}
	}
	return &t, nil
}

func encodeTemplate(t *domain.Template) (string, error) {
	doc, err := json.Marshal(t)
	if err != nil {
		return "", fmt.Errorf("encode template: %w", err)
	}
	return string(doc), nil
}
