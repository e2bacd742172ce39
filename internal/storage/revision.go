package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/snorwin/jsonpatch"

	"maileditor/internal/domain"
)

// DefaultRevisionLimit is how many save points are kept per template.
const DefaultRevisionLimit = 40

// RevisionStore keeps persisted save points of templates. Each revision
// stores the full snapshot plus the JSON patch from the previous one.
type RevisionStore struct {
	db    *DB
	limit int
	now   func() time.Time
}

func NewRevisionStore(db *DB, limit int) *RevisionStore {
	if limit <= 0 {
		limit = DefaultRevisionLimit
	}
	return &RevisionStore{db: db, limit: limit, now: time.Now}
}

// Append records doc as a new revision. When nothing changed since the last
// revision no row is written and the last revision is returned.
func (s *RevisionStore) Append(ctx context.Context, doc *domain.Template, label string) (*domain.Revision, error) {
	snapshot, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}

	prev, err := s.Latest(ctx, doc.ID)
	if err != nil && !domain.IsNotFound(err) {
		return nil, err
	}
	prevJSON := "{}"
	seq := 1
	if prev != nil {
		prevJSON = prev.SnapshotJSON
		seq = s.seqOf(ctx, prev.ID) + 1
	}

	patch, err := diff(prevJSON, snapshot)
	if err != nil {
		return nil, err
	}
	if prev != nil && patch.Empty() {
		return prev, nil
	}

	rev := &domain.Revision{
		ID:           uuid.New().String(),
		TemplateID:   doc.ID,
		Label:        label,
		SnapshotJSON: string(snapshot),
		PatchJSON:    patch.String(),
		ChangeCount:  patch.Len(),
		CreatedAt:    s.now(),
	}
	_, err = s.db.Conn().ExecContext(ctx,
		`INSERT INTO template_revisions (id, template_id, seq, label, snapshot_json, patch_json, change_count, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rev.ID, rev.TemplateID, seq, rev.Label, rev.SnapshotJSON, rev.PatchJSON, rev.ChangeCount, rev.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert revision: %w", err)
	}

	if err := s.prune(ctx, doc.ID); err != nil {
		return nil, err
	}
	return rev, nil
}

// List returns the revisions of a template, newest first, without snapshots.
func (s *RevisionStore) List(ctx context.Context, templateID string) ([]domain.Revision, error) {
	rows, err := s.db.Conn().QueryContext(ctx,
		`SELECT id, template_id, label, patch_json, change_count, created_at
		 FROM template_revisions WHERE template_id = ? ORDER BY seq DESC`, templateID,
	)
	if err != nil {
		return nil, fmt.Errorf("list revisions: %w", err)
	}
	defer rows.Close()

	out := []domain.Revision{}
	for rows.Next() {
		var r domain.Revision
		if err := rows.Scan(&r.ID, &r.TemplateID, &r.Label, &r.PatchJSON, &r.ChangeCount, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan revision: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *RevisionStore) Get(ctx context.Context, id string) (*domain.Revision, error) {
	return s.one(ctx, `WHERE id = ?`, id)
}

// Latest returns the newest revision of a template.
func (s *RevisionStore) Latest(ctx context.Context, templateID string) (*domain.Revision, error) {
	rev, err := s.one(ctx, `WHERE template_id = ? ORDER BY seq DESC LIMIT 1`, templateID)
	if domain.IsNotFound(err) {
		return nil, &domain.NotFoundError{Kind: "revision", ID: templateID}
	}
	return rev, err
}

// DeleteForTemplate removes every revision of a template.
func (s *RevisionStore) DeleteForTemplate(ctx context.Context, templateID string) error {
	_, err := s.db.Conn().ExecContext(ctx, `DELETE FROM template_revisions WHERE template_id = ?`, templateID)
	return err
}

// Snapshot decodes the template stored in a revision.
func Snapshot(r *domain.Revision) (*domain.Template, error) {
	return DecodeTemplate([]byte(r.SnapshotJSON))
}

func (s *RevisionStore) one(ctx context.Context, where string, arg any) (*domain.Revision, error) {
	var r domain.Revision
	err := s.db.Conn().QueryRowContext(ctx,
		`SELECT id, template_id, label, snapshot_json, patch_json, change_count, created_at
		 FROM template_revisions `+where, arg,
	).Scan(&r.ID, &r.TemplateID, &r.Label, &r.SnapshotJSON, &r.PatchJSON, &r.ChangeCount, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.NotFoundError{Kind: "revision", ID: fmt.Sprint(arg)}
	}
	if err != nil {
		return nil, fmt.Errorf("get revision: %w", err)
	}
	return &r, nil
}

func (s *RevisionStore) seqOf(ctx context.Context, id string) int {
	var seq int
	_ = s.db.Conn().QueryRowContext(ctx, `SELECT seq FROM template_revisions WHERE id = ?`, id).Scan(&seq)
	return seq
}

// prune drops the oldest revisions beyond the limit.
func (s *RevisionStore) prune(ctx context.Context, templateID string) error {
	_, err := s.db.Conn().ExecContext(ctx,
		`DELETE FROM template_revisions WHERE template_id = ? AND id NOT IN (
			SELECT id FROM template_revisions WHERE template_id = ? ORDER BY seq DESC LIMIT ?
		)`, templateID, templateID, s.limit,
	)
	if err != nil {
		return fmt.Errorf("prune revisions: %w", err)
	}
	return nil
}

// diff builds the JSON patch turning prev into next.
func diff(prev string, next []byte) (jsonpatch.JSONPatchList, error) {
	var before, after map[string]interface{}
	if err := json.Unmarshal([]byte(prev), &before); err != nil {
		return jsonpatch.JSONPatchList{}, fmt.Errorf("decode previous snapshot: %w", err)
	}
	if err := json.Unmarshal(next, &after); err != nil {
		return jsonpatch.JSONPatchList{}, fmt.Errorf("decode snapshot: %w", err)
	}
	patch, err := jsonpatch.CreateJSONPatch(after, before)
	if err != nil {
		return jsonpatch.JSONPatchList{}, fmt.Errorf("create json patch: %w", err)
	}
	return patch, nil
}
