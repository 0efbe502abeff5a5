// Package store holds on-device persistence: authored drafts in a local
// SQLite database and cached feed pages in Redis.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/delegationapp/delegate/internal/models"
)

const draftSchema = `
CREATE TABLE IF NOT EXISTS drafts (
	id TEXT PRIMARY KEY,
	category TEXT NOT NULL,
	doc TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
)`

// DraftStore persists in-progress drafts so authoring survives process
// restarts.
type DraftStore struct {
	db *sqlx.DB
}

// NewDraftStore creates the store and ensures the schema exists.
func NewDraftStore(db *sqlx.DB) (*DraftStore, error) {
	if _, err := db.Exec(draftSchema); err != nil {
		return nil, fmt.Errorf("migrate drafts schema: %w", err)
	}
	return &DraftStore{db: db}, nil
}

type draftRow struct {
	ID        string    `db:"id"`
	Category  string    `db:"category"`
	Doc       string    `db:"doc"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Get loads a draft by id.
func (s *DraftStore) Get(ctx context.Context, id string) (*models.Draft, error) {
	var row draftRow
	if err := s.db.GetContext(ctx, &row, "SELECT id, category, doc, created_at, updated_at FROM drafts WHERE id = ?", id); err != nil {
		return nil, err
	}
	return rowToDraft(row)
}

// Save upserts a draft document.
func (s *DraftStore) Save(ctx context.Context, draft *models.Draft) error {
	doc, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("marshal draft: %w", err)
	}
	now := time.Now().UTC()
	query := `INSERT INTO drafts (id, category, doc, created_at, updated_at)
VALUES (:id, :category, :doc, :created_at, :updated_at)
ON CONFLICT(id) DO UPDATE SET category = :category, doc = :doc, updated_at = :updated_at`
	row := draftRow{
		ID:        draft.ID,
		Category:  string(draft.Category),
		Doc:       string(doc),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := s.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("save draft: %w", err)
	}
	return nil
}

// Delete removes a draft.
func (s *DraftStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM drafts WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete draft: %w", err)
	}
	affected, err := result.RowsAffected()
	if err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// List returns all stored drafts, most recently updated first.
func (s *DraftStore) List(ctx context.Context) ([]models.Draft, error) {
	var rows []draftRow
	if err := s.db.SelectContext(ctx, &rows, "SELECT id, category, doc, created_at, updated_at FROM drafts ORDER BY updated_at DESC"); err != nil {
		return nil, fmt.Errorf("list drafts: %w", err)
	}
	drafts := make([]models.Draft, 0, len(rows))
	for _, row := range rows {
		draft, err := rowToDraft(row)
		if err != nil {
			return nil, err
		}
		drafts = append(drafts, *draft)
	}
	return drafts, nil
}

func rowToDraft(row draftRow) (*models.Draft, error) {
	var draft models.Draft
	if err := json.Unmarshal([]byte(row.Doc), &draft); err != nil {
		return nil, fmt.Errorf("unmarshal draft %s: %w", row.ID, err)
	}
	draft.ID = row.ID
	draft.Category = models.Category(row.Category)
	return &draft, nil
}
