package mapping

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"anihub/pkg/models"
)

// ErrNotFound is returned by external-id lookups for ids that were
// never mapped. Distinct from a confirmed no-match, which is a row
// with a NULL mal_id.
var ErrNotFound = errors.New("mapping not found")

type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

func (r *Repo) GetByShowID(ctx context.Context, showID string) (*models.Mapping, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT show_id, mal_id, updated_at
		FROM mappings
		WHERE show_id = ?
	`, showID)

	return scanMapping(row)
}

// GetByMalID is the hot path for every by-external-id request; it is
// backed by idx_mappings_mal_id. NULL mal_id rows never match.
func (r *Repo) GetByMalID(ctx context.Context, malID int64) (*models.Mapping, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT show_id, mal_id, updated_at
		FROM mappings
		WHERE mal_id = ?
	`, malID)

	return scanMapping(row)
}

// Upsert writes the mapping for showID, overwriting any existing row.
// Idempotent; concurrent writers for the same show_id end up
// last-writer-wins, which is fine for a single scalar value.
func (r *Repo) Upsert(ctx context.Context, showID string, malID *int64) error {
	var id sql.NullInt64
	if malID != nil {
		id = sql.NullInt64{Int64: *malID, Valid: true}
	}

	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO mappings (show_id, mal_id)
		VALUES (?, ?)
		ON CONFLICT(show_id) DO UPDATE SET
		  mal_id = excluded.mal_id,
		  updated_at = CURRENT_TIMESTAMP
	`, showID, id)
	if err != nil {
		return fmt.Errorf("upsert mapping %s: %w", showID, err)
	}
	return nil
}

func (r *Repo) Delete(ctx context.Context, showID string) error {
	res, err := r.DB.ExecContext(ctx, `
		DELETE FROM mappings
		WHERE show_id = ?
	`, showID)
	if err != nil {
		return fmt.Errorf("delete mapping %s: %w", showID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete mapping rows: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repo) Count(ctx context.Context) (int, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM mappings`)
	var total int
	if err := row.Scan(&total); err != nil {
		return 0, fmt.Errorf("count mappings: %w", err)
	}
	return total, nil
}

func (r *Repo) List(ctx context.Context, limit, offset int) ([]models.Mapping, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.DB.QueryContext(ctx, `
		SELECT show_id, mal_id, updated_at
		FROM mappings
		ORDER BY show_id ASC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list mappings: %w", err)
	}
	defer rows.Close()

	out := make([]models.Mapping, 0, limit)
	for rows.Next() {
		var (
			m  models.Mapping
			id sql.NullInt64
		)
		if err := rows.Scan(&m.ShowID, &id, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("list scan: %w", err)
		}
		if id.Valid {
			m.MalID = &id.Int64
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

func scanMapping(row *sql.Row) (*models.Mapping, error) {
	var (
		m  models.Mapping
		id sql.NullInt64
	)
	if err := row.Scan(&m.ShowID, &id, &m.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan mapping: %w", err)
	}
	if id.Valid {
		m.MalID = &id.Int64
	}
	return &m, nil
}
