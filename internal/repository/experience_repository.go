package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/iliyamo/bookit/internal/model"
)

// ErrExperienceNotFound indicates that an experience was not located in the DB.
var ErrExperienceNotFound = errors.New("experience not found")

// ExperienceRepo manages read access to the experiences catalog.  The
// available date and time labels are stored as JSON arrays.
type ExperienceRepo struct {
	db *sql.DB
}

// NewExperienceRepo constructs an ExperienceRepo given a DB handle.
func NewExperienceRepo(db *sql.DB) *ExperienceRepo { return &ExperienceRepo{db: db} }

const experienceColumns = `id, title, location, description, price, image, available_dates, available_times, created_at, updated_at`

// ListAll returns every experience, newest first.  When the catalog is
// empty an empty slice is returned.
func (r *ExperienceRepo) ListAll(ctx context.Context) ([]model.Experience, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+experienceColumns+` FROM experiences ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Experience, 0)
	for rows.Next() {
		var e model.Experience
		var dates, times []byte
		if err := rows.Scan(&e.ID, &e.Title, &e.Location, &e.Description, &e.Price, &e.Image,
			&dates, &times, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		if err := decodeLabels(&e, dates, times); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetByID retrieves an experience by its ID.  It returns
// ErrExperienceNotFound if there is no matching row.
func (r *ExperienceRepo) GetByID(ctx context.Context, id string) (*model.Experience, error) {
	var e model.Experience
	var dates, times []byte
	err := r.db.QueryRowContext(ctx, `SELECT `+experienceColumns+` FROM experiences WHERE id = ?`, id).Scan(
		&e.ID, &e.Title, &e.Location, &e.Description, &e.Price, &e.Image,
		&dates, &times, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrExperienceNotFound
		}
		return nil, err
	}
	if err := decodeLabels(&e, dates, times); err != nil {
		return nil, err
	}
	return &e, nil
}

// decodeLabels fills the date and time label slices from their JSON
// columns.  NULL or empty columns decode to empty slices.
func decodeLabels(e *model.Experience, dates, times []byte) error {
	e.AvailableDates = []string{}
	e.AvailableTimes = []string{}
	if len(dates) > 0 {
		if err := json.Unmarshal(dates, &e.AvailableDates); err != nil {
			return fmt.Errorf("decode available_dates for %s: %w", e.ID, err)
		}
	}
	if len(times) > 0 {
		if err := json.Unmarshal(times, &e.AvailableTimes); err != nil {
			return fmt.Errorf("decode available_times for %s: %w", e.ID, err)
		}
	}
	return nil
}
