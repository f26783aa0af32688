package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/bookit/internal/model"
)

// ErrPromoCodeNotFound is returned when no promo code matches.
var ErrPromoCodeNotFound = errors.New("promo code not found")

// PromoCodeRepo looks up promo codes.  Codes are stored upper-case.
type PromoCodeRepo struct{ db *sql.DB }

func NewPromoCodeRepo(db *sql.DB) *PromoCodeRepo { return &PromoCodeRepo{db: db} }

// GetByCode returns the promo code matching code regardless of case.
func (r *PromoCodeRepo) GetByCode(ctx context.Context, code string) (*model.PromoCode, error) {
	var (
		p         model.PromoCode
		expiresAt sql.NullTime
	)
	err := r.db.QueryRowContext(ctx,
		"SELECT id, code, discount, is_active, expires_at, created_at FROM promo_codes WHERE code = ? LIMIT 1",
		strings.ToUpper(strings.TrimSpace(code)),
	).Scan(&p.ID, &p.Code, &p.Discount, &p.IsActive, &expiresAt, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPromoCodeNotFound
		}
		return nil, err
	}
	if expiresAt.Valid {
		t := expiresAt.Time.UTC()
		p.ExpiresAt = &t
	}
	p.CreatedAt = p.CreatedAt.UTC()
	return &p, nil
}

