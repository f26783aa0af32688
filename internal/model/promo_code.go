package model

import "time"

// PromoCode is a percentage discount customers can apply at
// checkout.  Codes are stored upper-case and compared
// case-insensitively.
type PromoCode struct {
	ID        uint64     `json:"-"`         // promo_codes.id
	Code      string     `json:"code"`      // promo_codes.code
	Discount  int        `json:"discount"`  // promo_codes.discount (percent)
	IsActive  bool       `json:"isActive"`  // promo_codes.is_active
	ExpiresAt *time.Time `json:"expiresAt"` // promo_codes.expires_at (nullable)
	CreatedAt time.Time  `json:"-"`         // promo_codes.created_at
}

// ExpiredAt reports whether the code has an expiry that lies before now.
func (p *PromoCode) ExpiredAt(now time.Time) bool {
	return p.ExpiresAt != nil && now.After(*p.ExpiresAt)
}
