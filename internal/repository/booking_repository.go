package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/bookit/internal/model"
)

// ErrBookingNotFound indicates that no booking matches the lookup.
var ErrBookingNotFound = errors.New("booking not found")

// BookingRepo provides persistence for bookings.  Bookings are
// insert-only; reads either aggregate a slot or load a single booking
// joined with its experience.  The reference_id column carries a
// unique index.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// BookedQuantity returns the sum of quantities over every booking on
// the slot, or zero when the slot has no bookings.
func (r *BookingRepo) BookedQuantity(ctx context.Context, slot model.Slot) (int, error) {
	const q = `SELECT COALESCE(SUM(quantity), 0)
               FROM bookings
               WHERE experience_id = ? AND booking_date = ? AND booking_time = ?`
	var total int
	if err := r.db.QueryRowContext(ctx, q, slot.ExperienceID, slot.Date, slot.Time).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

// ReferenceExists reports whether a booking already uses ref.
func (r *BookingRepo) ReferenceExists(ctx context.Context, ref string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM bookings WHERE reference_id = ? LIMIT 1`, ref).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Create inserts the booking inside its own transaction and reads the
// row back joined with its experience, populating CreatedAt and
// Experience on b.  The caller must set ID and ReferenceID.  A
// duplicate reference id is reported as ErrDuplicate.
func (r *BookingRepo) Create(ctx context.Context, b *model.Booking) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	const ins = `INSERT INTO bookings
               (id, reference_id, experience_id, full_name, email, booking_date, booking_time,
                quantity, subtotal, taxes, total, discount, promo_code)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	var promo sql.NullString
	if b.PromoCode != nil {
		promo = sql.NullString{String: *b.PromoCode, Valid: true}
	}
	if _, err := tx.ExecContext(ctx, ins,
		b.ID, b.ReferenceID, b.ExperienceID, b.FullName, b.Email, b.BookingDate, b.BookingTime,
		b.Quantity, b.Subtotal, b.Taxes, b.Total, b.Discount, promo,
	); err != nil {
		return translate(err)
	}
	stored, err := getBookingWithExperience(ctx, tx, `b.id = ?`, b.ID)
	if err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return translate(err)
	}
	committed = true
	*b = *stored
	return nil
}

// GetByReference returns the booking with the given reference id
// joined with its experience, or ErrBookingNotFound.
func (r *BookingRepo) GetByReference(ctx context.Context, ref string) (*model.Booking, error) {
	b, err := getBookingWithExperience(ctx, r.db, `b.reference_id = ?`, ref)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return b, nil
}

// getBookingWithExperience loads one booking and its experience using
// the given WHERE clause.  sql.ErrNoRows is returned unchanged.
func getBookingWithExperience(ctx context.Context, q rowQuerier, where string, arg any) (*model.Booking, error) {
	query := `SELECT b.id, b.reference_id, b.experience_id, b.full_name, b.email, b.booking_date, b.booking_time,
                     b.quantity, b.subtotal, b.taxes, b.total, b.discount, b.promo_code, b.created_at,
                     e.id, e.title, e.location, e.description, e.price, e.image,
                     e.available_dates, e.available_times, e.created_at, e.updated_at
              FROM bookings b
              JOIN experiences e ON e.id = b.experience_id
              WHERE ` + where
	var (
		b            model.Booking
		e            model.Experience
		promo        sql.NullString
		dates, times []byte
	)
	if err := q.QueryRowContext(ctx, query, arg).Scan(
		&b.ID, &b.ReferenceID, &b.ExperienceID, &b.FullName, &b.Email, &b.BookingDate, &b.BookingTime,
		&b.Quantity, &b.Subtotal, &b.Taxes, &b.Total, &b.Discount, &promo, &b.CreatedAt,
		&e.ID, &e.Title, &e.Location, &e.Description, &e.Price, &e.Image,
		&dates, &times, &e.CreatedAt, &e.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if promo.Valid {
		pc := promo.String
		b.PromoCode = &pc
	}
	if err := decodeLabels(&e, dates, times); err != nil {
		return nil, err
	}
	b.Experience = &e
	return &b, nil
}
