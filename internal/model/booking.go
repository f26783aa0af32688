package model

import "time"

// Booking records a confirmed purchase of one or more places on a
// slot.  A booking is created exactly once per successful admission
// and is never updated afterwards.  Many bookings may share a slot,
// but the sum of their quantities never exceeds the slot capacity.
//
// Fields:
//  ID           – primary key (UUID).
//  ReferenceID  – 8 character upper-case alphanumeric code shown to
//                 the customer; unique across all bookings.
//  ExperienceID – experience being booked.
//  FullName     – customer name.
//  Email        – customer email.
//  BookingDate  – date label of the slot.
//  BookingTime  – time label of the slot.
//  Quantity     – number of places, always positive.
//  Subtotal     – price before taxes and discount.
//  Taxes        – taxes charged.
//  Total        – amount charged.
//  Discount     – discount applied, zero when no promo code was used.
//  PromoCode    – promo code applied, if any.
//  CreatedAt    – creation timestamp.
//  Experience   – joined experience; populated on create and lookup.
type Booking struct {
	ID           string      `json:"id"`                   // bookings.id
	ReferenceID  string      `json:"referenceId"`          // bookings.reference_id
	ExperienceID string      `json:"experienceId"`         // bookings.experience_id
	FullName     string      `json:"fullName"`             // bookings.full_name
	Email        string      `json:"email"`                // bookings.email
	BookingDate  string      `json:"bookingDate"`          // bookings.booking_date
	BookingTime  string      `json:"bookingTime"`          // bookings.booking_time
	Quantity     int         `json:"quantity"`             // bookings.quantity
	Subtotal     int         `json:"subtotal"`             // bookings.subtotal
	Taxes        int         `json:"taxes"`                // bookings.taxes
	Total        int         `json:"total"`                // bookings.total
	Discount     int         `json:"discount"`             // bookings.discount
	PromoCode    *string     `json:"promoCode"`            // bookings.promo_code (nullable)
	CreatedAt    time.Time   `json:"createdAt"`            // bookings.created_at
	Experience   *Experience `json:"experience,omitempty"` // joined experiences row
}

// Slot returns the capacity pool this booking belongs to.
func (b *Booking) Slot() Slot {
	return Slot{ExperienceID: b.ExperienceID, Date: b.BookingDate, Time: b.BookingTime}
}
