// Package queue defines message payloads exchanged over the message broker
// and the RabbitMQ publisher and consumer for them.
package queue

import (
	"time"

	"github.com/iliyamo/bookit/internal/model"
)

// BookingConfirmedQueue is the durable queue confirmed bookings are
// announced on.
const BookingConfirmedQueue = "booking.confirmed"

// BookingConfirmedEvent is published when a booking is admitted.  It
// carries enough for downstream consumers to log or notify without
// querying the primary database.
type BookingConfirmedEvent struct {
	BookingID    string `json:"booking_id"`
	ReferenceID  string `json:"reference_id"`
	ExperienceID string `json:"experience_id"`
	Title        string `json:"experience_title"`
	Location     string `json:"experience_location"`
	BookingDate  string `json:"booking_date"`
	BookingTime  string `json:"booking_time"`
	Quantity     int    `json:"quantity"`
	Total        int    `json:"total"`
	Email        string `json:"email"`
	PromoCode    string `json:"promo_code,omitempty"`
	ConfirmedAt  string `json:"confirmed_at"`
}

// NewBookingConfirmedEvent builds the event for b.  The experience
// fields are left empty when b was not loaded with its experience.
func NewBookingConfirmedEvent(b *model.Booking) BookingConfirmedEvent {
	ev := BookingConfirmedEvent{
		BookingID:    b.ID,
		ReferenceID:  b.ReferenceID,
		ExperienceID: b.ExperienceID,
		BookingDate:  b.BookingDate,
		BookingTime:  b.BookingTime,
		Quantity:     b.Quantity,
		Total:        b.Total,
		Email:        b.Email,
		ConfirmedAt:  b.CreatedAt.UTC().Format(time.RFC3339),
	}
	if b.CreatedAt.IsZero() {
		ev.ConfirmedAt = time.Now().UTC().Format(time.RFC3339)
	}
	if b.Experience != nil {
		ev.Title = b.Experience.Title
		ev.Location = b.Experience.Location
	}
	if b.PromoCode != nil {
		ev.PromoCode = *b.PromoCode
	}
	return ev
}
