package model

import "time"

// Experience is a bookable activity in the catalog.  Each experience
// offers a fixed list of date labels and time labels; every pairing of
// one date with one time forms a Slot with its own capacity pool.
// Experiences are read-only during the booking flow.
//
// Fields:
//  ID             – opaque primary key (UUID).
//  Title          – display name.
//  Location       – where the experience takes place.
//  Description    – long-form description.
//  Price          – price per person in whole currency units.
//  Image          – image URL.
//  AvailableDates – ordered date labels, e.g. "Oct 22".
//  AvailableTimes – ordered time labels, e.g. "9:00 am".
//  CreatedAt      – creation timestamp.
//  UpdatedAt      – last update timestamp.
type Experience struct {
	ID             string    `json:"id"`             // experiences.id
	Title          string    `json:"title"`          // experiences.title
	Location       string    `json:"location"`       // experiences.location
	Description    string    `json:"description"`    // experiences.description
	Price          int       `json:"price"`          // experiences.price
	Image          string    `json:"image"`          // experiences.image
	AvailableDates []string  `json:"availableDates"` // experiences.available_dates (JSON)
	AvailableTimes []string  `json:"availableTimes"` // experiences.available_times (JSON)
	CreatedAt      time.Time `json:"createdAt"`      // experiences.created_at
	UpdatedAt      time.Time `json:"updatedAt"`      // experiences.updated_at
}

// Slot identifies one (experience, date, time) capacity pool.  It is
// also the key of a BookingLock.
type Slot struct {
	ExperienceID string `json:"experienceId"`
	Date         string `json:"bookingDate"`
	Time         string `json:"bookingTime"`
}

// String renders the slot for logs.
func (s Slot) String() string {
	return s.ExperienceID + "|" + s.Date + "|" + s.Time
}
