package entity

import "github.com/google/uuid"

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

// Passenger belongs to exactly one booking and holds a non-owning reference
// (by id) to at most one seat.
type Passenger struct {
	BaseSimple
	BookingID   uuid.UUID  `db:"booking_id"`
	Name        string     `db:"name"`
	Gender      *Gender    `db:"gender"`
	PhoneNumber *string    `db:"phone_number"`
	Email       *string    `db:"email"`
	SeatID      *uuid.UUID `db:"seat_id"`
}
