package entity

import (
	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingStatusCreated   BookingStatus = "created"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

type Booking struct {
	Base
	BookingRef    string        `db:"booking_ref"`
	UserID        uuid.UUID     `db:"user_id"`
	RunID         uuid.UUID     `db:"run_id"`
	BoardingPoint string        `db:"boarding_point"`
	DroppingPoint string        `db:"dropping_point"`
	TotalSeats    int           `db:"total_seats"`
	TotalAmount   float64       `db:"total_amount"`
	Status        BookingStatus `db:"status"`
}
