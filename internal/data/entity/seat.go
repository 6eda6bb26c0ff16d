package entity

import "github.com/google/uuid"

type SeatStatus string

const (
	SeatStatusAvailable SeatStatus = "available"
	SeatStatusReserved  SeatStatus = "reserved"
)

// Seat is one bookable cell of a run's layout. Status and passenger binding
// must agree: a reserved seat always has a passenger, an available seat never
// does. All transitions go through the seat allocator.
type Seat struct {
	Base
	RunID       uuid.UUID  `db:"run_id"`
	SeatNumber  string     `db:"seat_number"` // R1C1, R1C2, etc.
	SeatRow     int        `db:"seat_row"`
	SeatCol     int        `db:"seat_col"`
	Status      SeatStatus `db:"status"`
	PassengerID *uuid.UUID `db:"passenger_id"`
}
