package entity

import (
	"time"
)

// Run is one scheduled departure of a bus with a fixed seat layout.
// Metadata may be edited by admins; the layout is immutable once seats exist.
type Run struct {
	Base
	BusName       string    `db:"bus_name"`
	BusNumber     string    `db:"bus_number"`
	RouteFrom     string    `db:"route_from"`
	RouteTo       string    `db:"route_to"`
	DepartureTime time.Time `db:"departure_time"`
	ArrivalTime   time.Time `db:"arrival_time"`
	PricePerSeat  float64   `db:"price_per_seat"`
	SeatRows      int       `db:"seat_rows"`
	SeatCols      int       `db:"seat_cols"`
}
