package response

import (
	"time"

	"bus-booking/internal/data/entity"
)

type RunResponse struct {
	ID             string    `json:"id"`
	BusName        string    `json:"bus_name"`
	BusNumber      string    `json:"bus_number"`
	RouteFrom      string    `json:"route_from"`
	RouteTo        string    `json:"route_to"`
	DepartureTime  time.Time `json:"departure_time"`
	ArrivalTime    time.Time `json:"arrival_time"`
	PricePerSeat   float64   `json:"price_per_seat"`
	SeatRows       int       `json:"seat_rows"`
	SeatCols       int       `json:"seat_cols"`
	TotalSeats     int       `json:"total_seats"`
	AvailableSeats int64     `json:"available_seats"`
	CreatedAt      time.Time `json:"created_at"`
}

func RunToResponse(run *entity.Run, availableSeats int64) RunResponse {
	return RunResponse{
		ID:             run.ID.String(),
		BusName:        run.BusName,
		BusNumber:      run.BusNumber,
		RouteFrom:      run.RouteFrom,
		RouteTo:        run.RouteTo,
		DepartureTime:  run.DepartureTime,
		ArrivalTime:    run.ArrivalTime,
		PricePerSeat:   run.PricePerSeat,
		SeatRows:       run.SeatRows,
		SeatCols:       run.SeatCols,
		TotalSeats:     run.SeatRows * run.SeatCols,
		AvailableSeats: availableSeats,
		CreatedAt:      run.CreatedAt,
	}
}
