package response

import (
	"bus-booking/internal/data/entity"
)

type SeatResponse struct {
	ID         string            `json:"id"`
	SeatNumber string            `json:"seat_number"`
	SeatRow    int               `json:"row"`
	SeatCol    int               `json:"col"`
	Status     entity.SeatStatus `json:"status"`
}

// SeatMapResponse is the read-only seat grid for display collaborators,
// ordered row first then column.
type SeatMapResponse struct {
	RunID string         `json:"run_id"`
	Seats []SeatResponse `json:"seats"`
}

func SeatToResponse(seat *entity.Seat) SeatResponse {
	return SeatResponse{
		ID:         seat.ID.String(),
		SeatNumber: seat.SeatNumber,
		SeatRow:    seat.SeatRow,
		SeatCol:    seat.SeatCol,
		Status:     seat.Status,
	}
}
