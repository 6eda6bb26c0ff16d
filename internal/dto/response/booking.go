package response

import (
	"time"

	"bus-booking/internal/data/entity"
)

type PassengerResponse struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Gender     *string `json:"gender,omitempty"`
	SeatID     *string `json:"seat_id,omitempty"`
	SeatNumber *string `json:"seat_number,omitempty"`
}

type BookingResponse struct {
	ID            string               `json:"id"`
	BookingRef    string               `json:"booking_ref"`
	UserID        string               `json:"user_id"`
	RunID         string               `json:"run_id"`
	BoardingPoint string               `json:"boarding_point"`
	DroppingPoint string               `json:"dropping_point"`
	TotalSeats    int                  `json:"total_seats"`
	TotalAmount   float64              `json:"total_amount"`
	Status        entity.BookingStatus `json:"status"`
	Passengers    []PassengerResponse  `json:"passengers,omitempty"`
	Payment       *PaymentResponse     `json:"payment,omitempty"`
	CreatedAt     time.Time            `json:"created_at"`
}

type PaymentResponse struct {
	ID            string               `json:"id"`
	BookingID     string               `json:"booking_id"`
	Amount        float64              `json:"amount"`
	Status        entity.PaymentStatus `json:"status"`
	TransactionID *string              `json:"transaction_id,omitempty"`
	CreatedAt     time.Time            `json:"created_at"`
}

// Helper converters

func PassengerToResponse(p *entity.Passenger, seatNumber *string) PassengerResponse {
	resp := PassengerResponse{
		ID:         p.ID.String(),
		Name:       p.Name,
		SeatNumber: seatNumber,
	}
	if p.Gender != nil {
		g := string(*p.Gender)
		resp.Gender = &g
	}
	if p.SeatID != nil {
		id := p.SeatID.String()
		resp.SeatID = &id
	}
	return resp
}

func PaymentToResponse(payment *entity.Payment) PaymentResponse {
	return PaymentResponse{
		ID:            payment.ID.String(),
		BookingID:     payment.BookingID.String(),
		Amount:        payment.Amount,
		Status:        payment.Status,
		TransactionID: payment.TransactionID,
		CreatedAt:     payment.CreatedAt,
	}
}

func BookingToResponse(booking *entity.Booking, passengers []PassengerResponse, payment *PaymentResponse) BookingResponse {
	return BookingResponse{
		ID:            booking.ID.String(),
		BookingRef:    booking.BookingRef,
		UserID:        booking.UserID.String(),
		RunID:         booking.RunID.String(),
		BoardingPoint: booking.BoardingPoint,
		DroppingPoint: booking.DroppingPoint,
		TotalSeats:    booking.TotalSeats,
		TotalAmount:   booking.TotalAmount,
		Status:        booking.Status,
		Passengers:    passengers,
		Payment:       payment,
		CreatedAt:     booking.CreatedAt,
	}
}
