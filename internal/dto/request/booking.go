package request

type PassengerRequest struct {
	Name        string  `json:"name" validate:"required,min=1,max=100"`
	Gender      *string `json:"gender,omitempty" validate:"omitempty,oneof=male female other"`
	PhoneNumber *string `json:"phone_number,omitempty" validate:"omitempty,min=7,max=20"`
	Email       *string `json:"email,omitempty" validate:"omitempty,email"`
	SeatNumber  *string `json:"seat_number,omitempty" validate:"omitempty,max=10"`
}

type CreateBookingRequest struct {
	RunID         string             `json:"run_id" validate:"required,uuid4"`
	OwnerID       string             `json:"owner_id" validate:"required,uuid4"`
	BoardingPoint string             `json:"boarding_point" validate:"required,min=2,max=100"`
	DroppingPoint string             `json:"dropping_point" validate:"required,min=2,max=100"`
	Passengers    []PassengerRequest `json:"passengers" validate:"required,min=1,max=10,dive"`
}

type ProcessPaymentRequest struct {
	BookingID     string  `json:"booking_id" validate:"required,uuid4"`
	Amount        float64 `json:"amount" validate:"required,gt=0"`
	TransactionID *string `json:"transaction_id,omitempty"`
}
