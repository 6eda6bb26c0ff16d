package repository

import (
	"bus-booking/pkg/database"

	"go.uber.org/zap"
)

type Repository struct {
	Run       RunRepository
	Seat      SeatRepository
	Booking   BookingRepository
	Passenger PassengerRepository
	Payment   PaymentRepository
}

func NewRepository(db database.PgxIface, log *zap.Logger) *Repository {
	return &Repository{
		Run:       NewRunRepository(db, log),
		Seat:      NewSeatRepository(db, log),
		Booking:   NewBookingRepository(db, log),
		Passenger: NewPassengerRepository(db, log),
		Payment:   NewPaymentRepository(db, log),
	}
}
