package repository

import (
	"context"
	"fmt"

	"bus-booking/internal/data/entity"
	"bus-booking/pkg/database"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PassengerRepository covers reads and cascading deletes. Passenger inserts
// happen inside the booking transaction (see BookingRepository).
type PassengerRepository interface {
	FindByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*entity.Passenger, error)
	DeleteByBookingID(ctx context.Context, bookingID uuid.UUID) error
}

type passengerRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewPassengerRepository(db database.PgxIface, log *zap.Logger) PassengerRepository {
	return &passengerRepository{
		db:  db,
		log: log.With(zap.String("repository", "passenger")),
	}
}

func (r *passengerRepository) FindByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*entity.Passenger, error) {
	query := `
		SELECT id, booking_id, name, gender, phone_number, email, seat_id, created_at
		FROM passengers
		WHERE booking_id = $1
		ORDER BY created_at
	`

	rows, err := r.db.Query(ctx, query, bookingID)
	if err != nil {
		r.log.Error("Failed to find passengers by booking ID",
			zap.Error(err),
			zap.String("booking_id", bookingID.String()),
		)
		return nil, fmt.Errorf("find passengers by booking ID %s: %w", bookingID.String(), err)
	}
	defer rows.Close()

	var passengers []*entity.Passenger
	for rows.Next() {
		var p entity.Passenger
		err := rows.Scan(
			&p.ID,
			&p.BookingID,
			&p.Name,
			&p.Gender,
			&p.PhoneNumber,
			&p.Email,
			&p.SeatID,
			&p.CreatedAt,
		)
		if err != nil {
			r.log.Error("Failed to scan passenger row", zap.Error(err))
			return nil, fmt.Errorf("scan passenger row: %w", err)
		}
		passengers = append(passengers, &p)
	}

	return passengers, nil
}

func (r *passengerRepository) DeleteByBookingID(ctx context.Context, bookingID uuid.UUID) error {
	query := `DELETE FROM passengers WHERE booking_id = $1`

	_, err := r.db.Exec(ctx, query, bookingID)
	if err != nil {
		r.log.Error("Failed to delete passengers by booking ID",
			zap.Error(err),
			zap.String("booking_id", bookingID.String()),
		)
		return fmt.Errorf("delete passengers by booking ID %s: %w", bookingID.String(), err)
	}

	return nil
}
