package repository

import (
	"context"
	"fmt"

	"bus-booking/internal/data/entity"
	"bus-booking/pkg/database"
	"bus-booking/pkg/utils"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// SeatRepository is the seat inventory store. Reads never mutate state;
// Reserve and Release are the only status transitions and are meant to be
// called through the seat allocator only.
type SeatRepository interface {
	CreateBatch(ctx context.Context, seats []*entity.Seat) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Seat, error)
	FindByRunAndNumber(ctx context.Context, runID uuid.UUID, seatNumber string) (*entity.Seat, error)
	FindByRunID(ctx context.Context, runID uuid.UUID) ([]*entity.Seat, error)
	CountAvailableByRunID(ctx context.Context, runID uuid.UUID) (int64, error)

	// Reserve transitions one seat from available to reserved and binds the
	// passenger, guarded so only one caller can ever win the transition.
	Reserve(ctx context.Context, seatID, passengerID uuid.UUID) error
	// Release reverts a reserved seat to available, but only while it is
	// still bound to the given passenger. Releasing a seat that is already
	// available or has been rebound to another passenger is a no-op.
	Release(ctx context.Context, seatID, passengerID uuid.UUID) error

	DeleteByRunID(ctx context.Context, runID uuid.UUID) error
}

type seatRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewSeatRepository(db database.PgxIface, log *zap.Logger) SeatRepository {
	return &seatRepository{
		db:  db,
		log: log.With(zap.String("repository", "seat")),
	}
}

func (r *seatRepository) CreateBatch(ctx context.Context, seats []*entity.Seat) error {
	if len(seats) == 0 {
		return nil
	}

	// Build batch insert
	query := `INSERT INTO seats (id, run_id, seat_number, seat_row, seat_col, status, passenger_id, created_at, updated_at) VALUES `
	args := []interface{}{}

	for i, seat := range seats {
		if i > 0 {
			query += ", "
		}
		query += fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			i*9+1, i*9+2, i*9+3, i*9+4, i*9+5, i*9+6, i*9+7, i*9+8, i*9+9)

		args = append(args,
			seat.ID,
			seat.RunID,
			seat.SeatNumber,
			seat.SeatRow,
			seat.SeatCol,
			seat.Status,
			seat.PassengerID,
			seat.CreatedAt,
			seat.UpdatedAt,
		)
	}

	_, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		r.log.Error("Failed to create batch seats",
			zap.Error(err),
			zap.Int("count", len(seats)),
		)
		return fmt.Errorf("create batch seats: %w", err)
	}

	return nil
}

func (r *seatRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Seat, error) {
	query := `
		SELECT id, run_id, seat_number, seat_row, seat_col, status, passenger_id, created_at, updated_at
		FROM seats
		WHERE id = $1
	`

	var seat entity.Seat
	err := r.db.QueryRow(ctx, query, id).Scan(
		&seat.ID,
		&seat.RunID,
		&seat.SeatNumber,
		&seat.SeatRow,
		&seat.SeatCol,
		&seat.Status,
		&seat.PassengerID,
		&seat.CreatedAt,
		&seat.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find seat by ID",
			zap.Error(err),
			zap.String("seat_id", id.String()),
		)
		return nil, fmt.Errorf("find seat by ID %s: %w", id.String(), err)
	}

	return &seat, nil
}

func (r *seatRepository) FindByRunAndNumber(ctx context.Context, runID uuid.UUID, seatNumber string) (*entity.Seat, error) {
	query := `
		SELECT id, run_id, seat_number, seat_row, seat_col, status, passenger_id, created_at, updated_at
		FROM seats
		WHERE run_id = $1 AND seat_number = $2
	`

	var seat entity.Seat
	err := r.db.QueryRow(ctx, query, runID, seatNumber).Scan(
		&seat.ID,
		&seat.RunID,
		&seat.SeatNumber,
		&seat.SeatRow,
		&seat.SeatCol,
		&seat.Status,
		&seat.PassengerID,
		&seat.CreatedAt,
		&seat.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find seat by run and number",
			zap.Error(err),
			zap.String("run_id", runID.String()),
			zap.String("seat_number", seatNumber),
		)
		return nil, fmt.Errorf("find seat %s on run %s: %w", seatNumber, runID.String(), err)
	}

	return &seat, nil
}

func (r *seatRepository) FindByRunID(ctx context.Context, runID uuid.UUID) ([]*entity.Seat, error) {
	query := `
		SELECT id, run_id, seat_number, seat_row, seat_col, status, passenger_id, created_at, updated_at
		FROM seats
		WHERE run_id = $1
		ORDER BY seat_row, seat_col
	`

	rows, err := r.db.Query(ctx, query, runID)
	if err != nil {
		r.log.Error("Failed to find seats by run ID",
			zap.Error(err),
			zap.String("run_id", runID.String()),
		)
		return nil, fmt.Errorf("find seats by run ID %s: %w", runID.String(), err)
	}
	defer rows.Close()

	var seats []*entity.Seat
	for rows.Next() {
		var seat entity.Seat
		err := rows.Scan(
			&seat.ID,
			&seat.RunID,
			&seat.SeatNumber,
			&seat.SeatRow,
			&seat.SeatCol,
			&seat.Status,
			&seat.PassengerID,
			&seat.CreatedAt,
			&seat.UpdatedAt,
		)
		if err != nil {
			r.log.Error("Failed to scan seat row", zap.Error(err))
			return nil, fmt.Errorf("scan seat row: %w", err)
		}
		seats = append(seats, &seat)
	}

	return seats, nil
}

func (r *seatRepository) CountAvailableByRunID(ctx context.Context, runID uuid.UUID) (int64, error) {
	query := `SELECT COUNT(*) FROM seats WHERE run_id = $1 AND status = 'available'`

	var count int64
	err := r.db.QueryRow(ctx, query, runID).Scan(&count)
	if err != nil {
		r.log.Error("Failed to count available seats",
			zap.Error(err),
			zap.String("run_id", runID.String()),
		)
		return 0, fmt.Errorf("count available seats for run %s: %w", runID.String(), err)
	}

	return count, nil
}

func (r *seatRepository) Reserve(ctx context.Context, seatID, passengerID uuid.UUID) error {
	// Conditional update: the status guard makes the check-and-set atomic, so
	// of two racing callers exactly one sees RowsAffected == 1.
	query := `
		UPDATE seats
		SET status = $2, passenger_id = $3, updated_at = NOW()
		WHERE id = $1 AND status = $4 AND passenger_id IS NULL
	`

	result, err := r.db.Exec(ctx, query, seatID, entity.SeatStatusReserved, passengerID, entity.SeatStatusAvailable)
	if err != nil {
		r.log.Error("Failed to reserve seat",
			zap.Error(err),
			zap.String("seat_id", seatID.String()),
			zap.String("passenger_id", passengerID.String()),
		)
		return fmt.Errorf("reserve seat %s: %w", seatID.String(), err)
	}

	if result.RowsAffected() == 0 {
		// Seat was taken between the availability check and here
		return utils.ErrSeatAlreadyAllocated
	}

	return nil
}

func (r *seatRepository) Release(ctx context.Context, seatID, passengerID uuid.UUID) error {
	// The passenger guard stops a stale caller from freeing a seat that has
	// since been released and reserved again by someone else.
	query := `
		UPDATE seats
		SET status = $2, passenger_id = NULL, updated_at = NOW()
		WHERE id = $1 AND status = $3 AND passenger_id = $4
	`

	result, err := r.db.Exec(ctx, query, seatID, entity.SeatStatusAvailable, entity.SeatStatusReserved, passengerID)
	if err != nil {
		r.log.Error("Failed to release seat",
			zap.Error(err),
			zap.String("seat_id", seatID.String()),
			zap.String("passenger_id", passengerID.String()),
		)
		return fmt.Errorf("release seat %s: %w", seatID.String(), err)
	}

	if result.RowsAffected() == 0 {
		// Already available or rebound elsewhere: idempotent no-op
		r.log.Debug("Release matched no seat",
			zap.String("seat_id", seatID.String()),
			zap.String("passenger_id", passengerID.String()),
		)
	}

	return nil
}

func (r *seatRepository) DeleteByRunID(ctx context.Context, runID uuid.UUID) error {
	query := `DELETE FROM seats WHERE run_id = $1`

	result, err := r.db.Exec(ctx, query, runID)
	if err != nil {
		r.log.Error("Failed to delete seats by run ID",
			zap.Error(err),
			zap.String("run_id", runID.String()),
		)
		return fmt.Errorf("delete seats by run ID %s: %w", runID.String(), err)
	}

	r.log.Info("Seats deleted for run",
		zap.String("run_id", runID.String()),
		zap.Int64("count", result.RowsAffected()),
	)
	return nil
}
