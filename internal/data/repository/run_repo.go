package repository

import (
	"context"
	"fmt"

	"bus-booking/internal/data/entity"
	"bus-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type RunRepository interface {
	Create(ctx context.Context, run *entity.Run) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Run, error)
	FindAll(ctx context.Context, limit, offset int) ([]*entity.Run, error)
	CountAll(ctx context.Context) (int64, error)
	Update(ctx context.Context, run *entity.Run) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type runRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewRunRepository(db database.PgxIface, log *zap.Logger) RunRepository {
	return &runRepository{
		db:  db,
		log: log.With(zap.String("repository", "run")),
	}
}

func (r *runRepository) Create(ctx context.Context, run *entity.Run) error {
	query := `
		INSERT INTO runs (id, bus_name, bus_number, route_from, route_to, departure_time, arrival_time,
		                  price_per_seat, seat_rows, seat_cols, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.db.Exec(ctx, query,
		run.ID,
		run.BusName,
		run.BusNumber,
		run.RouteFrom,
		run.RouteTo,
		run.DepartureTime,
		run.ArrivalTime,
		run.PricePerSeat,
		run.SeatRows,
		run.SeatCols,
		run.CreatedAt,
		run.UpdatedAt,
	)

	if err != nil {
		r.log.Error("Failed to create run",
			zap.Error(err),
			zap.String("bus_number", run.BusNumber),
		)
		return fmt.Errorf("create run %s: %w", run.BusNumber, err)
	}

	return nil
}

func (r *runRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Run, error) {
	query := `
		SELECT id, bus_name, bus_number, route_from, route_to, departure_time, arrival_time,
		       price_per_seat, seat_rows, seat_cols, created_at, updated_at
		FROM runs
		WHERE id = $1
	`

	var run entity.Run
	err := r.db.QueryRow(ctx, query, id).Scan(
		&run.ID,
		&run.BusName,
		&run.BusNumber,
		&run.RouteFrom,
		&run.RouteTo,
		&run.DepartureTime,
		&run.ArrivalTime,
		&run.PricePerSeat,
		&run.SeatRows,
		&run.SeatCols,
		&run.CreatedAt,
		&run.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find run by ID",
			zap.Error(err),
			zap.String("run_id", id.String()),
		)
		return nil, fmt.Errorf("find run by ID %s: %w", id.String(), err)
	}

	return &run, nil
}

func (r *runRepository) FindAll(ctx context.Context, limit, offset int) ([]*entity.Run, error) {
	query := `
		SELECT id, bus_name, bus_number, route_from, route_to, departure_time, arrival_time,
		       price_per_seat, seat_rows, seat_cols, created_at, updated_at
		FROM runs
		ORDER BY departure_time
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		r.log.Error("Failed to find runs",
			zap.Error(err),
			zap.Int("limit", limit),
			zap.Int("offset", offset),
		)
		return nil, fmt.Errorf("find runs: %w", err)
	}
	defer rows.Close()

	var runs []*entity.Run
	for rows.Next() {
		var run entity.Run
		err := rows.Scan(
			&run.ID,
			&run.BusName,
			&run.BusNumber,
			&run.RouteFrom,
			&run.RouteTo,
			&run.DepartureTime,
			&run.ArrivalTime,
			&run.PricePerSeat,
			&run.SeatRows,
			&run.SeatCols,
			&run.CreatedAt,
			&run.UpdatedAt,
		)
		if err != nil {
			r.log.Error("Failed to scan run row", zap.Error(err))
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		runs = append(runs, &run)
	}

	return runs, nil
}

func (r *runRepository) CountAll(ctx context.Context) (int64, error) {
	query := `SELECT COUNT(*) FROM runs`

	var count int64
	err := r.db.QueryRow(ctx, query).Scan(&count)
	if err != nil {
		r.log.Error("Failed to count runs", zap.Error(err))
		return 0, fmt.Errorf("count runs: %w", err)
	}

	return count, nil
}

func (r *runRepository) Update(ctx context.Context, run *entity.Run) error {
	// Layout columns are deliberately absent: the seat grid is immutable once
	// seats exist. Price changes only affect future bookings since totals are
	// stored on the booking.
	query := `
		UPDATE runs
		SET bus_name = $2, bus_number = $3, route_from = $4, route_to = $5,
		    departure_time = $6, arrival_time = $7, price_per_seat = $8, updated_at = $9
		WHERE id = $1
	`

	result, err := r.db.Exec(ctx, query,
		run.ID,
		run.BusName,
		run.BusNumber,
		run.RouteFrom,
		run.RouteTo,
		run.DepartureTime,
		run.ArrivalTime,
		run.PricePerSeat,
		run.UpdatedAt,
	)

	if err != nil {
		r.log.Error("Failed to update run",
			zap.Error(err),
			zap.String("run_id", run.ID.String()),
		)
		return fmt.Errorf("update run %s: %w", run.ID.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("run %s not found", run.ID.String())
	}

	return nil
}

func (r *runRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM runs WHERE id = $1`

	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		r.log.Error("Failed to delete run",
			zap.Error(err),
			zap.String("run_id", id.String()),
		)
		return fmt.Errorf("delete run %s: %w", id.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("run %s not found", id.String())
	}

	r.log.Info("Run deleted", zap.String("run_id", id.String()))
	return nil
}
