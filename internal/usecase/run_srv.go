package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"bus-booking/internal/data/entity"
	"bus-booking/internal/data/repository"
	"bus-booking/internal/dto/request"
	"bus-booking/internal/dto/response"
	"bus-booking/pkg/utils"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type RunService interface {
	// Public endpoints
	GetRuns(ctx context.Context, req *request.PaginatedRequest) (*response.PaginatedResponse[response.RunResponse], error)
	GetRunByID(ctx context.Context, runID string) (*response.RunResponse, error)
	GetSeatMap(ctx context.Context, runID string) (*response.SeatMapResponse, error)

	// Admin endpoints
	CreateRun(ctx context.Context, req *request.CreateRunRequest) (*response.RunResponse, error)
	UpdateRun(ctx context.Context, runID string, req *request.UpdateRunRequest) (*response.RunResponse, error)
	DeleteRun(ctx context.Context, runID string) error
}

type runService struct {
	repo         *repository.Repository
	rdb          *redis.Client
	seatCacheTTL time.Duration
	log          *zap.Logger
}

func NewRunService(repo *repository.Repository, rdb *redis.Client, config *utils.Config, log *zap.Logger) RunService {
	return &runService{
		repo:         repo,
		rdb:          rdb,
		seatCacheTTL: time.Duration(config.Redis.SeatCacheTTL) * time.Second,
		log:          log.With(zap.String("service", "run")),
	}
}

// seatCacheKey is shared with the booking service, which invalidates the
// entry whenever an allocation changes.
func seatCacheKey(runID uuid.UUID) string {
	return fmt.Sprintf("seats:%s", runID.String())
}

func (s *runService) CreateRun(ctx context.Context, req *request.CreateRunRequest) (*response.RunResponse, error) {
	// Validate request
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Create run validation failed", zap.Any("errors", errs))
		return nil, fmt.Errorf("%w: %s", utils.ErrValidation, utils.FormatValidationErrors(errs))
	}

	departure, err := time.Parse(time.RFC3339, req.DepartureTime)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid departure time %s", utils.ErrValidation, req.DepartureTime)
	}

	arrival, err := time.Parse(time.RFC3339, req.ArrivalTime)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid arrival time %s", utils.ErrValidation, req.ArrivalTime)
	}

	if !arrival.After(departure) {
		return nil, fmt.Errorf("%w: arrival must be after departure", utils.ErrValidation)
	}

	now := time.Now()
	run := &entity.Run{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		BusName:       req.BusName,
		BusNumber:     req.BusNumber,
		RouteFrom:     req.RouteFrom,
		RouteTo:       req.RouteTo,
		DepartureTime: departure,
		ArrivalTime:   arrival,
		PricePerSeat:  req.PricePerSeat,
		SeatRows:      req.SeatRows,
		SeatCols:      req.SeatCols,
	}

	if err := s.repo.Run.Create(ctx, run); err != nil {
		s.log.Error("Failed to create run",
			zap.Error(err),
			zap.String("bus_number", req.BusNumber),
		)
		return nil, fmt.Errorf("create run: %w", err)
	}

	// Seed inventory: one available seat per layout cell. Seat numbers are
	// derived from (row, col) so re-derivation is idempotent.
	seats := make([]*entity.Seat, 0, run.SeatRows*run.SeatCols)
	for row := 1; row <= run.SeatRows; row++ {
		for col := 1; col <= run.SeatCols; col++ {
			seats = append(seats, &entity.Seat{
				Base: entity.Base{
					ID:        uuid.New(),
					CreatedAt: now,
					UpdatedAt: now,
				},
				RunID:      run.ID,
				SeatNumber: utils.SeatNumberFor(row, col),
				SeatRow:    row,
				SeatCol:    col,
				Status:     entity.SeatStatusAvailable,
			})
		}
	}

	if err := s.repo.Seat.CreateBatch(ctx, seats); err != nil {
		// A run without inventory is useless: undo the header
		if delErr := s.repo.Run.Delete(ctx, run.ID); delErr != nil {
			s.log.Error("Failed to undo run after seat seeding failure",
				zap.Error(delErr),
				zap.String("run_id", run.ID.String()),
			)
		}
		return nil, fmt.Errorf("seed seats for run %s: %w", run.ID.String(), err)
	}

	s.log.Info("Run created",
		zap.String("run_id", run.ID.String()),
		zap.String("bus_number", run.BusNumber),
		zap.Int("seats", len(seats)),
	)

	resp := response.RunToResponse(run, int64(len(seats)))
	return &resp, nil
}

func (s *runService) GetRuns(ctx context.Context, req *request.PaginatedRequest) (*response.PaginatedResponse[response.RunResponse], error) {
	limit := req.Limit()
	offset := req.Offset()

	runs, err := s.repo.Run.FindAll(ctx, limit, offset)
	if err != nil {
		s.log.Error("Failed to get runs", zap.Error(err))
		return nil, fmt.Errorf("get runs: %w", err)
	}

	total, err := s.repo.Run.CountAll(ctx)
	if err != nil {
		s.log.Error("Failed to count runs", zap.Error(err))
		return nil, fmt.Errorf("count runs: %w", err)
	}

	runResponses := make([]response.RunResponse, len(runs))
	for i, run := range runs {
		available, err := s.repo.Seat.CountAvailableByRunID(ctx, run.ID)
		if err != nil {
			s.log.Warn("Failed to count available seats",
				zap.Error(err),
				zap.String("run_id", run.ID.String()),
			)
		}
		runResponses[i] = response.RunToResponse(run, available)
	}

	return response.NewPaginatedResponse(runResponses, req.Page, req.PerPage, total), nil
}

func (s *runService) GetRunByID(ctx context.Context, runID string) (*response.RunResponse, error) {
	id, err := uuid.Parse(runID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid run ID format %s", utils.ErrValidation, runID)
	}

	run, err := s.repo.Run.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", runID, err)
	}
	if run == nil {
		return nil, fmt.Errorf("run %s: %w", runID, utils.ErrNotFound)
	}

	available, err := s.repo.Seat.CountAvailableByRunID(ctx, run.ID)
	if err != nil {
		s.log.Warn("Failed to count available seats",
			zap.Error(err),
			zap.String("run_id", runID),
		)
	}

	resp := response.RunToResponse(run, available)
	return &resp, nil
}

func (s *runService) GetSeatMap(ctx context.Context, runID string) (*response.SeatMapResponse, error) {
	id, err := uuid.Parse(runID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid run ID format %s", utils.ErrValidation, runID)
	}

	// Cache hit path
	if s.rdb != nil {
		cached, err := s.rdb.Get(ctx, seatCacheKey(id)).Result()
		if err == nil {
			var resp response.SeatMapResponse
			if err := json.Unmarshal([]byte(cached), &resp); err == nil {
				return &resp, nil
			}
			s.log.Warn("Corrupt seat map cache entry", zap.String("run_id", runID))
		} else if err != redis.Nil {
			s.log.Warn("Seat map cache read failed", zap.Error(err), zap.String("run_id", runID))
		}
	}

	run, err := s.repo.Run.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", runID, err)
	}
	if run == nil {
		return nil, fmt.Errorf("run %s: %w", runID, utils.ErrNotFound)
	}

	seats, err := s.repo.Seat.FindByRunID(ctx, run.ID)
	if err != nil {
		s.log.Error("Failed to get seats for run",
			zap.Error(err),
			zap.String("run_id", runID),
		)
		return nil, fmt.Errorf("get seats for run %s: %w", runID, err)
	}

	seatResponses := make([]response.SeatResponse, len(seats))
	for i, seat := range seats {
		seatResponses[i] = response.SeatToResponse(seat)
	}

	resp := &response.SeatMapResponse{
		RunID: run.ID.String(),
		Seats: seatResponses,
	}

	if s.rdb != nil {
		if data, err := json.Marshal(resp); err == nil {
			if err := s.rdb.Set(ctx, seatCacheKey(id), data, s.seatCacheTTL).Err(); err != nil {
				s.log.Warn("Seat map cache write failed", zap.Error(err), zap.String("run_id", runID))
			}
		}
	}

	return resp, nil
}

func (s *runService) UpdateRun(ctx context.Context, runID string, req *request.UpdateRunRequest) (*response.RunResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Update run validation failed", zap.Any("errors", errs))
		return nil, fmt.Errorf("%w: %s", utils.ErrValidation, utils.FormatValidationErrors(errs))
	}

	id, err := uuid.Parse(runID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid run ID format %s", utils.ErrValidation, runID)
	}

	run, err := s.repo.Run.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", runID, err)
	}
	if run == nil {
		return nil, fmt.Errorf("run %s: %w", runID, utils.ErrNotFound)
	}

	departure, err := time.Parse(time.RFC3339, req.DepartureTime)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid departure time %s", utils.ErrValidation, req.DepartureTime)
	}

	arrival, err := time.Parse(time.RFC3339, req.ArrivalTime)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid arrival time %s", utils.ErrValidation, req.ArrivalTime)
	}

	if !arrival.After(departure) {
		return nil, fmt.Errorf("%w: arrival must be after departure", utils.ErrValidation)
	}

	run.BusName = req.BusName
	run.BusNumber = req.BusNumber
	run.RouteFrom = req.RouteFrom
	run.RouteTo = req.RouteTo
	run.DepartureTime = departure
	run.ArrivalTime = arrival
	run.PricePerSeat = req.PricePerSeat
	run.UpdatedAt = time.Now()

	if err := s.repo.Run.Update(ctx, run); err != nil {
		s.log.Error("Failed to update run",
			zap.Error(err),
			zap.String("run_id", runID),
		)
		return nil, fmt.Errorf("update run %s: %w", runID, err)
	}

	s.log.Info("Run updated", zap.String("run_id", runID))

	available, _ := s.repo.Seat.CountAvailableByRunID(ctx, run.ID)
	resp := response.RunToResponse(run, available)
	return &resp, nil
}

func (s *runService) DeleteRun(ctx context.Context, runID string) error {
	id, err := uuid.Parse(runID)
	if err != nil {
		return fmt.Errorf("%w: invalid run ID format %s", utils.ErrValidation, runID)
	}

	run, err := s.repo.Run.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get run %s: %w", runID, err)
	}
	if run == nil {
		return fmt.Errorf("run %s: %w", runID, utils.ErrNotFound)
	}

	active, err := s.repo.Booking.CountActiveByRunID(ctx, id)
	if err != nil {
		return fmt.Errorf("count active bookings for run %s: %w", runID, err)
	}
	if active > 0 {
		return fmt.Errorf("%w: run %s still has %d active bookings", utils.ErrConflict, runID, active)
	}

	// Seats cascade with their run
	if err := s.repo.Seat.DeleteByRunID(ctx, id); err != nil {
		return fmt.Errorf("delete seats for run %s: %w", runID, err)
	}

	if err := s.repo.Run.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete run %s: %w", runID, err)
	}

	if s.rdb != nil {
		if err := s.rdb.Del(ctx, seatCacheKey(id)).Err(); err != nil {
			s.log.Warn("Seat map cache invalidation failed", zap.Error(err), zap.String("run_id", runID))
		}
	}

	s.log.Info("Run deleted", zap.String("run_id", runID))
	return nil
}
