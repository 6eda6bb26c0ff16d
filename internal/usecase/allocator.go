package usecase

import (
	"context"
	"errors"
	"fmt"

	"bus-booking/internal/data/entity"
	"bus-booking/internal/data/repository"
	"bus-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SeatAssignment pairs one requested seat number with the passenger who
// should hold it.
type SeatAssignment struct {
	SeatNumber  string
	PassengerID uuid.UUID
}

// SeatBinding identifies one seat together with the passenger holding it.
// Release is keyed on the pair so a stale release can never free a seat
// that has since been reserved for someone else.
type SeatBinding struct {
	SeatID      uuid.UUID
	PassengerID uuid.UUID
}

// SeatAllocator owns every seat status transition. Allocation is
// all-or-nothing from the caller's point of view: either every requested
// seat ends up reserved or the request fails and every seat it touched is
// back to available.
type SeatAllocator interface {
	Allocate(ctx context.Context, runID uuid.UUID, assignments []SeatAssignment) ([]*entity.Seat, error)
	Release(ctx context.Context, bindings []SeatBinding) error
}

type seatAllocator struct {
	seats repository.SeatRepository
	log   *zap.Logger
}

func NewSeatAllocator(seats repository.SeatRepository, log *zap.Logger) SeatAllocator {
	return &seatAllocator{
		seats: seats,
		log:   log.With(zap.String("service", "allocator")),
	}
}

func (a *seatAllocator) Allocate(ctx context.Context, runID uuid.UUID, assignments []SeatAssignment) ([]*entity.Seat, error) {
	// Duplicate seats in one request are a caller defect, rejected before any
	// storage write.
	seen := make(map[string]struct{}, len(assignments))
	for _, as := range assignments {
		if _, dup := seen[as.SeatNumber]; dup {
			return nil, fmt.Errorf("seat %s requested more than once: %w", as.SeatNumber, utils.ErrDuplicateSeatRequest)
		}
		seen[as.SeatNumber] = struct{}{}
	}

	allocated := make([]*entity.Seat, 0, len(assignments))

	for _, as := range assignments {
		seat, err := a.seats.FindByRunAndNumber(ctx, runID, as.SeatNumber)
		if err != nil {
			a.rollback(ctx, allocated)
			return nil, fmt.Errorf("find seat %s: %w", as.SeatNumber, err)
		}
		if seat == nil {
			a.rollback(ctx, allocated)
			return nil, fmt.Errorf("seat %s: %w", as.SeatNumber, utils.ErrSeatNotFound)
		}
		if seat.Status != entity.SeatStatusAvailable {
			a.rollback(ctx, allocated)
			return nil, fmt.Errorf("seat %s: %w", as.SeatNumber, utils.ErrSeatAlreadyAllocated)
		}

		// The repository guard decides the race: a concurrent allocation of
		// the same seat makes exactly one of the two Reserve calls stick.
		if err := a.seats.Reserve(ctx, seat.ID, as.PassengerID); err != nil {
			a.rollback(ctx, allocated)
			return nil, fmt.Errorf("seat %s: %w", as.SeatNumber, err)
		}

		passengerID := as.PassengerID
		seat.Status = entity.SeatStatusReserved
		seat.PassengerID = &passengerID
		allocated = append(allocated, seat)
	}

	a.log.Info("Seats allocated",
		zap.String("run_id", runID.String()),
		zap.Int("count", len(allocated)),
	)

	return allocated, nil
}

// rollback releases the seats reserved so far when a later seat in the same
// request fails, so a partial allocation never escapes this method.
func (a *seatAllocator) rollback(ctx context.Context, allocated []*entity.Seat) {
	if len(allocated) == 0 {
		return
	}

	if err := a.Release(ctx, seatBindings(allocated)); err != nil {
		a.log.Error("Rollback of partial allocation incomplete",
			zap.Error(err),
			zap.Int("seat_count", len(allocated)),
		)
	}
}

// Release reverts the given seats to available. Every seat is attempted even
// when an earlier one fails: a seat stuck reserved with no owning booking is
// the worse failure mode.
func (a *seatAllocator) Release(ctx context.Context, bindings []SeatBinding) error {
	var errs []error
	for _, b := range bindings {
		if err := a.seats.Release(ctx, b.SeatID, b.PassengerID); err != nil {
			a.log.Error("Failed to release seat",
				zap.Error(err),
				zap.String("seat_id", b.SeatID.String()),
			)
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func seatBindings(seats []*entity.Seat) []SeatBinding {
	bindings := make([]SeatBinding, 0, len(seats))
	for _, seat := range seats {
		if seat.PassengerID != nil {
			bindings = append(bindings, SeatBinding{SeatID: seat.ID, PassengerID: *seat.PassengerID})
		}
	}
	return bindings
}
