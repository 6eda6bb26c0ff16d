package usecase

import (
	"context"
	"fmt"
	"math"
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

type BookingService interface {
	CreateBooking(ctx context.Context, req *request.CreateBookingRequest) (*response.BookingResponse, error)
	GetBookingByID(ctx context.Context, bookingID string) (*response.BookingResponse, error)
	GetUserBookings(ctx context.Context, userID string, page *request.PaginatedRequest) (*response.PaginatedResponse[response.BookingResponse], error)
	GetAllBookings(ctx context.Context, page *request.PaginatedRequest) (*response.PaginatedResponse[response.BookingResponse], error)
	CancelBooking(ctx context.Context, bookingID string) (*response.BookingResponse, error)
	DeleteBooking(ctx context.Context, bookingID string) error
	ProcessPayment(ctx context.Context, req *request.ProcessPaymentRequest) (*response.BookingResponse, error)
}

type bookingService struct {
	repo      *repository.Repository
	allocator SeatAllocator
	rdb       *redis.Client
	log       *zap.Logger
}

func NewBookingService(repo *repository.Repository, allocator SeatAllocator, rdb *redis.Client, log *zap.Logger) BookingService {
	return &bookingService{
		repo:      repo,
		allocator: allocator,
		rdb:       rdb,
		log:       log.With(zap.String("service", "booking")),
	}
}

func (s *bookingService) CreateBooking(ctx context.Context, req *request.CreateBookingRequest) (*response.BookingResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Create booking validation failed", zap.Any("errors", errs))
		return nil, fmt.Errorf("%w: %s", utils.ErrValidation, utils.FormatValidationErrors(errs))
	}

	runID, err := uuid.Parse(req.RunID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid run ID format %s", utils.ErrValidation, req.RunID)
	}

	ownerID, err := uuid.Parse(req.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid owner ID format %s", utils.ErrValidation, req.OwnerID)
	}

	run, err := s.repo.Run.FindByID(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", req.RunID, err)
	}
	if run == nil {
		return nil, fmt.Errorf("run %s: %w", req.RunID, utils.ErrNotFound)
	}

	if time.Now().After(run.DepartureTime) {
		return nil, fmt.Errorf("%w: run %s has already departed", utils.ErrConflict, req.RunID)
	}

	now := time.Now()
	bookingID := uuid.New()

	// Passenger rows exist before allocation so the allocator can bind each
	// seat to its passenger id.
	passengers := make([]*entity.Passenger, len(req.Passengers))
	assignments := make([]SeatAssignment, 0, len(req.Passengers))
	for i, pr := range req.Passengers {
		p := &entity.Passenger{
			BaseSimple: entity.BaseSimple{
				ID:        uuid.New(),
				CreatedAt: now,
			},
			BookingID:   bookingID,
			Name:        pr.Name,
			PhoneNumber: pr.PhoneNumber,
			Email:       pr.Email,
		}
		if pr.Gender != nil {
			g := entity.Gender(*pr.Gender)
			p.Gender = &g
		}
		passengers[i] = p

		if pr.SeatNumber != nil && *pr.SeatNumber != "" {
			assignments = append(assignments, SeatAssignment{
				SeatNumber:  *pr.SeatNumber,
				PassengerID: p.ID,
			})
		}
	}

	allocated, err := s.allocator.Allocate(ctx, runID, assignments)
	if err != nil {
		return nil, fmt.Errorf("allocate seats: %w", err)
	}

	// Back-reference seat ids onto the passenger rows
	seatByPassenger := make(map[uuid.UUID]*entity.Seat, len(allocated))
	for _, seat := range allocated {
		if seat.PassengerID != nil {
			seatByPassenger[*seat.PassengerID] = seat
		}
	}
	for _, p := range passengers {
		if seat, ok := seatByPassenger[p.ID]; ok {
			seatID := seat.ID
			p.SeatID = &seatID
		}
	}

	// Only seated passengers are billed
	totalAmount := run.PricePerSeat * float64(len(allocated))

	booking := &entity.Booking{
		Base: entity.Base{
			ID:        bookingID,
			CreatedAt: now,
			UpdatedAt: now,
		},
		BookingRef:    utils.GenerateBookingRef(),
		UserID:        ownerID,
		RunID:         runID,
		BoardingPoint: req.BoardingPoint,
		DroppingPoint: req.DroppingPoint,
		TotalSeats:    len(allocated),
		TotalAmount:   totalAmount,
		Status:        entity.BookingStatusCreated,
	}

	if err := s.repo.Booking.CreateWithPassengers(ctx, booking, passengers); err != nil {
		// The seats are reserved but the booking never committed: put them back
		if relErr := s.allocator.Release(ctx, seatBindings(allocated)); relErr != nil {
			s.log.Error("Failed to release seats after booking persistence failure",
				zap.Error(relErr),
				zap.String("run_id", req.RunID),
			)
		}
		return nil, fmt.Errorf("persist booking: %w", err)
	}

	s.invalidateSeatCache(ctx, runID)

	s.log.Info("Booking created",
		zap.String("booking_id", booking.ID.String()),
		zap.String("booking_ref", booking.BookingRef),
		zap.String("run_id", req.RunID),
		zap.Int("seats", len(allocated)),
		zap.Float64("total_amount", totalAmount),
	)

	return s.assembleBooking(ctx, booking, passengers)
}

func (s *bookingService) GetBookingByID(ctx context.Context, bookingID string) (*response.BookingResponse, error) {
	id, err := uuid.Parse(bookingID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid booking ID format %s", utils.ErrValidation, bookingID)
	}

	booking, err := s.repo.Booking.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get booking %s: %w", bookingID, err)
	}
	if booking == nil {
		return nil, fmt.Errorf("booking %s: %w", bookingID, utils.ErrNotFound)
	}

	passengers, err := s.repo.Passenger.FindByBookingID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get passengers for booking %s: %w", bookingID, err)
	}

	return s.assembleBooking(ctx, booking, passengers)
}

func (s *bookingService) GetUserBookings(ctx context.Context, userID string, page *request.PaginatedRequest) (*response.PaginatedResponse[response.BookingResponse], error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid user ID format %s", utils.ErrValidation, userID)
	}

	bookings, err := s.repo.Booking.FindByUserID(ctx, id, page.Limit(), page.Offset())
	if err != nil {
		return nil, fmt.Errorf("get bookings for user %s: %w", userID, err)
	}

	total, err := s.repo.Booking.CountByUserID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("count bookings for user %s: %w", userID, err)
	}

	return s.assembleBookingPage(ctx, bookings, page, total)
}

func (s *bookingService) GetAllBookings(ctx context.Context, page *request.PaginatedRequest) (*response.PaginatedResponse[response.BookingResponse], error) {
	bookings, err := s.repo.Booking.FindAll(ctx, page.Limit(), page.Offset())
	if err != nil {
		return nil, fmt.Errorf("get all bookings: %w", err)
	}

	total, err := s.repo.Booking.CountAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("count all bookings: %w", err)
	}

	return s.assembleBookingPage(ctx, bookings, page, total)
}

// CancelBooking releases every seat the booking holds and marks it
// cancelled. Release failures are logged and do not block the status change:
// the booking must never stay active once the user asked to cancel, and the
// release itself is idempotent so it can be retried.
func (s *bookingService) CancelBooking(ctx context.Context, bookingID string) (*response.BookingResponse, error) {
	id, err := uuid.Parse(bookingID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid booking ID format %s", utils.ErrValidation, bookingID)
	}

	booking, err := s.repo.Booking.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get booking %s: %w", bookingID, err)
	}
	if booking == nil {
		return nil, fmt.Errorf("booking %s: %w", bookingID, utils.ErrNotFound)
	}

	if booking.Status == entity.BookingStatusCancelled {
		return nil, fmt.Errorf("%w: booking %s is already cancelled", utils.ErrConflict, bookingID)
	}

	passengers, err := s.repo.Passenger.FindByBookingID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get passengers for booking %s: %w", bookingID, err)
	}

	if err := s.releaseBookingSeats(ctx, passengers); err != nil {
		s.log.Error("Seat release incomplete during cancellation",
			zap.Error(err),
			zap.String("booking_id", bookingID),
		)
	}

	if err := s.repo.Booking.UpdateStatus(ctx, id, entity.BookingStatusCancelled); err != nil {
		return nil, fmt.Errorf("cancel booking %s: %w", bookingID, err)
	}
	booking.Status = entity.BookingStatusCancelled

	s.invalidateSeatCache(ctx, booking.RunID)

	s.log.Info("Booking cancelled",
		zap.String("booking_id", bookingID),
		zap.String("run_id", booking.RunID.String()),
	)

	return s.assembleBooking(ctx, booking, passengers)
}

// DeleteBooking is the admin variant of cancellation: it releases the seats
// and then removes the booking graph entirely.
func (s *bookingService) DeleteBooking(ctx context.Context, bookingID string) error {
	id, err := uuid.Parse(bookingID)
	if err != nil {
		return fmt.Errorf("%w: invalid booking ID format %s", utils.ErrValidation, bookingID)
	}

	booking, err := s.repo.Booking.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get booking %s: %w", bookingID, err)
	}
	if booking == nil {
		return fmt.Errorf("booking %s: %w", bookingID, utils.ErrNotFound)
	}

	passengers, err := s.repo.Passenger.FindByBookingID(ctx, id)
	if err != nil {
		return fmt.Errorf("get passengers for booking %s: %w", bookingID, err)
	}

	if err := s.releaseBookingSeats(ctx, passengers); err != nil {
		return fmt.Errorf("release seats for booking %s: %w", bookingID, err)
	}

	if err := s.repo.Passenger.DeleteByBookingID(ctx, id); err != nil {
		return fmt.Errorf("delete passengers for booking %s: %w", bookingID, err)
	}

	if err := s.repo.Booking.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete booking %s: %w", bookingID, err)
	}

	s.invalidateSeatCache(ctx, booking.RunID)

	s.log.Info("Booking deleted",
		zap.String("booking_id", bookingID),
		zap.String("run_id", booking.RunID.String()),
	)

	return nil
}

func (s *bookingService) ProcessPayment(ctx context.Context, req *request.ProcessPaymentRequest) (*response.BookingResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Process payment validation failed", zap.Any("errors", errs))
		return nil, fmt.Errorf("%w: %s", utils.ErrValidation, utils.FormatValidationErrors(errs))
	}

	id, err := uuid.Parse(req.BookingID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid booking ID format %s", utils.ErrValidation, req.BookingID)
	}

	booking, err := s.repo.Booking.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get booking %s: %w", req.BookingID, err)
	}
	if booking == nil {
		return nil, fmt.Errorf("booking %s: %w", req.BookingID, utils.ErrNotFound)
	}

	if booking.Status != entity.BookingStatusCreated {
		return nil, fmt.Errorf("%w: booking %s is %s, only created bookings accept payment",
			utils.ErrConflict, req.BookingID, booking.Status)
	}

	if !amountsMatch(req.Amount, booking.TotalAmount) {
		return nil, fmt.Errorf("%w: payment amount %.2f does not match booking total %.2f",
			utils.ErrValidation, req.Amount, booking.TotalAmount)
	}

	payment, err := s.repo.Payment.FindByBookingID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get payment for booking %s: %w", req.BookingID, err)
	}
	if payment != nil {
		// A completed payment on a still-created booking means an earlier
		// attempt recorded the money but failed to flip the status. Resume
		// that confirmation instead of refusing forever.
		if payment.Status != entity.PaymentStatusCompleted || !amountsMatch(payment.Amount, booking.TotalAmount) {
			return nil, fmt.Errorf("%w: booking %s already has a payment", utils.ErrConflict, req.BookingID)
		}
		s.log.Warn("Resuming confirmation for already-paid booking",
			zap.String("booking_id", req.BookingID),
			zap.String("payment_id", payment.ID.String()),
		)
	} else {
		now := time.Now()
		payment = &entity.Payment{
			Base: entity.Base{
				ID:        uuid.New(),
				CreatedAt: now,
				UpdatedAt: now,
			},
			BookingID:     id,
			Amount:        req.Amount,
			Status:        entity.PaymentStatusCompleted,
			TransactionID: req.TransactionID,
		}

		if err := s.repo.Payment.Create(ctx, payment); err != nil {
			return nil, fmt.Errorf("create payment for booking %s: %w", req.BookingID, err)
		}
	}

	if err := s.repo.Booking.UpdateStatus(ctx, id, entity.BookingStatusConfirmed); err != nil {
		return nil, fmt.Errorf("confirm booking %s: %w", req.BookingID, err)
	}
	booking.Status = entity.BookingStatusConfirmed

	s.log.Info("Payment processed",
		zap.String("booking_id", req.BookingID),
		zap.String("payment_id", payment.ID.String()),
		zap.Float64("amount", payment.Amount),
	)

	passengers, err := s.repo.Passenger.FindByBookingID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get passengers for booking %s: %w", req.BookingID, err)
	}

	return s.assembleBooking(ctx, booking, passengers)
}

// amountsMatch compares money values with a sub-cent tolerance so float64
// noise from the price multiplication cannot reject a correct payment.
func amountsMatch(a, b float64) bool {
	return math.Abs(a-b) < 0.005
}

// releaseBookingSeats hands every seat held by the booking's passengers back
// to the allocator, keyed on each passenger's own binding. A seat the
// passenger no longer holds (released at cancellation, possibly reserved
// again since) is left untouched.
func (s *bookingService) releaseBookingSeats(ctx context.Context, passengers []*entity.Passenger) error {
	var bindings []SeatBinding
	for _, p := range passengers {
		if p.SeatID != nil {
			bindings = append(bindings, SeatBinding{SeatID: *p.SeatID, PassengerID: p.ID})
		}
	}
	if len(bindings) == 0 {
		return nil
	}
	return s.allocator.Release(ctx, bindings)
}

func (s *bookingService) invalidateSeatCache(ctx context.Context, runID uuid.UUID) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, seatCacheKey(runID)).Err(); err != nil {
		s.log.Warn("Seat map cache invalidation failed",
			zap.Error(err),
			zap.String("run_id", runID.String()),
		)
	}
}

func (s *bookingService) assembleBooking(ctx context.Context, booking *entity.Booking, passengers []*entity.Passenger) (*response.BookingResponse, error) {
	passengerResponses := make([]response.PassengerResponse, len(passengers))
	for i, p := range passengers {
		var seatNumber *string
		if p.SeatID != nil {
			seat, err := s.repo.Seat.FindByID(ctx, *p.SeatID)
			if err != nil {
				s.log.Warn("Failed to resolve seat for passenger",
					zap.Error(err),
					zap.String("passenger_id", p.ID.String()),
				)
			} else if seat != nil {
				seatNumber = &seat.SeatNumber
			}
		}
		passengerResponses[i] = response.PassengerToResponse(p, seatNumber)
	}

	var paymentResponse *response.PaymentResponse
	payment, err := s.repo.Payment.FindByBookingID(ctx, booking.ID)
	if err != nil {
		s.log.Warn("Failed to get payment for booking",
			zap.Error(err),
			zap.String("booking_id", booking.ID.String()),
		)
	} else if payment != nil {
		pr := response.PaymentToResponse(payment)
		paymentResponse = &pr
	}

	resp := response.BookingToResponse(booking, passengerResponses, paymentResponse)
	return &resp, nil
}

func (s *bookingService) assembleBookingPage(ctx context.Context, bookings []*entity.Booking, page *request.PaginatedRequest, total int64) (*response.PaginatedResponse[response.BookingResponse], error) {
	bookingResponses := make([]response.BookingResponse, len(bookings))
	for i, booking := range bookings {
		passengers, err := s.repo.Passenger.FindByBookingID(ctx, booking.ID)
		if err != nil {
			return nil, fmt.Errorf("get passengers for booking %s: %w", booking.ID.String(), err)
		}
		resp, err := s.assembleBooking(ctx, booking, passengers)
		if err != nil {
			return nil, err
		}
		bookingResponses[i] = *resp
	}

	return response.NewPaginatedResponse(bookingResponses, page.Page, page.PerPage, total), nil
}

