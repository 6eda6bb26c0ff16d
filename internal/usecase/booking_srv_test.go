package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"bus-booking/internal/data/entity"
	"bus-booking/internal/dto/request"
	"bus-booking/pkg/utils"

	"github.com/go-redis/redismock/v9"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newBookingService(tr *testRepos) BookingService {
	log := zap.NewNop()
	allocator := NewSeatAllocator(tr.seats, log)
	return NewBookingService(tr.repo, allocator, nil, log)
}

func strPtr(s string) *string { return &s }

func bookingRequest(runID uuid.UUID, seatNumbers ...string) *request.CreateBookingRequest {
	req := &request.CreateBookingRequest{
		RunID:         runID.String(),
		OwnerID:       uuid.New().String(),
		BoardingPoint: "Majestic",
		DroppingPoint: "Koyambedu",
	}
	for i, sn := range seatNumbers {
		p := request.PassengerRequest{Name: fmt.Sprintf("Passenger %d", i+1)}
		if sn != "" {
			p.SeatNumber = strPtr(sn)
		}
		req.Passengers = append(req.Passengers, p)
	}
	return req
}

func TestCreateBooking_BillsPerSeatedPassenger(t *testing.T) {
	tr := newTestRepos()
	run := tr.seedRun(3, 2, 500)
	svc := newBookingService(tr)

	resp, err := svc.CreateBooking(context.Background(), bookingRequest(run.ID, "R1C1", "R1C2", "R2C1"))

	require.NoError(t, err)
	assert.Equal(t, entity.BookingStatusCreated, resp.Status)
	assert.Equal(t, 3, resp.TotalSeats)
	assert.Equal(t, 1500.0, resp.TotalAmount)
	require.Len(t, resp.Passengers, 3)
	for _, p := range resp.Passengers {
		assert.NotNil(t, p.SeatNumber)
	}

	available, _ := tr.seats.CountAvailableByRunID(context.Background(), run.ID)
	assert.EqualValues(t, 3, available)
}

func TestCreateBooking_UnseatedPassengerIsNotBilled(t *testing.T) {
	tr := newTestRepos()
	run := tr.seedRun(2, 2, 500)
	svc := newBookingService(tr)

	// Second passenger rides without a seat assignment
	resp, err := svc.CreateBooking(context.Background(), bookingRequest(run.ID, "R1C1", ""))

	require.NoError(t, err)
	assert.Equal(t, 1, resp.TotalSeats)
	assert.Equal(t, 500.0, resp.TotalAmount)
	require.Len(t, resp.Passengers, 2)

	var seated, unseated int
	for _, p := range resp.Passengers {
		if p.SeatNumber != nil {
			seated++
		} else {
			unseated++
		}
	}
	assert.Equal(t, 1, seated)
	assert.Equal(t, 1, unseated)
}

func TestCreateBooking_DuplicateSeatRejected(t *testing.T) {
	tr := newTestRepos()
	run := tr.seedRun(2, 2, 500)
	svc := newBookingService(tr)

	_, err := svc.CreateBooking(context.Background(), bookingRequest(run.ID, "R1C1", "R1C1"))

	require.Error(t, err)
	assert.ErrorIs(t, err, utils.ErrValidation)

	total, _ := tr.bookings.CountAll(context.Background())
	assert.EqualValues(t, 0, total)
	available, _ := tr.seats.CountAvailableByRunID(context.Background(), run.ID)
	assert.EqualValues(t, 4, available)
}

func TestCreateBooking_TakenSeatLeavesNoTrace(t *testing.T) {
	tr := newTestRepos()
	run := tr.seedRun(2, 2, 500)
	svc := newBookingService(tr)

	_, err := svc.CreateBooking(context.Background(), bookingRequest(run.ID, "R2C2"))
	require.NoError(t, err)

	// Second booking wants an available seat and the taken one
	_, err = svc.CreateBooking(context.Background(), bookingRequest(run.ID, "R1C1", "R2C2"))

	require.Error(t, err)
	assert.ErrorIs(t, err, utils.ErrConflict)

	total, _ := tr.bookings.CountAll(context.Background())
	assert.EqualValues(t, 1, total)

	seat, _ := tr.seats.FindByRunAndNumber(context.Background(), run.ID, "R1C1")
	assert.Equal(t, entity.SeatStatusAvailable, seat.Status)
}

func TestCreateBooking_PersistenceFailureReleasesSeats(t *testing.T) {
	tr := newTestRepos()
	run := tr.seedRun(2, 2, 500)
	svc := newBookingService(tr)

	tr.bookings.createErr = errors.New("connection reset")

	_, err := svc.CreateBooking(context.Background(), bookingRequest(run.ID, "R1C1", "R1C2"))

	require.Error(t, err)
	available, _ := tr.seats.CountAvailableByRunID(context.Background(), run.ID)
	assert.EqualValues(t, 4, available, "reserved seats must be released when the booking fails to persist")
}

func TestCreateBooking_DepartedRunRejected(t *testing.T) {
	tr := newTestRepos()
	run := tr.seedRun(2, 2, 500)
	run.DepartureTime = time.Now().Add(-2 * time.Hour)
	require.NoError(t, tr.runs.Update(context.Background(), run))
	svc := newBookingService(tr)

	_, err := svc.CreateBooking(context.Background(), bookingRequest(run.ID, "R1C1"))

	require.Error(t, err)
	assert.ErrorIs(t, err, utils.ErrConflict)
}

func TestCreateBooking_UnknownRun(t *testing.T) {
	tr := newTestRepos()
	svc := newBookingService(tr)

	_, err := svc.CreateBooking(context.Background(), bookingRequest(uuid.New(), "R1C1"))

	require.Error(t, err)
	assert.ErrorIs(t, err, utils.ErrNotFound)
}

func TestCreateBooking_InvalidatesSeatMapCache(t *testing.T) {
	tr := newTestRepos()
	run := tr.seedRun(2, 2, 500)

	rdb, mock := redismock.NewClientMock()
	mock.ExpectDel(fmt.Sprintf("seats:%s", run.ID.String())).SetVal(1)

	log := zap.NewNop()
	svc := NewBookingService(tr.repo, NewSeatAllocator(tr.seats, log), rdb, log)

	_, err := svc.CreateBooking(context.Background(), bookingRequest(run.ID, "R1C1"))

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelBooking_ReleasesSeatsForRebooking(t *testing.T) {
	tr := newTestRepos()
	run := tr.seedRun(2, 2, 500)
	svc := newBookingService(tr)

	created, err := svc.CreateBooking(context.Background(), bookingRequest(run.ID, "R1C1", "R1C2"))
	require.NoError(t, err)

	cancelled, err := svc.CancelBooking(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.BookingStatusCancelled, cancelled.Status)

	// Same seats can be booked again
	rebooked, err := svc.CreateBooking(context.Background(), bookingRequest(run.ID, "R1C1", "R1C2"))
	require.NoError(t, err)
	assert.Equal(t, 2, rebooked.TotalSeats)
}

func TestCancelBooking_ProceedsWhenReleaseFails(t *testing.T) {
	tr := newTestRepos()
	run := tr.seedRun(2, 2, 500)
	svc := newBookingService(tr)

	created, err := svc.CreateBooking(context.Background(), bookingRequest(run.ID, "R1C1"))
	require.NoError(t, err)

	tr.seats.releaseErr = errors.New("connection reset")

	cancelled, err := svc.CancelBooking(context.Background(), created.ID)

	// The booking must not stay active because the seat store was unreachable
	require.NoError(t, err)
	assert.Equal(t, entity.BookingStatusCancelled, cancelled.Status)
}

func TestCancelBooking_AlreadyCancelled(t *testing.T) {
	tr := newTestRepos()
	run := tr.seedRun(2, 2, 500)
	svc := newBookingService(tr)

	created, err := svc.CreateBooking(context.Background(), bookingRequest(run.ID, "R1C1"))
	require.NoError(t, err)

	_, err = svc.CancelBooking(context.Background(), created.ID)
	require.NoError(t, err)

	_, err = svc.CancelBooking(context.Background(), created.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, utils.ErrConflict)
}

func TestDeleteBooking_AfterCancelAndRebookKeepsNewHolder(t *testing.T) {
	tr := newTestRepos()
	run := tr.seedRun(2, 2, 500)
	svc := newBookingService(tr)

	first, err := svc.CreateBooking(context.Background(), bookingRequest(run.ID, "R1C1"))
	require.NoError(t, err)

	_, err = svc.CancelBooking(context.Background(), first.ID)
	require.NoError(t, err)

	// The freed seat is sold again before the cancelled booking is purged
	second, err := svc.CreateBooking(context.Background(), bookingRequest(run.ID, "R1C1"))
	require.NoError(t, err)

	require.NoError(t, svc.DeleteBooking(context.Background(), first.ID))

	// The stale booking's passenger binding must not free the resold seat
	seat, _ := tr.seats.FindByRunAndNumber(context.Background(), run.ID, "R1C1")
	assert.Equal(t, entity.SeatStatusReserved, seat.Status)
	require.NotNil(t, seat.PassengerID)

	kept, err := svc.GetBookingByID(context.Background(), second.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.BookingStatusCreated, kept.Status)

	// And the seat is still not sellable a second time
	_, err = svc.CreateBooking(context.Background(), bookingRequest(run.ID, "R1C1"))
	require.Error(t, err)
	assert.ErrorIs(t, err, utils.ErrConflict)
}

func TestDeleteBooking_RemovesGraphAndFreesSeats(t *testing.T) {
	tr := newTestRepos()
	run := tr.seedRun(2, 2, 500)
	svc := newBookingService(tr)

	created, err := svc.CreateBooking(context.Background(), bookingRequest(run.ID, "R1C1", "R1C2"))
	require.NoError(t, err)

	require.NoError(t, svc.DeleteBooking(context.Background(), created.ID))

	total, _ := tr.bookings.CountAll(context.Background())
	assert.EqualValues(t, 0, total)

	passengers, _ := tr.pax.FindByBookingID(context.Background(), uuid.MustParse(created.ID))
	assert.Empty(t, passengers)

	available, _ := tr.seats.CountAvailableByRunID(context.Background(), run.ID)
	assert.EqualValues(t, 4, available)
}

func TestProcessPayment_ConfirmsBooking(t *testing.T) {
	tr := newTestRepos()
	run := tr.seedRun(2, 2, 500)
	svc := newBookingService(tr)

	created, err := svc.CreateBooking(context.Background(), bookingRequest(run.ID, "R1C1", "R1C2"))
	require.NoError(t, err)

	resp, err := svc.ProcessPayment(context.Background(), &request.ProcessPaymentRequest{
		BookingID: created.ID,
		Amount:    1000,
	})

	require.NoError(t, err)
	assert.Equal(t, entity.BookingStatusConfirmed, resp.Status)
	require.NotNil(t, resp.Payment)
	assert.Equal(t, entity.PaymentStatusCompleted, resp.Payment.Status)
	assert.Equal(t, 1000.0, resp.Payment.Amount)
}

func TestProcessPayment_RetryAfterStatusFlipFailure(t *testing.T) {
	tr := newTestRepos()
	run := tr.seedRun(2, 2, 500)
	svc := newBookingService(tr)

	created, err := svc.CreateBooking(context.Background(), bookingRequest(run.ID, "R1C1"))
	require.NoError(t, err)

	// Payment row lands but the confirm write fails
	tr.bookings.updateStatusErr = errors.New("connection reset")
	_, err = svc.ProcessPayment(context.Background(), &request.ProcessPaymentRequest{
		BookingID: created.ID,
		Amount:    500,
	})
	require.Error(t, err)

	// The retry must pick up the recorded payment and finish the confirmation
	tr.bookings.updateStatusErr = nil
	resp, err := svc.ProcessPayment(context.Background(), &request.ProcessPaymentRequest{
		BookingID: created.ID,
		Amount:    500,
	})

	require.NoError(t, err)
	assert.Equal(t, entity.BookingStatusConfirmed, resp.Status)
	require.NotNil(t, resp.Payment)
	assert.Equal(t, 500.0, resp.Payment.Amount)
}

func TestProcessPayment_ToleratesFloatNoise(t *testing.T) {
	tr := newTestRepos()
	run := tr.seedRun(3, 2, 500)
	svc := newBookingService(tr)

	created, err := svc.CreateBooking(context.Background(), bookingRequest(run.ID, "R1C1", "R1C2", "R2C1"))
	require.NoError(t, err)

	resp, err := svc.ProcessPayment(context.Background(), &request.ProcessPaymentRequest{
		BookingID: created.ID,
		Amount:    1500.0000000001,
	})

	require.NoError(t, err)
	assert.Equal(t, entity.BookingStatusConfirmed, resp.Status)
}

func TestProcessPayment_AmountMustMatchTotal(t *testing.T) {
	tr := newTestRepos()
	run := tr.seedRun(2, 2, 500)
	svc := newBookingService(tr)

	created, err := svc.CreateBooking(context.Background(), bookingRequest(run.ID, "R1C1"))
	require.NoError(t, err)

	_, err = svc.ProcessPayment(context.Background(), &request.ProcessPaymentRequest{
		BookingID: created.ID,
		Amount:    123,
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, utils.ErrValidation)
}

func TestProcessPayment_RejectsNonCreatedBooking(t *testing.T) {
	tr := newTestRepos()
	run := tr.seedRun(2, 2, 500)
	svc := newBookingService(tr)

	created, err := svc.CreateBooking(context.Background(), bookingRequest(run.ID, "R1C1"))
	require.NoError(t, err)

	_, err = svc.ProcessPayment(context.Background(), &request.ProcessPaymentRequest{
		BookingID: created.ID,
		Amount:    500,
	})
	require.NoError(t, err)

	// Paying a confirmed booking again is a conflict
	_, err = svc.ProcessPayment(context.Background(), &request.ProcessPaymentRequest{
		BookingID: created.ID,
		Amount:    500,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, utils.ErrConflict)
}

func TestGetUserBookings(t *testing.T) {
	tr := newTestRepos()
	run := tr.seedRun(3, 2, 500)
	svc := newBookingService(tr)

	req := bookingRequest(run.ID, "R1C1")
	_, err := svc.CreateBooking(context.Background(), req)
	require.NoError(t, err)

	other := bookingRequest(run.ID, "R1C2")
	_, err = svc.CreateBooking(context.Background(), other)
	require.NoError(t, err)

	page := &request.PaginatedRequest{Page: 1, PerPage: 10}
	resp, err := svc.GetUserBookings(context.Background(), req.OwnerID, page)

	require.NoError(t, err)
	require.Len(t, resp.Data, 1)
	assert.EqualValues(t, 1, resp.Pagination.Total)
	assert.Equal(t, req.OwnerID, resp.Data[0].UserID)
}
