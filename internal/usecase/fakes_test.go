package usecase

import (
	"context"
	"sort"
	"sync"
	"time"

	"bus-booking/internal/data/entity"
	"bus-booking/internal/data/repository"
	"bus-booking/pkg/utils"

	"github.com/google/uuid"
)

// In-memory fakes for the repository layer. The seat fake reproduces the
// conditional-update semantics of the real store: Reserve only succeeds when
// the seat is still available, decided under one lock so concurrent callers
// race exactly like they do against the database.

type fakeSeatRepo struct {
	mu    sync.Mutex
	seats map[uuid.UUID]*entity.Seat

	reserveErr error
	releaseErr error
}

func newFakeSeatRepo() *fakeSeatRepo {
	return &fakeSeatRepo{seats: make(map[uuid.UUID]*entity.Seat)}
}

func (f *fakeSeatRepo) CreateBatch(ctx context.Context, seats []*entity.Seat) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, seat := range seats {
		copied := *seat
		f.seats[seat.ID] = &copied
	}
	return nil
}

func (f *fakeSeatRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Seat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	seat, ok := f.seats[id]
	if !ok {
		return nil, nil
	}
	copied := *seat
	return &copied, nil
}

func (f *fakeSeatRepo) FindByRunAndNumber(ctx context.Context, runID uuid.UUID, seatNumber string) (*entity.Seat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, seat := range f.seats {
		if seat.RunID == runID && seat.SeatNumber == seatNumber {
			copied := *seat
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeSeatRepo) FindByRunID(ctx context.Context, runID uuid.UUID) ([]*entity.Seat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var seats []*entity.Seat
	for _, seat := range f.seats {
		if seat.RunID == runID {
			copied := *seat
			seats = append(seats, &copied)
		}
	}
	sort.Slice(seats, func(i, j int) bool {
		if seats[i].SeatRow != seats[j].SeatRow {
			return seats[i].SeatRow < seats[j].SeatRow
		}
		return seats[i].SeatCol < seats[j].SeatCol
	})
	return seats, nil
}

func (f *fakeSeatRepo) CountAvailableByRunID(ctx context.Context, runID uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for _, seat := range f.seats {
		if seat.RunID == runID && seat.Status == entity.SeatStatusAvailable {
			count++
		}
	}
	return count, nil
}

func (f *fakeSeatRepo) Reserve(ctx context.Context, seatID, passengerID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.reserveErr != nil {
		return f.reserveErr
	}
	seat, ok := f.seats[seatID]
	if !ok {
		return utils.ErrSeatNotFound
	}
	if seat.Status != entity.SeatStatusAvailable || seat.PassengerID != nil {
		return utils.ErrSeatAlreadyAllocated
	}
	pid := passengerID
	seat.Status = entity.SeatStatusReserved
	seat.PassengerID = &pid
	return nil
}

func (f *fakeSeatRepo) Release(ctx context.Context, seatID, passengerID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.releaseErr != nil {
		return f.releaseErr
	}
	seat, ok := f.seats[seatID]
	if !ok {
		return nil
	}
	if seat.Status == entity.SeatStatusReserved && seat.PassengerID != nil && *seat.PassengerID == passengerID {
		seat.Status = entity.SeatStatusAvailable
		seat.PassengerID = nil
	}
	return nil
}

func (f *fakeSeatRepo) DeleteByRunID(ctx context.Context, runID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, seat := range f.seats {
		if seat.RunID == runID {
			delete(f.seats, id)
		}
	}
	return nil
}

func (f *fakeSeatRepo) statusOf(seatID uuid.UUID) entity.SeatStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.seats[seatID].Status
}

type fakeRunRepo struct {
	mu   sync.Mutex
	runs map[uuid.UUID]*entity.Run
}

func newFakeRunRepo() *fakeRunRepo {
	return &fakeRunRepo{runs: make(map[uuid.UUID]*entity.Run)}
}

func (f *fakeRunRepo) Create(ctx context.Context, run *entity.Run) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *run
	f.runs[run.ID] = &copied
	return nil
}

func (f *fakeRunRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Run, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	run, ok := f.runs[id]
	if !ok {
		return nil, nil
	}
	copied := *run
	return &copied, nil
}

func (f *fakeRunRepo) FindAll(ctx context.Context, limit, offset int) ([]*entity.Run, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var runs []*entity.Run
	for _, run := range f.runs {
		copied := *run
		runs = append(runs, &copied)
	}
	return runs, nil
}

func (f *fakeRunRepo) CountAll(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.runs)), nil
}

func (f *fakeRunRepo) Update(ctx context.Context, run *entity.Run) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *run
	f.runs[run.ID] = &copied
	return nil
}

func (f *fakeRunRepo) Delete(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.runs, id)
	return nil
}

type fakeBookingRepo struct {
	mu         sync.Mutex
	bookings   map[uuid.UUID]*entity.Booking
	passengers *fakePassengerRepo

	createErr       error
	updateStatusErr error
}

func newFakeBookingRepo(passengers *fakePassengerRepo) *fakeBookingRepo {
	return &fakeBookingRepo{
		bookings:   make(map[uuid.UUID]*entity.Booking),
		passengers: passengers,
	}
}

func (f *fakeBookingRepo) CreateWithPassengers(ctx context.Context, booking *entity.Booking, passengers []*entity.Passenger) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	copied := *booking
	f.bookings[booking.ID] = &copied
	f.passengers.store(passengers)
	return nil
}

func (f *fakeBookingRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	booking, ok := f.bookings[id]
	if !ok {
		return nil, nil
	}
	copied := *booking
	return &copied, nil
}

func (f *fakeBookingRepo) FindByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var bookings []*entity.Booking
	for _, booking := range f.bookings {
		if booking.UserID == userID {
			copied := *booking
			bookings = append(bookings, &copied)
		}
	}
	return bookings, nil
}

func (f *fakeBookingRepo) CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for _, booking := range f.bookings {
		if booking.UserID == userID {
			count++
		}
	}
	return count, nil
}

func (f *fakeBookingRepo) FindAll(ctx context.Context, limit, offset int) ([]*entity.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var bookings []*entity.Booking
	for _, booking := range f.bookings {
		copied := *booking
		bookings = append(bookings, &copied)
	}
	return bookings, nil
}

func (f *fakeBookingRepo) CountAll(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.bookings)), nil
}

func (f *fakeBookingRepo) CountActiveByRunID(ctx context.Context, runID uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for _, booking := range f.bookings {
		if booking.RunID == runID &&
			(booking.Status == entity.BookingStatusCreated || booking.Status == entity.BookingStatusConfirmed) {
			count++
		}
	}
	return count, nil
}

func (f *fakeBookingRepo) UpdateStatus(ctx context.Context, bookingID uuid.UUID, status entity.BookingStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateStatusErr != nil {
		return f.updateStatusErr
	}
	booking, ok := f.bookings[bookingID]
	if !ok {
		return utils.ErrNotFound
	}
	booking.Status = status
	return nil
}

func (f *fakeBookingRepo) Delete(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.bookings[id]; !ok {
		return utils.ErrNotFound
	}
	delete(f.bookings, id)
	return nil
}

type fakePassengerRepo struct {
	mu        sync.Mutex
	byBooking map[uuid.UUID][]*entity.Passenger
}

func newFakePassengerRepo() *fakePassengerRepo {
	return &fakePassengerRepo{byBooking: make(map[uuid.UUID][]*entity.Passenger)}
}

func (f *fakePassengerRepo) store(passengers []*entity.Passenger) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range passengers {
		copied := *p
		f.byBooking[p.BookingID] = append(f.byBooking[p.BookingID], &copied)
	}
}

func (f *fakePassengerRepo) FindByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*entity.Passenger, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var passengers []*entity.Passenger
	for _, p := range f.byBooking[bookingID] {
		copied := *p
		passengers = append(passengers, &copied)
	}
	return passengers, nil
}

func (f *fakePassengerRepo) DeleteByBookingID(ctx context.Context, bookingID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.byBooking, bookingID)
	return nil
}

type fakePaymentRepo struct {
	mu        sync.Mutex
	byBooking map[uuid.UUID]*entity.Payment
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{byBooking: make(map[uuid.UUID]*entity.Payment)}
}

func (f *fakePaymentRepo) Create(ctx context.Context, payment *entity.Payment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *payment
	f.byBooking[payment.BookingID] = &copied
	return nil
}

func (f *fakePaymentRepo) FindByBookingID(ctx context.Context, bookingID uuid.UUID) (*entity.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	payment, ok := f.byBooking[bookingID]
	if !ok {
		return nil, nil
	}
	copied := *payment
	return &copied, nil
}

type testRepos struct {
	repo     *repository.Repository
	seats    *fakeSeatRepo
	runs     *fakeRunRepo
	bookings *fakeBookingRepo
	pax      *fakePassengerRepo
	payments *fakePaymentRepo
}

func newTestRepos() *testRepos {
	seats := newFakeSeatRepo()
	runs := newFakeRunRepo()
	pax := newFakePassengerRepo()
	bookings := newFakeBookingRepo(pax)
	payments := newFakePaymentRepo()

	return &testRepos{
		repo: &repository.Repository{
			Run:       runs,
			Seat:      seats,
			Booking:   bookings,
			Passenger: pax,
			Payment:   payments,
		},
		seats:    seats,
		runs:     runs,
		bookings: bookings,
		pax:      pax,
		payments: payments,
	}
}

// seedRun creates a run with a full seat grid, departing in the future.
func (tr *testRepos) seedRun(rows, cols int, price float64) *entity.Run {
	now := time.Now()
	run := &entity.Run{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		BusName:       "Night Express",
		BusNumber:     "KA-01-1234",
		RouteFrom:     "Bangalore",
		RouteTo:       "Chennai",
		DepartureTime: now.Add(24 * time.Hour),
		ArrivalTime:   now.Add(30 * time.Hour),
		PricePerSeat:  price,
		SeatRows:      rows,
		SeatCols:      cols,
	}
	_ = tr.runs.Create(context.Background(), run)

	var seats []*entity.Seat
	for row := 1; row <= rows; row++ {
		for col := 1; col <= cols; col++ {
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
	_ = tr.seats.CreateBatch(context.Background(), seats)

	return run
}
