package wire

import (
	"bus-booking/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wireBooking(r chi.Router, bookingHandler *adaptor.BookingHandler) {
	// ==================== PUBLIC ROUTES ====================
	// POST /api/bookings - Create booking with seat selection
	r.Post("/api/bookings", bookingHandler.CreateBooking)

	// GET /api/bookings/{id} - Booking details with passengers and payment
	r.Get("/api/bookings/{id}", bookingHandler.GetBookingByID)

	// PUT /api/bookings/{id}/cancel - Cancel booking and release its seats
	r.Put("/api/bookings/{id}/cancel", bookingHandler.CancelBooking)

	// GET /api/users/{id}/bookings - Booking history for one user
	r.Get("/api/users/{id}/bookings", bookingHandler.GetUserBookings)

	// POST /api/pay - Record payment and confirm the booking
	r.Post("/api/pay", bookingHandler.ProcessPayment)

	// ==================== ADMIN ROUTES ====================
	r.Route("/api/admin/bookings", func(r chi.Router) {
		// GET /api/admin/bookings - List all bookings
		r.Get("/", bookingHandler.GetAllBookings)

		// DELETE /api/admin/bookings/{id} - Remove booking and free its seats
		r.Delete("/{id}", bookingHandler.DeleteBooking)
	})
}
