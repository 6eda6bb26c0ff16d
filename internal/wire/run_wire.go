package wire

import (
	"bus-booking/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wireRun(r chi.Router, runHandler *adaptor.RunHandler) {
	// ==================== PUBLIC ROUTES ====================
	// GET /api/runs - List runs with availability
	r.Get("/api/runs", runHandler.GetRuns)

	// GET /api/runs/{id} - Run details with availability
	r.Get("/api/runs/{id}", runHandler.GetRunByID)

	// GET /api/runs/{id}/seats - Seat grid for seat selection
	r.Get("/api/runs/{id}/seats", runHandler.GetSeatMap)

	// ==================== ADMIN ROUTES ====================
	r.Route("/api/admin/runs", func(r chi.Router) {
		// POST /api/admin/runs - Create run and seed its seat inventory
		r.Post("/", runHandler.CreateRun)

		// PUT /api/admin/runs/{id} - Update run metadata (layout is fixed)
		r.Put("/{id}", runHandler.UpdateRun)

		// DELETE /api/admin/runs/{id} - Delete run without active bookings
		r.Delete("/{id}", runHandler.DeleteRun)
	})
}
