package usecase

import (
	"bus-booking/internal/data/repository"
	"bus-booking/pkg/utils"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Service struct {
	Run     RunService
	Booking BookingService
}

// NewService wires the allocator into the booking service. rdb may be nil,
// in which case seat map caching is disabled.
func NewService(repo *repository.Repository, rdb *redis.Client, config *utils.Config, log *zap.Logger) *Service {
	allocator := NewSeatAllocator(repo.Seat, log)

	return &Service{
		Run:     NewRunService(repo, rdb, config, log),
		Booking: NewBookingService(repo, allocator, rdb, log),
	}
}
