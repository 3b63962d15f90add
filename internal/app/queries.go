package app

import (
	"context"
	"fmt"
	"time"

	"stayhub/internal/domain"
)

type QueryService struct {
	store    domain.ReservationStore
	cache    domain.Cache
	cacheTTL time.Duration
}

func NewQueryService(store domain.ReservationStore, cache domain.Cache, ttl time.Duration) *QueryService {
	return &QueryService{store: store, cache: cache, cacheTTL: ttl}
}

// GetAvailableRooms always hits the store: availability feeds booking
// decisions and must reflect the latest committed state, so it is the one
// read that is never cached.
func (s *QueryService) GetAvailableRooms(ctx context.Context, roomTypeID int64, from, to time.Time) (*int, error) {
	return s.store.AvailableRooms(ctx, roomTypeID, from, to)
}

func (s *QueryService) GetTotalCost(ctx context.Context, reservationID int64) (*float64, error) {
	key := fmt.Sprintf("cost:%d", reservationID)
	var cached *float64
	if ok, _ := s.cache.Get(ctx, key, &cached); ok {
		return cached, nil
	}
	total, err := s.store.TotalCost(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	_ = s.cache.Set(ctx, key, total, int(s.cacheTTL.Seconds()))
	return total, nil
}

func (s *QueryService) GetReservation(ctx context.Context, reservationID int64) (domain.ReservationView, error) {
	key := fmt.Sprintf("reservation:%d", reservationID)
	var v domain.ReservationView
	if ok, _ := s.cache.Get(ctx, key, &v); ok {
		return v, nil
	}
	v, err := s.store.GetReservation(ctx, reservationID)
	if err != nil {
		return domain.ReservationView{}, err
	}
	// copy link slices so callers mutating the result cannot poison the cache
	_ = s.cache.Set(ctx, key, deepCopyView(v), int(s.cacheTTL.Seconds()))
	return v, nil
}

func (s *QueryService) ListArchive(ctx context.Context, limit int) ([]domain.ArchiveReservation, error) {
	return s.store.ListArchive(ctx, limit)
}

func deepCopyView(in domain.ReservationView) domain.ReservationView {
	out := in
	if n := len(in.Rooms); n > 0 {
		out.Rooms = make([]domain.ReservationRoomType, n)
		copy(out.Rooms, in.Rooms)
	}
	if n := len(in.Services); n > 0 {
		out.Services = make([]domain.ReservationService, n)
		copy(out.Services, in.Services)
	}
	return out
}
