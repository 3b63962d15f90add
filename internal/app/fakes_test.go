package app_test

import (
	"context"
	"time"

	"stayhub/internal/domain"
)

// ---- fakes ----

type fakeStore struct {
	view    domain.ReservationView
	cost    *float64
	avail   *int
	archive []domain.ArchiveReservation

	addRoomErr error
	granted    int64
	deleteErr  error

	addRoomCalls int
	deleteCalls  int
}

func (f *fakeStore) CreateClient(ctx context.Context, c domain.Client) (int64, error) { return 1, nil }
func (f *fakeStore) CreateReservation(ctx context.Context, r domain.Reservation) (int64, error) {
	return 1, nil
}
func (f *fakeStore) AddReservationRoom(ctx context.Context, reservationID, roomTypeID int64, amount *int) error {
	f.addRoomCalls++
	return f.addRoomErr
}
func (f *fakeStore) AddReservationService(ctx context.Context, reservationID, serviceID int64) error {
	return nil
}
func (f *fakeStore) SetFreeIncluded(ctx context.Context, reservationID int64, included bool) (int64, error) {
	return f.granted, nil
}
func (f *fakeStore) DeleteReservation(ctx context.Context, reservationID int64) error {
	f.deleteCalls++
	return f.deleteErr
}
func (f *fakeStore) AvailableRooms(ctx context.Context, roomTypeID int64, from, to time.Time) (*int, error) {
	return f.avail, nil
}
func (f *fakeStore) TotalCost(ctx context.Context, reservationID int64) (*float64, error) {
	return f.cost, nil
}
func (f *fakeStore) GetReservation(ctx context.Context, reservationID int64) (domain.ReservationView, error) {
	return f.view, nil
}
func (f *fakeStore) ListArchive(ctx context.Context, limit int) ([]domain.ArchiveReservation, error) {
	return f.archive, nil
}
func (f *fakeStore) UpsertRoomType(ctx context.Context, rt domain.RoomType) error   { return nil }
func (f *fakeStore) UpsertService(ctx context.Context, s domain.Service) error      { return nil }
func (f *fakeStore) UpsertStaff(ctx context.Context, st domain.Staff) error         { return nil }
func (f *fakeStore) LinkStaffService(ctx context.Context, l domain.StaffService) error {
	return nil
}

type fakeCache struct {
	store map[string]any
	dels  []string
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	if c.store == nil {
		return false, nil
	}
	v, ok := c.store[key]
	if !ok {
		return false, nil
	}
	switch d := dst.(type) {
	case *domain.ReservationView:
		*d = v.(domain.ReservationView)
	case **float64:
		*d = v.(*float64)
	}
	return true, nil
}
func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	if c.store == nil {
		c.store = map[string]any{}
	}
	c.store[key] = v
	return nil
}
func (c *fakeCache) Del(ctx context.Context, key string) error {
	c.dels = append(c.dels, key)
	delete(c.store, key)
	return nil
}

func ptr[T any](v T) *T { return &v }
