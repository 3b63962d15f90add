package domain

import (
	"context"
	"time"
)

// ReservationStore is the persistence port. Every mutation below runs as a
// single transaction: the availability check, the free-service grant and
// the archival snapshot are never separated from the write that triggers
// them.
type ReservationStore interface {
	// Write paths
	CreateClient(ctx context.Context, c Client) (int64, error)
	CreateReservation(ctx context.Context, r Reservation) (int64, error)
	AddReservationRoom(ctx context.Context, reservationID, roomTypeID int64, amount *int) error
	AddReservationService(ctx context.Context, reservationID, serviceID int64) error
	SetFreeIncluded(ctx context.Context, reservationID int64, included bool) (granted int64, err error)
	DeleteReservation(ctx context.Context, reservationID int64) error

	// Read paths
	AvailableRooms(ctx context.Context, roomTypeID int64, from, to time.Time) (*int, error)
	TotalCost(ctx context.Context, reservationID int64) (*float64, error)
	GetReservation(ctx context.Context, reservationID int64) (ReservationView, error)
	ListArchive(ctx context.Context, limit int) ([]ArchiveReservation, error)

	// Catalog paths (seeding and lookups)
	UpsertRoomType(ctx context.Context, rt RoomType) error
	UpsertService(ctx context.Context, s Service) error
	UpsertStaff(ctx context.Context, st Staff) error
	LinkStaffService(ctx context.Context, link StaffService) error
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}
