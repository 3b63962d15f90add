package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"stayhub/internal/domain"
)

// The source system expressed these rules as database triggers. Here they
// are explicit hooks: named functions the write paths call inside the same
// transaction as the triggering mutation.

func reservationDates(ctx context.Context, tx *sql.Tx, reservationID int64) (time.Time, *time.Time, error) {
	var start time.Time
	var end sql.NullTime
	if err := tx.QueryRowContext(ctx, reservationDatesSQL, reservationID).Scan(&start, &end); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, nil, domain.ErrReservationNotFound
		}
		return time.Time{}, nil, fmt.Errorf("reservation dates: %w", err)
	}
	return start, timePtr(end), nil
}

// guardRoomAmount is the pre-write capacity check for a room link. It locks
// the room type row, so concurrent bookings of the same type serialize
// behind it, then compares the requested amount with the rooms still free
// over the reservation's own date range. The committed sum is a locking
// read: after waiting on the row lock it must observe the links committed
// by whoever held it, not the transaction's pinned snapshot. A write that
// does not change the stored amount bypasses the check: the committed sum
// already contains that figure and would reject it against itself.
func guardRoomAmount(ctx context.Context, tx *sql.Tx, reservationID, roomTypeID int64, amount int, start time.Time, end *time.Time) error {
	var inv sql.NullInt64
	if err := tx.QueryRowContext(ctx, lockRoomInventorySQL, roomTypeID).Scan(&inv); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrRoomTypeNotFound
		}
		return fmt.Errorf("lock room type %d: %w", roomTypeID, err)
	}

	var cur sql.NullInt64
	err := tx.QueryRowContext(ctx, currentAmountSQL, reservationID, roomTypeID).Scan(&cur)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("current amount: %w", err)
	}
	if !domain.AmountChanging(intPtr(cur), amount) {
		return nil
	}

	var committed int
	if end != nil {
		err = tx.QueryRowContext(ctx, committedRoomsLockedSQL, roomTypeID, *end, start).Scan(&committed)
	} else {
		err = tx.QueryRowContext(ctx, committedRoomsOpenLockedSQL, roomTypeID, start).Scan(&committed)
	}
	if err != nil {
		return fmt.Errorf("committed rooms: %w", err)
	}

	free := domain.RoomsFree(intPtr(inv), committed)
	if free == nil {
		// Unmanaged inventory: there is no figure to enforce against.
		return nil
	}
	if *free < amount {
		return &domain.OverbookingError{RoomTypeID: roomTypeID, Requested: amount, Available: *free}
	}
	return nil
}

// grantFreeServices links every zero-priced service to the reservation.
// Returns the number of links actually created; existing links are skipped.
func grantFreeServices(ctx context.Context, tx *sql.Tx, reservationID int64) (int64, error) {
	res, err := tx.ExecContext(ctx, grantFreeServicesSQL, reservationID)
	if err != nil {
		return 0, fmt.Errorf("grant free services: %w", err)
	}
	return res.RowsAffected()
}

// archiveReservation snapshots the reservation into the archive before the
// delete. Zero rows copied means there was nothing to delete.
func archiveReservation(ctx context.Context, tx *sql.Tx, reservationID int64) error {
	res, err := tx.ExecContext(ctx, archiveReservationSQL, reservationID)
	if err != nil {
		return fmt.Errorf("archive reservation %d: %w", reservationID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrReservationNotFound
	}
	return nil
}
