package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across the store and the services. Handlers
// translate them into HTTP statuses; nothing below the adapter layer
// knows about HTTP.
var (
	ErrNotFound            = errors.New("not found")
	ErrClientNotFound      = errors.New("client not found")
	ErrReservationNotFound = errors.New("reservation not found")
	ErrRoomTypeNotFound    = errors.New("room type not found")
	ErrServiceNotFound     = errors.New("service not found")
	ErrDuplicatePassport   = errors.New("passport number already registered")
)

// OverbookingError rejects a room-link write that would exceed the room
// type's inventory for the reservation's date range. Carries enough to
// tell the caller how short the request fell.
type OverbookingError struct {
	RoomTypeID int64
	Requested  int
	Available  int
}

func (e *OverbookingError) Error() string {
	return fmt.Sprintf("overbooking room type %d: requested %d, available %d",
		e.RoomTypeID, e.Requested, e.Available)
}

// Shortfall is how many rooms were missing to satisfy the request.
func (e *OverbookingError) Shortfall() int { return e.Requested - e.Available }
