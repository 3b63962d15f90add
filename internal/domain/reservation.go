package domain

import "time"

type Reservation struct {
	ID           int64
	ClientID     int64
	PaymentType  *string
	IsPaid       *bool
	FreeIncluded *bool
	DateStart    time.Time
	DateEnd      *time.Time // nil = open-ended stay
	Description  *string
}

// ArchiveReservation is the snapshot taken when a reservation is deleted.
// Append-only; payment_type and free_included are intentionally not kept.
type ArchiveReservation struct {
	ReservationID int64
	ClientID      int64
	IsPaid        *bool
	DateStart     time.Time
	DateEnd       *time.Time
	Description   *string
}

// ReservationRoomType records how many rooms of a type a reservation holds.
// Amount nil means "rooms of this type, count unspecified"; an unspecified
// amount consumes no inventory and is never capacity-checked.
type ReservationRoomType struct {
	ReservationID int64
	RoomTypeID    int64
	Amount        *int
}

type ReservationService struct {
	ReservationID int64
	ServiceID     int64
}

// ReservationView is the read model for a single reservation with its links.
type ReservationView struct {
	Reservation
	Rooms    []ReservationRoomType
	Services []ReservationService
}
