package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"stayhub/internal/adapters/observability"
	"stayhub/internal/domain"
)

// BookingService owns every mutation of reservations and their links. The
// store runs each mutation in its own transaction with the consistency
// hooks inside; this layer adds cache invalidation, metrics and logging.
type BookingService struct {
	store domain.ReservationStore
	cache domain.Cache
}

func NewBookingService(store domain.ReservationStore, cache domain.Cache) *BookingService {
	return &BookingService{store: store, cache: cache}
}

func (s *BookingService) RegisterClient(ctx context.Context, c domain.Client) (int64, error) {
	id, err := s.store.CreateClient(ctx, c)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicatePassport) {
			log.Warn().Str("passport", c.PassportNumber).Msg("duplicate passport rejected")
		}
		return 0, err
	}
	log.Info().Int64("client_id", id).Msg("client registered")
	return id, nil
}

func (s *BookingService) CreateReservation(ctx context.Context, r domain.Reservation) (int64, error) {
	id, err := s.store.CreateReservation(ctx, r)
	if err != nil {
		return 0, err
	}
	log.Info().Int64("reservation_id", id).Int64("client_id", r.ClientID).Msg("reservation created")
	return id, nil
}

// AddReservationRoom books rooms of a type onto a reservation. The store
// rejects the write with *domain.OverbookingError when the amount exceeds
// the rooms free over the reservation's date range.
func (s *BookingService) AddReservationRoom(ctx context.Context, reservationID, roomTypeID int64, amount *int) error {
	err := s.store.AddReservationRoom(ctx, reservationID, roomTypeID, amount)
	var ob *domain.OverbookingError
	switch {
	case err == nil:
		observability.ObserveBooking("accepted")
		s.invalidateReservation(ctx, reservationID)
	case errors.As(err, &ob):
		observability.ObserveBooking("overbooked")
		log.Warn().
			Int64("reservation_id", reservationID).
			Int64("room_type_id", ob.RoomTypeID).
			Int("requested", ob.Requested).
			Int("available", ob.Available).
			Msg("booking rejected")
	case errors.Is(err, domain.ErrReservationNotFound) || errors.Is(err, domain.ErrRoomTypeNotFound):
		observability.ObserveBooking("referential")
	}
	return err
}

func (s *BookingService) AddReservationService(ctx context.Context, reservationID, serviceID int64) error {
	if err := s.store.AddReservationService(ctx, reservationID, serviceID); err != nil {
		return err
	}
	s.invalidateReservation(ctx, reservationID)
	return nil
}

// SetFreeIncluded writes the flag; on a transition to true the store grants
// every complimentary service in the same transaction. Returns how many
// links the transition created.
func (s *BookingService) SetFreeIncluded(ctx context.Context, reservationID int64, included bool) (int64, error) {
	granted, err := s.store.SetFreeIncluded(ctx, reservationID, included)
	if err != nil {
		return 0, err
	}
	if granted > 0 {
		observability.ObserveGrants(granted)
		log.Info().Int64("reservation_id", reservationID).Int64("granted", granted).Msg("free services granted")
	}
	s.invalidateReservation(ctx, reservationID)
	return granted, nil
}

// DeleteReservation archives the reservation and removes it with its links.
// The store makes both halves atomic; a failed archive means nothing was
// deleted.
func (s *BookingService) DeleteReservation(ctx context.Context, reservationID int64) error {
	if err := s.store.DeleteReservation(ctx, reservationID); err != nil {
		return err
	}
	observability.ObserveArchive()
	log.Info().Int64("reservation_id", reservationID).Msg("reservation archived and deleted")
	s.invalidateReservation(ctx, reservationID)
	return nil
}

func (s *BookingService) invalidateReservation(ctx context.Context, reservationID int64) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Del(ctx, fmt.Sprintf("cost:%d", reservationID))
	_ = s.cache.Del(ctx, fmt.Sprintf("reservation:%d", reservationID))
}
