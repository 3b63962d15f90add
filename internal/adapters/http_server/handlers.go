package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"stayhub/internal/app"
	"stayhub/internal/domain"
)

const dateLayout = "2006-01-02"

type Handlers struct {
	B *app.BookingService
	Q *app.QueryService
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })

	s.mux.Post("/v1/clients", h.registerClient)
	s.mux.Post("/v1/reservations", h.createReservation)
	s.mux.Get("/v1/reservations/{id}", h.getReservation)
	s.mux.Post("/v1/reservations/{id}/rooms", h.addRoom)
	s.mux.Post("/v1/reservations/{id}/services", h.addService)
	s.mux.Get("/v1/reservations/{id}/cost", h.totalCost)
	s.mux.Patch("/v1/reservations/{id}/free-included", h.setFreeIncluded)
	s.mux.Delete("/v1/reservations/{id}", h.deleteReservation)
	s.mux.Get("/v1/room-types/{id}/availability", h.availability)
	s.mux.Get("/v1/archive/reservations", h.listArchive)
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

// writeDomainErr maps store errors onto the HTTP surface. Overbooking and
// duplicate passports are conflicts; a missing entity referenced by the
// body is unprocessable rather than 404, which is reserved for the path id.
func writeDomainErr(w http.ResponseWriter, err error) {
	var ob *domain.OverbookingError
	switch {
	case errors.As(err, &ob):
		writeProblem(w, http.StatusConflict, "Overbooking", ob.Error())
	case errors.Is(err, domain.ErrDuplicatePassport):
		writeProblem(w, http.StatusConflict, "Duplicate Passport", err.Error())
	case errors.Is(err, domain.ErrReservationNotFound):
		writeProblem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, domain.ErrClientNotFound),
		errors.Is(err, domain.ErrRoomTypeNotFound),
		errors.Is(err, domain.ErrServiceNotFound):
		writeProblem(w, http.StatusUnprocessableEntity, "Unknown Reference", err.Error())
	default:
		log.Error().Err(err).Msg("internal error")
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

// ---- clients ----

type clientRequest struct {
	Name           string  `json:"name"`
	Contact        *string `json:"contact"`
	IsTrusted      *bool   `json:"is_trusted"`
	PassportNumber string  `json:"passport_number"`
}

func (h *Handlers) registerClient(w http.ResponseWriter, r *http.Request) {
	var req clientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" || req.PassportNumber == "" {
		writeProblem(w, http.StatusBadRequest, "Invalid Body", "name and passport_number are required")
		return
	}
	id, err := h.B.RegisterClient(r.Context(), domain.Client{
		Name:           req.Name,
		Contact:        req.Contact,
		IsTrusted:      req.IsTrusted,
		PassportNumber: req.PassportNumber,
	})
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

// ---- reservations ----

type reservationRequest struct {
	ClientID     int64   `json:"client_id"`
	PaymentType  *string `json:"payment_type"`
	IsPaid       *bool   `json:"is_paid"`
	FreeIncluded *bool   `json:"free_included"`
	DateStart    string  `json:"date_start"`
	DateEnd      *string `json:"date_end"`
	Description  *string `json:"description"`
}

func (h *Handlers) createReservation(w http.ResponseWriter, r *http.Request) {
	var req reservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ClientID <= 0 {
		writeProblem(w, http.StatusBadRequest, "Invalid Body", "client_id is required")
		return
	}
	start, err := time.Parse(dateLayout, req.DateStart)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Date", "date_start must be YYYY-MM-DD")
		return
	}
	var end *time.Time
	if req.DateEnd != nil {
		e, err := time.Parse(dateLayout, *req.DateEnd)
		if err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid Date", "date_end must be YYYY-MM-DD")
			return
		}
		if e.Before(start) {
			writeProblem(w, http.StatusBadRequest, "Invalid Range", "date_end precedes date_start")
			return
		}
		end = &e
	}
	id, err := h.B.CreateReservation(r.Context(), domain.Reservation{
		ClientID:     req.ClientID,
		PaymentType:  req.PaymentType,
		IsPaid:       req.IsPaid,
		FreeIncluded: req.FreeIncluded,
		DateStart:    start,
		DateEnd:      end,
		Description:  req.Description,
	})
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

type roomLinkJSON struct {
	RoomTypeID int64 `json:"room_type_id"`
	Amount     *int  `json:"amount"`
}

type reservationResponse struct {
	ID           int64          `json:"id"`
	ClientID     int64          `json:"client_id"`
	PaymentType  *string        `json:"payment_type"`
	IsPaid       *bool          `json:"is_paid"`
	FreeIncluded *bool          `json:"free_included"`
	DateStart    string         `json:"date_start"`
	DateEnd      *string        `json:"date_end"`
	Description  *string        `json:"description"`
	Rooms        []roomLinkJSON `json:"rooms"`
	Services     []int64        `json:"services"`
}

func toReservationResponse(v domain.ReservationView) reservationResponse {
	resp := reservationResponse{
		ID:           v.ID,
		ClientID:     v.ClientID,
		PaymentType:  v.PaymentType,
		IsPaid:       v.IsPaid,
		FreeIncluded: v.FreeIncluded,
		DateStart:    v.DateStart.Format(dateLayout),
		Description:  v.Description,
		Rooms:        []roomLinkJSON{},
		Services:     []int64{},
	}
	if v.DateEnd != nil {
		e := v.DateEnd.Format(dateLayout)
		resp.DateEnd = &e
	}
	for _, l := range v.Rooms {
		resp.Rooms = append(resp.Rooms, roomLinkJSON{RoomTypeID: l.RoomTypeID, Amount: l.Amount})
	}
	for _, l := range v.Services {
		resp.Services = append(resp.Services, l.ServiceID)
	}
	return resp
}

func (h *Handlers) getReservation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a positive number")
		return
	}
	v, err := h.Q.GetReservation(r.Context(), id)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toReservationResponse(v))
}

func (h *Handlers) addRoom(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a positive number")
		return
	}
	var req roomLinkJSON
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RoomTypeID <= 0 {
		writeProblem(w, http.StatusBadRequest, "Invalid Body", "room_type_id is required")
		return
	}
	if req.Amount != nil && *req.Amount < 0 {
		writeProblem(w, http.StatusBadRequest, "Invalid Amount", "amount must not be negative")
		return
	}
	if err := h.B.AddReservationRoom(r.Context(), id, req.RoomTypeID, req.Amount); err != nil {
		writeDomainErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) addService(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a positive number")
		return
	}
	var req struct {
		ServiceID int64 `json:"service_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ServiceID <= 0 {
		writeProblem(w, http.StatusBadRequest, "Invalid Body", "service_id is required")
		return
	}
	if err := h.B.AddReservationService(r.Context(), id, req.ServiceID); err != nil {
		writeDomainErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) totalCost(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a positive number")
		return
	}
	total, err := h.Q.GetTotalCost(r.Context(), id)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reservation_id": id, "total": total})
}

func (h *Handlers) setFreeIncluded(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a positive number")
		return
	}
	var req struct {
		FreeIncluded *bool `json:"free_included"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.FreeIncluded == nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Body", "free_included is required")
		return
	}
	granted, err := h.B.SetFreeIncluded(r.Context(), id, *req.FreeIncluded)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"granted": granted})
}

func (h *Handlers) deleteReservation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a positive number")
		return
	}
	if err := h.B.DeleteReservation(r.Context(), id); err != nil {
		writeDomainErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---- availability ----

func (h *Handlers) availability(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a positive number")
		return
	}
	from, err := time.Parse(dateLayout, r.URL.Query().Get("from"))
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Range", "from must be YYYY-MM-DD")
		return
	}
	to, err := time.Parse(dateLayout, r.URL.Query().Get("to"))
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Range", "to must be YYYY-MM-DD")
		return
	}
	if to.Before(from) {
		writeProblem(w, http.StatusBadRequest, "Invalid Range", "to precedes from")
		return
	}
	avail, err := h.Q.GetAvailableRooms(r.Context(), id, from, to)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	// available is null when the room type is unknown or its inventory is
	// unmanaged; clients must not read that as zero.
	writeJSON(w, http.StatusOK, map[string]any{
		"room_type_id": id,
		"from":         from.Format(dateLayout),
		"to":           to.Format(dateLayout),
		"available":    avail,
	})
}

// ---- archive ----

type archiveItemJSON struct {
	ReservationID int64   `json:"reservation_id"`
	ClientID      int64   `json:"client_id"`
	IsPaid        *bool   `json:"is_paid"`
	DateStart     string  `json:"date_start"`
	DateEnd       *string `json:"date_end"`
	Description   *string `json:"description"`
}

func (h *Handlers) listArchive(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if ls := r.URL.Query().Get("limit"); ls != "" {
		l, err := strconv.Atoi(ls)
		if err != nil || l <= 0 || l > 200 {
			writeProblem(w, http.StatusBadRequest, "Invalid limit", "limit must be an integer between 1 and 200")
			return
		}
		limit = l
	}
	items, err := h.Q.ListArchive(r.Context(), limit)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	out := make([]archiveItemJSON, 0, len(items))
	for _, a := range items {
		item := archiveItemJSON{
			ReservationID: a.ReservationID,
			ClientID:      a.ClientID,
			IsPaid:        a.IsPaid,
			DateStart:     a.DateStart.Format(dateLayout),
			Description:   a.Description,
		}
		if a.DateEnd != nil {
			e := a.DateEnd.Format(dateLayout)
			item.DateEnd = &e
		}
		out = append(out, item)
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": out})
}
