package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"

	"stayhub/internal/domain"
)

func valStr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}
func valInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}
func valBool(p *bool) any {
	if p == nil {
		return nil
	}
	return *p
}
func valF64(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}
func valTime(p *time.Time) any {
	if p == nil {
		return nil
	}
	return *p
}

func strPtr(n sql.NullString) *string {
	if !n.Valid {
		return nil
	}
	s := n.String
	return &s
}
func boolPtr(n sql.NullBool) *bool {
	if !n.Valid {
		return nil
	}
	b := n.Bool
	return &b
}
func intPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	i := int(n.Int64)
	return &i
}
func f64Ptr(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	f := n.Float64
	return &f
}
func timePtr(n sql.NullTime) *time.Time {
	if !n.Valid {
		return nil
	}
	t := n.Time
	return &t
}

const (
	mysqlErrDuplicate = 1062
	mysqlErrFKFail    = 1452
)

func isMySQLErr(err error, code uint16) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == code
}

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

func (r *Repo) DB() *sql.DB { return r.db }

// withTx runs fn in a transaction; any error (including a guard rejection)
// rolls the whole write back so no partial link is ever persisted.
func (r *Repo) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	committed = true
	return nil
}

// ---------------------------------------------------------------------------
// Write paths
// ---------------------------------------------------------------------------

func (r *Repo) CreateClient(ctx context.Context, c domain.Client) (int64, error) {
	res, err := r.db.ExecContext(ctx, createClientSQL,
		c.Name, valStr(c.Contact), valBool(c.IsTrusted), c.PassportNumber)
	if err != nil {
		if isMySQLErr(err, mysqlErrDuplicate) {
			return 0, domain.ErrDuplicatePassport
		}
		return 0, fmt.Errorf("create client: %w", err)
	}
	return res.LastInsertId()
}

func (r *Repo) CreateReservation(ctx context.Context, rv domain.Reservation) (int64, error) {
	res, err := r.db.ExecContext(ctx, createReservationSQL,
		rv.ClientID, valStr(rv.PaymentType), valBool(rv.IsPaid), valBool(rv.FreeIncluded),
		rv.DateStart, valTime(rv.DateEnd), valStr(rv.Description))
	if err != nil {
		if isMySQLErr(err, mysqlErrFKFail) {
			return 0, domain.ErrClientNotFound
		}
		return 0, fmt.Errorf("create reservation: %w", err)
	}
	return res.LastInsertId()
}

// AddReservationRoom upserts a room link inside a single transaction. With a
// non-nil amount the capacity guard runs first under a room-type row lock;
// a nil amount records an unspecified hold and is never capacity-checked.
func (r *Repo) AddReservationRoom(ctx context.Context, reservationID, roomTypeID int64, amount *int) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		start, end, err := reservationDates(ctx, tx, reservationID)
		if err != nil {
			return err
		}
		if amount != nil {
			if err := guardRoomAmount(ctx, tx, reservationID, roomTypeID, *amount, start, end); err != nil {
				return err
			}
		}
		if _, err := tx.ExecContext(ctx, upsertRoomLinkSQL, reservationID, roomTypeID, valInt(amount)); err != nil {
			if isMySQLErr(err, mysqlErrFKFail) {
				return domain.ErrRoomTypeNotFound
			}
			return fmt.Errorf("upsert room link: %w", err)
		}
		return nil
	})
}

func (r *Repo) AddReservationService(ctx context.Context, reservationID, serviceID int64) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		if _, _, err := reservationDates(ctx, tx, reservationID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, addServiceLinkSQL, reservationID, serviceID); err != nil {
			if isMySQLErr(err, mysqlErrFKFail) {
				return domain.ErrServiceNotFound
			}
			return fmt.Errorf("add service link: %w", err)
		}
		return nil
	})
}

// SetFreeIncluded writes the flag and, on a false/unknown -> true
// transition, grants every zero-priced service in the same transaction.
// A grant failure rolls the flag write back; retrying is safe because the
// grant is idempotent.
func (r *Repo) SetFreeIncluded(ctx context.Context, reservationID int64, included bool) (int64, error) {
	var granted int64
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		var old sql.NullBool
		if err := tx.QueryRowContext(ctx, lockFreeIncludedSQL, reservationID).Scan(&old); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return domain.ErrReservationNotFound
			}
			return fmt.Errorf("lock free_included: %w", err)
		}
		if _, err := tx.ExecContext(ctx, setFreeIncludedSQL, included, reservationID); err != nil {
			return fmt.Errorf("set free_included: %w", err)
		}
		if domain.ShouldGrantFreeServices(boolPtr(old), included) {
			n, err := grantFreeServices(ctx, tx, reservationID)
			if err != nil {
				return err
			}
			granted = n
		}
		return nil
	})
	return granted, err
}

// DeleteReservation archives the reservation and removes it with its child
// links, all-or-nothing. Children are deleted, never archived.
func (r *Repo) DeleteReservation(ctx context.Context, reservationID int64) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		if err := archiveReservation(ctx, tx, reservationID); err != nil {
			return err
		}
		for _, q := range []string{deleteReservationServicesSQL, deleteReservationRoomsSQL, deleteReservationSQL} {
			if _, err := tx.ExecContext(ctx, q, reservationID); err != nil {
				return fmt.Errorf("delete reservation %d: %w", reservationID, err)
			}
		}
		return nil
	})
}

// ---------------------------------------------------------------------------
// Read paths
// ---------------------------------------------------------------------------

// AvailableRooms returns the free room count for the type over [from, to].
// Unknown room type and NULL inventory both yield nil: callers must treat
// that as "availability unknown", not zero. Negative counts are returned
// unclamped; they signal prior overbooking.
func (r *Repo) AvailableRooms(ctx context.Context, roomTypeID int64, from, to time.Time) (*int, error) {
	var inv sql.NullInt64
	if err := r.db.QueryRowContext(ctx, roomInventorySQL, roomTypeID).Scan(&inv); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("room inventory: %w", err)
	}
	if !inv.Valid {
		return nil, nil
	}
	var committed int
	if err := r.db.QueryRowContext(ctx, committedRoomsSQL, roomTypeID, to, from).Scan(&committed); err != nil {
		return nil, fmt.Errorf("committed rooms: %w", err)
	}
	return domain.RoomsFree(intPtr(inv), committed), nil
}

func (r *Repo) TotalCost(ctx context.Context, reservationID int64) (*float64, error) {
	var exists int
	if err := r.db.QueryRowContext(ctx, `SELECT 1 FROM reservations WHERE reservation_id = ?`, reservationID).Scan(&exists); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrReservationNotFound
		}
		return nil, fmt.Errorf("reservation exists: %w", err)
	}
	var total sql.NullFloat64
	if err := r.db.QueryRowContext(ctx, totalCostSQL, reservationID, reservationID).Scan(&total); err != nil {
		return nil, fmt.Errorf("total cost: %w", err)
	}
	return f64Ptr(total), nil
}

func (r *Repo) GetReservation(ctx context.Context, reservationID int64) (domain.ReservationView, error) {
	var v domain.ReservationView
	var payment, desc sql.NullString
	var isPaid, freeInc sql.NullBool
	var dateEnd sql.NullTime
	err := r.db.QueryRowContext(ctx, getReservationSQL, reservationID).Scan(
		&v.ID, &v.ClientID, &payment, &isPaid, &freeInc, &v.DateStart, &dateEnd, &desc)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ReservationView{}, domain.ErrReservationNotFound
		}
		return domain.ReservationView{}, fmt.Errorf("get reservation: %w", err)
	}
	v.PaymentType = strPtr(payment)
	v.IsPaid = boolPtr(isPaid)
	v.FreeIncluded = boolPtr(freeInc)
	v.DateEnd = timePtr(dateEnd)
	v.Description = strPtr(desc)

	rows, err := r.db.QueryContext(ctx, listRoomLinksSQL, reservationID)
	if err != nil {
		return domain.ReservationView{}, fmt.Errorf("list room links: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var l domain.ReservationRoomType
		var amount sql.NullInt64
		if err := rows.Scan(&l.RoomTypeID, &amount); err != nil {
			return domain.ReservationView{}, err
		}
		l.ReservationID = reservationID
		l.Amount = intPtr(amount)
		v.Rooms = append(v.Rooms, l)
	}
	if err := rows.Err(); err != nil {
		return domain.ReservationView{}, err
	}

	srows, err := r.db.QueryContext(ctx, listServiceLinksSQL, reservationID)
	if err != nil {
		return domain.ReservationView{}, fmt.Errorf("list service links: %w", err)
	}
	defer srows.Close()
	for srows.Next() {
		var l domain.ReservationService
		if err := srows.Scan(&l.ServiceID); err != nil {
			return domain.ReservationView{}, err
		}
		l.ReservationID = reservationID
		v.Services = append(v.Services, l)
	}
	return v, srows.Err()
}

func (r *Repo) ListArchive(ctx context.Context, limit int) ([]domain.ArchiveReservation, error) {
	rows, err := r.db.QueryContext(ctx, listArchiveSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("list archive: %w", err)
	}
	defer rows.Close()

	var out []domain.ArchiveReservation
	for rows.Next() {
		var a domain.ArchiveReservation
		var isPaid sql.NullBool
		var dateEnd sql.NullTime
		var desc sql.NullString
		if err := rows.Scan(&a.ReservationID, &a.ClientID, &isPaid, &a.DateStart, &dateEnd, &desc); err != nil {
			return nil, err
		}
		a.IsPaid = boolPtr(isPaid)
		a.DateEnd = timePtr(dateEnd)
		a.Description = strPtr(desc)
		out = append(out, a)
	}
	return out, rows.Err()
}

// ---------------------------------------------------------------------------
// Catalog paths
// ---------------------------------------------------------------------------

func (r *Repo) UpsertRoomType(ctx context.Context, rt domain.RoomType) error {
	_, err := r.db.ExecContext(ctx, upsertRoomTypeSQL,
		rt.ID, rt.Name, valF64(rt.Price), valInt(rt.Capacity), valBool(rt.IsVIP),
		valInt(rt.RoomCount), valStr(rt.Description))
	return err
}

func (r *Repo) UpsertService(ctx context.Context, s domain.Service) error {
	_, err := r.db.ExecContext(ctx, upsertServiceSQL, s.ID, s.Name, valF64(s.Price))
	return err
}

func (r *Repo) UpsertStaff(ctx context.Context, st domain.Staff) error {
	_, err := r.db.ExecContext(ctx, upsertStaffSQL, st.ID, st.Specialization, valStr(st.Description))
	return err
}

func (r *Repo) LinkStaffService(ctx context.Context, link domain.StaffService) error {
	_, err := r.db.ExecContext(ctx, upsertStaffServiceSQL, link.StaffID, link.ServiceID, valBool(link.IsBasic))
	if isMySQLErr(err, mysqlErrFKFail) {
		return domain.ErrNotFound
	}
	return err
}
