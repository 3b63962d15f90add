package mysql

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	drivermysql "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stayhub/internal/domain"
)

func newMockRepo(t *testing.T) (*Repo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return New(db), mock
}

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestAddReservationRoom(t *testing.T) {
	ctx := context.Background()
	start, end := date("2022-01-05"), date("2022-01-08")

	t.Run("Overbooked", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT date_start, date_end FROM reservations").
			WithArgs(int64(2)).
			WillReturnRows(sqlmock.NewRows([]string{"date_start", "date_end"}).AddRow(start, end))
		mock.ExpectQuery("SELECT room_count FROM room_types").
			WithArgs(int64(3)).
			WillReturnRows(sqlmock.NewRows([]string{"room_count"}).AddRow(14))
		mock.ExpectQuery("SELECT amount FROM reservation_room_types").
			WithArgs(int64(2), int64(3)).
			WillReturnError(sql.ErrNoRows)
		mock.ExpectQuery("SELECT COALESCE.+FOR SHARE").
			WithArgs(int64(3), end, start).
			WillReturnRows(sqlmock.NewRows([]string{"committed"}).AddRow(10))
		mock.ExpectRollback()

		five := 5
		err := repo.AddReservationRoom(ctx, 2, 3, &five)

		var ob *domain.OverbookingError
		require.ErrorAs(t, err, &ob)
		assert.Equal(t, int64(3), ob.RoomTypeID)
		assert.Equal(t, 5, ob.Requested)
		assert.Equal(t, 4, ob.Available)
		assert.Equal(t, 1, ob.Shortfall())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("FitsWithinInventory", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT date_start, date_end FROM reservations").
			WithArgs(int64(2)).
			WillReturnRows(sqlmock.NewRows([]string{"date_start", "date_end"}).AddRow(start, end))
		mock.ExpectQuery("SELECT room_count FROM room_types").
			WithArgs(int64(3)).
			WillReturnRows(sqlmock.NewRows([]string{"room_count"}).AddRow(14))
		mock.ExpectQuery("SELECT amount FROM reservation_room_types").
			WithArgs(int64(2), int64(3)).
			WillReturnError(sql.ErrNoRows)
		mock.ExpectQuery("SELECT COALESCE.+FOR SHARE").
			WithArgs(int64(3), end, start).
			WillReturnRows(sqlmock.NewRows([]string{"committed"}).AddRow(10))
		mock.ExpectExec("INSERT INTO reservation_room_types").
			WithArgs(int64(2), int64(3), 4).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		four := 4
		require.NoError(t, repo.AddReservationRoom(ctx, 2, 3, &four))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("NoopAmountBypassesCheck", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT date_start, date_end FROM reservations").
			WithArgs(int64(2)).
			WillReturnRows(sqlmock.NewRows([]string{"date_start", "date_end"}).AddRow(start, end))
		mock.ExpectQuery("SELECT room_count FROM room_types").
			WithArgs(int64(3)).
			WillReturnRows(sqlmock.NewRows([]string{"room_count"}).AddRow(14))
		mock.ExpectQuery("SELECT amount FROM reservation_room_types").
			WithArgs(int64(2), int64(3)).
			WillReturnRows(sqlmock.NewRows([]string{"amount"}).AddRow(5))
		// no committed-rooms query: the stored amount equals the new one
		mock.ExpectExec("INSERT INTO reservation_room_types").
			WithArgs(int64(2), int64(3), 5).
			WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectCommit()

		five := 5
		require.NoError(t, repo.AddReservationRoom(ctx, 2, 3, &five))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("UnspecifiedAmountSkipsGuard", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT date_start, date_end FROM reservations").
			WithArgs(int64(2)).
			WillReturnRows(sqlmock.NewRows([]string{"date_start", "date_end"}).AddRow(start, end))
		mock.ExpectExec("INSERT INTO reservation_room_types").
			WithArgs(int64(2), int64(3), nil).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		require.NoError(t, repo.AddReservationRoom(ctx, 2, 3, nil))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("MissingReservation", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT date_start, date_end FROM reservations").
			WithArgs(int64(99)).
			WillReturnError(sql.ErrNoRows)
		mock.ExpectRollback()

		one := 1
		err := repo.AddReservationRoom(ctx, 99, 3, &one)
		assert.ErrorIs(t, err, domain.ErrReservationNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("MissingRoomType", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT date_start, date_end FROM reservations").
			WithArgs(int64(2)).
			WillReturnRows(sqlmock.NewRows([]string{"date_start", "date_end"}).AddRow(start, end))
		mock.ExpectQuery("SELECT room_count FROM room_types").
			WithArgs(int64(42)).
			WillReturnError(sql.ErrNoRows)
		mock.ExpectRollback()

		one := 1
		err := repo.AddReservationRoom(ctx, 2, 42, &one)
		assert.ErrorIs(t, err, domain.ErrRoomTypeNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("OpenEndedReservationUsesUnboundedWindow", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT date_start, date_end FROM reservations").
			WithArgs(int64(2)).
			WillReturnRows(sqlmock.NewRows([]string{"date_start", "date_end"}).AddRow(start, nil))
		mock.ExpectQuery("SELECT room_count FROM room_types").
			WithArgs(int64(3)).
			WillReturnRows(sqlmock.NewRows([]string{"room_count"}).AddRow(14))
		mock.ExpectQuery("SELECT amount FROM reservation_room_types").
			WithArgs(int64(2), int64(3)).
			WillReturnError(sql.ErrNoRows)
		// single date arg: the open-window variant of the committed sum
		mock.ExpectQuery("SELECT COALESCE.+FOR SHARE").
			WithArgs(int64(3), start).
			WillReturnRows(sqlmock.NewRows([]string{"committed"}).AddRow(0))
		mock.ExpectExec("INSERT INTO reservation_room_types").
			WithArgs(int64(2), int64(3), 2).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		two := 2
		require.NoError(t, repo.AddReservationRoom(ctx, 2, 3, &two))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("UnmanagedInventoryNeverRejects", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT date_start, date_end FROM reservations").
			WithArgs(int64(2)).
			WillReturnRows(sqlmock.NewRows([]string{"date_start", "date_end"}).AddRow(start, end))
		mock.ExpectQuery("SELECT room_count FROM room_types").
			WithArgs(int64(4)).
			WillReturnRows(sqlmock.NewRows([]string{"room_count"}).AddRow(nil))
		mock.ExpectQuery("SELECT amount FROM reservation_room_types").
			WithArgs(int64(2), int64(4)).
			WillReturnError(sql.ErrNoRows)
		mock.ExpectQuery("SELECT COALESCE.+FOR SHARE").
			WithArgs(int64(4), end, start).
			WillReturnRows(sqlmock.NewRows([]string{"committed"}).AddRow(1000))
		mock.ExpectExec("INSERT INTO reservation_room_types").
			WithArgs(int64(2), int64(4), 500).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		lots := 500
		require.NoError(t, repo.AddReservationRoom(ctx, 2, 4, &lots))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestSetFreeIncluded(t *testing.T) {
	ctx := context.Background()

	t.Run("FalseToTrueGrants", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT free_included FROM reservations").
			WithArgs(int64(7)).
			WillReturnRows(sqlmock.NewRows([]string{"free_included"}).AddRow(false))
		mock.ExpectExec("UPDATE reservations SET free_included").
			WithArgs(true, int64(7)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("INSERT IGNORE INTO reservation_services").
			WithArgs(int64(7)).
			WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectCommit()

		granted, err := repo.SetFreeIncluded(ctx, 7, true)
		require.NoError(t, err)
		assert.Equal(t, int64(2), granted)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("UnknownToTrueGrants", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT free_included FROM reservations").
			WithArgs(int64(7)).
			WillReturnRows(sqlmock.NewRows([]string{"free_included"}).AddRow(nil))
		mock.ExpectExec("UPDATE reservations SET free_included").
			WithArgs(true, int64(7)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("INSERT IGNORE INTO reservation_services").
			WithArgs(int64(7)).
			WillReturnResult(sqlmock.NewResult(0, 3))
		mock.ExpectCommit()

		granted, err := repo.SetFreeIncluded(ctx, 7, true)
		require.NoError(t, err)
		assert.Equal(t, int64(3), granted)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("TrueToTrueNoGrant", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT free_included FROM reservations").
			WithArgs(int64(7)).
			WillReturnRows(sqlmock.NewRows([]string{"free_included"}).AddRow(true))
		mock.ExpectExec("UPDATE reservations SET free_included").
			WithArgs(true, int64(7)).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()

		granted, err := repo.SetFreeIncluded(ctx, 7, true)
		require.NoError(t, err)
		assert.Zero(t, granted)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("TransitionAwayNoGrant", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT free_included FROM reservations").
			WithArgs(int64(7)).
			WillReturnRows(sqlmock.NewRows([]string{"free_included"}).AddRow(true))
		mock.ExpectExec("UPDATE reservations SET free_included").
			WithArgs(false, int64(7)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		granted, err := repo.SetFreeIncluded(ctx, 7, false)
		require.NoError(t, err)
		assert.Zero(t, granted)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("GrantFailureRollsBackFlag", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT free_included FROM reservations").
			WithArgs(int64(7)).
			WillReturnRows(sqlmock.NewRows([]string{"free_included"}).AddRow(false))
		mock.ExpectExec("UPDATE reservations SET free_included").
			WithArgs(true, int64(7)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("INSERT IGNORE INTO reservation_services").
			WithArgs(int64(7)).
			WillReturnError(errors.New("disk full"))
		mock.ExpectRollback()

		_, err := repo.SetFreeIncluded(ctx, 7, true)
		assert.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDeleteReservation(t *testing.T) {
	ctx := context.Background()

	t.Run("ArchivesThenDeletes", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO archive_reservations").
			WithArgs(int64(9)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("DELETE FROM reservation_services").
			WithArgs(int64(9)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("DELETE FROM reservation_room_types").
			WithArgs(int64(9)).
			WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectExec("DELETE FROM reservations").
			WithArgs(int64(9)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		require.NoError(t, repo.DeleteReservation(ctx, 9))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("MissingReservation", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO archive_reservations").
			WithArgs(int64(404)).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		err := repo.DeleteReservation(ctx, 404)
		assert.ErrorIs(t, err, domain.ErrReservationNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("ArchiveFailureAbortsDelete", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO archive_reservations").
			WithArgs(int64(9)).
			WillReturnError(errors.New("archive table unavailable"))
		mock.ExpectRollback()

		err := repo.DeleteReservation(ctx, 9)
		assert.Error(t, err)
		assert.NotErrorIs(t, err, domain.ErrReservationNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCreateClient(t *testing.T) {
	ctx := context.Background()

	t.Run("DuplicatePassport", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectExec("INSERT INTO clients").
			WithArgs("Anna", nil, nil, "HU1234567").
			WillReturnError(&drivermysql.MySQLError{Number: 1062, Message: "Duplicate entry"})

		_, err := repo.CreateClient(ctx, domain.Client{Name: "Anna", PassportNumber: "HU1234567"})
		assert.ErrorIs(t, err, domain.ErrDuplicatePassport)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Success", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectExec("INSERT INTO clients").
			WithArgs("Anna", "call me", true, "HU1234567").
			WillReturnResult(sqlmock.NewResult(11, 1))

		contact, trusted := "call me", true
		id, err := repo.CreateClient(ctx, domain.Client{
			Name: "Anna", Contact: &contact, IsTrusted: &trusted, PassportNumber: "HU1234567",
		})
		require.NoError(t, err)
		assert.Equal(t, int64(11), id)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAvailableRooms(t *testing.T) {
	ctx := context.Background()
	from, to := date("2022-01-05"), date("2022-01-08")

	t.Run("UnknownRoomTypeIsNilNotZero", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectQuery("SELECT room_count FROM room_types").
			WithArgs(int64(42)).
			WillReturnError(sql.ErrNoRows)

		avail, err := repo.AvailableRooms(ctx, 42, from, to)
		require.NoError(t, err)
		assert.Nil(t, avail)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("NullInventoryIsNil", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectQuery("SELECT room_count FROM room_types").
			WithArgs(int64(4)).
			WillReturnRows(sqlmock.NewRows([]string{"room_count"}).AddRow(nil))

		avail, err := repo.AvailableRooms(ctx, 4, from, to)
		require.NoError(t, err)
		assert.Nil(t, avail)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("NegativeAvailabilityUnclamped", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectQuery("SELECT room_count FROM room_types").
			WithArgs(int64(3)).
			WillReturnRows(sqlmock.NewRows([]string{"room_count"}).AddRow(10))
		mock.ExpectQuery("SELECT COALESCE").
			WithArgs(int64(3), to, from).
			WillReturnRows(sqlmock.NewRows([]string{"committed"}).AddRow(12))

		avail, err := repo.AvailableRooms(ctx, 3, from, to)
		require.NoError(t, err)
		require.NotNil(t, avail)
		assert.Equal(t, -2, *avail)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTotalCost(t *testing.T) {
	ctx := context.Background()

	t.Run("SumsRoomAndServicePrices", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectQuery("SELECT 1 FROM reservations").
			WithArgs(int64(7)).
			WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
		mock.ExpectQuery("SELECT SUM").
			WithArgs(int64(7), int64(7)).
			WillReturnRows(sqlmock.NewRows([]string{"total"}).AddRow(130.0))

		total, err := repo.TotalCost(ctx, 7)
		require.NoError(t, err)
		require.NotNil(t, total)
		assert.Equal(t, 130.0, *total)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("NoLinksIsNil", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectQuery("SELECT 1 FROM reservations").
			WithArgs(int64(8)).
			WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
		mock.ExpectQuery("SELECT SUM").
			WithArgs(int64(8), int64(8)).
			WillReturnRows(sqlmock.NewRows([]string{"total"}).AddRow(nil))

		total, err := repo.TotalCost(ctx, 8)
		require.NoError(t, err)
		assert.Nil(t, total)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("MissingReservation", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectQuery("SELECT 1 FROM reservations").
			WithArgs(int64(404)).
			WillReturnError(sql.ErrNoRows)

		_, err := repo.TotalCost(ctx, 404)
		assert.ErrorIs(t, err, domain.ErrReservationNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
