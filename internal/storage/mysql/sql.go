package mysql

// -----------------------------------------------------------------------------
// ENTITY WRITES
// -----------------------------------------------------------------------------

const createClientSQL = `
INSERT INTO clients (name, contact, is_trusted, passport_number)
VALUES (?, ?, ?, ?)
`

const createReservationSQL = `
INSERT INTO reservations
  (client_id, payment_type, is_paid, free_included, date_start, date_end, description)
VALUES
  (?, ?, ?, ?, ?, ?, ?)
`

const upsertRoomTypeSQL = `
INSERT INTO room_types
  (room_type_id, name, price, capacity, is_vip, room_count, description)
VALUES
  (?, ?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  name        = VALUES(name),
  price       = VALUES(price),
  capacity    = VALUES(capacity),
  is_vip      = VALUES(is_vip),
  room_count  = VALUES(room_count),
  description = VALUES(description)
`

const upsertServiceSQL = `
INSERT INTO services (service_id, name, price)
VALUES (?, ?, ?)
ON DUPLICATE KEY UPDATE
  name  = VALUES(name),
  price = VALUES(price)
`

const upsertStaffSQL = `
INSERT INTO staff (staff_id, specialization, description)
VALUES (?, ?, ?)
ON DUPLICATE KEY UPDATE
  specialization = VALUES(specialization),
  description    = VALUES(description)
`

const upsertStaffServiceSQL = `
INSERT INTO staff_services (staff_id, service_id, is_basic)
VALUES (?, ?, ?)
ON DUPLICATE KEY UPDATE
  is_basic = VALUES(is_basic)
`

// -----------------------------------------------------------------------------
// ROOM-LINK WRITE PATH (guarded)
// -----------------------------------------------------------------------------

const reservationDatesSQL = `
SELECT date_start, date_end FROM reservations WHERE reservation_id = ?
`

// Row lock on the room type serializes concurrent bookings of the same type
// so the availability read and the link write cannot interleave.
const lockRoomInventorySQL = `
SELECT room_count FROM room_types WHERE room_type_id = ? FOR UPDATE
`

const currentAmountSQL = `
SELECT amount FROM reservation_room_types
WHERE reservation_id = ? AND room_type_id = ?
`

// Committed rooms for a bounded query window [from, to]. A stored stay
// overlaps iff it starts on or before `to` and has not ended before `from`;
// open-ended stays (date_end NULL) never end, so they always pass the
// second half. Params: room_type_id, to, from.
const committedRoomsSQL = `
SELECT COALESCE(SUM(l.amount), 0)
FROM reservation_room_types l
JOIN reservations r ON r.reservation_id = l.reservation_id
WHERE l.room_type_id = ?
  AND r.date_start <= ?
  AND (r.date_end IS NULL OR r.date_end >= ?)
`

// Committed rooms for an open-ended query window [from, inf). Every stay
// that has not ended before `from` overlaps. Params: room_type_id, from.
const committedRoomsOpenSQL = `
SELECT COALESCE(SUM(l.amount), 0)
FROM reservation_room_types l
JOIN reservations r ON r.reservation_id = l.reservation_id
WHERE l.room_type_id = ?
  AND (r.date_end IS NULL OR r.date_end >= ?)
`

// Locking variants for the booking guard. Under REPEATABLE READ a plain
// SELECT reads the snapshot pinned by the transaction's first read, which
// predates the room-type lock; a writer that queued behind the lock would
// sum the links as they were before the lock holder committed and double
// book. FOR SHARE reads always see the latest committed rows.
const (
	committedRoomsLockedSQL     = committedRoomsSQL + `FOR SHARE`
	committedRoomsOpenLockedSQL = committedRoomsOpenSQL + `FOR SHARE`
)

const upsertRoomLinkSQL = `
INSERT INTO reservation_room_types (reservation_id, room_type_id, amount)
VALUES (?, ?, ?)
ON DUPLICATE KEY UPDATE amount = VALUES(amount)
`

// -----------------------------------------------------------------------------
// FREE-SERVICE ENTITLEMENT
// -----------------------------------------------------------------------------

const lockFreeIncludedSQL = `
SELECT free_included FROM reservations WHERE reservation_id = ? FOR UPDATE
`

const setFreeIncludedSQL = `
UPDATE reservations SET free_included = ? WHERE reservation_id = ?
`

// INSERT IGNORE against the composite primary key makes the grant
// idempotent: links that already exist are skipped, never duplicated.
const grantFreeServicesSQL = `
INSERT IGNORE INTO reservation_services (reservation_id, service_id)
SELECT ?, service_id FROM services WHERE price = 0
`

const addServiceLinkSQL = `
INSERT IGNORE INTO reservation_services (reservation_id, service_id)
VALUES (?, ?)
`

// -----------------------------------------------------------------------------
// ARCHIVAL
// -----------------------------------------------------------------------------

const archiveReservationSQL = `
INSERT INTO archive_reservations
  (reservation_id, client_id, is_paid, date_start, date_end, description)
SELECT reservation_id, client_id, is_paid, date_start, date_end, description
FROM reservations
WHERE reservation_id = ?
`

const deleteReservationServicesSQL = `
DELETE FROM reservation_services WHERE reservation_id = ?
`

const deleteReservationRoomsSQL = `
DELETE FROM reservation_room_types WHERE reservation_id = ?
`

const deleteReservationSQL = `
DELETE FROM reservations WHERE reservation_id = ?
`

// -----------------------------------------------------------------------------
// READ QUERIES
// -----------------------------------------------------------------------------

const roomInventorySQL = `
SELECT room_count FROM room_types WHERE room_type_id = ?
`

// SUM over the union of linked room-type prices and linked service prices.
// NULL prices contribute nothing; no links at all yields NULL, which the
// repo surfaces as "cost unknown" rather than zero.
const totalCostSQL = `
SELECT SUM(t.price)
FROM (
  SELECT rt.price AS price
  FROM reservation_room_types l
  JOIN room_types rt ON rt.room_type_id = l.room_type_id
  WHERE l.reservation_id = ?
  UNION ALL
  SELECT s.price
  FROM reservation_services ls
  JOIN services s ON s.service_id = ls.service_id
  WHERE ls.reservation_id = ?
) t
`

const getReservationSQL = `
SELECT reservation_id, client_id, payment_type, is_paid, free_included,
       date_start, date_end, description
FROM reservations
WHERE reservation_id = ?
`

const listRoomLinksSQL = `
SELECT room_type_id, amount FROM reservation_room_types
WHERE reservation_id = ?
ORDER BY room_type_id
`

const listServiceLinksSQL = `
SELECT service_id FROM reservation_services
WHERE reservation_id = ?
ORDER BY service_id
`

const listArchiveSQL = `
SELECT reservation_id, client_id, is_paid, date_start, date_end, description
FROM archive_reservations
ORDER BY archived_at DESC, reservation_id DESC
LIMIT ?
`
