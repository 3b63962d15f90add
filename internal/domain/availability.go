package domain

import "time"

// Pure kernels of the consistency engine. The store computes the committed
// room sum in SQL; the decisions below stay in Go so they can be tested
// without a database and reused by every write path.

// RoomsFree derives remaining inventory from the total count and the sum of
// amounts committed by overlapping reservations. nil inventory means the
// room type is unmanaged, so availability is unknown (nil, not zero).
// Negative results are returned as-is: they signal prior overbooking and
// must not be clamped.
func RoomsFree(inventory *int, committed int) *int {
	if inventory == nil {
		return nil
	}
	free := *inventory - committed
	return &free
}

// AmountChanging reports whether writing amount would actually change the
// stored link. A no-op write bypasses the capacity check so an existing
// commitment is never re-validated against itself.
func AmountChanging(old *int, amount int) bool {
	return old == nil || *old != amount
}

// ShouldGrantFreeServices reports whether a free_included write is the
// false/unknown -> true transition that triggers the complimentary-service
// grant. Repeated true writes and transitions away from true do nothing.
func ShouldGrantFreeServices(old *bool, next bool) bool {
	return next && (old == nil || !*old)
}

// overlapsRange is the inclusive date-range overlap predicate the
// availability SQL implements, kept here as the single statement of the
// rule: a stay occupies rooms on every day from start through end, and an
// open-ended stay (end nil) occupies them indefinitely.
func overlapsRange(start time.Time, end *time.Time, from, to time.Time) bool {
	if start.After(to) {
		return false
	}
	return end == nil || !end.Before(from)
}
