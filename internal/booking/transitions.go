package booking

import "karaoke/internal/store"

// transitions is the allowed status graph. Advance bookings walk the
// payment ladder; walk-ins skip it. Completed and cancelled are terminal.
// Skipping ladder steps (e.g. new straight to fully_paid) is allowed so
// staff can record a payment taken in one go.
var transitions = map[store.BookingStatus][]store.BookingStatus{
	store.StatusNew: {
		store.StatusAwaitingPayment,
		store.StatusPartiallyPaid,
		store.StatusFullyPaid,
		store.StatusCancelled,
	},
	store.StatusAwaitingPayment: {
		store.StatusPartiallyPaid,
		store.StatusFullyPaid,
		store.StatusCancelled,
	},
	store.StatusPartiallyPaid: {
		store.StatusFullyPaid,
		store.StatusCompleted,
		store.StatusCancelled,
	},
	store.StatusFullyPaid: {
		store.StatusCompleted,
		store.StatusCancelled,
	},
	store.StatusWalkin: {
		store.StatusCompleted,
		store.StatusCancelled,
	},
	store.StatusCompleted: {},
	store.StatusCancelled: {},
}

// CanTransition reports whether a booking may move between two statuses.
// Setting the current status again is a no-op, not a transition.
func CanTransition(from, to store.BookingStatus) bool {
	if from == to {
		return true
	}
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
