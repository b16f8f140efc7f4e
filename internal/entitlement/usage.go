package entitlement

import "time"

// LimitType names a ceiling that CheckUsageLimit can compare against.
type LimitType string

const (
	LimitSavedTrips        LimitType = "savedTrips"
	LimitWaypointsPerTrip  LimitType = "waypointsPerTrip"
	LimitRouteCalculations LimitType = "routeCalculations"
	LimitOfflineTrips      LimitType = "offlineTrips"
)

// Counter names a per-user usage counter.
type Counter string

const (
	CounterRouteCalculations Counter = "routeCalculations"
	CounterSavedTrips        Counter = "savedTrips"
	CounterOfflineTrips      Counter = "offlineTrips"
)

// Valid reports whether c is a known counter.
func (c Counter) Valid() bool {
	switch c {
	case CounterRouteCalculations, CounterSavedTrips, CounterOfflineTrips:
		return true
	}
	return false
}

// LimitCheck is the result of comparing a current value against a ceiling.
// Remaining is Unlimited when Limit is.
type LimitCheck struct {
	Allowed   bool  `json:"allowed"`
	Limit     Limit `json:"limit"`
	Remaining Limit `json:"remaining"`
}

// UserUsage holds a user's counters. Only RouteCalculations is a monthly
// budget; it resets when CurrentMonth no longer matches the clock.
type UserUsage struct {
	UserID            string    `json:"userId"`
	Tier              Tier      `json:"tier"`
	CurrentMonth      string    `json:"currentMonth"`
	RouteCalculations int64     `json:"routeCalculations"`
	SavedTrips        int64     `json:"savedTrips"`
	OfflineTrips      int64     `json:"offlineTrips"`
	LastReset         time.Time `json:"lastReset"`
}

func (u *UserUsage) add(c Counter, amount int64) {
	switch c {
	case CounterRouteCalculations:
		u.RouteCalculations += amount
	case CounterSavedTrips:
		u.SavedTrips += amount
	case CounterOfflineTrips:
		u.OfflineTrips += amount
	}
}

// rollover resets the monthly budget when month differs from the stamp.
// It reports whether anything changed.
func (u *UserUsage) rollover(month string, now time.Time) bool {
	if u.CurrentMonth == month {
		return false
	}
	u.CurrentMonth = month
	u.RouteCalculations = 0
	u.LastReset = now
	return true
}
