package service

import (
	"math"
	"time"
)

// Minimum billable duration: a stay is never billed for less than one minute.
const minBillableMinutes = 1

// BillableMinutes computes whole billable minutes between entry and exit,
// rounding partial minutes up.
func BillableMinutes(entry, exit time.Time) int64 {
	d := exit.Sub(entry)
	if d <= 0 {
		return minBillableMinutes
	}
	minutes := int64(d / time.Minute)
	if d%time.Minute != 0 {
		minutes++
	}
	if minutes < minBillableMinutes {
		minutes = minBillableMinutes
	}
	return minutes
}

// Price computes the fee for a stay at the given hourly rate. The amount is
// rounded up to two decimals so a positive rate never prices to zero.
func Price(entry, exit time.Time, ratePerHour float64) (amount float64, minutes int64) {
	minutes = BillableMinutes(entry, exit)
	raw := float64(minutes) / 60.0 * ratePerHour
	amount = math.Ceil(raw*100-1e-9) / 100
	return amount, minutes
}
