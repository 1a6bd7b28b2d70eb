package deduction

import "github.com/hrops/attendance-ledger/internal"

// Default policy tables. Excess minutes band into fractional leave units; a
// band with UpToMinutes == 0 is open-ended and catches everything above the
// last bounded band.
var (
	DefaultLateBands = []internal.DeductionBand{
		{UpToMinutes: 60, Units: 0.25},
		{UpToMinutes: 120, Units: 0.5},
		{UpToMinutes: 0, Units: 1.0},
	}

	DefaultShortLeaveBands = []internal.DeductionBand{
		{UpToMinutes: 180, Units: 0.25},
		{UpToMinutes: 0, Units: 0.5},
	}
)

// UnitsFor resolves minutes against a band table. Bands are evaluated in
// order; the first bounded band covering the minutes wins.
func UnitsFor(bands []internal.DeductionBand, minutes int) float64 {
	if minutes <= 0 {
		return 0
	}
	for _, b := range bands {
		if b.UpToMinutes == 0 {
			return b.Units
		}
		if minutes <= b.UpToMinutes {
			return b.Units
		}
	}
	return 0
}
