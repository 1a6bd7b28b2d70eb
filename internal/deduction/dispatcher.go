package deduction

import (
	"errors"
	"log/slog"
	"time"

	"github.com/hrops/attendance-ledger/internal"
	"github.com/hrops/attendance-ledger/internal/ledger"
)

// Cascader is the slice of the leave ledger service the dispatcher needs.
type Cascader interface {
	AddDeduction(dto ledger.DeductionDTO) (*ledger.Ledger, error)
}

// Dispatcher translates threshold-crossing attendance outcomes into
// fractional leave deductions. It is safe to invoke repeatedly for the same
// day: the ledger's dedupe marker turns repeats into no-ops.
type Dispatcher struct {
	cascader   Cascader
	lateBands  []internal.DeductionBand
	shortBands []internal.DeductionBand
	logger     *slog.Logger
}

func NewDispatcher(cascader Cascader, policy internal.PolicyConfig, logger *slog.Logger) *Dispatcher {
	lateBands := policy.LateBands
	if len(lateBands) == 0 {
		lateBands = DefaultLateBands
	}
	shortBands := policy.ShortLeaveBands
	if len(shortBands) == 0 {
		shortBands = DefaultShortLeaveBands
	}

	return &Dispatcher{
		cascader:   cascader,
		lateBands:  lateBands,
		shortBands: shortBands,
		logger:     logger,
	}
}

// ProcessLateArrival deducts leave for a late check-in.
func (d *Dispatcher) ProcessLateArrival(employeeID, companyID int64, date time.Time, lateMinutes int) error {
	units := UnitsFor(d.lateBands, lateMinutes)
	if units <= 0 {
		return nil
	}

	_, err := d.cascader.AddDeduction(ledger.DeductionDTO{
		EmployeeID: employeeID,
		CompanyID:  companyID,
		Date:       date,
		Reason:     ledger.DeductionReasonLate,
		Minutes:    lateMinutes,
		Units:      units,
	})
	if err != nil {
		if errors.Is(err, ledger.ErrDuplicateDeduction) {
			return nil
		}
		d.logger.Error("late arrival deduction failed",
			"error", err,
			"employee_id", employeeID,
			"late_minutes", lateMinutes)
		return err
	}

	d.logger.Info("late arrival deduction dispatched",
		"employee_id", employeeID,
		"date", date.Format("2006-01-02"),
		"late_minutes", lateMinutes,
		"units", units)

	return nil
}

// ProcessShortLeave deducts leave for an early checkout.
func (d *Dispatcher) ProcessShortLeave(employeeID, companyID int64, date time.Time, shortMinutes int) error {
	units := UnitsFor(d.shortBands, shortMinutes)
	if units <= 0 {
		return nil
	}

	_, err := d.cascader.AddDeduction(ledger.DeductionDTO{
		EmployeeID: employeeID,
		CompanyID:  companyID,
		Date:       date,
		Reason:     ledger.DeductionReasonShort,
		Minutes:    shortMinutes,
		Units:      units,
	})
	if err != nil {
		if errors.Is(err, ledger.ErrDuplicateDeduction) {
			return nil
		}
		d.logger.Error("short leave deduction failed",
			"error", err,
			"employee_id", employeeID,
			"short_minutes", shortMinutes)
		return err
	}

	d.logger.Info("short leave deduction dispatched",
		"employee_id", employeeID,
		"date", date.Format("2006-01-02"),
		"short_minutes", shortMinutes,
		"units", units)

	return nil
}
