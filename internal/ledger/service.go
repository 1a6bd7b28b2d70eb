package ledger

import (
	"errors"
	"log/slog"
	"time"
)

// Service is the leave ledger cascader. Every write path runs inside one
// store transaction: the written month, the forward cascade, and the
// denormalized profile balance either all land or none do.
type Service struct {
	store  Store
	logger *slog.Logger
}

func NewService(store Store, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// UpsertLedger creates or replaces the (employee, month, year) row from a
// manual correction, recomputes its closing balance and cascades forward.
func (s *Service) UpsertLedger(dto UpsertLedgerDTO) (*Ledger, error) {
	if err := dto.Validate(); err != nil {
		s.logger.Error("ledger upsert validation failed", "error", err, "employee_id", dto.EmployeeID)
		return nil, err
	}

	var written *Ledger
	err := s.store.InTx(func(tx Store) error {
		row, err := tx.GetForUpdate(dto.EmployeeID, dto.Month, dto.Year)
		if err != nil {
			if !errors.Is(err, ErrLedgerNotFound) {
				return err
			}
			row = &Ledger{
				EmployeeID: dto.EmployeeID,
				CompanyID:  dto.CompanyID,
				Month:      dto.Month,
				Year:       dto.Year,
			}
		}

		row.OpeningBalance = dto.OpeningBalance
		row.AutoCredit = dto.AutoCredit
		row.TakenLeaves = dto.TakenLeaves
		row.LateDeductions = dto.LateDeductions
		row.ShortLeaveDeductions = dto.ShortLeaveDeductions
		row.Remarks = dto.Remarks
		row.ClosingBalance = RecomputeClosing(row)

		if err := tx.Save(row); err != nil {
			return err
		}
		if err := CascadeForward(tx, row); err != nil {
			return err
		}
		// The profile cache mirrors the written month, not the cascaded
		// ones: a backdated edit is visible until the month-end resync.
		if err := tx.SyncEmployeeBalance(row.EmployeeID, row.ClosingBalance); err != nil {
			return err
		}

		written = row
		return nil
	})
	if err != nil {
		s.logger.Error("ledger upsert failed", "error", err,
			"employee_id", dto.EmployeeID, "month", dto.Month, "year", dto.Year)
		return nil, err
	}

	s.logger.Info("ledger upserted",
		"employee_id", written.EmployeeID,
		"month", written.Month,
		"year", written.Year,
		"closing_balance", written.ClosingBalance)

	return written, nil
}

// GetLedger lists ledger rows for an employee. Month and year narrow the
// result when nonzero.
func (s *Service) GetLedger(employeeID int64, month, year int) ([]*Ledger, error) {
	if employeeID <= 0 {
		return nil, errors.New("employee_id is required")
	}
	if month != 0 && (month < 1 || month > 12) {
		return nil, ErrInvalidLedgerPeriod
	}

	rows, err := s.store.List(employeeID, month, year)
	if err != nil {
		s.logger.Error("ledger list failed", "error", err, "employee_id", employeeID)
		return nil, err
	}
	return rows, nil
}

// CreditMonth lazily materializes the month row with the policy auto-credit.
// The opening balance is pulled from the prior month's closing when that row
// exists. Running the batch twice for the same month is a no-op beyond
// re-setting the same credit.
func (s *Service) CreditMonth(dto CreditMonthDTO) (*Ledger, error) {
	if dto.Month < 1 || dto.Month > 12 || dto.Year <= 0 {
		return nil, ErrInvalidLedgerPeriod
	}

	var written *Ledger
	err := s.store.InTx(func(tx Store) error {
		row, err := tx.GetForUpdate(dto.EmployeeID, dto.Month, dto.Year)
		if err != nil {
			if !errors.Is(err, ErrLedgerNotFound) {
				return err
			}
			row = &Ledger{
				EmployeeID: dto.EmployeeID,
				CompanyID:  dto.CompanyID,
				Month:      dto.Month,
				Year:       dto.Year,
			}
			prevMonth, prevYear := PrevPeriod(dto.Month, dto.Year)
			prev, err := tx.Get(dto.EmployeeID, prevMonth, prevYear)
			if err != nil && !errors.Is(err, ErrLedgerNotFound) {
				return err
			}
			if prev != nil {
				row.OpeningBalance = prev.ClosingBalance
			}
		}

		row.AutoCredit = dto.AutoCredit
		if dto.Remarks != "" {
			row.Remarks = dto.Remarks
		}
		row.ClosingBalance = RecomputeClosing(row)

		if err := tx.Save(row); err != nil {
			return err
		}
		if err := CascadeForward(tx, row); err != nil {
			return err
		}
		if err := tx.SyncEmployeeBalance(row.EmployeeID, row.ClosingBalance); err != nil {
			return err
		}

		written = row
		return nil
	})
	if err != nil {
		s.logger.Error("monthly credit failed", "error", err,
			"employee_id", dto.EmployeeID, "month", dto.Month, "year", dto.Year)
		return nil, err
	}

	return written, nil
}

// AddDeduction applies a behavioral deduction (late arrival or short leave)
// to the month containing the date. The dedupe marker makes repeated
// invocations for the same (employee, date, reason) no-ops: callers receive
// ErrDuplicateDeduction and may treat it as success.
func (s *Service) AddDeduction(dto DeductionDTO) (*Ledger, error) {
	if dto.Reason != DeductionReasonLate && dto.Reason != DeductionReasonShort {
		return nil, errors.New("unknown deduction reason")
	}
	if dto.Units <= 0 {
		return nil, errors.New("deduction units must be positive")
	}

	month := int(dto.Date.Month())
	year := dto.Date.Year()

	var written *Ledger
	err := s.store.InTx(func(tx Store) error {
		marker := &DeductionMarker{
			EmployeeID: dto.EmployeeID,
			Date:       truncateToDay(dto.Date),
			Reason:     dto.Reason,
			Minutes:    dto.Minutes,
			Units:      dto.Units,
		}
		if err := tx.CreateDeductionMarker(marker); err != nil {
			return err
		}

		row, err := tx.GetForUpdate(dto.EmployeeID, month, year)
		if err != nil {
			if !errors.Is(err, ErrLedgerNotFound) {
				return err
			}
			row = &Ledger{
				EmployeeID: dto.EmployeeID,
				CompanyID:  dto.CompanyID,
				Month:      month,
				Year:       year,
			}
			prevMonth, prevYear := PrevPeriod(month, year)
			prev, err := tx.Get(dto.EmployeeID, prevMonth, prevYear)
			if err != nil && !errors.Is(err, ErrLedgerNotFound) {
				return err
			}
			if prev != nil {
				row.OpeningBalance = prev.ClosingBalance
			}
		}

		switch dto.Reason {
		case DeductionReasonLate:
			row.LateDeductions += dto.Units
		case DeductionReasonShort:
			row.ShortLeaveDeductions += dto.Units
		}
		row.ClosingBalance = RecomputeClosing(row)

		if err := tx.Save(row); err != nil {
			return err
		}
		if err := CascadeForward(tx, row); err != nil {
			return err
		}
		if err := tx.SyncEmployeeBalance(row.EmployeeID, row.ClosingBalance); err != nil {
			return err
		}

		written = row
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateDeduction) {
			s.logger.Info("deduction already applied, skipping",
				"employee_id", dto.EmployeeID,
				"date", dto.Date.Format("2006-01-02"),
				"reason", dto.Reason)
			return nil, ErrDuplicateDeduction
		}
		s.logger.Error("deduction failed", "error", err,
			"employee_id", dto.EmployeeID, "reason", dto.Reason)
		return nil, err
	}

	s.logger.Info("deduction applied",
		"employee_id", dto.EmployeeID,
		"date", dto.Date.Format("2006-01-02"),
		"reason", dto.Reason,
		"units", dto.Units,
		"closing_balance", written.ClosingBalance)

	return written, nil
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
