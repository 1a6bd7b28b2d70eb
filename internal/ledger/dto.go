package ledger

import (
	"errors"
	"time"
)

// UpsertLedgerDTO is the manual-correction payload. The closing balance is
// always recomputed server-side from the other fields; a submitted closing
// value is ignored so the stored invariant cannot be broken by a caller.
type UpsertLedgerDTO struct {
	EmployeeID           int64   `json:"employee_id"`
	CompanyID            int64   `json:"company_id"`
	Month                int     `json:"month"`
	Year                 int     `json:"year"`
	OpeningBalance       float64 `json:"opening_balance"`
	AutoCredit           float64 `json:"auto_credit"`
	TakenLeaves          float64 `json:"taken_leaves"`
	LateDeductions       float64 `json:"late_deductions"`
	ShortLeaveDeductions float64 `json:"short_leave_deductions"`
	Remarks              string  `json:"remarks"`
}

func (dto UpsertLedgerDTO) Validate() error {
	if dto.EmployeeID <= 0 {
		return errors.New("employee_id is required")
	}
	if dto.Month < 1 || dto.Month > 12 {
		return ErrInvalidLedgerPeriod
	}
	if dto.Year <= 0 {
		return ErrInvalidLedgerPeriod
	}
	if dto.AutoCredit < 0 || dto.TakenLeaves < 0 || dto.LateDeductions < 0 || dto.ShortLeaveDeductions < 0 {
		return errors.New("ledger counters cannot be negative")
	}
	return nil
}

// CreditMonthDTO drives the monthly auto-credit batch for one employee.
type CreditMonthDTO struct {
	EmployeeID int64
	CompanyID  int64
	Month      int
	Year       int
	AutoCredit float64
	Remarks    string
}

// DeductionDTO is an internal request from the behavioral trigger dispatcher.
type DeductionDTO struct {
	EmployeeID int64
	CompanyID  int64
	Date       time.Time
	Reason     string
	Minutes    int
	Units      float64
}
