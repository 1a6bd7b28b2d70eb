package ledger

import (
	"errors"
	"time"
)

// Ledger is one month of leave accounting for an employee. Exactly one row
// exists per (employee, month, year); rows are created lazily by the monthly
// credit batch or by a manual adjustment.
type Ledger struct {
	ID                   int64     `json:"id" gorm:"primaryKey"`
	EmployeeID           int64     `json:"employee_id" gorm:"column:employee_id;not null;uniqueIndex:idx_ledger_employee_month"`
	CompanyID            int64     `json:"company_id" gorm:"column:company_id;not null"`
	Month                int       `json:"month" gorm:"not null;uniqueIndex:idx_ledger_employee_month"`
	Year                 int       `json:"year" gorm:"not null;uniqueIndex:idx_ledger_employee_month"`
	OpeningBalance       float64   `json:"opening_balance" gorm:"column:opening_balance"`
	AutoCredit           float64   `json:"auto_credit" gorm:"column:auto_credit"`
	TakenLeaves          float64   `json:"taken_leaves" gorm:"column:taken_leaves"`
	LateDeductions       float64   `json:"late_deductions" gorm:"column:late_deductions"`
	ShortLeaveDeductions float64   `json:"short_leave_deductions" gorm:"column:short_leave_deductions"`
	ClosingBalance       float64   `json:"closing_balance" gorm:"column:closing_balance"`
	Remarks              string    `json:"remarks"`
	CreatedAt            time.Time `json:"created_at" gorm:"column:created_at;default:now()"`
	UpdatedAt            time.Time `json:"updated_at" gorm:"column:updated_at;default:now()"`
}

func (Ledger) TableName() string {
	return "leave_ledgers"
}

// Deduction reasons double as idempotency scopes: one deduction of each
// reason may exist per employee per day.
const (
	DeductionReasonLate  = "LATE_ARRIVAL"
	DeductionReasonShort = "SHORT_LEAVE"
)

// DeductionMarker records that a behavioral deduction was applied for an
// employee on a date, so retried reconciliations cannot deduct twice.
type DeductionMarker struct {
	ID         int64     `json:"id" gorm:"primaryKey"`
	EmployeeID int64     `json:"employee_id" gorm:"column:employee_id;not null;uniqueIndex:idx_marker_employee_date_reason"`
	Date       time.Time `json:"date" gorm:"column:date;type:date;not null;uniqueIndex:idx_marker_employee_date_reason"`
	Reason     string    `json:"reason" gorm:"not null;uniqueIndex:idx_marker_employee_date_reason"`
	Minutes    int       `json:"minutes"`
	Units      float64   `json:"units"`
	CreatedAt  time.Time `json:"created_at" gorm:"column:created_at;default:now()"`
}

func (DeductionMarker) TableName() string {
	return "deduction_markers"
}

var (
	ErrLedgerNotFound      = errors.New("leave ledger row not found")
	ErrDuplicateDeduction  = errors.New("deduction already applied for employee, date and reason")
	ErrEmployeeNotFound    = errors.New("employee not found")
	ErrInvalidLedgerPeriod = errors.New("ledger month must be 1-12 and year positive")
)

// RecomputeClosing applies the balance formula. The floor at zero is a
// business rule: the stored ledger never goes negative even when usage
// exceeds credits.
func RecomputeClosing(l *Ledger) float64 {
	closing := l.OpeningBalance + l.AutoCredit - l.TakenLeaves - l.LateDeductions - l.ShortLeaveDeductions
	if closing < 0 {
		closing = 0
	}
	return closing
}

// NextPeriod wraps December into January of the following year.
func NextPeriod(month, year int) (int, int) {
	if month == 12 {
		return 1, year + 1
	}
	return month + 1, year
}

// PrevPeriod wraps January back into December of the prior year.
func PrevPeriod(month, year int) (int, int) {
	if month == 1 {
		return 12, year - 1
	}
	return month - 1, year
}

// Store is the transactional persistence boundary for ledger writes. InTx
// yields a Store scoped to one database transaction; every multi-row
// mutation (upsert + cascade + profile sync) must run inside it.
type Store interface {
	InTx(fn func(Store) error) error

	// GetForUpdate locks the row against concurrent writers. Returns
	// ErrLedgerNotFound when the row does not exist.
	GetForUpdate(employeeID int64, month, year int) (*Ledger, error)
	Get(employeeID int64, month, year int) (*Ledger, error)
	Save(l *Ledger) error
	List(employeeID int64, month, year int) ([]*Ledger, error)

	// CreateDeductionMarker fails with ErrDuplicateDeduction when a marker
	// with the same (employee, date, reason) already exists.
	CreateDeductionMarker(m *DeductionMarker) error

	SyncEmployeeBalance(employeeID int64, balance float64) error
	ActiveEmployees(companyID int64) ([]ActiveEmployee, error)
}

// ActiveEmployee pairs an employee with the company its ledger rows belong
// to, so batch callers attribute lazily created rows correctly.
type ActiveEmployee struct {
	ID        int64
	CompanyID int64
}

// CascadeForward propagates a freshly written month's closing balance into
// every consecutive already-materialized future month. The chain stops at
// the first gap; months beyond a gap were never linked to this one.
func CascadeForward(s Store, written *Ledger) error {
	prev := written
	month, year := written.Month, written.Year

	for {
		month, year = NextPeriod(month, year)
		next, err := s.GetForUpdate(written.EmployeeID, month, year)
		if err != nil {
			if errors.Is(err, ErrLedgerNotFound) {
				return nil
			}
			return err
		}

		next.OpeningBalance = prev.ClosingBalance
		next.ClosingBalance = RecomputeClosing(next)
		if err := s.Save(next); err != nil {
			return err
		}
		prev = next
	}
}
