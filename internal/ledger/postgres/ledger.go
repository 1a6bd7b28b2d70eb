package postgres

import (
	"errors"
	"strings"
	"time"

	employeeDatamodel "github.com/hrops/attendance-ledger/internal/core/datamodel/employee"
	"github.com/hrops/attendance-ledger/internal/ledger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LedgerStore implements ledger.Store using GORM.
type LedgerStore struct {
	db *gorm.DB
}

func NewLedgerStore(db *gorm.DB) ledger.Store {
	return &LedgerStore{db: db}
}

// InTx runs fn against a store bound to a single database transaction.
func (s *LedgerStore) InTx(fn func(ledger.Store) error) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return fn(&LedgerStore{db: tx})
	})
}

// GetForUpdate reads the month row with a row-level lock so concurrent
// writers to the same (employee, month, year) serialize. SQLite (used in
// tests) has no FOR UPDATE; its transactions are serialized anyway.
func (s *LedgerStore) GetForUpdate(employeeID int64, month, year int) (*ledger.Ledger, error) {
	q := s.db
	if s.db.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var row ledger.Ledger
	err := q.Where("employee_id = ? AND month = ? AND year = ?", employeeID, month, year).
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ledger.ErrLedgerNotFound
		}
		return nil, err
	}
	return &row, nil
}

func (s *LedgerStore) Get(employeeID int64, month, year int) (*ledger.Ledger, error) {
	var row ledger.Ledger
	err := s.db.Where("employee_id = ? AND month = ? AND year = ?", employeeID, month, year).
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ledger.ErrLedgerNotFound
		}
		return nil, err
	}
	return &row, nil
}

func (s *LedgerStore) Save(l *ledger.Ledger) error {
	l.UpdatedAt = time.Now()
	if l.CreatedAt.IsZero() {
		l.CreatedAt = l.UpdatedAt
	}
	return s.db.Save(l).Error
}

func (s *LedgerStore) List(employeeID int64, month, year int) ([]*ledger.Ledger, error) {
	q := s.db.Where("employee_id = ?", employeeID)
	if month != 0 {
		q = q.Where("month = ?", month)
	}
	if year != 0 {
		q = q.Where("year = ?", year)
	}

	var rows []*ledger.Ledger
	err := q.Order("year ASC, month ASC").Find(&rows).Error
	return rows, err
}

func (s *LedgerStore) CreateDeductionMarker(m *ledger.DeductionMarker) error {
	m.CreatedAt = time.Now()
	err := s.db.Create(m).Error
	if err != nil && isUniqueViolation(err) {
		return ledger.ErrDuplicateDeduction
	}
	return err
}

func (s *LedgerStore) SyncEmployeeBalance(employeeID int64, balance float64) error {
	result := s.db.Model(&employeeDatamodel.Employee{}).
		Where("id = ?", employeeID).
		Updates(map[string]interface{}{
			"current_leave_balance": balance,
			"updated_at":            time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ledger.ErrEmployeeNotFound
	}
	return nil
}

func (s *LedgerStore) ActiveEmployees(companyID int64) ([]ledger.ActiveEmployee, error) {
	var out []ledger.ActiveEmployee
	q := s.db.Model(&employeeDatamodel.Employee{}).
		Select("id, company_id").
		Where("is_active = ?", true)
	if companyID != 0 {
		q = q.Where("company_id = ?", companyID)
	}
	err := q.Order("id ASC").Scan(&out).Error
	return out, err
}

// isUniqueViolation matches both the gorm sentinel and driver-level unique
// constraint errors (pgx 23505, sqlite "UNIQUE constraint failed").
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "UNIQUE constraint")
}
