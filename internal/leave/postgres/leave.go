package postgres

import (
	"errors"
	"time"

	employeeDatamodel "github.com/hrops/attendance-ledger/internal/core/datamodel/employee"
	"github.com/hrops/attendance-ledger/internal/leave"
	"github.com/hrops/attendance-ledger/internal/ledger"
	ledgerPostgres "github.com/hrops/attendance-ledger/internal/ledger/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LeaveStore implements leave.Store using GORM. The ledger store it exposes
// shares the same *gorm.DB, so inside InTx both operate on one transaction.
type LeaveStore struct {
	db *gorm.DB
}

func NewLeaveStore(db *gorm.DB) leave.Store {
	return &LeaveStore{db: db}
}

func (s *LeaveStore) InTx(fn func(leave.Store) error) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return fn(&LeaveStore{db: tx})
	})
}

func (s *LeaveStore) GetForUpdate(id int64) (*leave.LeaveRequest, error) {
	q := s.db
	if s.db.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var lr leave.LeaveRequest
	err := q.Where("id = ?", id).Take(&lr).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, leave.ErrLeaveNotFound
		}
		return nil, err
	}
	return &lr, nil
}

func (s *LeaveStore) Get(id int64) (*leave.LeaveRequest, error) {
	var lr leave.LeaveRequest
	err := s.db.Where("id = ?", id).Take(&lr).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, leave.ErrLeaveNotFound
		}
		return nil, err
	}
	return &lr, nil
}

func (s *LeaveStore) Create(lr *leave.LeaveRequest) error {
	now := time.Now()
	lr.CreatedAt = now
	lr.UpdatedAt = now
	return s.db.Create(lr).Error
}

func (s *LeaveStore) Save(lr *leave.LeaveRequest) error {
	lr.UpdatedAt = time.Now()
	return s.db.Save(lr).Error
}

func (s *LeaveStore) Ledgers() ledger.Store {
	return ledgerPostgres.NewLedgerStore(s.db)
}

func (s *LeaveStore) GetEmployeeForUpdate(employeeID int64) (*employeeDatamodel.Employee, error) {
	q := s.db
	if s.db.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var emp employeeDatamodel.Employee
	err := q.Where("id = ?", employeeID).Take(&emp).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ledger.ErrEmployeeNotFound
		}
		return nil, err
	}
	return &emp, nil
}

func (s *LeaveStore) SaveEmployee(e *employeeDatamodel.Employee) error {
	e.UpdatedAt = time.Now()
	return s.db.Save(e).Error
}
