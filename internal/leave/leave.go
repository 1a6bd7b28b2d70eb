package leave

import (
	"errors"
	"time"

	employeeDatamodel "github.com/hrops/attendance-ledger/internal/core/datamodel/employee"
	"github.com/hrops/attendance-ledger/internal/ledger"
)

// LeaveRequest is a dated leave application. Status transitions adjust the
// leave ledger for the month of StartDate and the employee's cached balance.
type LeaveRequest struct {
	ID           int64     `json:"id" gorm:"primaryKey"`
	EmployeeID   int64     `json:"employee_id" gorm:"column:employee_id;not null"`
	CompanyID    int64     `json:"company_id" gorm:"column:company_id;not null"`
	StartDate    time.Time `json:"start_date" gorm:"column:start_date;type:date;not null"`
	EndDate      time.Time `json:"end_date" gorm:"column:end_date;type:date;not null"`
	Type         string    `json:"type" gorm:"not null"`
	Status       string    `json:"status" gorm:"default:'PENDING'"`
	Reason       string    `json:"reason"`
	ApprovedByID *int64    `json:"approved_by_id,omitempty" gorm:"column:approved_by_id"`
	CreatedAt    time.Time `json:"created_at" gorm:"column:created_at;default:now()"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"column:updated_at;default:now()"`
}

func (LeaveRequest) TableName() string {
	return "leave_requests"
}

// Statuses. The machine is non-strict: any transition is legal and deltas
// are computed relative to the previous status, so a reversed approval
// refunds exactly what it took.
const (
	StatusPending  = "PENDING"
	StatusApproved = "APPROVED"
	StatusRejected = "REJECTED"
)

// Leave types.
const (
	TypeSick         = "SICK"
	TypeCasual       = "CASUAL"
	TypeEarned       = "EARNED"
	TypeAnnual       = "ANNUAL"
	TypeCompensatory = "COMPENSATORY"
)

var validStatus = map[string]bool{
	StatusPending:  true,
	StatusApproved: true,
	StatusRejected: true,
}

var (
	ErrLeaveNotFound = errors.New("leave request not found")
	ErrInvalidStatus = errors.New("status must be PENDING, APPROVED or REJECTED")
)

// DurationDays is the inclusive day count of the request, both endpoints
// truncated to midnight.
func (lr *LeaveRequest) DurationDays() int {
	start := truncateToDay(lr.StartDate)
	end := truncateToDay(lr.EndDate)
	if end.Before(start) {
		return 0
	}
	return int(end.Sub(start).Hours()/24) + 1
}

// BucketForType maps a leave type onto a profile balance bucket. Unknown
// types count against annual.
func BucketForType(leaveType string) string {
	switch leaveType {
	case TypeSick:
		return employeeDatamodel.BucketSick
	case TypeCasual:
		return employeeDatamodel.BucketCasual
	case TypeEarned, TypeAnnual:
		return employeeDatamodel.BucketAnnual
	case TypeCompensatory:
		return employeeDatamodel.BucketCompensatory
	default:
		return employeeDatamodel.BucketAnnual
	}
}

// Store is the transactional boundary for leave transitions. A transition
// touches the leave row, the ledger and the employee profile; InTx scopes
// them to one transaction so a mid-way failure leaves no partial state.
type Store interface {
	InTx(fn func(Store) error) error

	GetForUpdate(id int64) (*LeaveRequest, error)
	Get(id int64) (*LeaveRequest, error)
	Create(lr *LeaveRequest) error
	Save(lr *LeaveRequest) error

	// Ledgers exposes the ledger store bound to the same transaction.
	Ledgers() ledger.Store

	GetEmployeeForUpdate(employeeID int64) (*employeeDatamodel.Employee, error)
	SaveEmployee(e *employeeDatamodel.Employee) error
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
