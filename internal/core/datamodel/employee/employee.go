package employee

import "time"

// Employee mirrors the employees table. The leave-balance fields are a
// denormalized cache of the leave ledger; only the ledger cascader and the
// leave request state machine may write them.
type Employee struct {
	ID                  int64         `json:"id" gorm:"primaryKey"`
	CompanyID           int64         `json:"company_id" gorm:"column:company_id;not null"`
	Name                string        `json:"name" gorm:"not null"`
	Email               string        `json:"email"`
	IsActive            bool          `json:"is_active" gorm:"column:is_active;default:true"`
	CurrentLeaveBalance float64       `json:"current_leave_balance" gorm:"column:current_leave_balance"`
	LeaveBalances       LeaveBalances `json:"leave_balances" gorm:"column:leave_balances;serializer:json"`
	CreatedAt           time.Time     `json:"created_at" gorm:"column:created_at;default:now()"`
	UpdatedAt           time.Time     `json:"updated_at" gorm:"column:updated_at;default:now()"`
}

func (Employee) TableName() string {
	return "employees"
}

// LeaveBalances is the per-type breakdown of the cached balance. It is a
// fixed-schema struct so all four buckets always exist, unlike the loose map
// the old system kept in a metrics blob.
type LeaveBalances struct {
	Sick         BalanceBucket `json:"sick"`
	Casual       BalanceBucket `json:"casual"`
	Annual       BalanceBucket `json:"annual"`
	Compensatory BalanceBucket `json:"compensatory"`
}

type BalanceBucket struct {
	Total float64 `json:"total"`
	Used  float64 `json:"used"`
}

// Bucket names used by the leave-type mapping.
const (
	BucketSick         = "sick"
	BucketCasual       = "casual"
	BucketAnnual       = "annual"
	BucketCompensatory = "compensatory"
)

// ApplyUsed adjusts the used counter of the named bucket by delta days,
// flooring at zero. Unknown bucket names fall back to annual.
func (b *LeaveBalances) ApplyUsed(bucket string, delta float64) {
	target := &b.Annual
	switch bucket {
	case BucketSick:
		target = &b.Sick
	case BucketCasual:
		target = &b.Casual
	case BucketCompensatory:
		target = &b.Compensatory
	}

	target.Used += delta
	if target.Used < 0 {
		target.Used = 0
	}
}
