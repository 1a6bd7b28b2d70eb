package postgres

import (
	"time"

	"github.com/hrops/attendance-ledger/internal/roster"
	"gorm.io/gorm"
)

// RosterRepository implements roster.Repository using GORM.
type RosterRepository struct {
	db *gorm.DB
}

func NewRosterRepository(db *gorm.DB) roster.Repository {
	return &RosterRepository{db: db}
}

// GetAssignment joins the roster entry with its shift for an employee/date pair.
func (r *RosterRepository) GetAssignment(employeeID int64, date time.Time) (*roster.Assignment, error) {
	var assignment roster.Assignment
	err := r.db.Table("shift_rosters").
		Select("shifts.id AS shift_id, shifts.start_time, shifts.end_time, shifts.grace_minutes").
		Joins("JOIN shifts ON shifts.id = shift_rosters.shift_id").
		Where("shift_rosters.employee_id = ? AND shift_rosters.date = ?", employeeID, date.Format("2006-01-02")).
		Take(&assignment).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, roster.ErrNoAssignment
		}
		return nil, err
	}
	return &assignment, nil
}
