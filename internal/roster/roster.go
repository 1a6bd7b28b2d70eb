package roster

import (
	"errors"
	"fmt"
	"time"
)

// Shift is a named work window a company defines once and assigns many times.
type Shift struct {
	ID           int64  `json:"id" gorm:"primaryKey"`
	CompanyID    int64  `json:"company_id" gorm:"column:company_id;not null"`
	Name         string `json:"name" gorm:"not null"`
	StartTime    string `json:"start_time" gorm:"column:start_time;not null"`
	EndTime      string `json:"end_time" gorm:"column:end_time;not null"`
	GraceMinutes int    `json:"grace_minutes" gorm:"column:grace_minutes"`
}

func (Shift) TableName() string {
	return "shifts"
}

// RosterEntry assigns an employee to a shift on a calendar date.
type RosterEntry struct {
	ID         int64     `json:"id" gorm:"primaryKey"`
	EmployeeID int64     `json:"employee_id" gorm:"column:employee_id;not null;uniqueIndex:idx_roster_employee_date"`
	Date       time.Time `json:"date" gorm:"column:date;type:date;not null;uniqueIndex:idx_roster_employee_date"`
	ShiftID    int64     `json:"shift_id" gorm:"column:shift_id;not null"`
}

func (RosterEntry) TableName() string {
	return "shift_rosters"
}

// Assignment is the resolved roster lookup: the shift window that applies to
// an employee on a given date.
type Assignment struct {
	ShiftID      int64  `json:"shift_id"`
	StartTime    string `json:"start_time"` // HH:MM
	EndTime      string `json:"end_time"`   // HH:MM
	GraceMinutes int    `json:"grace_minutes"`
}

// StartAt anchors the shift start time on the given calendar date.
func (a *Assignment) StartAt(date time.Time) (time.Time, error) {
	return clockOnDate(a.StartTime, date)
}

// EndAt anchors the shift end time. When the end clock is not after the
// start clock the shift crosses midnight and the end lands on the next day.
func (a *Assignment) EndAt(date time.Time) (time.Time, error) {
	start, err := clockOnDate(a.StartTime, date)
	if err != nil {
		return time.Time{}, err
	}
	end, err := clockOnDate(a.EndTime, date)
	if err != nil {
		return time.Time{}, err
	}
	if !end.After(start) {
		end = end.AddDate(0, 0, 1)
	}
	return end, nil
}

// GraceLimit is the latest check-in instant that is not flagged late.
func (a *Assignment) GraceLimit(date time.Time) (time.Time, error) {
	start, err := a.StartAt(date)
	if err != nil {
		return time.Time{}, err
	}
	return start.Add(time.Duration(a.GraceMinutes) * time.Minute), nil
}

func clockOnDate(clock string, date time.Time) (time.Time, error) {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid shift time %q: %w", clock, err)
	}
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), 0, 0, date.Location()), nil
}

// ErrNoAssignment is returned by repositories when no roster entry exists for
// the employee/date pair.
var ErrNoAssignment = errors.New("no roster assignment for employee on date")

// Repository defines roster lookups.
type Repository interface {
	GetAssignment(employeeID int64, date time.Time) (*Assignment, error)
}
