package attendance

import (
	"errors"
	"time"
)

// Attendance is the reconciled outcome for one employee-day. Exactly one row
// exists per (employee, date); reconciliation upserts it idempotently.
type Attendance struct {
	ID           int64      `json:"id" gorm:"primaryKey"`
	EmployeeID   int64      `json:"employee_id" gorm:"column:employee_id;not null;uniqueIndex:idx_attendance_employee_date"`
	CompanyID    int64      `json:"company_id" gorm:"column:company_id;not null"`
	Date         time.Time  `json:"date" gorm:"column:date;type:date;not null;uniqueIndex:idx_attendance_employee_date"`
	CheckIn      *time.Time `json:"check_in,omitempty" gorm:"column:check_in"`
	CheckOut     *time.Time `json:"check_out,omitempty" gorm:"column:check_out"`
	WorkFrom     string     `json:"work_from" gorm:"column:work_from;default:'OFFICE'"`
	Status       string     `json:"status" gorm:"default:'PRESENT'"`
	Latitude     *float64   `json:"latitude,omitempty"`
	Longitude    *float64   `json:"longitude,omitempty"`
	LocationName *string    `json:"location_name,omitempty" gorm:"column:location_name"`
	IsGeofenced  bool       `json:"is_geofenced" gorm:"column:is_geofenced"`
	LateMinutes  int        `json:"late_minutes" gorm:"column:late_minutes"`
	ShortMinutes int        `json:"short_minutes" gorm:"column:short_minutes"`
	OTMinutes    int        `json:"ot_minutes" gorm:"column:ot_minutes"`
	IsLate       bool       `json:"is_late" gorm:"column:is_late"`
	IsShort      bool       `json:"is_short" gorm:"column:is_short"`
	ShiftID      *int64     `json:"shift_id,omitempty" gorm:"column:shift_id"`
	CreatedAt    time.Time  `json:"created_at" gorm:"column:created_at;default:now()"`
	UpdatedAt    time.Time  `json:"updated_at" gorm:"column:updated_at;default:now()"`
}

func (Attendance) TableName() string {
	return "attendances"
}

// Work-from modes.
const (
	WorkFromOffice = "OFFICE"
	WorkFromRemote = "REMOTE"
	WorkFromField  = "FIELD"
)

// Day statuses.
const (
	StatusPresent = "PRESENT"
	StatusAbsent  = "ABSENT"
	StatusHalfDay = "HALF_DAY"
	StatusLeave   = "LEAVE"
	StatusHoliday = "HOLIDAY"
	StatusWeekoff = "WEEKOFF"
)

// ManualEntryLocation is stamped on administrative entries, which are
// trusted and skip geofencing.
const ManualEntryLocation = "Manual Entry"

var validWorkFrom = map[string]bool{
	WorkFromOffice: true,
	WorkFromRemote: true,
	WorkFromField:  true,
}

var validStatus = map[string]bool{
	StatusPresent: true,
	StatusAbsent:  true,
	StatusHalfDay: true,
	StatusLeave:   true,
	StatusHoliday: true,
	StatusWeekoff: true,
}

var (
	ErrAttendanceNotFound = errors.New("attendance record not found")
	ErrInvalidWorkFrom    = errors.New("work_from must be OFFICE, REMOTE or FIELD")
	ErrInvalidStatus      = errors.New("invalid attendance status")
)
