package postgres

import (
	"errors"
	"time"

	"github.com/hrops/attendance-ledger/internal/attendance"
	"github.com/hrops/attendance-ledger/internal/geo"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AttendanceRepository implements attendance.Repository using GORM.
type AttendanceRepository struct {
	db *gorm.DB
}

func NewAttendanceRepository(db *gorm.DB) attendance.Repository {
	return &AttendanceRepository{db: db}
}

// Upsert writes the employee-day record, replacing the derived fields when
// the (employee_id, date) row already exists.
func (r *AttendanceRepository) Upsert(a *attendance.Attendance) error {
	now := time.Now()
	a.UpdatedAt = now
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}

	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "employee_id"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"check_in", "check_out", "work_from", "status",
			"latitude", "longitude", "location_name", "is_geofenced",
			"late_minutes", "short_minutes", "ot_minutes",
			"is_late", "is_short", "shift_id", "updated_at",
		}),
	}).Create(a).Error
}

func (r *AttendanceRepository) GetByEmployeeAndDate(employeeID int64, date time.Time) (*attendance.Attendance, error) {
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())

	var record attendance.Attendance
	err := r.db.Where("employee_id = ? AND date >= ? AND date < ?", employeeID, day, day.AddDate(0, 0, 1)).
		Take(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, attendance.ErrAttendanceNotFound
		}
		return nil, err
	}
	return &record, nil
}

// GetCompanyLocation returns the registered coordinates, or nil when the
// company has none on file.
func (r *AttendanceRepository) GetCompanyLocation(companyID int64) (*geo.Coordinate, error) {
	var loc struct {
		Latitude  *float64
		Longitude *float64
	}
	err := r.db.Table("companies").
		Select("latitude, longitude").
		Where("id = ?", companyID).
		Take(&loc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if loc.Latitude == nil || loc.Longitude == nil {
		return nil, nil
	}
	return &geo.Coordinate{Latitude: *loc.Latitude, Longitude: *loc.Longitude}, nil
}
