package attendance

import (
	"log/slog"
	"time"

	"github.com/hrops/attendance-ledger/internal"
	"github.com/hrops/attendance-ledger/internal/geo"
	"github.com/hrops/attendance-ledger/internal/roster"
)

// RosterMatcher resolves the shift window for an employee-day. A nil
// assignment with nil error means no roster entry exists.
type RosterMatcher interface {
	Match(employeeID int64, date time.Time) (*roster.Assignment, error)
}

// GeoValidator classifies a reported coordinate against the company location.
type GeoValidator interface {
	Validate(reported, registered *geo.Coordinate) geo.Result
}

// DeductionDispatcher receives threshold-crossing outcomes. Implementations
// must be idempotent per (employee, date, reason); reconciliation may retry.
type DeductionDispatcher interface {
	ProcessLateArrival(employeeID, companyID int64, date time.Time, lateMinutes int) error
	ProcessShortLeave(employeeID, companyID int64, date time.Time, shortMinutes int) error
}

// Repository defines attendance persistence plus the company-location lookup
// the geofence check needs.
type Repository interface {
	Upsert(a *Attendance) error
	GetByEmployeeAndDate(employeeID int64, date time.Time) (*Attendance, error)
	GetCompanyLocation(companyID int64) (*geo.Coordinate, error)
}

// Service is the attendance reconciler: it derives lateness, shortfall,
// overtime and geofence validity from a raw event, upserts the day's record
// and dispatches behavioral deductions when policy thresholds are crossed.
type Service struct {
	repo       Repository
	rosters    RosterMatcher
	geo        GeoValidator
	dispatcher DeductionDispatcher
	policy     internal.PolicyConfig
	logger     *slog.Logger
}

func NewService(
	repo Repository,
	rosters RosterMatcher,
	geoValidator GeoValidator,
	dispatcher DeductionDispatcher,
	policy internal.PolicyConfig,
	logger *slog.Logger,
) *Service {
	return &Service{
		repo:       repo,
		rosters:    rosters,
		geo:        geoValidator,
		dispatcher: dispatcher,
		policy:     policy,
		logger:     logger,
	}
}

// Reconcile converts one check-in/out event into the stored attendance
// outcome for that day. Calling it again with the same inputs overwrites the
// same row and re-dispatched deductions are deduped downstream.
func (s *Service) Reconcile(dto *ReconcileDTO) (*Attendance, error) {
	if err := dto.Validate(); err != nil {
		s.logger.Error("reconcile validation failed", "error", err, "employee_id", dto.EmployeeID)
		return nil, err
	}

	date := truncateToDay(dto.Date)

	assignment, err := s.rosters.Match(dto.EmployeeID, date)
	if err != nil {
		return nil, err
	}

	record := &Attendance{
		EmployeeID:   dto.EmployeeID,
		CompanyID:    dto.CompanyID,
		Date:         date,
		CheckIn:      dto.CheckIn,
		CheckOut:     dto.CheckOut,
		WorkFrom:     defaultString(dto.WorkFrom, WorkFromOffice),
		Status:       defaultString(dto.Status, StatusPresent),
		Latitude:     dto.Latitude,
		Longitude:    dto.Longitude,
		LocationName: dto.LocationName,
	}

	if err := s.applyGeofence(record, dto); err != nil {
		return nil, err
	}

	if assignment != nil {
		record.ShiftID = &assignment.ShiftID
		if err := s.applyShiftMetrics(record, assignment, date); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Upsert(record); err != nil {
		s.logger.Error("attendance upsert failed", "error", err,
			"employee_id", dto.EmployeeID, "date", date.Format("2006-01-02"))
		return nil, err
	}

	s.logger.Info("attendance reconciled",
		"employee_id", record.EmployeeID,
		"date", date.Format("2006-01-02"),
		"late_minutes", record.LateMinutes,
		"short_minutes", record.ShortMinutes,
		"ot_minutes", record.OTMinutes,
		"is_geofenced", record.IsGeofenced)

	// Deductions run after the upsert (at-least-once); the marker keyed by
	// (employee, date, reason) makes retries no-ops. Failures propagate so
	// the caller can retry the whole event.
	if err := s.dispatchDeductions(record); err != nil {
		return nil, err
	}

	return record, nil
}

// GetAttendance returns the stored record for an employee-day.
func (s *Service) GetAttendance(employeeID int64, date time.Time) (*Attendance, error) {
	record, err := s.repo.GetByEmployeeAndDate(employeeID, truncateToDay(date))
	if err != nil {
		s.logger.Error("attendance lookup failed", "error", err, "employee_id", employeeID)
		return nil, err
	}
	return record, nil
}

// applyGeofence resolves the on-site flag. Manual entries and remote work
// are trusted and skip validation entirely. A failing company-location
// lookup is a store error, not a geofence verdict, and propagates.
func (s *Service) applyGeofence(record *Attendance, dto *ReconcileDTO) error {
	if dto.IsManual {
		record.IsGeofenced = true
		if record.LocationName == nil {
			name := ManualEntryLocation
			record.LocationName = &name
		}
		return nil
	}
	if record.WorkFrom == WorkFromRemote {
		record.IsGeofenced = true
		return nil
	}

	var reported *geo.Coordinate
	if dto.Latitude != nil && dto.Longitude != nil {
		reported = &geo.Coordinate{Latitude: *dto.Latitude, Longitude: *dto.Longitude}
	}
	if reported == nil {
		// Nothing was reported, so there is no evidence of being off-site.
		record.IsGeofenced = true
		return nil
	}

	registered, err := s.repo.GetCompanyLocation(dto.CompanyID)
	if err != nil {
		s.logger.Error("company location lookup failed",
			"error", err, "company_id", dto.CompanyID)
		return err
	}

	record.IsGeofenced = s.geo.Validate(reported, registered).OnSite
	return nil
}

// applyShiftMetrics derives lateness from check-in and shortfall/overtime
// from check-out. Late minutes are measured from shift start, not from the
// grace limit; the grace period only gates whether lateness is flagged.
func (s *Service) applyShiftMetrics(record *Attendance, assignment *roster.Assignment, date time.Time) error {
	shiftStart, err := assignment.StartAt(date)
	if err != nil {
		return err
	}
	shiftEnd, err := assignment.EndAt(date)
	if err != nil {
		return err
	}
	graceLimit := shiftStart.Add(time.Duration(assignment.GraceMinutes) * time.Minute)

	if record.CheckIn != nil && record.CheckIn.After(graceLimit) {
		record.LateMinutes = int(record.CheckIn.Sub(shiftStart).Minutes())
		record.IsLate = record.LateMinutes > 0
	}

	if record.CheckOut != nil {
		if record.CheckOut.After(shiftEnd) {
			record.OTMinutes = int(record.CheckOut.Sub(shiftEnd).Minutes())
		} else {
			record.ShortMinutes = int(shiftEnd.Sub(*record.CheckOut).Minutes())
			record.IsShort = record.ShortMinutes > 0
		}
	}

	return nil
}

func (s *Service) dispatchDeductions(record *Attendance) error {
	if record.LateMinutes >= s.policy.LateThresholdMinutes {
		if err := s.dispatcher.ProcessLateArrival(record.EmployeeID, record.CompanyID, record.Date, record.LateMinutes); err != nil {
			return err
		}
	}
	if record.ShortMinutes >= s.policy.ShortLeaveThresholdMinutes {
		if err := s.dispatcher.ProcessShortLeave(record.EmployeeID, record.CompanyID, record.Date, record.ShortMinutes); err != nil {
			return err
		}
	}
	return nil
}

func defaultString(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
