package attendance_test

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/hrops/attendance-ledger/internal"
	"github.com/hrops/attendance-ledger/internal/attendance"
	"github.com/hrops/attendance-ledger/internal/geo"
	"github.com/hrops/attendance-ledger/internal/roster"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestAttendanceService(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Attendance Service Suite")
}

// MockRepository implements attendance.Repository for testing
type MockRepository struct {
	records      map[string]*attendance.Attendance
	companyLoc   *geo.Coordinate
	upsertCalls  int
	failError    error
	locFailError error
}

func NewMockRepository() *MockRepository {
	return &MockRepository{records: make(map[string]*attendance.Attendance)}
}

func recordKey(employeeID int64, date time.Time) string {
	return fmt.Sprintf("%d-%s", employeeID, date.Format("2006-01-02"))
}

func (m *MockRepository) Upsert(a *attendance.Attendance) error {
	if m.failError != nil {
		return m.failError
	}
	m.upsertCalls++
	m.records[recordKey(a.EmployeeID, a.Date)] = a
	return nil
}

func (m *MockRepository) GetByEmployeeAndDate(employeeID int64, date time.Time) (*attendance.Attendance, error) {
	if a, ok := m.records[recordKey(employeeID, date)]; ok {
		return a, nil
	}
	return nil, attendance.ErrAttendanceNotFound
}

func (m *MockRepository) GetCompanyLocation(companyID int64) (*geo.Coordinate, error) {
	if m.locFailError != nil {
		return nil, m.locFailError
	}
	return m.companyLoc, nil
}

// MockRosterMatcher implements attendance.RosterMatcher for testing
type MockRosterMatcher struct {
	assignment *roster.Assignment
	failError  error
}

func (m *MockRosterMatcher) Match(employeeID int64, date time.Time) (*roster.Assignment, error) {
	return m.assignment, m.failError
}

// MockDispatcher implements attendance.DeductionDispatcher for testing
type MockDispatcher struct {
	lateCalls  []int
	shortCalls []int
	failError  error
}

func (m *MockDispatcher) ProcessLateArrival(employeeID, companyID int64, date time.Time, lateMinutes int) error {
	if m.failError != nil {
		return m.failError
	}
	m.lateCalls = append(m.lateCalls, lateMinutes)
	return nil
}

func (m *MockDispatcher) ProcessShortLeave(employeeID, companyID int64, date time.Time, shortMinutes int) error {
	if m.failError != nil {
		return m.failError
	}
	m.shortCalls = append(m.shortCalls, shortMinutes)
	return nil
}

var _ = Describe("Attendance Service", func() {
	var (
		mockRepo   *MockRepository
		matcher    *MockRosterMatcher
		dispatcher *MockDispatcher
		service    *attendance.Service
		date       time.Time
	)

	office := geo.Coordinate{Latitude: -6.2146, Longitude: 106.8451}

	policy := internal.PolicyConfig{
		GeofenceRadiusMeters:       200,
		LateThresholdMinutes:       31,
		ShortLeaveThresholdMinutes: 90,
	}

	at := func(hour, min int) *time.Time {
		t := time.Date(2025, 3, 10, hour, min, 0, 0, time.UTC)
		return &t
	}

	baseDTO := func() *attendance.ReconcileDTO {
		return &attendance.ReconcileDTO{
			EmployeeID: 7,
			CompanyID:  1,
			Date:       date,
		}
	}

	BeforeEach(func() {
		mockRepo = NewMockRepository()
		mockRepo.companyLoc = &office
		matcher = &MockRosterMatcher{
			assignment: &roster.Assignment{
				ShiftID:      3,
				StartTime:    "09:00",
				EndTime:      "17:00",
				GraceMinutes: 10,
			},
		}
		dispatcher = &MockDispatcher{}
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = attendance.NewService(mockRepo, matcher, geo.NewValidator(200), dispatcher, policy, logger)
		date = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	})

	Describe("lateness", func() {
		It("should not flag a check-in within the grace period", func() {
			dto := baseDTO()
			dto.CheckIn = at(9, 5)

			record, err := service.Reconcile(dto)
			Expect(err).NotTo(HaveOccurred())
			Expect(record.IsLate).To(BeFalse())
			Expect(record.LateMinutes).To(BeZero())
		})

		It("should measure lateness from shift start once past the grace limit", func() {
			dto := baseDTO()
			dto.CheckIn = at(9, 25)

			record, err := service.Reconcile(dto)
			Expect(err).NotTo(HaveOccurred())
			Expect(record.IsLate).To(BeTrue())
			Expect(record.LateMinutes).To(Equal(25))
		})

		It("should not dispatch a deduction below the policy threshold", func() {
			dto := baseDTO()
			dto.CheckIn = at(9, 25)

			_, err := service.Reconcile(dto)
			Expect(err).NotTo(HaveOccurred())
			Expect(dispatcher.lateCalls).To(BeEmpty())
		})

		It("should dispatch a deduction at or above the policy threshold", func() {
			dto := baseDTO()
			dto.CheckIn = at(9, 40)

			record, err := service.Reconcile(dto)
			Expect(err).NotTo(HaveOccurred())
			Expect(record.LateMinutes).To(Equal(40))
			Expect(dispatcher.lateCalls).To(Equal([]int{40}))
		})
	})

	Describe("checkout outcomes", func() {
		It("should record overtime when checkout is after shift end", func() {
			dto := baseDTO()
			dto.CheckIn = at(9, 0)
			dto.CheckOut = at(17, 45)

			record, err := service.Reconcile(dto)
			Expect(err).NotTo(HaveOccurred())
			Expect(record.OTMinutes).To(Equal(45))
			Expect(record.ShortMinutes).To(BeZero())
			Expect(record.IsShort).To(BeFalse())
		})

		It("should record shortfall when checkout is before shift end", func() {
			dto := baseDTO()
			dto.CheckIn = at(9, 0)
			dto.CheckOut = at(16, 0)

			record, err := service.Reconcile(dto)
			Expect(err).NotTo(HaveOccurred())
			Expect(record.ShortMinutes).To(Equal(60))
			Expect(record.IsShort).To(BeTrue())
			Expect(record.OTMinutes).To(BeZero())
		})

		It("should never record both overtime and shortfall", func() {
			dto := baseDTO()
			dto.CheckIn = at(9, 0)
			dto.CheckOut = at(17, 0)

			record, err := service.Reconcile(dto)
			Expect(err).NotTo(HaveOccurred())
			Expect(record.OTMinutes).To(BeZero())
			Expect(record.ShortMinutes).To(BeZero())
		})

		It("should compute outcomes across midnight for an overnight shift", func() {
			matcher.assignment = &roster.Assignment{
				ShiftID:      9,
				StartTime:    "22:00",
				EndTime:      "06:00",
				GraceMinutes: 15,
			}
			checkIn := time.Date(2025, 3, 10, 22, 0, 0, 0, time.UTC)
			checkOut := time.Date(2025, 3, 11, 6, 30, 0, 0, time.UTC)
			dto := baseDTO()
			dto.CheckIn = &checkIn
			dto.CheckOut = &checkOut

			record, err := service.Reconcile(dto)
			Expect(err).NotTo(HaveOccurred())
			Expect(record.IsLate).To(BeFalse())
			Expect(record.OTMinutes).To(Equal(30))
			Expect(record.ShortMinutes).To(BeZero())
		})

		It("should dispatch a short-leave deduction at or above the policy threshold", func() {
			dto := baseDTO()
			dto.CheckIn = at(9, 0)
			dto.CheckOut = at(15, 0)

			record, err := service.Reconcile(dto)
			Expect(err).NotTo(HaveOccurred())
			Expect(record.ShortMinutes).To(Equal(120))
			Expect(dispatcher.shortCalls).To(Equal([]int{120}))
		})

		It("should not dispatch a short-leave deduction below the threshold", func() {
			dto := baseDTO()
			dto.CheckIn = at(9, 0)
			dto.CheckOut = at(16, 0)

			_, err := service.Reconcile(dto)
			Expect(err).NotTo(HaveOccurred())
			Expect(dispatcher.shortCalls).To(BeEmpty())
		})
	})

	Describe("geofencing", func() {
		lat := func(v float64) *float64 { return &v }

		It("should trust manual entries and stamp the location name", func() {
			dto := baseDTO()
			dto.IsManual = true
			dto.Latitude = lat(-7.0)
			dto.Longitude = lat(110.0)

			record, err := service.Reconcile(dto)
			Expect(err).NotTo(HaveOccurred())
			Expect(record.IsGeofenced).To(BeTrue())
			Expect(record.LocationName).NotTo(BeNil())
			Expect(*record.LocationName).To(Equal(attendance.ManualEntryLocation))
		})

		It("should trust remote work without coordinates", func() {
			dto := baseDTO()
			dto.WorkFrom = attendance.WorkFromRemote

			record, err := service.Reconcile(dto)
			Expect(err).NotTo(HaveOccurred())
			Expect(record.IsGeofenced).To(BeTrue())
		})

		It("should pass when no coordinate was reported", func() {
			dto := baseDTO()
			dto.CheckIn = at(9, 0)

			record, err := service.Reconcile(dto)
			Expect(err).NotTo(HaveOccurred())
			Expect(record.IsGeofenced).To(BeTrue())
		})

		It("should pass a coordinate inside the company radius", func() {
			dto := baseDTO()
			dto.Latitude = lat(-6.2147)
			dto.Longitude = lat(106.8452)

			record, err := service.Reconcile(dto)
			Expect(err).NotTo(HaveOccurred())
			Expect(record.IsGeofenced).To(BeTrue())
		})

		It("should fail a coordinate outside the company radius", func() {
			dto := baseDTO()
			dto.Latitude = lat(-6.25)
			dto.Longitude = lat(106.8451)

			record, err := service.Reconcile(dto)
			Expect(err).NotTo(HaveOccurred())
			Expect(record.IsGeofenced).To(BeFalse())
		})

		It("should propagate a failing company location lookup instead of ruling off-site", func() {
			mockRepo.locFailError = errors.New("companies table unavailable")
			dto := baseDTO()
			dto.Latitude = lat(-6.2147)
			dto.Longitude = lat(106.8452)

			_, err := service.Reconcile(dto)
			Expect(err).To(MatchError(mockRepo.locFailError))
			Expect(mockRepo.records).To(BeEmpty())
		})

		It("should not consult the company location when nothing was reported", func() {
			mockRepo.locFailError = errors.New("companies table unavailable")
			dto := baseDTO()
			dto.CheckIn = at(9, 0)

			record, err := service.Reconcile(dto)
			Expect(err).NotTo(HaveOccurred())
			Expect(record.IsGeofenced).To(BeTrue())
		})

		It("should fail a coordinate when the company has no registered location", func() {
			mockRepo.companyLoc = nil
			dto := baseDTO()
			dto.Latitude = lat(-6.2147)
			dto.Longitude = lat(106.8452)

			record, err := service.Reconcile(dto)
			Expect(err).NotTo(HaveOccurred())
			Expect(record.IsGeofenced).To(BeFalse())
		})
	})

	Describe("roster edge cases", func() {
		It("should reconcile without shift metrics when no roster entry exists", func() {
			matcher.assignment = nil
			dto := baseDTO()
			dto.CheckIn = at(11, 30)
			dto.CheckOut = at(12, 0)

			record, err := service.Reconcile(dto)
			Expect(err).NotTo(HaveOccurred())
			Expect(record.ShiftID).To(BeNil())
			Expect(record.LateMinutes).To(BeZero())
			Expect(record.ShortMinutes).To(BeZero())
			Expect(record.OTMinutes).To(BeZero())
			Expect(dispatcher.lateCalls).To(BeEmpty())
		})

		It("should propagate roster lookup failures", func() {
			matcher.failError = errors.New("roster unavailable")
			_, err := service.Reconcile(baseDTO())
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("idempotency", func() {
		It("should overwrite the same employee-day row on repeat", func() {
			dto := baseDTO()
			dto.CheckIn = at(9, 25)

			_, err := service.Reconcile(dto)
			Expect(err).NotTo(HaveOccurred())

			dto.CheckIn = at(9, 5)
			record, err := service.Reconcile(dto)
			Expect(err).NotTo(HaveOccurred())
			Expect(record.IsLate).To(BeFalse())

			Expect(mockRepo.records).To(HaveLen(1))
			Expect(mockRepo.upsertCalls).To(Equal(2))
		})
	})

	Describe("validation", func() {
		It("should reject an unknown work_from mode", func() {
			dto := baseDTO()
			dto.WorkFrom = "BEACH"

			_, err := service.Reconcile(dto)
			Expect(err).To(MatchError(attendance.ErrInvalidWorkFrom))
		})

		It("should reject checkout before check-in", func() {
			dto := baseDTO()
			dto.CheckIn = at(17, 0)
			dto.CheckOut = at(9, 0)

			_, err := service.Reconcile(dto)
			Expect(err).To(HaveOccurred())
		})

		It("should reject a lone latitude", func() {
			v := -6.2146
			dto := baseDTO()
			dto.Latitude = &v

			_, err := service.Reconcile(dto)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("defaults", func() {
		It("should default work_from to office and status to present", func() {
			record, err := service.Reconcile(baseDTO())
			Expect(err).NotTo(HaveOccurred())
			Expect(record.WorkFrom).To(Equal(attendance.WorkFromOffice))
			Expect(record.Status).To(Equal(attendance.StatusPresent))
		})
	})

	Describe("deduction failures", func() {
		It("should fail the reconciliation so the caller can retry", func() {
			dispatcher.failError = errors.New("ledger unavailable")
			dto := baseDTO()
			dto.CheckIn = at(9, 40)

			_, err := service.Reconcile(dto)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("GetAttendance", func() {
		It("should return the stored record", func() {
			dto := baseDTO()
			dto.CheckIn = at(9, 0)
			_, err := service.Reconcile(dto)
			Expect(err).NotTo(HaveOccurred())

			record, err := service.GetAttendance(7, date)
			Expect(err).NotTo(HaveOccurred())
			Expect(record.EmployeeID).To(Equal(int64(7)))
		})

		It("should surface not-found", func() {
			_, err := service.GetAttendance(99, date)
			Expect(err).To(MatchError(attendance.ErrAttendanceNotFound))
		})
	})
})
