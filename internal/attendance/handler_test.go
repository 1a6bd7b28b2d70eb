package attendance_test

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi"
	"github.com/hrops/attendance-ledger/internal"
	"github.com/hrops/attendance-ledger/internal/attendance"
	"github.com/hrops/attendance-ledger/internal/geo"
	"github.com/hrops/attendance-ledger/internal/roster"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testPolicy() internal.PolicyConfig {
	return internal.PolicyConfig{
		GeofenceRadiusMeters:       200,
		LateThresholdMinutes:       31,
		ShortLeaveThresholdMinutes: 90,
	}
}

var _ = Describe("Attendance Handler", func() {
	var (
		mockRepo *MockRepository
		handler  *attendance.Handler
		router   *chi.Mux
	)

	BeforeEach(func() {
		mockRepo = NewMockRepository()
		mockRepo.companyLoc = &geo.Coordinate{Latitude: -6.2146, Longitude: 106.8451}
		matcher := &MockRosterMatcher{
			assignment: &roster.Assignment{
				ShiftID:      3,
				StartTime:    "09:00",
				EndTime:      "17:00",
				GraceMinutes: 10,
			},
		}
		policy := testPolicy()
		service := attendance.NewService(mockRepo, matcher, geo.NewValidator(200), &MockDispatcher{}, policy, testLogger())
		handler = attendance.NewHandler(service)

		router = chi.NewRouter()
		router.Post("/attendance/reconcile", handler.Reconcile)
		router.Get("/attendance/{employeeID}/{date}", handler.GetAttendance)
	})

	Describe("POST /attendance/reconcile", func() {
		It("should reconcile a valid event", func() {
			body := `{
				"employee_id": 7,
				"company_id": 1,
				"date": "2025-03-10T00:00:00Z",
				"check_in": "2025-03-10T09:25:00Z"
			}`
			req := httptest.NewRequest(http.MethodPost, "/attendance/reconcile", strings.NewReader(body))
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Header().Get("Content-Type")).To(ContainSubstring("application/json"))

			var record attendance.Attendance
			Expect(json.NewDecoder(w.Body).Decode(&record)).To(Succeed())
			Expect(record.LateMinutes).To(Equal(25))
			Expect(record.IsLate).To(BeTrue())
		})

		It("should reject malformed JSON", func() {
			req := httptest.NewRequest(http.MethodPost, "/attendance/reconcile", strings.NewReader("{nope"))
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("should reject a payload that fails validation", func() {
			body := `{"employee_id": 7, "company_id": 1, "date": "2025-03-10T00:00:00Z", "work_from": "BEACH"}`
			req := httptest.NewRequest(http.MethodPost, "/attendance/reconcile", strings.NewReader(body))
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("GET /attendance/{employeeID}/{date}", func() {
		BeforeEach(func() {
			date := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
			Expect(mockRepo.Upsert(&attendance.Attendance{
				EmployeeID: 7,
				CompanyID:  1,
				Date:       date,
				WorkFrom:   attendance.WorkFromOffice,
				Status:     attendance.StatusPresent,
			})).To(Succeed())
		})

		It("should return the stored record", func() {
			req := httptest.NewRequest(http.MethodGet, "/attendance/7/2025-03-10", nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))
			var record attendance.Attendance
			Expect(json.NewDecoder(w.Body).Decode(&record)).To(Succeed())
			Expect(record.EmployeeID).To(Equal(int64(7)))
		})

		It("should return 404 for a missing day", func() {
			req := httptest.NewRequest(http.MethodGet, "/attendance/7/2025-03-11", nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)
			Expect(w.Code).To(Equal(http.StatusNotFound))
		})

		It("should reject a malformed date", func() {
			req := httptest.NewRequest(http.MethodGet, "/attendance/7/yesterday", nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("should reject a non-numeric employee id", func() {
			req := httptest.NewRequest(http.MethodGet, "/attendance/sari/2025-03-10", nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})
	})
})
