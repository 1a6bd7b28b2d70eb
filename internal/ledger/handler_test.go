package ledger_test

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"

	"github.com/go-chi/chi"
	"github.com/hrops/attendance-ledger/internal/ledger"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Ledger Handler", func() {
	var (
		store   *MockStore
		handler *ledger.Handler
		router  *chi.Mux
	)

	BeforeEach(func() {
		store = NewMockStore()
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service := ledger.NewService(store, logger)
		handler = ledger.NewHandler(service)

		router = chi.NewRouter()
		router.Put("/ledgers", handler.UpsertLedger)
		router.Get("/ledgers/{employeeID}", handler.GetLedger)
	})

	Describe("PUT /ledgers", func() {
		It("should upsert and return the recomputed row", func() {
			body := `{
				"employee_id": 7,
				"company_id": 1,
				"month": 1,
				"year": 2025,
				"opening_balance": 2.0,
				"auto_credit": 1.5
			}`
			req := httptest.NewRequest(http.MethodPut, "/ledgers", strings.NewReader(body))
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))
			var row ledger.Ledger
			Expect(json.NewDecoder(w.Body).Decode(&row)).To(Succeed())
			Expect(row.ClosingBalance).To(Equal(3.5))
		})

		It("should ignore a submitted closing balance", func() {
			body := `{
				"employee_id": 7,
				"month": 1,
				"year": 2025,
				"opening_balance": 2.0,
				"closing_balance": 99.0
			}`
			req := httptest.NewRequest(http.MethodPut, "/ledgers", strings.NewReader(body))
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))
			var row ledger.Ledger
			Expect(json.NewDecoder(w.Body).Decode(&row)).To(Succeed())
			Expect(row.ClosingBalance).To(Equal(2.0))
		})

		It("should reject an invalid period", func() {
			body := `{"employee_id": 7, "month": 13, "year": 2025}`
			req := httptest.NewRequest(http.MethodPut, "/ledgers", strings.NewReader(body))
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("should reject malformed JSON", func() {
			req := httptest.NewRequest(http.MethodPut, "/ledgers", strings.NewReader("{"))
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("GET /ledgers/{employeeID}", func() {
		BeforeEach(func() {
			Expect(store.Save(&ledger.Ledger{EmployeeID: 7, Month: 1, Year: 2025, ClosingBalance: 3.5})).To(Succeed())
			Expect(store.Save(&ledger.Ledger{EmployeeID: 7, Month: 2, Year: 2025, ClosingBalance: 4.0})).To(Succeed())
		})

		It("should list the employee's months", func() {
			req := httptest.NewRequest(http.MethodGet, "/ledgers/7", nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))
			var rows []*ledger.Ledger
			Expect(json.NewDecoder(w.Body).Decode(&rows)).To(Succeed())
			Expect(rows).To(HaveLen(2))
		})

		It("should narrow by month and year", func() {
			req := httptest.NewRequest(http.MethodGet, "/ledgers/7?month=2&year=2025", nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))
			var rows []*ledger.Ledger
			Expect(json.NewDecoder(w.Body).Decode(&rows)).To(Succeed())
			Expect(rows).To(HaveLen(1))
			Expect(rows[0].Month).To(Equal(2))
		})

		It("should reject a non-numeric employee id", func() {
			req := httptest.NewRequest(http.MethodGet, "/ledgers/sari", nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})
	})
})
