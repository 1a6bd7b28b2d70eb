package attendance

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi"
	"github.com/hrops/attendance-ledger/internal"
	"github.com/hrops/attendance-ledger/internal/transport"
	"github.com/hrops/attendance-ledger/pkg/logger"
)

type ServiceAPI interface {
	Reconcile(dto *ReconcileDTO) (*Attendance, error)
	GetAttendance(employeeID int64, date time.Time) (*Attendance, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(service ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     service,
	}
}

// Reconcile handles POST /attendance/reconcile.
func (h *Handler) Reconcile(w http.ResponseWriter, r *http.Request) {
	var dto ReconcileDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("Reconcile: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := dto.Validate(); err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	record, err := h.Service.Reconcile(&dto)
	if err != nil {
		h.Logger.Error("Reconcile: service error", "error", err, "employee_id", dto.EmployeeID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, record)
}

// GetAttendance handles GET /attendance/{employeeID}/{date}.
func (h *Handler) GetAttendance(w http.ResponseWriter, r *http.Request) {
	employeeID, err := strconv.ParseInt(chi.URLParam(r, "employeeID"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid employee id")
		return
	}

	date, err := time.Parse("2006-01-02", chi.URLParam(r, "date"))
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return
	}

	record, err := h.Service.GetAttendance(employeeID, date)
	if err != nil {
		if errors.Is(err, ErrAttendanceNotFound) {
			h.HandleServiceError(w, internal.NewNotFoundError("attendance record not found", internal.ErrCodeAttendanceNotFound))
			return
		}
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, record)
}
