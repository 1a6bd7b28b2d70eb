package ledger

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/hrops/attendance-ledger/internal"
	"github.com/hrops/attendance-ledger/internal/transport"
	"github.com/hrops/attendance-ledger/pkg/logger"
)

type ServiceAPI interface {
	UpsertLedger(dto UpsertLedgerDTO) (*Ledger, error)
	GetLedger(employeeID int64, month, year int) ([]*Ledger, error)
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

// UpsertLedger handles PUT /ledgers (manual correction endpoint).
func (h *Handler) UpsertLedger(w http.ResponseWriter, r *http.Request) {
	var dto UpsertLedgerDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("UpsertLedger: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := dto.Validate(); err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	row, err := h.Service.UpsertLedger(dto)
	if err != nil {
		h.Logger.Error("UpsertLedger: service error", "error", err, "employee_id", dto.EmployeeID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, row)
}

// GetLedger handles GET /ledgers/{employeeID}?month=&year=.
func (h *Handler) GetLedger(w http.ResponseWriter, r *http.Request) {
	employeeID, err := strconv.ParseInt(chi.URLParam(r, "employeeID"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid employee id")
		return
	}

	month, _ := strconv.Atoi(r.URL.Query().Get("month"))
	year, _ := strconv.Atoi(r.URL.Query().Get("year"))

	rows, err := h.Service.GetLedger(employeeID, month, year)
	if err != nil {
		if errors.Is(err, ErrInvalidLedgerPeriod) {
			h.HandleServiceError(w, internal.NewValidationError("month must be 1-12", internal.ErrCodeInvalidMonth))
			return
		}
		h.Logger.Error("GetLedger: service error", "error", err, "employee_id", employeeID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, rows)
}
