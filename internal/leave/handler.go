package leave

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
	CreateLeave(dto CreateLeaveDTO) (*LeaveRequest, error)
	GetLeave(id int64) (*LeaveRequest, error)
	SetStatus(leaveID int64, newStatus string, approverID int64) (*LeaveRequest, error)
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

// CreateLeave handles POST /leaves.
func (h *Handler) CreateLeave(w http.ResponseWriter, r *http.Request) {
	var dto CreateLeaveDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("CreateLeave: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := dto.Validate(); err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	lr, err := h.Service.CreateLeave(dto)
	if err != nil {
		h.Logger.Error("CreateLeave: service error", "error", err, "employee_id", dto.EmployeeID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, lr)
}

// GetLeave handles GET /leaves/{id}.
func (h *Handler) GetLeave(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid leave id")
		return
	}

	lr, err := h.Service.GetLeave(id)
	if err != nil {
		if errors.Is(err, ErrLeaveNotFound) {
			h.HandleServiceError(w, internal.NewNotFoundError("leave request not found", internal.ErrCodeLeaveNotFound))
			return
		}
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, lr)
}

// SetStatus handles PATCH /leaves/{id}/status (approval workflow endpoint).
func (h *Handler) SetStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid leave id")
		return
	}

	var dto SetStatusDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("SetStatus: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := dto.Validate(); err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	lr, err := h.Service.SetStatus(id, dto.Status, dto.ApproverID)
	if err != nil {
		if errors.Is(err, ErrLeaveNotFound) {
			h.HandleServiceError(w, internal.NewNotFoundError("leave request not found", internal.ErrCodeLeaveNotFound))
			return
		}
		h.Logger.Error("SetStatus: service error", "error", err, "leave_id", id)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, lr)
}
