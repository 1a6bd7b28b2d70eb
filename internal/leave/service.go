package leave

import (
	"errors"
	"log/slog"

	"github.com/hrops/attendance-ledger/internal/ledger"
)

// Service is the leave request state machine. SetStatus recomputes ledger
// deltas relative to the previous status: moving into APPROVED charges the
// duration, moving out of APPROVED refunds it, every other transition pair
// leaves the ledger untouched.
type Service struct {
	store  Store
	logger *slog.Logger
}

func NewService(store Store, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// CreateLeave records a new PENDING request. No ledger effect until approval.
func (s *Service) CreateLeave(dto CreateLeaveDTO) (*LeaveRequest, error) {
	if err := dto.Validate(); err != nil {
		s.logger.Error("leave creation validation failed", "error", err, "employee_id", dto.EmployeeID)
		return nil, err
	}

	lr := &LeaveRequest{
		EmployeeID: dto.EmployeeID,
		CompanyID:  dto.CompanyID,
		StartDate:  truncateToDay(dto.StartDate),
		EndDate:    truncateToDay(dto.EndDate),
		Type:       dto.Type,
		Status:     StatusPending,
		Reason:     dto.Reason,
	}

	if err := s.store.Create(lr); err != nil {
		s.logger.Error("leave creation failed", "error", err, "employee_id", dto.EmployeeID)
		return nil, err
	}

	s.logger.Info("leave request created",
		"leave_id", lr.ID,
		"employee_id", lr.EmployeeID,
		"type", lr.Type,
		"days", lr.DurationDays())

	return lr, nil
}

// GetLeave returns a single request.
func (s *Service) GetLeave(id int64) (*LeaveRequest, error) {
	lr, err := s.store.Get(id)
	if err != nil {
		s.logger.Error("leave lookup failed", "error", err, "leave_id", id)
		return nil, err
	}
	return lr, nil
}

// SetStatus transitions a request and applies the ledger and profile side
// effects inside one transaction. Setting the current status is a no-op.
func (s *Service) SetStatus(leaveID int64, newStatus string, approverID int64) (*LeaveRequest, error) {
	if !validStatus[newStatus] {
		return nil, ErrInvalidStatus
	}

	var result *LeaveRequest
	err := s.store.InTx(func(tx Store) error {
		lr, err := tx.GetForUpdate(leaveID)
		if err != nil {
			return err
		}

		if lr.Status == newStatus {
			result = lr
			return nil
		}

		prevStatus := lr.Status
		duration := float64(lr.DurationDays())

		var delta float64
		switch {
		case newStatus == StatusApproved && prevStatus != StatusApproved:
			delta = duration
		case prevStatus == StatusApproved && newStatus != StatusApproved:
			delta = -duration
		}

		lr.Status = newStatus
		if approverID > 0 {
			lr.ApprovedByID = &approverID
		}
		if err := tx.Save(lr); err != nil {
			return err
		}

		if delta != 0 {
			if err := s.applyLedgerDelta(tx, lr, delta); err != nil {
				return err
			}
		}

		s.logger.Info("leave status transitioned",
			"leave_id", lr.ID,
			"employee_id", lr.EmployeeID,
			"from", prevStatus,
			"to", newStatus,
			"taken_delta", delta)

		result = lr
		return nil
	})
	if err != nil {
		s.logger.Error("leave transition failed", "error", err, "leave_id", leaveID, "status", newStatus)
		return nil, err
	}

	return result, nil
}

// applyLedgerDelta adjusts takenLeaves for the month of StartDate, cascades
// the recomputed closing balance forward and syncs the profile cache plus
// the per-type bucket.
func (s *Service) applyLedgerDelta(tx Store, lr *LeaveRequest, delta float64) error {
	ledgers := tx.Ledgers()
	month := int(lr.StartDate.Month())
	year := lr.StartDate.Year()

	row, err := ledgers.GetForUpdate(lr.EmployeeID, month, year)
	if err != nil {
		if !errors.Is(err, ledger.ErrLedgerNotFound) {
			return err
		}
		row = &ledger.Ledger{
			EmployeeID: lr.EmployeeID,
			CompanyID:  lr.CompanyID,
			Month:      month,
			Year:       year,
		}
		prevMonth, prevYear := ledger.PrevPeriod(month, year)
		prev, err := ledgers.Get(lr.EmployeeID, prevMonth, prevYear)
		if err != nil && !errors.Is(err, ledger.ErrLedgerNotFound) {
			return err
		}
		if prev != nil {
			row.OpeningBalance = prev.ClosingBalance
		}
	}

	row.TakenLeaves += delta
	if row.TakenLeaves < 0 {
		row.TakenLeaves = 0
	}
	row.ClosingBalance = ledger.RecomputeClosing(row)

	if err := ledgers.Save(row); err != nil {
		return err
	}
	if err := ledger.CascadeForward(ledgers, row); err != nil {
		return err
	}

	emp, err := tx.GetEmployeeForUpdate(lr.EmployeeID)
	if err != nil {
		return err
	}
	emp.CurrentLeaveBalance = row.ClosingBalance
	emp.LeaveBalances.ApplyUsed(BucketForType(lr.Type), delta)
	return tx.SaveEmployee(emp)
}
