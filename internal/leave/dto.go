package leave

import (
	"errors"
	"time"
)

// CreateLeaveDTO is the application payload from the surrounding CRUD layer.
type CreateLeaveDTO struct {
	EmployeeID int64     `json:"employee_id"`
	CompanyID  int64     `json:"company_id"`
	StartDate  time.Time `json:"start_date"`
	EndDate    time.Time `json:"end_date"`
	Type       string    `json:"type"`
	Reason     string    `json:"reason"`
}

func (dto CreateLeaveDTO) Validate() error {
	if dto.EmployeeID <= 0 {
		return errors.New("employee_id is required")
	}
	if dto.CompanyID <= 0 {
		return errors.New("company_id is required")
	}
	if dto.StartDate.IsZero() || dto.EndDate.IsZero() {
		return errors.New("start_date and end_date are required")
	}
	if dto.EndDate.Before(dto.StartDate) {
		return errors.New("end_date cannot be before start_date")
	}
	if dto.Type == "" {
		return errors.New("type is required")
	}
	return nil
}

// SetStatusDTO drives the approval-workflow endpoint.
type SetStatusDTO struct {
	Status     string `json:"status"`
	ApproverID int64  `json:"approver_id"`
}

func (dto SetStatusDTO) Validate() error {
	if !validStatus[dto.Status] {
		return ErrInvalidStatus
	}
	return nil
}
