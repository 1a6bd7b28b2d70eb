package attendance

import (
	"errors"
	"time"
)

// ReconcileDTO is the per-event reconciliation request: one check-in/out
// event or one imported sheet row.
type ReconcileDTO struct {
	EmployeeID   int64      `json:"employee_id"`
	CompanyID    int64      `json:"company_id"`
	Date         time.Time  `json:"date"`
	CheckIn      *time.Time `json:"check_in,omitempty"`
	CheckOut     *time.Time `json:"check_out,omitempty"`
	WorkFrom     string     `json:"work_from"`
	Status       string     `json:"status"`
	Latitude     *float64   `json:"latitude,omitempty"`
	Longitude    *float64   `json:"longitude,omitempty"`
	LocationName *string    `json:"location_name,omitempty"`
	IsManual     bool       `json:"is_manual"`
}

func (dto ReconcileDTO) Validate() error {
	if dto.EmployeeID <= 0 {
		return errors.New("employee_id is required")
	}
	if dto.CompanyID <= 0 {
		return errors.New("company_id is required")
	}
	if dto.Date.IsZero() {
		return errors.New("date is required")
	}
	if dto.WorkFrom != "" && !validWorkFrom[dto.WorkFrom] {
		return ErrInvalidWorkFrom
	}
	if dto.Status != "" && !validStatus[dto.Status] {
		return ErrInvalidStatus
	}
	if dto.CheckIn != nil && dto.CheckOut != nil && dto.CheckOut.Before(*dto.CheckIn) {
		return errors.New("check_out cannot be before check_in")
	}
	if (dto.Latitude == nil) != (dto.Longitude == nil) {
		return errors.New("latitude and longitude must be provided together")
	}
	return nil
}
