package roster

import (
	"errors"
	"log/slog"
	"time"
)

// Service resolves the shift window for an employee on a date. An absent
// roster entry is not an error for callers: lateness and shortfall simply
// cannot be computed for that day.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Match returns the assignment for the employee on the date, or nil when the
// roster has no entry.
func (s *Service) Match(employeeID int64, date time.Time) (*Assignment, error) {
	assignment, err := s.repo.GetAssignment(employeeID, date)
	if err != nil {
		if errors.Is(err, ErrNoAssignment) {
			s.logger.Debug("no roster assignment",
				"employee_id", employeeID,
				"date", date.Format("2006-01-02"))
			return nil, nil
		}
		s.logger.Error("roster lookup failed", "error", err, "employee_id", employeeID)
		return nil, err
	}
	return assignment, nil
}
