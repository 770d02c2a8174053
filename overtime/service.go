package overtime

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/warp/overtime-engine/generic"
)

// Service is the write side. Every write invalidates the months it can
// affect; the next read recomputes them.
type Service struct {
	Records  RecordStore
	Balances *Materializer
	NewID    func() string
}

func NewService(records RecordStore, balances *Materializer) *Service {
	return &Service{Records: records, Balances: balances, NewID: uuid.NewString}
}

func (s *Service) id(id string) string {
	if id != "" {
		return id
	}
	return s.NewID()
}

// SaveEmployee creates or replaces an employee. A changed hire date,
// schedule or termination date dirties everything from the earlier hire date,
// and months that fell outside the employment window are released from the
// ledger right away.
func (s *Service) SaveEmployee(ctx context.Context, e Employee) (*Employee, error) {
	e.ID = s.id(e.ID)
	if err := e.Validate(); err != nil {
		return nil, err
	}
	from := e.HireDate
	old, err := s.Records.GetEmployee(ctx, e.ID)
	switch {
	case err == nil:
		from = generic.MinDate(from, old.HireDate)
	case !generic.IsNotFound(err):
		return nil, err
	}
	if err := s.Records.SaveEmployee(ctx, e); err != nil {
		return nil, err
	}
	if err := s.Balances.InvalidateEmployee(ctx, e.ID, from); err != nil {
		return nil, err
	}
	if old != nil {
		if err := s.Balances.ReconcileEmployment(ctx, *old, e); err != nil {
			return nil, err
		}
	}
	return &e, nil
}

// RecordTimeEntry stores worked hours for one day.
func (s *Service) RecordTimeEntry(ctx context.Context, t TimeEntry) (*TimeEntry, error) {
	t.ID = s.id(t.ID)
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.Records.GetEmployee(ctx, t.EmployeeID); err != nil {
		return nil, err
	}
	if err := s.Records.SaveTimeEntry(ctx, t); err != nil {
		return nil, err
	}
	return &t, s.Balances.Invalidate(ctx, t.EmployeeID, t.Date, t.Date)
}

// ReplaceTimeEntry swaps an entry for a corrected one, possibly on another day.
// The old day is dirtied as soon as the entry is gone, so a failed save never
// leaves a cached month counting it. The old entry is put back when the save
// fails.
func (s *Service) ReplaceTimeEntry(ctx context.Context, id string, t TimeEntry) (*TimeEntry, error) {
	t.ID = id
	if err := t.Validate(); err != nil {
		return nil, err
	}
	old, err := s.Records.DeleteTimeEntry(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.Balances.Invalidate(ctx, old.EmployeeID, old.Date, old.Date); err != nil {
		return nil, err
	}
	t.EmployeeID = old.EmployeeID
	if err := s.Records.SaveTimeEntry(ctx, t); err != nil {
		if rerr := s.Records.SaveTimeEntry(ctx, *old); rerr != nil {
			return nil, fmt.Errorf("replace time entry %s: %w (restoring the old entry failed: %v)", id, err, rerr)
		}
		return nil, err
	}
	return &t, s.Balances.Invalidate(ctx, t.EmployeeID, t.Date, t.Date)
}

func (s *Service) DeleteTimeEntry(ctx context.Context, id string) error {
	old, err := s.Records.DeleteTimeEntry(ctx, id)
	if err != nil {
		return err
	}
	return s.Balances.Invalidate(ctx, old.EmployeeID, old.Date, old.Date)
}

// RequestAbsence stores an absence, pending unless a status is given.
func (s *Service) RequestAbsence(ctx context.Context, a AbsenceRequest) (*AbsenceRequest, error) {
	a.ID = s.id(a.ID)
	if a.Status == "" {
		a.Status = StatusPending
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.Records.GetEmployee(ctx, a.EmployeeID); err != nil {
		return nil, err
	}
	if err := s.Records.SaveAbsence(ctx, a); err != nil {
		return nil, err
	}
	if a.Status == StatusApproved {
		if err := s.Balances.Invalidate(ctx, a.EmployeeID, a.Start, a.End); err != nil {
			return nil, err
		}
	}
	return &a, nil
}

// SetAbsenceStatus approves, rejects or reopens an absence.
func (s *Service) SetAbsenceStatus(ctx context.Context, id string, status AbsenceStatus) (*AbsenceRequest, error) {
	if _, err := ParseAbsenceStatus(string(status)); err != nil {
		return nil, err
	}
	a, err := s.Records.GetAbsence(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.Status == status {
		return a, nil
	}
	wasApproved := a.Status == StatusApproved
	a.Status = status
	if err := s.Records.SaveAbsence(ctx, *a); err != nil {
		return nil, err
	}
	if wasApproved || status == StatusApproved {
		if err := s.Balances.Invalidate(ctx, a.EmployeeID, a.Start, a.End); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// AddCorrection appends a manual adjustment. Reason and author are required.
func (s *Service) AddCorrection(ctx context.Context, c Correction) (*Correction, error) {
	c.ID = s.id(c.ID)
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.Records.GetEmployee(ctx, c.EmployeeID); err != nil {
		return nil, err
	}
	if err := s.Records.AddCorrection(ctx, c); err != nil {
		return nil, err
	}
	return &c, s.Balances.Invalidate(ctx, c.EmployeeID, c.Date, c.Date)
}

// LoadHolidays replaces a year's holidays and dirties that year for everyone.
func (s *Service) LoadHolidays(ctx context.Context, year int, holidays []generic.Holiday) error {
	if err := s.Records.SaveHolidays(ctx, year, holidays); err != nil {
		return err
	}
	employees, err := s.Records.ListEmployees(ctx)
	if err != nil {
		return err
	}
	for _, e := range employees {
		if err := s.Balances.Invalidate(ctx, e.ID, generic.StartOfYear(year), generic.EndOfYear(year)); err != nil {
			return fmt.Errorf("holidays %d: %w", year, err)
		}
	}
	return nil
}
