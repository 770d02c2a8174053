package overtime

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/warp/overtime-engine/generic"
)

// =============================================================================
// MEMORY REPOSITORY - In-memory RecordStore (for testing/dev)
// =============================================================================

type MemoryRepository struct {
	mu          sync.RWMutex
	employees   map[string]Employee
	entries     map[string]TimeEntry
	absences    map[string]AbsenceRequest
	corrections []Correction
	holidays    map[int][]generic.Holiday
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		employees: make(map[string]Employee),
		entries:   make(map[string]TimeEntry),
		absences:  make(map[string]AbsenceRequest),
		holidays:  make(map[int][]generic.Holiday),
	}
}

func (r *MemoryRepository) GetEmployee(_ context.Context, id string) (*Employee, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.employees[id]
	if !ok {
		return nil, &generic.NotFoundError{Kind: "employee", ID: id}
	}
	return &e, nil
}

func (r *MemoryRepository) ListEmployees(_ context.Context) ([]Employee, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Employee, 0, len(r.employees))
	for _, e := range r.employees {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *MemoryRepository) SaveEmployee(_ context.Context, e Employee) error {
	if err := e.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.employees[e.ID] = e
	return nil
}

func (r *MemoryRepository) TimeEntries(_ context.Context, employeeID string, from, to generic.Date) ([]TimeEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p := generic.Period{Start: from, End: to}
	var out []TimeEntry
	for _, t := range r.entries {
		if t.EmployeeID == employeeID && p.Contains(t.Date) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *MemoryRepository) SaveTimeEntry(_ context.Context, t TimeEntry) error {
	if err := t.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[t.ID] = t
	return nil
}

func (r *MemoryRepository) DeleteTimeEntry(_ context.Context, id string) (*TimeEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.entries[id]
	if !ok {
		return nil, &generic.NotFoundError{Kind: "time entry", ID: id}
	}
	delete(r.entries, id)
	return &t, nil
}

func (r *MemoryRepository) Absences(_ context.Context, employeeID string, from, to generic.Date) ([]AbsenceRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p := generic.Period{Start: from, End: to}
	var out []AbsenceRequest
	for _, a := range r.absences {
		if a.EmployeeID == employeeID && a.Period().Overlaps(p) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Start.Equal(out[j].Start) {
			return out[i].Start.Before(out[j].Start)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *MemoryRepository) GetAbsence(_ context.Context, id string) (*AbsenceRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.absences[id]
	if !ok {
		return nil, &generic.NotFoundError{Kind: "absence", ID: id}
	}
	return &a, nil
}

func (r *MemoryRepository) SaveAbsence(_ context.Context, a AbsenceRequest) error {
	if err := a.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.absences[a.ID] = a
	return nil
}

func (r *MemoryRepository) Corrections(_ context.Context, employeeID string, from, to generic.Date) ([]Correction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p := generic.Period{Start: from, End: to}
	var out []Correction
	for _, c := range r.corrections {
		if c.EmployeeID == employeeID && p.Contains(c.Date) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *MemoryRepository) AddCorrection(_ context.Context, c Correction) error {
	if err := c.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.corrections = append(r.corrections, c)
	return nil
}

func (r *MemoryRepository) Holidays(_ context.Context, year int) ([]generic.Holiday, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	hs, ok := r.holidays[year]
	if !ok {
		return nil, false, nil
	}
	return append([]generic.Holiday(nil), hs...), true, nil
}

func (r *MemoryRepository) SaveHolidays(_ context.Context, year int, holidays []generic.Holiday) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	hs := make([]generic.Holiday, 0, len(holidays))
	for _, h := range holidays {
		if h.Date.Year() != year {
			return &generic.ValidationError{Field: "holidays", Message: fmt.Sprintf("%s is outside %d", h.Date, year)}
		}
		hs = append(hs, h)
	}
	r.holidays[year] = hs
	return nil
}
