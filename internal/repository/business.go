package repository

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/atinyakov/bizops/internal/models"
)

// ListCompanies returns the companies owned by owner, ordered by name.
func (m *Memory) ListCompanies(ctx context.Context, owner int64) ([]models.Company, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []models.Company{}
	for _, oc := range m.companies {
		if oc.owner == owner {
			out = append(out, oc.company)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CompanyName < out[j].CompanyName })
	return out, nil
}

// CreateCompany stores c under a new id. GST numbers are unique across all
// owners.
func (m *Memory) CreateCompany(ctx context.Context, owner int64, c models.Company) (models.Company, error) {
	if err := ctx.Err(); err != nil {
		return models.Company{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gstTaken(c.GSTNumber, "") {
		return models.Company{}, ErrDuplicateGST
	}
	c.ID = uuid.NewString()
	m.companies[c.ID] = ownedCompany{owner: owner, company: c}
	return c, nil
}

// UpdateCompany replaces the company with c.ID if owner owns it.
func (m *Memory) UpdateCompany(ctx context.Context, owner int64, c models.Company) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	oc, ok := m.companies[c.ID]
	if !ok || oc.owner != owner {
		return ErrNotFound
	}
	if m.gstTaken(c.GSTNumber, c.ID) {
		return ErrDuplicateGST
	}
	m.companies[c.ID] = ownedCompany{owner: owner, company: c}
	return nil
}

// CompanyOwner returns the owner of companyID.
func (m *Memory) CompanyOwner(ctx context.Context, companyID string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	oc, ok := m.companies[companyID]
	if !ok {
		return 0, ErrNotFound
	}
	return oc.owner, nil
}

func (m *Memory) gstTaken(gst, except string) bool {
	for id, oc := range m.companies {
		if id != except && strings.EqualFold(oc.company.GSTNumber, gst) {
			return true
		}
	}
	return false
}

// ListEmployees returns the employees of companyID, ordered by name.
func (m *Memory) ListEmployees(ctx context.Context, companyID string) ([]models.Employee, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []models.Employee{}
	for _, e := range m.employees {
		if e.CompanyID == companyID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Employee returns the employee with id.
func (m *Memory) Employee(ctx context.Context, id string) (models.Employee, error) {
	if err := ctx.Err(); err != nil {
		return models.Employee{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.employees[id]
	if !ok {
		return models.Employee{}, ErrNotFound
	}
	return e, nil
}

// CreateEmployee stores e under a new id.
func (m *Memory) CreateEmployee(ctx context.Context, e models.Employee) (models.Employee, error) {
	if err := ctx.Err(); err != nil {
		return models.Employee{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e.ID = uuid.NewString()
	m.employees[e.ID] = e
	return e, nil
}

// UpdateEmployee replaces the employee with e.ID. The company is kept.
func (m *Memory) UpdateEmployee(ctx context.Context, e models.Employee) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	old, ok := m.employees[e.ID]
	if !ok {
		return ErrNotFound
	}
	e.CompanyID = old.CompanyID
	m.employees[e.ID] = e
	return nil
}

// DeleteEmployee removes the employee and their attendance.
func (m *Memory) DeleteEmployee(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.employees[id]; !ok {
		return ErrNotFound
	}
	delete(m.employees, id)
	for key, a := range m.attendance {
		if a.EmployeeID == id {
			delete(m.attendance, key)
		}
	}
	return nil
}

// ListAttendance returns the attendance of companyID's employees on date.
func (m *Memory) ListAttendance(ctx context.Context, companyID, date string) ([]models.Attendance, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []models.Attendance{}
	for _, a := range m.attendance {
		if a.Date != date {
			continue
		}
		if e, ok := m.employees[a.EmployeeID]; ok && e.CompanyID == companyID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EmployeeID < out[j].EmployeeID })
	return out, nil
}

// MarkAttendance records a's status, overwriting the same employee and date.
func (m *Memory) MarkAttendance(ctx context.Context, a models.Attendance) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.employees[a.EmployeeID]; !ok {
		return ErrNotFound
	}
	m.attendance[a.EmployeeID+"|"+a.Date] = a
	return nil
}

// ListInvoices returns the invoices of companyID.
func (m *Memory) ListInvoices(ctx context.Context, companyID string) ([]models.Invoice, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []models.Invoice{}
	for _, inv := range m.invoices {
		if inv.CompanyID == companyID {
			out = append(out, inv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// CreateInvoice stores inv under a new id.
func (m *Memory) CreateInvoice(ctx context.Context, inv models.Invoice) (models.Invoice, error) {
	if err := ctx.Err(); err != nil {
		return models.Invoice{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	inv.ID = uuid.NewString()
	m.invoices[inv.ID] = inv
	return inv, nil
}

// ListMembers returns the gym members of companyID, ordered by name.
func (m *Memory) ListMembers(ctx context.Context, companyID string) ([]models.Member, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []models.Member{}
	for _, mem := range m.members {
		if mem.CompanyID == companyID {
			out = append(out, mem)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// CreateMember stores mem under a new id.
func (m *Memory) CreateMember(ctx context.Context, mem models.Member) (models.Member, error) {
	if err := ctx.Err(); err != nil {
		return models.Member{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	mem.ID = uuid.NewString()
	m.members[mem.ID] = mem
	return mem, nil
}
