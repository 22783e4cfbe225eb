package api

import (
	"context"

	"github.com/atinyakov/bizops/internal/client"
	"github.com/atinyakov/bizops/internal/models"
	"github.com/atinyakov/bizops/internal/query"
	"github.com/atinyakov/bizops/internal/validate"
)

// Employees covers staff records and attendance of the selected company.
type Employees struct{ *API }

// List returns the employees of the selected company.
func (e *Employees) List(ctx context.Context) client.Result[[]models.Employee] {
	id, err := e.companyID(ctx)
	if err != nil {
		return client.Result[[]models.Employee]{Err: err}
	}
	return decode[[]models.Employee](e.API, e.cache.Query(ctx, EpEmployeeList, nil, companyBody{CompanyID: id}))
}

func (e *Employees) checks(emp models.Employee) []validate.Check {
	return []validate.Check{
		validate.Required("name", emp.Name),
		validate.Mobile("mobile", emp.Mobile),
		validate.Optional(emp.Email, validate.Email("email", emp.Email)),
	}
}

// Add creates an employee in the selected company.
func (e *Employees) Add(ctx context.Context, emp models.Employee) error {
	if err := e.check(e.checks(emp)...); err != nil {
		return err
	}
	id, err := e.companyID(ctx)
	if err != nil {
		return err
	}
	emp.CompanyID = id
	if e.cache.Mutate(ctx, EpAddEmployee, nil, emp) == nil {
		return client.ErrFailed
	}
	return nil
}

// Update saves changes to an existing employee.
func (e *Employees) Update(ctx context.Context, emp models.Employee) error {
	checks := append([]validate.Check{validate.Required("id", emp.ID)}, e.checks(emp)...)
	if err := e.check(checks...); err != nil {
		return err
	}
	if e.cache.Mutate(ctx, EpUpdateEmployee, query.Params{"id": emp.ID}, emp) == nil {
		return client.ErrFailed
	}
	return nil
}

// Delete removes an employee.
func (e *Employees) Delete(ctx context.Context, id string) error {
	if err := e.check(validate.Required("id", id)); err != nil {
		return err
	}
	if e.cache.Mutate(ctx, EpDeleteEmployee, query.Params{"id": id}, nil) == nil {
		return client.ErrFailed
	}
	return nil
}

type attendanceBody struct {
	CompanyID string `json:"company_id"`
	Date      string `json:"date"`
}

// Attendance returns the attendance of the selected company on date.
func (e *Employees) Attendance(ctx context.Context, date string) client.Result[[]models.Attendance] {
	id, err := e.companyID(ctx)
	if err != nil {
		return client.Result[[]models.Attendance]{Err: err}
	}
	env := e.cache.Query(ctx, EpAttendanceList, nil, attendanceBody{CompanyID: id, Date: date})
	return decode[[]models.Attendance](e.API, env)
}

// MarkAttendance records one employee's status for a day.
func (e *Employees) MarkAttendance(ctx context.Context, a models.Attendance) error {
	if err := e.check(
		validate.Required("employee_id", a.EmployeeID),
		validate.Required("date", a.Date),
		validate.Required("status", string(a.Status)),
	); err != nil {
		return err
	}
	if e.cache.Mutate(ctx, EpMarkAttendance, nil, a) == nil {
		return client.ErrFailed
	}
	return nil
}
