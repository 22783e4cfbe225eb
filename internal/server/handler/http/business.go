package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/atinyakov/bizops/internal/middleware"
	"github.com/atinyakov/bizops/internal/models"
	"github.com/atinyakov/bizops/internal/service"
)

// BusinessService defines the record operations required by the
// BusinessHandler.
type BusinessService interface {
	Companies(ctx context.Context, userID string) ([]models.Company, error)
	CreateCompany(ctx context.Context, userID string, c models.Company) (models.Company, error)
	UpdateCompany(ctx context.Context, userID string, c models.Company) error

	Employees(ctx context.Context, userID, companyID string) ([]models.Employee, error)
	CreateEmployee(ctx context.Context, userID string, e models.Employee) (models.Employee, error)
	UpdateEmployee(ctx context.Context, userID string, e models.Employee) error
	DeleteEmployee(ctx context.Context, userID, id string) error
	Attendance(ctx context.Context, userID, companyID, date string) ([]models.Attendance, error)
	MarkAttendance(ctx context.Context, userID string, a models.Attendance) error

	Invoices(ctx context.Context, userID, companyID string) ([]models.Invoice, error)
	CreateInvoice(ctx context.Context, userID string, inv models.Invoice) (models.Invoice, error)

	Members(ctx context.Context, userID, companyID string) ([]models.Member, error)
	CreateMember(ctx context.Context, userID string, m models.Member) (models.Member, error)
}

// BusinessHandler handles the company, employee, invoice and gym endpoints.
type BusinessHandler struct {
	Service BusinessService
	Logger  *zap.Logger
	// ImageURL is returned with member lists as the image prefix.
	ImageURL string
}

type companyFilter struct {
	CompanyID string `json:"company_id"`
}

type attendanceFilter struct {
	CompanyID string `json:"company_id"`
	Date      string `json:"date"`
}

// userID returns the authenticated caller set by the JWT middleware.
func userID(r *http.Request) string {
	return middleware.GetUserIDFromContext(r.Context())
}

// fail maps a service error onto an envelope.
func (h *BusinessHandler) fail(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, service.ErrDuplicateGST):
		writeFail(w, http.StatusOK, "GST already exists")
	case errors.Is(err, service.ErrNotFound):
		writeFail(w, http.StatusNotFound, "Record not found")
	default:
		h.Logger.Error(op+" failed", zap.Error(err))
		writeFail(w, http.StatusInternalServerError, "internal error")
	}
}

// ListCompanies handles POST /api/hrm/companies/list.
func (h *BusinessHandler) ListCompanies(w http.ResponseWriter, r *http.Request) {
	list, err := h.Service.Companies(r.Context(), userID(r))
	if err != nil {
		h.fail(w, "list companies", err)
		return
	}
	writeOK(w, "", list, nil)
}

// AddCompany handles POST /api/hrm/companies/add.
func (h *BusinessHandler) AddCompany(w http.ResponseWriter, r *http.Request) {
	var c models.Company
	if !decodeBody(w, r, &c) {
		return
	}
	if c.CompanyName == "" || c.GSTNumber == "" {
		writeFail(w, http.StatusOK, "Company name and GST number are required")
		return
	}
	created, err := h.Service.CreateCompany(r.Context(), userID(r), c)
	if err != nil {
		h.fail(w, "add company", err)
		return
	}
	writeOK(w, "Company added successfully", created, nil)
}

// UpdateCompany handles PUT /api/hrm/companies/update/{id}.
func (h *BusinessHandler) UpdateCompany(w http.ResponseWriter, r *http.Request) {
	var c models.Company
	if !decodeBody(w, r, &c) {
		return
	}
	c.ID = chi.URLParam(r, "id")
	if err := h.Service.UpdateCompany(r.Context(), userID(r), c); err != nil {
		h.fail(w, "update company", err)
		return
	}
	writeOK(w, "Company updated successfully", c, nil)
}

// ListEmployees handles POST /api/employee/all-list.
func (h *BusinessHandler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	var f companyFilter
	if !decodeBody(w, r, &f) {
		return
	}
	list, err := h.Service.Employees(r.Context(), userID(r), f.CompanyID)
	if err != nil {
		h.fail(w, "list employees", err)
		return
	}
	writeOK(w, "", list, nil)
}

// AddEmployee handles POST /api/employee/add.
func (h *BusinessHandler) AddEmployee(w http.ResponseWriter, r *http.Request) {
	var e models.Employee
	if !decodeBody(w, r, &e) {
		return
	}
	created, err := h.Service.CreateEmployee(r.Context(), userID(r), e)
	if err != nil {
		h.fail(w, "add employee", err)
		return
	}
	writeOK(w, "Employee added successfully", created, nil)
}

// UpdateEmployee handles PUT /api/employee/update/{id}.
func (h *BusinessHandler) UpdateEmployee(w http.ResponseWriter, r *http.Request) {
	var e models.Employee
	if !decodeBody(w, r, &e) {
		return
	}
	e.ID = chi.URLParam(r, "id")
	if err := h.Service.UpdateEmployee(r.Context(), userID(r), e); err != nil {
		h.fail(w, "update employee", err)
		return
	}
	writeOK(w, "Employee updated successfully", nil, nil)
}

// DeleteEmployee handles DELETE /api/employee/delete/{id}.
func (h *BusinessHandler) DeleteEmployee(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteEmployee(r.Context(), userID(r), chi.URLParam(r, "id")); err != nil {
		h.fail(w, "delete employee", err)
		return
	}
	writeOK(w, "Employee deleted successfully", nil, nil)
}

// Attendance handles POST /api/employee/attendance.
func (h *BusinessHandler) Attendance(w http.ResponseWriter, r *http.Request) {
	var f attendanceFilter
	if !decodeBody(w, r, &f) {
		return
	}
	list, err := h.Service.Attendance(r.Context(), userID(r), f.CompanyID, f.Date)
	if err != nil {
		h.fail(w, "list attendance", err)
		return
	}
	writeOK(w, "", list, nil)
}

// MarkAttendance handles POST /api/employee/mark-attendance.
func (h *BusinessHandler) MarkAttendance(w http.ResponseWriter, r *http.Request) {
	var a models.Attendance
	if !decodeBody(w, r, &a) {
		return
	}
	if err := h.Service.MarkAttendance(r.Context(), userID(r), a); err != nil {
		h.fail(w, "mark attendance", err)
		return
	}
	writeOK(w, "Attendance marked", nil, nil)
}

// ListInvoices handles POST /api/invoice/list.
func (h *BusinessHandler) ListInvoices(w http.ResponseWriter, r *http.Request) {
	var f companyFilter
	if !decodeBody(w, r, &f) {
		return
	}
	list, err := h.Service.Invoices(r.Context(), userID(r), f.CompanyID)
	if err != nil {
		h.fail(w, "list invoices", err)
		return
	}
	writeOK(w, "", list, nil)
}

// CreateInvoice handles POST /api/invoice/create.
func (h *BusinessHandler) CreateInvoice(w http.ResponseWriter, r *http.Request) {
	var inv models.Invoice
	if !decodeBody(w, r, &inv) {
		return
	}
	created, err := h.Service.CreateInvoice(r.Context(), userID(r), inv)
	if err != nil {
		h.fail(w, "create invoice", err)
		return
	}
	writeOK(w, "Invoice created successfully", created, nil)
}

// ListMembers handles POST /api/gym/members. The image prefix is returned as
// the top-level image_url member.
func (h *BusinessHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	var f companyFilter
	if !decodeBody(w, r, &f) {
		return
	}
	list, err := h.Service.Members(r.Context(), userID(r), f.CompanyID)
	if err != nil {
		h.fail(w, "list members", err)
		return
	}
	writeOK(w, "", list, map[string]any{"image_url": h.ImageURL})
}

// AddMember handles POST /api/gym/members/add.
func (h *BusinessHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	var m models.Member
	if !decodeBody(w, r, &m) {
		return
	}
	created, err := h.Service.CreateMember(r.Context(), userID(r), m)
	if err != nil {
		h.fail(w, "add member", err)
		return
	}
	writeOK(w, "Member added successfully", created, nil)
}
