package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/atinyakov/bizops/internal/models"
	"github.com/atinyakov/bizops/internal/repository"
)

// Business errors.
var (
	// ErrDuplicateGST is returned when a company's GST number is already
	// registered.
	ErrDuplicateGST = errors.New("gst number already registered")
	// ErrNotFound is returned when the addressed record does not exist.
	ErrNotFound = errors.New("record not found")
)

// BusinessRepository defines the persistence operations needed by the
// BusinessService.
type BusinessRepository interface {
	ListCompanies(ctx context.Context, owner int64) ([]models.Company, error)
	CreateCompany(ctx context.Context, owner int64, c models.Company) (models.Company, error)
	UpdateCompany(ctx context.Context, owner int64, c models.Company) error
	CompanyOwner(ctx context.Context, companyID string) (int64, error)

	ListEmployees(ctx context.Context, companyID string) ([]models.Employee, error)
	Employee(ctx context.Context, id string) (models.Employee, error)
	CreateEmployee(ctx context.Context, e models.Employee) (models.Employee, error)
	UpdateEmployee(ctx context.Context, e models.Employee) error
	DeleteEmployee(ctx context.Context, id string) error
	ListAttendance(ctx context.Context, companyID, date string) ([]models.Attendance, error)
	MarkAttendance(ctx context.Context, a models.Attendance) error

	ListInvoices(ctx context.Context, companyID string) ([]models.Invoice, error)
	CreateInvoice(ctx context.Context, inv models.Invoice) (models.Invoice, error)

	ListMembers(ctx context.Context, companyID string) ([]models.Member, error)
	CreateMember(ctx context.Context, m models.Member) (models.Member, error)
}

// BusinessService implements the company-scoped records. Every operation is
// limited to companies owned by the calling user.
type BusinessService struct {
	repo BusinessRepository
}

// NewBusinessService constructs a BusinessService backed by repo.
func NewBusinessService(repo BusinessRepository) *BusinessService {
	return &BusinessService{repo: repo}
}

// translate maps repository errors onto the service's.
func translate(err error) error {
	switch {
	case errors.Is(err, repository.ErrDuplicateGST):
		return ErrDuplicateGST
	case errors.Is(err, repository.ErrNotFound):
		return ErrNotFound
	}
	return err
}

func owner(userID string) (int64, error) {
	id, err := strconv.ParseInt(userID, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse user id: %w", err)
	}
	return id, nil
}

// Companies lists the user's companies.
func (s *BusinessService) Companies(ctx context.Context, userID string) ([]models.Company, error) {
	o, err := owner(userID)
	if err != nil {
		return nil, err
	}
	return s.repo.ListCompanies(ctx, o)
}

// CreateCompany adds a company owned by the user.
func (s *BusinessService) CreateCompany(ctx context.Context, userID string, c models.Company) (models.Company, error) {
	o, err := owner(userID)
	if err != nil {
		return models.Company{}, err
	}
	created, err := s.repo.CreateCompany(ctx, o, c)
	return created, translate(err)
}

// UpdateCompany saves changes to one of the user's companies.
func (s *BusinessService) UpdateCompany(ctx context.Context, userID string, c models.Company) error {
	o, err := owner(userID)
	if err != nil {
		return err
	}
	return translate(s.repo.UpdateCompany(ctx, o, c))
}

// authorize checks that userID owns companyID. Companies of other owners
// are reported as ErrNotFound.
func (s *BusinessService) authorize(ctx context.Context, userID, companyID string) error {
	o, err := owner(userID)
	if err != nil {
		return err
	}
	got, err := s.repo.CompanyOwner(ctx, companyID)
	if err != nil {
		return translate(err)
	}
	if got != o {
		return ErrNotFound
	}
	return nil
}

// employee returns the employee with id if userID owns its company.
func (s *BusinessService) employee(ctx context.Context, userID, id string) (models.Employee, error) {
	e, err := s.repo.Employee(ctx, id)
	if err != nil {
		return models.Employee{}, translate(err)
	}
	if err := s.authorize(ctx, userID, e.CompanyID); err != nil {
		return models.Employee{}, err
	}
	return e, nil
}

// Employees lists the employees of one of the user's companies.
func (s *BusinessService) Employees(ctx context.Context, userID, companyID string) ([]models.Employee, error) {
	if err := s.authorize(ctx, userID, companyID); err != nil {
		return nil, err
	}
	return s.repo.ListEmployees(ctx, companyID)
}

// CreateEmployee adds an employee to one of the user's companies.
func (s *BusinessService) CreateEmployee(ctx context.Context, userID string, e models.Employee) (models.Employee, error) {
	if err := s.authorize(ctx, userID, e.CompanyID); err != nil {
		return models.Employee{}, err
	}
	return s.repo.CreateEmployee(ctx, e)
}

// UpdateEmployee saves changes to one of the user's employees.
func (s *BusinessService) UpdateEmployee(ctx context.Context, userID string, e models.Employee) error {
	if _, err := s.employee(ctx, userID, e.ID); err != nil {
		return err
	}
	return translate(s.repo.UpdateEmployee(ctx, e))
}

// DeleteEmployee removes one of the user's employees.
func (s *BusinessService) DeleteEmployee(ctx context.Context, userID, id string) error {
	if _, err := s.employee(ctx, userID, id); err != nil {
		return err
	}
	return translate(s.repo.DeleteEmployee(ctx, id))
}

// Attendance lists the attendance of one of the user's companies on date.
func (s *BusinessService) Attendance(ctx context.Context, userID, companyID, date string) ([]models.Attendance, error) {
	if err := s.authorize(ctx, userID, companyID); err != nil {
		return nil, err
	}
	return s.repo.ListAttendance(ctx, companyID, date)
}

// MarkAttendance records one day's status for one of the user's employees.
func (s *BusinessService) MarkAttendance(ctx context.Context, userID string, a models.Attendance) error {
	if _, err := s.employee(ctx, userID, a.EmployeeID); err != nil {
		return err
	}
	return translate(s.repo.MarkAttendance(ctx, a))
}

// Invoices lists the invoices of one of the user's companies.
func (s *BusinessService) Invoices(ctx context.Context, userID, companyID string) ([]models.Invoice, error) {
	if err := s.authorize(ctx, userID, companyID); err != nil {
		return nil, err
	}
	return s.repo.ListInvoices(ctx, companyID)
}

// CreateInvoice stores an invoice, recomputing its total from the items.
func (s *BusinessService) CreateInvoice(ctx context.Context, userID string, inv models.Invoice) (models.Invoice, error) {
	if err := s.authorize(ctx, userID, inv.CompanyID); err != nil {
		return models.Invoice{}, err
	}
	var total int64
	for _, it := range inv.Items {
		total += it.Quantity * it.Rate
	}
	inv.Total = total
	return s.repo.CreateInvoice(ctx, inv)
}

// Members lists the gym members of one of the user's companies.
func (s *BusinessService) Members(ctx context.Context, userID, companyID string) ([]models.Member, error) {
	if err := s.authorize(ctx, userID, companyID); err != nil {
		return nil, err
	}
	return s.repo.ListMembers(ctx, companyID)
}

// CreateMember adds a gym member to one of the user's companies.
func (s *BusinessService) CreateMember(ctx context.Context, userID string, m models.Member) (models.Member, error) {
	if err := s.authorize(ctx, userID, m.CompanyID); err != nil {
		return models.Member{}, err
	}
	return s.repo.CreateMember(ctx, m)
}
