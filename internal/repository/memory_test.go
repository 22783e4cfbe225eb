package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/atinyakov/bizops/internal/models"
)

func TestUserByMobile_CreatesOnce(t *testing.T) {
	ctx := context.Background()
	repo := NewMemory()

	first, err := repo.UserByMobile(ctx, "9876543210")
	if err != nil {
		t.Fatalf("UserByMobile returned error: %v", err)
	}
	again, err := repo.UserByMobile(ctx, "9876543210")
	if err != nil {
		t.Fatalf("UserByMobile returned error: %v", err)
	}
	if first.ID != again.ID || first.AuthKey != again.AuthKey {
		t.Errorf("expected the same user, got %+v and %+v", first, again)
	}
	other, _ := repo.UserByMobile(ctx, "9123456789")
	if other.ID == first.ID {
		t.Error("expected distinct ids for distinct mobiles")
	}

	byID, err := repo.UserByID(ctx, first.ID)
	if err != nil || byID.Mobile != "9876543210" {
		t.Errorf("UserByID = %+v, %v", byID, err)
	}
	if _, err := repo.UserByID(ctx, 999); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestOTPs(t *testing.T) {
	ctx := context.Background()
	repo := NewMemory()
	now := time.Now()

	if err := repo.SaveOTP(ctx, "9876543210", "1234", now.Add(time.Minute)); err != nil {
		t.Fatal(err)
	}
	if err := repo.SaveOTP(ctx, "9123456789", "5678", now.Add(-time.Minute)); err != nil {
		t.Fatal(err)
	}

	removed, err := repo.DeleteExpiredOTPs(ctx, now)
	if err != nil || removed != 1 {
		t.Fatalf("DeleteExpiredOTPs = %d, %v; want 1, nil", removed, err)
	}

	code, _, ok, err := repo.TakeOTP(ctx, "9876543210")
	if err != nil || !ok || code != "1234" {
		t.Fatalf("TakeOTP = %q, %v, %v", code, ok, err)
	}
	if _, _, ok, _ := repo.TakeOTP(ctx, "9876543210"); ok {
		t.Error("a code can only be taken once")
	}
}

func TestCompanies_DuplicateGST(t *testing.T) {
	ctx := context.Background()
	repo := NewMemory()

	a, err := repo.CreateCompany(ctx, 1, models.Company{CompanyName: "Acme", GSTNumber: "29ABCDE1234F1Z5"})
	if err != nil {
		t.Fatal(err)
	}
	if a.ID == "" {
		t.Error("expected an id")
	}
	if _, err := repo.CreateCompany(ctx, 2, models.Company{CompanyName: "Other", GSTNumber: "29abcde1234f1z5"}); !errors.Is(err, ErrDuplicateGST) {
		t.Errorf("expected ErrDuplicateGST, got %v", err)
	}

	b, _ := repo.CreateCompany(ctx, 1, models.Company{CompanyName: "Beta", GSTNumber: "27ABCDE1234F1Z5"})
	b.GSTNumber = a.GSTNumber
	if err := repo.UpdateCompany(ctx, 1, b); !errors.Is(err, ErrDuplicateGST) {
		t.Errorf("expected ErrDuplicateGST on update, got %v", err)
	}
	a.CompanyName = "Acme Fitness"
	if err := repo.UpdateCompany(ctx, 2, a); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for foreign owner, got %v", err)
	}
	if err := repo.UpdateCompany(ctx, 1, a); err != nil {
		t.Errorf("UpdateCompany returned error: %v", err)
	}

	list, _ := repo.ListCompanies(ctx, 1)
	if len(list) != 2 || list[0].CompanyName != "Acme Fitness" {
		t.Errorf("unexpected companies %+v", list)
	}
	if list, _ := repo.ListCompanies(ctx, 3); list == nil || len(list) != 0 {
		t.Errorf("expected empty non-nil list, got %#v", list)
	}
}

func TestEmployeesAndAttendance(t *testing.T) {
	ctx := context.Background()
	repo := NewMemory()

	ravi, _ := repo.CreateEmployee(ctx, models.Employee{CompanyID: "c1", Name: "Ravi"})
	_, _ = repo.CreateEmployee(ctx, models.Employee{CompanyID: "c2", Name: "Sita"})

	if err := repo.MarkAttendance(ctx, models.Attendance{EmployeeID: ravi.ID, Date: "2026-10-01", Status: models.Present}); err != nil {
		t.Fatal(err)
	}
	if err := repo.MarkAttendance(ctx, models.Attendance{EmployeeID: ravi.ID, Date: "2026-10-01", Status: models.HalfDay}); err != nil {
		t.Fatal(err)
	}
	if err := repo.MarkAttendance(ctx, models.Attendance{EmployeeID: "nobody", Date: "2026-10-01"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	att, _ := repo.ListAttendance(ctx, "c1", "2026-10-01")
	if len(att) != 1 || att[0].Status != models.HalfDay {
		t.Errorf("unexpected attendance %+v", att)
	}

	ravi.Name = "Ravi K"
	ravi.CompanyID = "c2"
	if err := repo.UpdateEmployee(ctx, ravi); err != nil {
		t.Fatal(err)
	}
	list, _ := repo.ListEmployees(ctx, "c1")
	if len(list) != 1 || list[0].Name != "Ravi K" {
		t.Errorf("company must not change on update, got %+v", list)
	}

	if err := repo.DeleteEmployee(ctx, ravi.ID); err != nil {
		t.Fatal(err)
	}
	if att, _ := repo.ListAttendance(ctx, "c1", "2026-10-01"); len(att) != 0 {
		t.Errorf("attendance should be removed with the employee, got %+v", att)
	}
	if err := repo.DeleteEmployee(ctx, ravi.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestInvoicesAndMembers(t *testing.T) {
	ctx := context.Background()
	repo := NewMemory()

	inv, _ := repo.CreateInvoice(ctx, models.Invoice{CompanyID: "c1", CustomerName: "Meera", Total: 100})
	if list, _ := repo.ListInvoices(ctx, "c1"); len(list) != 1 || list[0].ID != inv.ID {
		t.Errorf("unexpected invoices %+v", list)
	}

	_, _ = repo.CreateMember(ctx, models.Member{CompanyID: "c1", Name: "Zoya"})
	_, _ = repo.CreateMember(ctx, models.Member{CompanyID: "c1", Name: "Arjun"})
	list, _ := repo.ListMembers(ctx, "c1")
	if len(list) != 2 || list[0].Name != "Arjun" {
		t.Errorf("unexpected members %+v", list)
	}
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	repo := NewMemory()
	if _, err := repo.ListCompanies(ctx, 1); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestLookups(t *testing.T) {
	ctx := context.Background()
	repo := NewMemory()

	c, err := repo.CreateCompany(ctx, 7, models.Company{CompanyName: "Acme", GSTNumber: "29ABCDE1234F1Z5"})
	if err != nil {
		t.Fatal(err)
	}
	owner, err := repo.CompanyOwner(ctx, c.ID)
	if err != nil || owner != 7 {
		t.Errorf("CompanyOwner = %d, %v; want 7", owner, err)
	}
	if _, err := repo.CompanyOwner(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("CompanyOwner(missing) = %v; want ErrNotFound", err)
	}

	e, _ := repo.CreateEmployee(ctx, models.Employee{CompanyID: c.ID, Name: "Ravi"})
	got, err := repo.Employee(ctx, e.ID)
	if err != nil || got.CompanyID != c.ID {
		t.Errorf("Employee = %+v, %v", got, err)
	}
	if _, err := repo.Employee(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Employee(missing) = %v; want ErrNotFound", err)
	}
}
