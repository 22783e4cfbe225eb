// Package api declares the concrete endpoints the screens use and the typed
// operations built on them.
//
// Every operation reports failures to the user exactly once: transport and
// server failures through the client, validation and storage failures here.
// The returned error is only for control flow.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/atinyakov/bizops/internal/client"
	"github.com/atinyakov/bizops/internal/notify"
	"github.com/atinyakov/bizops/internal/query"
	"github.com/atinyakov/bizops/internal/session"
	"github.com/atinyakov/bizops/internal/validate"
)

// Cache tags.
const (
	TagEmployee   query.Tag = "Employee"
	TagCompany    query.Tag = "Company"
	TagInvoice    query.Tag = "Invoice"
	TagMember     query.Tag = "Member"
	TagAttendance query.Tag = "Attendance"
	TagProfile    query.Tag = "Profile"
)

// Endpoint names.
const (
	EpSendOTP        = "sendOtp"
	EpVerifyOTP      = "verifyOtp"
	EpProfile        = "profile"
	EpEmployeeList   = "employeeList"
	EpAddEmployee    = "addEmployee"
	EpUpdateEmployee = "updateEmployee"
	EpDeleteEmployee = "deleteEmployee"
	EpAttendanceList = "attendanceList"
	EpMarkAttendance = "markAttendance"
	EpCompanyList    = "companyList"
	EpAddCompany     = "addCompany"
	EpUpdateCompany  = "updateCompany"
	EpInvoiceList    = "invoiceList"
	EpCreateInvoice  = "createInvoice"
	EpMemberList     = "memberList"
	EpAddMember      = "addMember"
)

// ErrNoCompany is returned by company-scoped operations when no company is
// selected in the session.
var ErrNoCompany = errors.New("no company selected")

// API groups the typed operations by business area.
type API struct {
	Auth      *Auth
	Employees *Employees
	Companies *Companies
	Invoices  *Invoices
	Gym       *Gym

	cache    *query.Cache
	session  *session.Session
	notifier notify.Notifier
	log      *zap.Logger
}

// New registers the endpoint catalogue on cache and returns the API.
func New(cache *query.Cache, sess *session.Session, n notify.Notifier, log *zap.Logger) (*API, error) {
	if log == nil {
		log = zap.NewNop()
	}
	a := &API{cache: cache, session: sess, notifier: n, log: log}
	if err := cache.Register(Catalogue(n, log)...); err != nil {
		return nil, fmt.Errorf("register endpoints: %w", err)
	}
	a.Auth = &Auth{a}
	a.Employees = &Employees{a}
	a.Companies = &Companies{a}
	a.Invoices = &Invoices{a}
	a.Gym = &Gym{a}
	return a, nil
}

// Cache exposes the underlying query cache for Peek and Subscribe.
func (a *API) Cache() *query.Cache { return a.cache }

// Catalogue returns every endpoint definition. Mutations show the server's
// success message; failures are already shown by the client, so the failure
// hook only logs.
func Catalogue(n notify.Notifier, log *zap.Logger) []query.Endpoint {
	toast := func(env *client.Envelope) {
		if env.Message != "" {
			notify.Success(n, env.Message)
		}
	}
	logFailure := func(name string) func() {
		return func() { log.Debug("endpoint failed", zap.String("endpoint", name)) }
	}

	q := func(name, method, path string, tag query.Tag) query.Endpoint {
		return query.Endpoint{
			Name: name, Method: method, Path: path, Kind: query.KindQuery, Auth: true,
			Provides:  []query.Tag{tag},
			OnFailure: logFailure(name),
		}
	}
	m := func(name, method, path string, auth bool, tags ...query.Tag) query.Endpoint {
		return query.Endpoint{
			Name: name, Method: method, Path: path, Kind: query.KindMutation, Auth: auth,
			Invalidates: tags,
			OnSuccess:   toast,
			OnFailure:   logFailure(name),
		}
	}

	return []query.Endpoint{
		m(EpSendOTP, http.MethodPost, "api/auth/send-otp", false),
		m(EpVerifyOTP, http.MethodPost, "api/auth/otp-verify", false, TagProfile),
		q(EpProfile, http.MethodGet, "api/auth/profile", TagProfile),

		q(EpEmployeeList, http.MethodPost, "api/employee/all-list", TagEmployee),
		m(EpAddEmployee, http.MethodPost, "api/employee/add", true, TagEmployee),
		m(EpUpdateEmployee, http.MethodPut, "api/employee/update/{id}", true, TagEmployee),
		m(EpDeleteEmployee, http.MethodDelete, "api/employee/delete/{id}", true, TagEmployee, TagAttendance),
		q(EpAttendanceList, http.MethodPost, "api/employee/attendance", TagAttendance),
		m(EpMarkAttendance, http.MethodPost, "api/employee/mark-attendance", true, TagAttendance),

		q(EpCompanyList, http.MethodPost, "api/hrm/companies/list", TagCompany),
		m(EpAddCompany, http.MethodPost, "api/hrm/companies/add", true, TagCompany),
		m(EpUpdateCompany, http.MethodPut, "api/hrm/companies/update/{id}", true, TagCompany),

		q(EpInvoiceList, http.MethodPost, "api/invoice/list", TagInvoice),
		m(EpCreateInvoice, http.MethodPost, "api/invoice/create", true, TagInvoice),

		q(EpMemberList, http.MethodPost, "api/gym/members", TagMember),
		m(EpAddMember, http.MethodPost, "api/gym/members/add", true, TagMember),
	}
}

// check runs validation checks and shows the first failure.
func (a *API) check(checks ...validate.Check) error {
	if err := validate.All(checks...); err != nil {
		notify.Error(a.notifier, validate.Message(err))
		return err
	}
	return nil
}

// companyID returns the selected company or reports that none is selected.
func (a *API) companyID(ctx context.Context) (string, error) {
	id, _ := a.session.SelectedCompany(ctx)
	if id == "" {
		notify.Error(a.notifier, "Please select a company")
		return "", ErrNoCompany
	}
	return id, nil
}

// storageFailed reports a failed session write.
func (a *API) storageFailed(op string, err error) error {
	a.log.Error("session write failed", zap.String("op", op), zap.Error(err))
	notify.Error(a.notifier, client.MsgSomethingWrong)
	return fmt.Errorf("%s: %w", op, err)
}

// companyBody is the filter sent by company-scoped list endpoints.
type companyBody struct {
	CompanyID string `json:"company_id"`
}

// decode converts env into T, reporting a malformed payload once.
func decode[T any](a *API, env *client.Envelope) client.Result[T] {
	r := client.Decode[T](env)
	if r.Err != nil && !errors.Is(r.Err, client.ErrFailed) {
		a.log.Warn("malformed response data", zap.Error(r.Err))
		notify.Error(a.notifier, client.MsgSomethingWrong)
	}
	return r
}
