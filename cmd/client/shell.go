package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/atinyakov/bizops/internal/api"
	"github.com/atinyakov/bizops/internal/models"
	"github.com/atinyakov/bizops/internal/query"
	"github.com/atinyakov/bizops/internal/session"
)

const helpText = `Available commands:
  login <mobile>              send an OTP and log in
  whoami                      show the logged-in user
  profile                     fetch the profile from the server
  companies                   list companies (* marks the selected one)
  add-company                 create a company and select it
  select <id>                 select a company
  employees                   list employees of the selected company
  add-employee                add an employee
  delete-employee <id>        delete an employee
  attendance [date]           list attendance (default today)
  mark <employee_id> <status> [date]
                              mark attendance: present | absent | half_day
  invoices                    list invoices
  add-invoice                 create an invoice
  members                     list gym members
  add-member                  add a gym member
  theme [light|dark]          show or set the theme
  language [code]             show or set the preferred language
  logout                      clear the session
  exit                        leave the shell`

// shell is the interactive command loop. After each command it re-renders
// the current list when a mutation invalidated it.
type shell struct {
	api     *api.API
	sess    *session.Session
	scanner *bufio.Scanner
	out     io.Writer

	view  string
	dirty map[query.Tag]bool
}

func newShell(a *api.API, sess *session.Session, in io.Reader, out io.Writer) *shell {
	s := &shell{
		api:     a,
		sess:    sess,
		scanner: bufio.NewScanner(in),
		out:     out,
		dirty:   make(map[query.Tag]bool),
	}
	for _, tag := range []query.Tag{api.TagEmployee, api.TagCompany, api.TagInvoice, api.TagMember, api.TagAttendance} {
		a.Cache().Subscribe(tag, func(t query.Tag) { s.dirty[t] = true })
	}
	return s
}

// viewTags maps a list command to the tag whose invalidation refreshes it.
var viewTags = map[string]query.Tag{
	"companies":  api.TagCompany,
	"employees":  api.TagEmployee,
	"attendance": api.TagAttendance,
	"invoices":   api.TagInvoice,
	"members":    api.TagMember,
}

func (s *shell) printf(format string, args ...any) {
	fmt.Fprintf(s.out, format, args...)
}

// ask prints label and returns the next trimmed input line.
func (s *shell) ask(label string) string {
	s.printf("%s: ", label)
	if !s.scanner.Scan() {
		return ""
	}
	return strings.TrimSpace(s.scanner.Text())
}

func (s *shell) run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		s.printf("bizops> ")
		if !s.scanner.Scan() {
			return
		}
		args := strings.Fields(s.scanner.Text())
		if len(args) == 0 {
			continue
		}
		if !s.exec(ctx, args) {
			return
		}
		s.refresh(ctx)
	}
}

// refresh re-renders the current list if it was invalidated.
func (s *shell) refresh(ctx context.Context) {
	tag, ok := viewTags[s.view]
	dirty := ok && s.dirty[tag]
	for t := range s.dirty {
		delete(s.dirty, t)
	}
	if dirty {
		s.exec(ctx, []string{s.view})
	}
}

// requireLogin reports whether a user is logged in, telling them otherwise.
func (s *shell) requireLogin(ctx context.Context) bool {
	if s.sess.IsLoggedIn(ctx) {
		return true
	}
	s.printf("Please login first\n")
	return false
}

// exec runs one command. It returns false when the shell should exit.
func (s *shell) exec(ctx context.Context, args []string) bool {
	cmd := args[0]
	if cmd != "help" && cmd != "exit" && cmd != "login" && cmd != "theme" && !s.requireLogin(ctx) {
		return true
	}

	switch cmd {
	case "help":
		s.printf("%s\n", helpText)

	case "login":
		if len(args) < 2 {
			s.printf("Usage: login <mobile>\n")
			return true
		}
		if err := s.api.Auth.SendOTP(ctx, args[1]); err != nil {
			return true
		}
		user, err := s.api.Auth.VerifyOTP(ctx, args[1], s.ask("Enter OTP"))
		if err != nil {
			return true
		}
		s.printf("Logged in as user %d\n", user.ID)

	case "whoami":
		var detail models.User
		s.sess.UserDetail(ctx, &detail)
		s.printf("User: %s (%s)\n", s.sess.UserID(ctx), cmpOr(detail.Name, detail.Mobile))
		if claims, err := s.sess.Claims(ctx); err == nil && claims.ExpiresAt != nil {
			s.printf("Token expires: %s\n", claims.ExpiresAt.Time.Format(time.RFC3339))
		}
		if s.sess.AuthKey(ctx) != "" {
			s.printf("Auth key: stored\n")
		}
		if id, name := s.sess.SelectedCompany(ctx); id != "" {
			s.printf("Company: %s (%s)\n", name, id)
		}

	case "profile":
		r := s.api.Auth.Profile(ctx)
		if r.OK() {
			s.printf("%d %s %s\n", r.Data.ID, r.Data.Name, r.Data.Mobile)
		}

	case "companies":
		s.view = cmd
		r := s.api.Companies.List(ctx)
		if !r.OK() {
			return true
		}
		selected, _ := s.sess.SelectedCompany(ctx)
		for _, c := range r.Data {
			mark := " "
			if c.ID == selected {
				mark = "*"
			}
			s.printf("%s %s  %s  %s\n", mark, c.ID, c.CompanyName, c.GSTNumber)
		}

	case "add-company":
		co, err := s.api.Companies.Create(ctx, models.Company{
			CompanyName:    s.ask("Company name"),
			GSTNumber:      s.ask("GST number"),
			Email:          s.ask("Email (optional)"),
			Mobile:         s.ask("Mobile (optional)"),
			CompanyAddress: s.ask("Address (optional)"),
			Zipcode:        s.ask("Zipcode (optional)"),
		})
		if err == nil {
			s.printf("Selected company %s\n", co.CompanyName)
		}

	case "select":
		if len(args) < 2 {
			s.printf("Usage: select <id>\n")
			return true
		}
		r := s.api.Companies.List(ctx)
		if !r.OK() {
			return true
		}
		for _, c := range r.Data {
			if c.ID == args[1] {
				if s.api.Companies.Select(ctx, c.ID, c.CompanyName) == nil {
					s.printf("Selected company %s\n", c.CompanyName)
				}
				return true
			}
		}
		s.printf("Company not found\n")

	case "employees":
		s.view = cmd
		r := s.api.Employees.List(ctx)
		if r.OK() {
			for _, e := range r.Data {
				s.printf("  %s  %s  %s\n", e.ID, e.Name, e.Mobile)
			}
		}

	case "add-employee":
		_ = s.api.Employees.Add(ctx, models.Employee{
			Name:        s.ask("Name"),
			Mobile:      s.ask("Mobile"),
			Email:       s.ask("Email (optional)"),
			Designation: s.ask("Designation (optional)"),
		})

	case "delete-employee":
		if len(args) < 2 {
			s.printf("Usage: delete-employee <id>\n")
			return true
		}
		_ = s.api.Employees.Delete(ctx, args[1])

	case "attendance":
		s.view = cmd
		r := s.api.Employees.Attendance(ctx, dateArg(args, 1))
		if r.OK() {
			for _, a := range r.Data {
				s.printf("  %s  %s  %s\n", a.EmployeeID, a.Date, a.Status)
			}
		}

	case "mark":
		if len(args) < 3 {
			s.printf("Usage: mark <employee_id> <status> [date]\n")
			return true
		}
		_ = s.api.Employees.MarkAttendance(ctx, models.Attendance{
			EmployeeID: args[1],
			Status:     models.AttendanceStatus(args[2]),
			Date:       dateArg(args, 3),
		})

	case "invoices":
		s.view = cmd
		r := s.api.Invoices.List(ctx)
		if r.OK() {
			for _, inv := range r.Data {
				s.printf("  %s  %s  %s\n", inv.ID, inv.CustomerName, rupees(inv.Total))
			}
		}

	case "add-invoice":
		inv := models.Invoice{CustomerName: s.ask("Customer name")}
		s.printf("Items as \"description;quantity;rate\", empty line to finish\n")
		for {
			line := s.ask("Item")
			if line == "" {
				break
			}
			item, err := parseItem(line)
			if err != nil {
				s.printf("%v\n", err)
				continue
			}
			inv.Items = append(inv.Items, item)
		}
		_ = s.api.Invoices.Create(ctx, inv)

	case "members":
		s.view = cmd
		r := s.api.Gym.Members(ctx)
		if r.OK() {
			for _, m := range r.Data.Members {
				s.printf("  %s  %s  %s  %s\n", m.ID, m.Name, m.Mobile, r.Data.Image(m))
			}
		}

	case "add-member":
		_ = s.api.Gym.AddMember(ctx, models.Member{
			Name:   s.ask("Name"),
			Mobile: s.ask("Mobile"),
			Plan:   s.ask("Plan (optional)"),
		})

	case "theme":
		if len(args) < 2 {
			s.printf("Theme: %s\n", cmpOr(s.sess.ThemeMode(ctx), "light"))
			return true
		}
		if err := s.sess.SetThemeMode(ctx, args[1]); err != nil {
			s.printf("Failed to save theme: %v\n", err)
		}

	case "language":
		if len(args) < 2 {
			s.printf("Language: %s\n", cmpOr(s.sess.LanguageSelected(ctx), "not selected"))
			return true
		}
		if err := s.sess.SetLanguageSelected(ctx, args[1]); err != nil {
			s.printf("Failed to save language: %v\n", err)
		}

	case "logout":
		if s.api.Auth.LogOut(ctx) {
			s.view = ""
			s.printf("Logged out\n")
		}

	case "exit":
		s.printf("Bye\n")
		return false

	default:
		s.printf("Unknown command. Type 'help' for a list of commands.\n")
	}
	return true
}

// parseItem reads "description;quantity;rate" with the rate in rupees.
func parseItem(line string) (models.InvoiceItem, error) {
	parts := strings.Split(line, ";")
	if len(parts) != 3 {
		return models.InvoiceItem{}, fmt.Errorf("expected description;quantity;rate")
	}
	qty, err := strconv.ParseInt(strings.TrimSpace(parts[1]), 10, 64)
	if err != nil {
		return models.InvoiceItem{}, fmt.Errorf("invalid quantity %q", parts[1])
	}
	rate, err := strconv.ParseFloat(strings.TrimSpace(parts[2]), 64)
	if err != nil {
		return models.InvoiceItem{}, fmt.Errorf("invalid rate %q", parts[2])
	}
	return models.InvoiceItem{
		Description: strings.TrimSpace(parts[0]),
		Quantity:    qty,
		Rate:        int64(rate*100 + 0.5),
	}, nil
}

// rupees formats an amount in paise.
func rupees(paise int64) string {
	return fmt.Sprintf("₹%d.%02d", paise/100, paise%100)
}

func dateArg(args []string, i int) string {
	if len(args) > i {
		return args[i]
	}
	return time.Now().Format(time.DateOnly)
}
