// Package repository provides the in-memory persistence behind the sandbox
// backend.
package repository

import (
	"errors"
	"sync"
	"time"

	"github.com/atinyakov/bizops/internal/models"
)

// Repository errors.
var (
	ErrNotFound     = errors.New("not found")
	ErrDuplicateGST = errors.New("duplicate gst number")
)

// otpChallenge is an issued login code awaiting verification.
type otpChallenge struct {
	code      string
	expiresAt time.Time
}

// Memory keeps every sandbox entity in process memory. It is safe for
// concurrent use.
type Memory struct {
	mu sync.RWMutex

	nextUserID int64
	users      map[string]*models.User // by mobile
	otps       map[string]otpChallenge // by mobile

	companies  map[string]ownedCompany
	employees  map[string]models.Employee
	attendance map[string]models.Attendance // by employee_id|date
	invoices   map[string]models.Invoice
	members    map[string]models.Member
}

type ownedCompany struct {
	owner   int64
	company models.Company
}

// NewMemory returns an empty repository.
func NewMemory() *Memory {
	return &Memory{
		users:      make(map[string]*models.User),
		otps:       make(map[string]otpChallenge),
		companies:  make(map[string]ownedCompany),
		employees:  make(map[string]models.Employee),
		attendance: make(map[string]models.Attendance),
		invoices:   make(map[string]models.Invoice),
		members:    make(map[string]models.Member),
	}
}
