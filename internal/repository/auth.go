package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/atinyakov/bizops/internal/models"
)

// UserByMobile returns the user registered with mobile, creating one on first
// login.
func (m *Memory) UserByMobile(ctx context.Context, mobile string) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if u, ok := m.users[mobile]; ok {
		cp := *u
		return &cp, nil
	}
	m.nextUserID++
	u := &models.User{
		ID:      m.nextUserID,
		Mobile:  mobile,
		AuthKey: uuid.NewString(),
	}
	m.users[mobile] = u
	cp := *u
	return &cp, nil
}

// UserByID returns the user with id.
func (m *Memory) UserByID(ctx context.Context, id int64) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

// SaveOTP stores a login code for mobile, replacing any earlier one.
func (m *Memory) SaveOTP(ctx context.Context, mobile, code string, expiresAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.otps[mobile] = otpChallenge{code: code, expiresAt: expiresAt}
	return nil
}

// TakeOTP removes and returns the pending code for mobile.
func (m *Memory) TakeOTP(ctx context.Context, mobile string) (code string, expiresAt time.Time, ok bool, err error) {
	if err := ctx.Err(); err != nil {
		return "", time.Time{}, false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.otps[mobile]
	if !ok {
		return "", time.Time{}, false, nil
	}
	delete(m.otps, mobile)
	return c.code, c.expiresAt, true, nil
}

// DeleteExpiredOTPs drops codes that expired before now and returns how many
// were removed.
func (m *Memory) DeleteExpiredOTPs(ctx context.Context, now time.Time) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for mobile, c := range m.otps {
		if c.expiresAt.Before(now) {
			delete(m.otps, mobile)
			removed++
		}
	}
	return removed, nil
}
