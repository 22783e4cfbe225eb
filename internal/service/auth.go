// Package service provides the sandbox backend's business logic: OTP login
// with JWT issuing, and the company-scoped records behind the client's
// endpoints. Persistence is delegated to repository interfaces.
package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/atinyakov/bizops/internal/models"
)

// Login errors.
var (
	ErrInvalidOTP = errors.New("invalid otp")
	ErrOTPExpired = errors.New("otp expired")
)

// AuthRepository defines the persistence operations
// required by the authentication service.
type AuthRepository interface {
	// UserByMobile returns the user for mobile, creating it on first login.
	UserByMobile(ctx context.Context, mobile string) (*models.User, error)
	// UserByID returns the user with the given id.
	UserByID(ctx context.Context, id int64) (*models.User, error)
	// SaveOTP stores a pending login code.
	SaveOTP(ctx context.Context, mobile, code string, expiresAt time.Time) error
	// TakeOTP removes and returns the pending login code.
	TakeOTP(ctx context.Context, mobile string) (code string, expiresAt time.Time, ok bool, err error)
}

// AuthConfig configures token and code lifetimes.
type AuthConfig struct {
	// Secret signs issued tokens with HS256.
	Secret []byte
	// TokenTTL is how long an issued JWT stays valid.
	TokenTTL time.Duration
	// OTPTTL is how long a sent code can be verified.
	OTPTTL time.Duration
}

// AuthService implements OTP login by delegating storage to an
// AuthRepository.
type AuthService struct {
	repo AuthRepository
	cfg  AuthConfig

	now     func() time.Time
	newCode func() (string, error)
}

// NewAuthService constructs a new AuthService. Zero lifetimes default to a
// day for tokens and five minutes for codes.
func NewAuthService(repo AuthRepository, cfg AuthConfig) *AuthService {
	if cfg.TokenTTL == 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	if cfg.OTPTTL == 0 {
		cfg.OTPTTL = 5 * time.Minute
	}
	return &AuthService{repo: repo, cfg: cfg, now: time.Now, newCode: randomCode}
}

// randomCode returns a 4-digit code.
func randomCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%04d", n.Int64()), nil
}

// SendOTP issues a new code for mobile and returns it so the sandbox can log
// it in place of an SMS.
func (s *AuthService) SendOTP(ctx context.Context, mobile string) (string, error) {
	code, err := s.newCode()
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	if err := s.repo.SaveOTP(ctx, mobile, code, s.now().Add(s.cfg.OTPTTL)); err != nil {
		return "", fmt.Errorf("save otp: %w", err)
	}
	return code, nil
}

// VerifyOTP checks code against the pending one for mobile and returns the
// user with a freshly issued token. A code is consumed by the first attempt.
func (s *AuthService) VerifyOTP(ctx context.Context, mobile, code string) (*models.User, string, error) {
	want, expiresAt, ok, err := s.repo.TakeOTP(ctx, mobile)
	if err != nil {
		return nil, "", fmt.Errorf("take otp: %w", err)
	}
	if !ok || want != code {
		return nil, "", ErrInvalidOTP
	}
	if s.now().After(expiresAt) {
		return nil, "", ErrOTPExpired
	}

	user, err := s.repo.UserByMobile(ctx, mobile)
	if err != nil {
		return nil, "", fmt.Errorf("load user: %w", err)
	}
	token, err := s.IssueToken(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// IssueToken signs a JWT whose subject is the user's id.
func (s *AuthService) IssueToken(user *models.User) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(user.ID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TokenTTL)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.cfg.Secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

// VerifyToken validates signature and expiry and returns the token's subject.
func (s *AuthService) VerifyToken(token string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.cfg.Secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", errors.New("token has no subject")
	}
	return claims.Subject, nil
}

// Profile returns the user identified by a token subject.
func (s *AuthService) Profile(ctx context.Context, userID string) (*models.User, error) {
	id, err := strconv.ParseInt(userID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse user id: %w", err)
	}
	return s.repo.UserByID(ctx, id)
}
