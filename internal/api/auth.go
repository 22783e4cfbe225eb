package api

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/atinyakov/bizops/internal/client"
	"github.com/atinyakov/bizops/internal/models"
	"github.com/atinyakov/bizops/internal/notify"
	"github.com/atinyakov/bizops/internal/session"
	"github.com/atinyakov/bizops/internal/validate"
)

// Auth covers OTP login, the profile and logout.
type Auth struct{ *API }

type sendOTPBody struct {
	Mobile string `json:"mobile"`
}

type verifyOTPBody struct {
	Mobile string `json:"mobile"`
	OTP    string `json:"otp"`
}

// SendOTP asks the server to send a login code to mobile.
func (a *Auth) SendOTP(ctx context.Context, mobile string) error {
	if err := a.check(validate.Mobile("mobile", mobile)); err != nil {
		return err
	}
	if a.cache.Mutate(ctx, EpSendOTP, nil, sendOTPBody{Mobile: mobile}) == nil {
		return client.ErrFailed
	}
	return nil
}

// VerifyOTP exchanges a login code for credentials and stores them in the
// session. The user id is stored as its decimal string.
func (a *Auth) VerifyOTP(ctx context.Context, mobile, otp string) (*models.User, error) {
	if err := a.check(
		validate.Mobile("mobile", mobile),
		validate.OTP("otp", otp),
	); err != nil {
		return nil, err
	}

	env := a.cache.Mutate(ctx, EpVerifyOTP, nil, verifyOTPBody{Mobile: mobile, OTP: otp})
	if env == nil {
		return nil, client.ErrFailed
	}

	login := session.Login{
		UserID:     env.Field("data.id").String(),
		AuthKey:    env.Field("data.auth_key").String(),
		JWT:        env.Field("jwt_token").String(),
		UserDetail: json.RawMessage(env.Data),
	}
	if login.UserID == "" || login.JWT == "" {
		a.log.Warn("otp-verify response without credentials")
		notify.Error(a.notifier, client.MsgSomethingWrong)
		return nil, client.ErrFailed
	}
	if err := a.session.SaveLogin(ctx, login); err != nil {
		return nil, a.storageFailed("save login", err)
	}

	var user models.User
	if err := json.Unmarshal(env.Data, &user); err != nil {
		// The login is stored; only the returned detail is partial.
		a.log.Warn("otp-verify user detail not decodable", zap.Error(err))
	}
	return &user, nil
}

// Profile returns the logged-in user's profile.
func (a *Auth) Profile(ctx context.Context) client.Result[models.User] {
	return decode[models.User](a.API, a.cache.Query(ctx, EpProfile, nil, nil))
}

// LogOut clears the session credentials and every cached result.
func (a *Auth) LogOut(ctx context.Context) bool {
	ok := a.session.LogOut(ctx)
	a.cache.Reset()
	if !ok {
		notify.Error(a.notifier, client.MsgSomethingWrong)
	}
	return ok
}
