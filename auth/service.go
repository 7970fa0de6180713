package auth

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrInvalidCredentials signals wrong email or password.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	// ErrPasswordMismatch signals the confirmation password differs.
	ErrPasswordMismatch = errors.New("auth: passwords do not match")
	// ErrMissingOTP signals an empty one-time password.
	ErrMissingOTP = errors.New("auth: otp is required")
	// ErrMissingFields signals required registration fields are absent.
	ErrMissingFields = errors.New("auth: first name, last name and email are required")
)

// API is the authentication surface of the backend transport.
type API interface {
	Login(ctx context.Context, email, password string) (LoginResult, error)
	Register(ctx context.Context, req RegisterRequest) error
	VerifyRegistration(ctx context.Context, email, otp string) error
	ForgotPassword(ctx context.Context, email string) error
	VerifyResetOTP(ctx context.Context, email, otp string) error
	ResetPassword(ctx context.Context, email, password string) error
}

// Service handles the authentication flows: login, two-step registration and
// the three-step password reset. Validation failures are caught before any
// request is dispatched.
type Service struct {
	api API
}

// NewService builds a Service over the given transport.
func NewService(api API) *Service {
	return &Service{api: api}
}

// Login authenticates the user and installs the result into session.
func (s *Service) Login(ctx context.Context, session *Session, email, password string) (User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return User{}, ErrInvalidCredentials
	}

	result, err := s.api.Login(ctx, email, password)
	if err != nil {
		return User{}, err
	}
	session.Set(result)
	return result.User, nil
}

// Logout destroys the session.
func (s *Service) Logout(session *Session) {
	session.Clear()
}

// Register submits a new account. The backend replies with an OTP emailed to
// the address, verified via VerifyRegistration.
func (s *Service) Register(ctx context.Context, req RegisterRequest) error {
	if strings.TrimSpace(req.FirstName) == "" ||
		strings.TrimSpace(req.LastName) == "" ||
		strings.TrimSpace(req.Email) == "" {
		return ErrMissingFields
	}
	if req.Password != req.ConfirmPassword {
		return ErrPasswordMismatch
	}
	return s.api.Register(ctx, req)
}

// VerifyRegistration confirms the emailed OTP for a fresh registration.
func (s *Service) VerifyRegistration(ctx context.Context, email, otp string) error {
	if strings.TrimSpace(otp) == "" {
		return ErrMissingOTP
	}
	return s.api.VerifyRegistration(ctx, email, otp)
}

// ForgotPassword starts the reset flow by requesting an OTP email.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	return s.api.ForgotPassword(ctx, email)
}

// VerifyResetOTP confirms the reset OTP before a new password is accepted.
func (s *Service) VerifyResetOTP(ctx context.Context, email, otp string) error {
	if strings.TrimSpace(otp) == "" {
		return ErrMissingOTP
	}
	return s.api.VerifyResetOTP(ctx, email, otp)
}

// ResetPassword completes the reset flow with the new password.
func (s *Service) ResetPassword(ctx context.Context, email, password string) error {
	if password == "" {
		return ErrInvalidCredentials
	}
	return s.api.ResetPassword(ctx, email, password)
}
