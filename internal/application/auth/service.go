package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/walleto-api/internal/application/otp"
	"github.com/walleto-api/internal/application/trusteddevice"
	"github.com/walleto-api/internal/domain"
	"github.com/walleto-api/internal/infrastructure/google"
	"github.com/walleto-api/internal/infrastructure/metrics"
	"github.com/walleto-api/internal/pkg/id"
	"github.com/walleto-api/internal/pkg/password"
)

type SignupRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8,max=72"`
	FirstName string `json:"first_name" validate:"required,min=1,max=100"`
	LastName  string `json:"last_name" validate:"required,min=1,max=100"`
}

type SignupVerifyRequest struct {
	SignupRequest
	Code string `json:"otp_code" validate:"required,numeric"`
}

type SigninRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,max=72"`
	DeviceToken string `json:"device_token,omitempty"`
}

type SigninVerifyRequest struct {
	Email          string `json:"email" validate:"required,email"`
	Code           string `json:"otp_code" validate:"required,numeric"`
	RememberDevice bool   `json:"remember_device"`
}

type PasswordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type PasswordResetConfirmRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Code        string `json:"otp_code" validate:"required,numeric"`
	NewPassword string `json:"new_password" validate:"required,min=8,max=72"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required,max=72"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=72"`
}

type GoogleSigninRequest struct {
	IDToken string `json:"id_token" validate:"required"`
}

// Result is the outcome of a flow step. AccessToken is empty while a code is pending.
type Result struct {
	AccessToken string               `json:"access_token,omitempty"`
	TokenType   string               `json:"token_type,omitempty"`
	User        *domain.User         `json:"user,omitempty"`
	Device      *domain.IssuedDevice `json:"device,omitempty"`
	SkipOTP     bool                 `json:"skip_otp"`
	ExpiresIn   int                  `json:"expires_in_seconds,omitempty"`
}

// Service composes credentials, one-time codes and trusted devices into the auth flows.
type Service interface {
	// Signin is the password-only path kept for clients without two-factor support.
	Signin(ctx context.Context, req SigninRequest) (*Result, error)
	SignupRequestCode(ctx context.Context, req SignupRequest, meta domain.RequestMeta) (int, error)
	// SignupResendCode issues a fresh signup code for an address that is still unregistered.
	SignupResendCode(ctx context.Context, address string, meta domain.RequestMeta) (int, error)
	SignupVerify(ctx context.Context, req SignupVerifyRequest, meta domain.RequestMeta) (*Result, error)
	SigninRequestCode(ctx context.Context, req SigninRequest, meta domain.RequestMeta) (*Result, error)
	SigninVerify(ctx context.Context, req SigninVerifyRequest, meta domain.RequestMeta) (*Result, error)
	PasswordResetRequestCode(ctx context.Context, req PasswordResetRequest, meta domain.RequestMeta) (int, error)
	PasswordResetConfirm(ctx context.Context, req PasswordResetConfirmRequest, meta domain.RequestMeta) error
	ChangePassword(ctx context.Context, userID string, req ChangePasswordRequest) error
	GoogleSignin(ctx context.Context, req GoogleSigninRequest) (*Result, error)
}

type userStore interface {
	FindByAddress(ctx context.Context, address string) (*domain.User, error)
	Get(ctx context.Context, userID string) (*domain.User, error)
	Create(ctx context.Context, u *domain.User) error
	UpdateCredential(ctx context.Context, userID, passwordHash string) error
	LinkGoogle(ctx context.Context, userID, sub string) error
}

type tokenSigner interface {
	Sign(userID, email string) (string, error)
}

type googleVerifier interface {
	Verify(ctx context.Context, token string) (*google.Payload, error)
}

type service struct {
	users   userStore
	codes   otp.Service
	devices trusteddevice.Service
	signer  tokenSigner
	google  googleVerifier
	now     func() time.Time
}

type ServiceDeps struct {
	UserRepo    userStore
	OTP         otp.Service
	Devices     trusteddevice.Service
	JWTProvider tokenSigner
	// Google is optional; GoogleSignin fails with ErrBadRequest when nil.
	Google googleVerifier
	Now    func() time.Time
}

func NewService(deps ServiceDeps) Service {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		users:   deps.UserRepo,
		codes:   deps.OTP,
		devices: deps.Devices,
		signer:  deps.JWTProvider,
		google:  deps.Google,
		now:     now,
	}
}

func (s *service) Signin(ctx context.Context, req SigninRequest) (*Result, error) {
	u, err := s.authenticate(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}
	metrics.SigninsTotal.WithLabelValues("legacy").Inc()
	return s.session(u)
}

func (s *service) SignupRequestCode(ctx context.Context, req SignupRequest, meta domain.RequestMeta) (int, error) {
	if err := s.ensureUnregistered(ctx, req.Email); err != nil {
		return 0, err
	}
	return s.codes.Generate(ctx, req.Email, domain.PurposeSignup, meta)
}

func (s *service) SignupResendCode(ctx context.Context, address string, meta domain.RequestMeta) (int, error) {
	if err := s.ensureUnregistered(ctx, address); err != nil {
		return 0, err
	}
	return s.codes.Generate(ctx, address, domain.PurposeSignup, meta)
}

func (s *service) SignupVerify(ctx context.Context, req SignupVerifyRequest, meta domain.RequestMeta) (*Result, error) {
	if err := s.codes.Verify(ctx, req.Email, domain.PurposeSignup, req.Code, meta); err != nil {
		return nil, err
	}
	// the address may have been registered between request-otp and verify
	if err := s.ensureUnregistered(ctx, req.Email); err != nil {
		return nil, err
	}
	hash, err := password.Hash(req.Password)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	u := &domain.User{
		UserID:       id.New(),
		Email:        domain.NormalizeAddress(req.Email),
		PasswordHash: hash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Country:      domain.DefaultCountry,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	metrics.SignupsTotal.Inc()
	log.Info().Str("user_id", u.UserID).Msg("user registered")
	return s.session(u)
}

func (s *service) SigninRequestCode(ctx context.Context, req SigninRequest, meta domain.RequestMeta) (*Result, error) {
	u, err := s.authenticate(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}
	if req.DeviceToken != "" && s.devices.Validate(ctx, u.UserID, req.DeviceToken) {
		metrics.SigninsTotal.WithLabelValues("trusted_device").Inc()
		res, err := s.session(u)
		if err != nil {
			return nil, err
		}
		res.SkipOTP = true
		return res, nil
	}
	ttl, err := s.codes.Generate(ctx, u.Email, domain.PurposeSignin, meta)
	if err != nil {
		return nil, err
	}
	return &Result{SkipOTP: false, ExpiresIn: ttl}, nil
}

func (s *service) SigninVerify(ctx context.Context, req SigninVerifyRequest, meta domain.RequestMeta) (*Result, error) {
	if err := s.codes.Verify(ctx, req.Email, domain.PurposeSignin, req.Code, meta); err != nil {
		return nil, err
	}
	u, err := s.users.FindByAddress(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if !u.Active {
		return nil, fmt.Errorf("account is inactive: %w", domain.ErrForbidden)
	}
	res, err := s.session(u)
	if err != nil {
		return nil, err
	}
	if req.RememberDevice {
		dev, err := s.devices.Issue(ctx, u.UserID, meta)
		if err != nil {
			return nil, err
		}
		res.Device = dev
	}
	metrics.SigninsTotal.WithLabelValues("otp").Inc()
	return res, nil
}

func (s *service) PasswordResetRequestCode(ctx context.Context, req PasswordResetRequest, meta domain.RequestMeta) (int, error) {
	if _, err := s.users.FindByAddress(ctx, req.Email); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return 0, fmt.Errorf("no account found with this email: %w", domain.ErrNotFound)
		}
		return 0, err
	}
	return s.codes.Generate(ctx, req.Email, domain.PurposePasswordReset, meta)
}

func (s *service) PasswordResetConfirm(ctx context.Context, req PasswordResetConfirmRequest, meta domain.RequestMeta) error {
	if err := s.codes.Verify(ctx, req.Email, domain.PurposePasswordReset, req.Code, meta); err != nil {
		return err
	}
	u, err := s.users.FindByAddress(ctx, req.Email)
	if err != nil {
		return err
	}
	hash, err := password.Hash(req.NewPassword)
	if err != nil {
		return err
	}
	if err := s.users.UpdateCredential(ctx, u.UserID, hash); err != nil {
		return err
	}
	log.Info().Str("user_id", u.UserID).Msg("password reset")
	return nil
}

func (s *service) ChangePassword(ctx context.Context, userID string, req ChangePasswordRequest) error {
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return err
	}
	if !u.HasPassword() {
		return fmt.Errorf("cannot change password for Google-only accounts: %w", domain.ErrBadRequest)
	}
	if !password.Verify(u.PasswordHash, req.CurrentPassword) {
		return fmt.Errorf("current password is incorrect: %w", domain.ErrBadRequest)
	}
	hash, err := password.Hash(req.NewPassword)
	if err != nil {
		return err
	}
	return s.users.UpdateCredential(ctx, userID, hash)
}

func (s *service) GoogleSignin(ctx context.Context, req GoogleSigninRequest) (*Result, error) {
	if s.google == nil {
		return nil, fmt.Errorf("google sign-in is not configured: %w", domain.ErrBadRequest)
	}
	p, err := s.google.Verify(ctx, req.IDToken)
	if err != nil {
		return nil, err
	}
	if p.Email == "" || !p.EmailVerified {
		return nil, fmt.Errorf("google account email is not verified: %w", domain.ErrUnauthorized)
	}

	u, err := s.users.FindByAddress(ctx, p.Email)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		now := s.now().UTC()
		u = &domain.User{
			UserID:    id.New(),
			Email:     domain.NormalizeAddress(p.Email),
			FirstName: p.FirstName,
			LastName:  p.LastName,
			GoogleSub: p.Sub,
			Country:   domain.DefaultCountry,
			Active:    true,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.users.Create(ctx, u); err != nil {
			return nil, err
		}
		metrics.SignupsTotal.Inc()
	case err != nil:
		return nil, err
	default:
		if !u.Active {
			return nil, fmt.Errorf("account is inactive: %w", domain.ErrForbidden)
		}
		if u.GoogleSub == "" {
			if err := s.users.LinkGoogle(ctx, u.UserID, p.Sub); err != nil {
				return nil, err
			}
			u.GoogleSub = p.Sub
		} else if u.GoogleSub != p.Sub {
			return nil, fmt.Errorf("google account mismatch: %w", domain.ErrUnauthorized)
		}
	}
	metrics.SigninsTotal.WithLabelValues("google").Inc()
	return s.session(u)
}

func (s *service) authenticate(ctx context.Context, address, plain string) (*domain.User, error) {
	u, err := s.users.FindByAddress(ctx, address)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("incorrect email or password: %w", domain.ErrInvalidCredential)
	}
	if err != nil {
		return nil, err
	}
	if !u.HasPassword() {
		return nil, fmt.Errorf("please sign in with Google: %w", domain.ErrInvalidCredential)
	}
	if !password.Verify(u.PasswordHash, plain) {
		return nil, fmt.Errorf("incorrect email or password: %w", domain.ErrInvalidCredential)
	}
	if !u.Active {
		return nil, fmt.Errorf("account is inactive: %w", domain.ErrForbidden)
	}
	return u, nil
}

func (s *service) ensureUnregistered(ctx context.Context, address string) error {
	_, err := s.users.FindByAddress(ctx, address)
	if err == nil {
		return fmt.Errorf("email already registered: %w", domain.ErrConflict)
	}
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	return err
}

func (s *service) session(u *domain.User) (*Result, error) {
	tok, err := s.signer.Sign(u.UserID, u.Email)
	if err != nil {
		return nil, fmt.Errorf("sign session token: %w", err)
	}
	return &Result{AccessToken: tok, TokenType: "bearer", User: u}, nil
}
