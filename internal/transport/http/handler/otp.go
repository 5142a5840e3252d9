package handler

import (
	"context"
	"net/http"

	"github.com/walleto-api/internal/application/otp"
	"github.com/walleto-api/internal/domain"
)

// Only signup codes are served here. Signin and password-reset codes are issued
// by the /auth flows after their password or identity checks.
type otpGenerateRequest struct {
	Email   string         `json:"email" validate:"required,email"`
	Purpose domain.Purpose `json:"purpose" validate:"required,oneof=signup"`
}

type otpVerifyRequest struct {
	Email   string         `json:"email" validate:"required,email"`
	Code    string         `json:"otp_code" validate:"required,numeric"`
	Purpose domain.Purpose `json:"purpose" validate:"required,oneof=signup"`
}

// signupCoder is satisfied by auth.Service.
type signupCoder interface {
	SignupResendCode(ctx context.Context, address string, meta domain.RequestMeta) (int, error)
}

type OTPHandler struct {
	signup signupCoder
	svc    otp.Service
}

func NewOTPHandler(signup signupCoder, svc otp.Service) *OTPHandler {
	return &OTPHandler{signup: signup, svc: svc}
}

func (h *OTPHandler) Generate(w http.ResponseWriter, r *http.Request) {
	h.generate(w, r, "Verification code sent to your email")
}

// Resend is Generate under another name: the new code supersedes the pending one
// and counts against the same limit.
func (h *OTPHandler) Resend(w http.ResponseWriter, r *http.Request) {
	h.generate(w, r, "Verification code resent to your email")
}

func (h *OTPHandler) generate(w http.ResponseWriter, r *http.Request, msg string) {
	var req otpGenerateRequest
	if !decode(w, r, &req) {
		return
	}
	ttl, err := h.signup.SignupResendCode(r.Context(), req.Email, requestMeta(r))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, CodeSentEnvelope{Message: msg, ExpiresInSeconds: ttl})
}

func (h *OTPHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req otpVerifyRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.svc.Verify(r.Context(), req.Email, req.Purpose, req.Code, requestMeta(r)); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "Verification code verified successfully"})
}
