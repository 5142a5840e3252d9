package handler

import (
	"net/http"

	"github.com/walleto-api/internal/application/auth"
)

// AuthHandler serves the sign-up, sign-in and password flows.
type AuthHandler struct {
	svc auth.Service
}

func NewAuthHandler(svc auth.Service) *AuthHandler { return &AuthHandler{svc: svc} }

// Signin is the password-only path. It bypasses two-factor and is marked deprecated.
func (h *AuthHandler) Signin(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Deprecation", "true")
	var req auth.SigninRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.svc.Signin(r.Context(), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenEnvelope(res))
}

func (h *AuthHandler) SignupRequestOTP(w http.ResponseWriter, r *http.Request) {
	var req auth.SignupRequest
	if !decode(w, r, &req) {
		return
	}
	ttl, err := h.svc.SignupRequestCode(r.Context(), req, requestMeta(r))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, CodeSentEnvelope{Message: "Verification code sent to your email", ExpiresInSeconds: ttl})
}

func (h *AuthHandler) SignupVerify(w http.ResponseWriter, r *http.Request) {
	var req auth.SignupVerifyRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.svc.SignupVerify(r.Context(), req, requestMeta(r))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, tokenEnvelope(res))
}

// SigninRequestOTP checks the password, then either signs in directly through a trusted
// device or sends a code.
func (h *AuthHandler) SigninRequestOTP(w http.ResponseWriter, r *http.Request) {
	var req auth.SigninRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.svc.SigninRequestCode(r.Context(), req, requestMeta(r))
	if err != nil {
		httpError(w, err)
		return
	}
	if res.SkipOTP {
		writeJSON(w, http.StatusOK, tokenEnvelope(res))
		return
	}
	skip := false
	writeJSON(w, http.StatusOK, CodeSentEnvelope{
		Message:          "Verification code sent to your email",
		ExpiresInSeconds: res.ExpiresIn,
		SkipOTP:          &skip,
	})
}

func (h *AuthHandler) SigninVerify(w http.ResponseWriter, r *http.Request) {
	var req auth.SigninVerifyRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.svc.SigninVerify(r.Context(), req, requestMeta(r))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenEnvelope(res))
}

func (h *AuthHandler) ForgotPasswordRequestOTP(w http.ResponseWriter, r *http.Request) {
	var req auth.PasswordResetRequest
	if !decode(w, r, &req) {
		return
	}
	ttl, err := h.svc.PasswordResetRequestCode(r.Context(), req, requestMeta(r))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, CodeSentEnvelope{Message: "Password reset code sent to your email", ExpiresInSeconds: ttl})
}

func (h *AuthHandler) ForgotPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req auth.PasswordResetConfirmRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.svc.PasswordResetConfirm(r.Context(), req, requestMeta(r)); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "Password reset successful. You can now sign in with your new password."})
}

func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	var req auth.ChangePasswordRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.svc.ChangePassword(r.Context(), userID, req); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "Password changed successfully"})
}

func (h *AuthHandler) Google(w http.ResponseWriter, r *http.Request) {
	var req auth.GoogleSigninRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.svc.GoogleSignin(r.Context(), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenEnvelope(res))
}

func tokenEnvelope(res *auth.Result) TokenEnvelope {
	env := TokenEnvelope{
		AccessToken: res.AccessToken,
		TokenType:   res.TokenType,
		SkipOTP:     res.SkipOTP,
		User:        res.User,
	}
	if res.Device != nil {
		env.DeviceToken = &res.Device.Token
	}
	return env
}
