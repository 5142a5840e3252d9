package http

import (
	"github.com/walleto-api/internal/application/auth"
	"github.com/walleto-api/internal/application/ledger"
	"github.com/walleto-api/internal/application/otp"
	"github.com/walleto-api/internal/application/trusteddevice"
	"github.com/walleto-api/internal/application/user"
	jwtinfra "github.com/walleto-api/internal/infrastructure/jwt"
)

// Deps holds the services the router exposes. cmd/api builds them so the
// cleanup scheduler can share the same OTP and trusted-device instances.
type Deps struct {
	Auth        auth.Service
	OTP         otp.Service
	Devices     trusteddevice.Service
	Users       user.Service
	Ledger      ledger.Service
	JWTProvider *jwtinfra.Provider
}
