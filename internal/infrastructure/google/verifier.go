package google

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/walleto-api/internal/domain"
	"google.golang.org/api/idtoken"
)

// Payload is the identity asserted by a Google ID token.
type Payload struct {
	Sub           string
	Email         string
	EmailVerified bool
	FirstName     string
	LastName      string
}

type validateFunc func(ctx context.Context, token, audience string) (*idtoken.Payload, error)

// Verifier checks ID tokens issued for the configured OAuth client.
type Verifier struct {
	clientID string
	validate validateFunc
}

func NewVerifier(clientID string) *Verifier {
	return &Verifier{clientID: clientID, validate: idtoken.Validate}
}

// Verify fails with domain.ErrUnauthorized for any token idtoken rejects or that
// carries no subject. The email is lower-cased to match the identity directory.
func (v *Verifier) Verify(ctx context.Context, token string) (*Payload, error) {
	p, err := v.validate(ctx, token, v.clientID)
	if err != nil {
		log.Debug().Err(err).Msg("google token rejected")
		return nil, fmt.Errorf("invalid google token: %w", domain.ErrUnauthorized)
	}
	if p.Subject == "" {
		return nil, fmt.Errorf("google token has no subject: %w", domain.ErrUnauthorized)
	}
	return &Payload{
		Sub:           p.Subject,
		Email:         strings.ToLower(strings.TrimSpace(claim[string](p, "email"))),
		EmailVerified: claim[bool](p, "email_verified"),
		FirstName:     claim[string](p, "given_name"),
		LastName:      claim[string](p, "family_name"),
	}, nil
}

func claim[T any](p *idtoken.Payload, name string) T {
	v, _ := p.Claims[name].(T)
	return v
}
