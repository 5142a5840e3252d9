package domain

import (
	"strings"
	"time"
)

// Purpose partitions one-time codes so a code issued for one flow cannot be replayed in another.
type Purpose string

const (
	PurposeSignup        Purpose = "signup"
	PurposeSignin        Purpose = "signin"
	PurposePasswordReset Purpose = "password_reset"
)

func (p Purpose) Valid() bool {
	switch p {
	case PurposeSignup, PurposeSignin, PurposePasswordReset:
		return true
	}
	return false
}

// AttemptAction is the kind of operation an AttemptRecord counts against.
type AttemptAction string

const (
	ActionGenerate AttemptAction = "generate"
	ActionVerify   AttemptAction = "verify"
)

// OneTimeCode is a short-lived numeric code bound to one (address, purpose) pair.
// PK: code_id. GSI scope-index on scope = address#purpose.
// ExpiresAt doubles as the DynamoDB TTL attribute.
type OneTimeCode struct {
	CodeID    string    `json:"id" dynamodbav:"code_id"`
	Scope     string    `json:"-" dynamodbav:"scope"`
	Address   string    `json:"address" dynamodbav:"address"`
	Purpose   Purpose   `json:"purpose" dynamodbav:"purpose"`
	Code      string    `json:"-" dynamodbav:"code"`
	Verified  bool      `json:"verified" dynamodbav:"verified"`
	CreatedAt time.Time `json:"created_at" dynamodbav:"created_at,unixtime"`
	ExpiresAt time.Time `json:"expires_at" dynamodbav:"expires_at,unixtime"`
}

// AttemptRecord is an append-only entry used for rate limiting and audit.
// PK: attempt_id. GSI scope-created_at-index on scope = address#action, created_at.
type AttemptRecord struct {
	AttemptID string        `json:"id" dynamodbav:"attempt_id"`
	Scope     string        `json:"-" dynamodbav:"scope"`
	Address   string        `json:"address" dynamodbav:"address"`
	Action    AttemptAction `json:"action" dynamodbav:"action"`
	Success   bool          `json:"success" dynamodbav:"success"`
	IPAddress string        `json:"ip_address" dynamodbav:"ip_address"`
	UserAgent string        `json:"user_agent" dynamodbav:"user_agent"`
	CreatedAt time.Time     `json:"created_at" dynamodbav:"created_at,unixtime"`
	ExpiresAt time.Time     `json:"-" dynamodbav:"expires_at,unixtime"`
}

// RequestMeta is the origin metadata captured from an inbound request.
type RequestMeta struct {
	IPAddress string
	UserAgent string
}

// NormalizeAddress lower-cases and trims an email address so lookups are case-insensitive.
func NormalizeAddress(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}

func CodeScope(address string, purpose Purpose) string {
	return NormalizeAddress(address) + "#" + string(purpose)
}

func AttemptScope(address string, action AttemptAction) string {
	return NormalizeAddress(address) + "#" + string(action)
}
