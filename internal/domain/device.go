package domain

import "time"

// TrustedDevice lets a returning client skip the OTP step until it expires or is revoked.
// PK: token_hash (SHA-256 hex of the bearer token). GSI user_id-index.
type TrustedDevice struct {
	TokenHash  string    `json:"-" dynamodbav:"token_hash"`
	UserID     string    `json:"user_id" dynamodbav:"user_id"`
	DeviceInfo string    `json:"device_info" dynamodbav:"device_info"`
	IPAddress  string    `json:"ip_address" dynamodbav:"ip_address"`
	Active     bool      `json:"active" dynamodbav:"active"`
	LastUsedAt time.Time `json:"last_used_at" dynamodbav:"last_used_at,unixtime"`
	ExpiresAt  time.Time `json:"expires_at" dynamodbav:"expires_at,unixtime"`
	CreatedAt  time.Time `json:"created_at" dynamodbav:"created_at,unixtime"`
}

// IssuedDevice is returned exactly once, when a device is first trusted.
type IssuedDevice struct {
	Token     string    `json:"device_token"`
	ExpiresAt time.Time `json:"expires_at"`
}
