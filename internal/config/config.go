package config

import (
	"fmt"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort           string
	AppEnv            string
	LogLevel          string
	AWSRegion         string
	AWSEndpointURL    string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID    string
	AWSSecretKey      string
	DynamoTables      DynamoTables
	S3BucketName      string
	JWTPrivateKeyPath string
	JWTPublicKeyPath  string
	JWTExpiry         time.Duration
	NotifyChannel     string // "smtp" | "sns"
	SMTPHost          string
	SMTPPort          int
	SMTPFrom          string
	SMTPUsername      string
	SMTPPassword      string
	SNSRegion         string
	SNSTopicARN       string
	GoogleClientID    string
	RedisURL          string // enables the cleanup lease when set
	AllowedOrigins    []string
	TrustedProxies    []netip.Prefix // peers whose forwarding headers are honored
	Security          SecurityPolicy
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Users          string
	OTPCodes       string
	OTPAttempts    string
	TrustedDevices string
	Accounts       string
	Categories     string
	Budgets        string
	Transactions   string
}

// SecurityPolicy holds the OTP, rate-limit and trusted-device constants.
type SecurityPolicy struct {
	CodeLength       int           `yaml:"code_length"`
	CodeTTL          time.Duration `yaml:"code_ttl"`
	GenerateWindow   time.Duration `yaml:"generate_window"`
	GenerateMax      int           `yaml:"generate_max"`
	VerifyWindow     time.Duration `yaml:"verify_window"`
	VerifyMax        int           `yaml:"verify_max"`
	DeviceTTL        time.Duration `yaml:"device_ttl"`
	AttemptRetention time.Duration `yaml:"attempt_retention"`
	CleanupInterval  time.Duration `yaml:"cleanup_interval"`
	NotifyTimeout    time.Duration `yaml:"notify_timeout"`
}

// DefaultSecurityPolicy returns the documented defaults.
func DefaultSecurityPolicy() SecurityPolicy {
	return SecurityPolicy{
		CodeLength:       6,
		CodeTTL:          6 * time.Minute,
		GenerateWindow:   10 * time.Minute,
		GenerateMax:      3,
		VerifyWindow:     10 * time.Minute,
		VerifyMax:        5,
		DeviceTTL:        30 * 24 * time.Hour,
		AttemptRetention: 7 * 24 * time.Hour,
		CleanupInterval:  5 * time.Minute,
		NotifyTimeout:    10 * time.Second,
	}
}

type fileOverlay struct {
	Security SecurityPolicy `yaml:"security"`
}

// Load reads configuration from environment variables. When CONFIG_FILE points
// to a YAML document its security block overrides the defaults; env vars win over both.
func Load() (*Config, error) {
	policy := DefaultSecurityPolicy()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := overlayFile(path, &policy); err != nil {
			return nil, err
		}
	}

	proxies, err := parseTrustedProxies(getEnv("TRUSTED_PROXIES", ""))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		AppPort:        getEnv("APP_PORT", "3000"),
		AppEnv:         getEnv("APP_ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoTables: DynamoTables{
			Users:          getEnv("DYNAMO_TABLE_USERS", "users"),
			OTPCodes:       getEnv("DYNAMO_TABLE_OTP_CODES", "otp_codes"),
			OTPAttempts:    getEnv("DYNAMO_TABLE_OTP_ATTEMPTS", "otp_attempts"),
			TrustedDevices: getEnv("DYNAMO_TABLE_TRUSTED_DEVICES", "trusted_devices"),
			Accounts:       getEnv("DYNAMO_TABLE_ACCOUNTS", "accounts"),
			Categories:     getEnv("DYNAMO_TABLE_CATEGORIES", "categories"),
			Budgets:        getEnv("DYNAMO_TABLE_BUDGETS", "budgets"),
			Transactions:   getEnv("DYNAMO_TABLE_TRANSACTIONS", "transactions"),
		},
		S3BucketName:      getEnv("S3_BUCKET_NAME", "walleto-profile-pictures"),
		JWTPrivateKeyPath: getEnv("JWT_PRIVATE_KEY_PATH", "./private_key.pem"),
		JWTPublicKeyPath:  getEnv("JWT_PUBLIC_KEY_PATH", "./public_key.pem"),
		JWTExpiry:         getEnvDuration("JWT_EXPIRY", 30*time.Minute),
		NotifyChannel:     getEnv("NOTIFY_CHANNEL", "smtp"),
		SMTPHost:          getEnv("SMTP_HOST", "localhost"),
		SMTPPort:          getEnvInt("SMTP_PORT", 1025),
		SMTPFrom:          getEnv("SMTP_FROM", "noreply@walleto.app"),
		SMTPUsername:      getEnv("SMTP_USERNAME", ""),
		SMTPPassword:      getEnv("SMTP_PASSWORD", ""),
		SNSRegion:         getEnv("SNS_REGION", "us-east-1"),
		SNSTopicARN:       getEnv("SNS_TOPIC_ARN", ""),
		GoogleClientID:    getEnv("GOOGLE_CLIENT_ID", ""),
		RedisURL:          getEnv("REDIS_URL", ""),
		AllowedOrigins:    strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
		TrustedProxies:    proxies,
		Security: SecurityPolicy{
			CodeLength:       getEnvInt("OTP_CODE_LENGTH", policy.CodeLength),
			CodeTTL:          getEnvDuration("OTP_CODE_TTL", policy.CodeTTL),
			GenerateWindow:   getEnvDuration("OTP_GENERATE_WINDOW", policy.GenerateWindow),
			GenerateMax:      getEnvInt("OTP_GENERATE_MAX", policy.GenerateMax),
			VerifyWindow:     getEnvDuration("OTP_VERIFY_WINDOW", policy.VerifyWindow),
			VerifyMax:        getEnvInt("OTP_VERIFY_MAX", policy.VerifyMax),
			DeviceTTL:        getEnvDuration("TRUSTED_DEVICE_TTL", policy.DeviceTTL),
			AttemptRetention: getEnvDuration("OTP_ATTEMPT_RETENTION", policy.AttemptRetention),
			CleanupInterval:  getEnvDuration("CLEANUP_INTERVAL", policy.CleanupInterval),
			NotifyTimeout:    getEnvDuration("NOTIFY_TIMEOUT", policy.NotifyTimeout),
		},
	}
	if err := cfg.Security.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Code length bounds: below 4 digits a code is guessable within the verify
// budget, above 18 the numeric space no longer fits an int64.
const (
	MinCodeLength = 4
	MaxCodeLength = 18
)

func (p SecurityPolicy) validate() error {
	if p.CodeLength < MinCodeLength || p.CodeLength > MaxCodeLength {
		return fmt.Errorf("OTP_CODE_LENGTH must be between %d and %d, got %d", MinCodeLength, MaxCodeLength, p.CodeLength)
	}
	return nil
}

// parseTrustedProxies reads a comma-separated list of IPs and CIDR ranges.
func parseTrustedProxies(raw string) ([]netip.Prefix, error) {
	var out []netip.Prefix
	for _, e := range strings.Split(raw, ",") {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if strings.Contains(e, "/") {
			p, err := netip.ParsePrefix(e)
			if err != nil {
				return nil, fmt.Errorf("TRUSTED_PROXIES entry %q: %w", e, err)
			}
			out = append(out, p.Masked())
			continue
		}
		a, err := netip.ParseAddr(e)
		if err != nil {
			return nil, fmt.Errorf("TRUSTED_PROXIES entry %q: %w", e, err)
		}
		a = a.Unmap()
		out = append(out, netip.PrefixFrom(a, a.BitLen()))
	}
	return out, nil
}

func overlayFile(path string, policy *SecurityPolicy) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	overlay := fileOverlay{Security: *policy}
	if err := yaml.Unmarshal(raw, &overlay); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	*policy = overlay.Security
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
