package config

import (
	"net/netip"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultSecurityPolicy(), cfg.Security)
	assert.Equal(t, 30*time.Minute, cfg.JWTExpiry)
	assert.Equal(t, "otp_codes", cfg.DynamoTables.OTPCodes)
}

func TestLoad_FileOverlay_EnvWins(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
security:
  code_ttl: 3m
  verify_max: 7
  device_ttl: 48h
`), 0600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("OTP_VERIFY_MAX", "9")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 3*time.Minute, cfg.Security.CodeTTL)
	assert.Equal(t, 48*time.Hour, cfg.Security.DeviceTTL)
	assert.Equal(t, 9, cfg.Security.VerifyMax)
	// untouched keys keep their defaults
	assert.Equal(t, 3, cfg.Security.GenerateMax)
}

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "nope.yaml"))
	_, err := Load()
	assert.ErrorContains(t, err, "read config file")
}

func TestGetEnvDuration_Invalid_FallsBack(t *testing.T) {
	t.Setenv("X_DURATION", "soon")
	assert.Equal(t, time.Second, getEnvDuration("X_DURATION", time.Second))
}

func TestLoad_CodeLengthOutOfRange(t *testing.T) {
	for _, n := range []string{"3", "19"} {
		t.Setenv("OTP_CODE_LENGTH", n)
		_, err := Load()
		assert.ErrorContains(t, err, "OTP_CODE_LENGTH must be between 4 and 18", n)
	}

	t.Setenv("OTP_CODE_LENGTH", "18")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 18, cfg.Security.CodeLength)
}

func TestLoad_TrustedProxies(t *testing.T) {
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 192.168.1.7 ,fd00::1/64")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []netip.Prefix{
		netip.MustParsePrefix("10.0.0.0/8"),
		netip.MustParsePrefix("192.168.1.7/32"),
		netip.MustParsePrefix("fd00::/64"),
	}, cfg.TrustedProxies)

	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8,proxy.internal")
	_, err = Load()
	assert.ErrorContains(t, err, `TRUSTED_PROXIES entry "proxy.internal"`)
}
