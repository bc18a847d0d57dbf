package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("OTP_PROVIDER", "sns")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "4000", cfg.AppPort)
	assert.Equal(t, StoreDynamo, cfg.StoreDriver)
	assert.Equal(t, "+91", cfg.OTPCountryCode)
	assert.Equal(t, 3, cfg.VerifyRateLimit)
	assert.Equal(t, time.Minute, cfg.VerifyRateWindow)
	assert.Equal(t, "identities", cfg.DynamoTables.Identities)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.Equal(t, OTPChannelSMS, cfg.OTPChannel)
	assert.False(t, cfg.TrustProxy)
}

func TestLoad_TwilioRequiresCredentials(t *testing.T) {
	t.Setenv("OTP_PROVIDER", "twilio")
	t.Setenv("TWILIO_ACCOUNT_SID", "")

	_, err := Load()
	assert.ErrorContains(t, err, "TWILIO_ACCOUNT_SID")
}

func TestLoad_UnknownStoreDriver(t *testing.T) {
	t.Setenv("OTP_PROVIDER", "sns")
	t.Setenv("STORE_DRIVER", "postgres")

	_, err := Load()
	assert.ErrorContains(t, err, "STORE_DRIVER")
}

func TestLoad_OriginsAndDurations(t *testing.T) {
	t.Setenv("OTP_PROVIDER", "twilio")
	t.Setenv("TWILIO_ACCOUNT_SID", "AC123")
	t.Setenv("TWILIO_AUTH_TOKEN", "secret")
	t.Setenv("TWILIO_SERVICE_SID", "VA123")
	t.Setenv("ALLOWED_ORIGINS", "https://shop.example,https://admin.example")
	t.Setenv("VERIFY_RATE_WINDOW", "90s")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"https://shop.example", "https://admin.example"}, cfg.AllowedOrigins)
	assert.Equal(t, 90*time.Second, cfg.VerifyRateWindow)
}

func TestLoad_UnknownOTPChannel(t *testing.T) {
	t.Setenv("OTP_PROVIDER", "sns")
	t.Setenv("OTP_CHANNEL", "whatsapp")

	_, err := Load()
	assert.ErrorContains(t, err, "OTP_CHANNEL")
}

func TestLoad_CallChannelRejectedForSNS(t *testing.T) {
	t.Setenv("OTP_PROVIDER", "sns")
	t.Setenv("OTP_CHANNEL", "call")

	_, err := Load()
	assert.ErrorContains(t, err, "OTP_CHANNEL=call")
}

func TestLoad_CallChannelWithTwilio(t *testing.T) {
	t.Setenv("OTP_PROVIDER", "twilio")
	t.Setenv("TWILIO_ACCOUNT_SID", "AC123")
	t.Setenv("TWILIO_AUTH_TOKEN", "secret")
	t.Setenv("TWILIO_SERVICE_SID", "VA123")
	t.Setenv("OTP_CHANNEL", "call")
	t.Setenv("TRUST_PROXY", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, OTPChannelCall, cfg.OTPChannel)
	assert.True(t, cfg.TrustProxy)
}
