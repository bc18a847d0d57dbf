package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Storage drivers.
const (
	StoreDynamo = "dynamo"
	StoreMongo  = "mongo"
)

// OTP providers.
const (
	OTPProviderTwilio = "twilio"
	OTPProviderSNS    = "sns"
)

// OTP delivery channels.
const (
	OTPChannelSMS  = "sms"
	OTPChannelCall = "call"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort  string `env:"APP_PORT" envDefault:"4000"`
	AppEnv   string `env:"APP_ENV" envDefault:"development"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	StoreDriver string `env:"STORE_DRIVER" envDefault:"dynamo"`

	AWSRegion      string `env:"AWS_REGION" envDefault:"us-east-1"`
	AWSEndpointURL string `env:"AWS_ENDPOINT_URL"` // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string `env:"AWS_ACCESS_KEY_ID"`
	AWSSecretKey   string `env:"AWS_SECRET_ACCESS_KEY"`
	DynamoTables   DynamoTables

	MongoURI      string `env:"MONGO_URI" envDefault:"mongodb://localhost:27017"`
	MongoDatabase string `env:"MONGO_DATABASE" envDefault:"accounts"`

	SNSRegion string `env:"SNS_REGION" envDefault:"us-east-1"`

	OTPProvider      string        `env:"OTP_PROVIDER" envDefault:"twilio"`
	TwilioAccountSID string        `env:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken  string        `env:"TWILIO_AUTH_TOKEN"`
	TwilioServiceSID string        `env:"TWILIO_SERVICE_SID"`
	OTPCountryCode   string        `env:"OTP_COUNTRY_CODE" envDefault:"+91"`
	OTPChannel       string        `env:"OTP_CHANNEL" envDefault:"sms"`
	OTPTTL           time.Duration `env:"OTP_TTL" envDefault:"10m"`
	OTPMaxAttempts   int           `env:"OTP_MAX_ATTEMPTS" envDefault:"5"`

	VerifyRateLimit  int           `env:"VERIFY_RATE_LIMIT" envDefault:"3"`
	VerifyRateWindow time.Duration `env:"VERIFY_RATE_WINDOW" envDefault:"1m"`
	RedisURL         string        `env:"REDIS_URL"` // empty keeps the verify-attempt window in memory

	JWTPrivateKeyPath string        `env:"JWT_PRIVATE_KEY_PATH" envDefault:"./private_key.pem"`
	JWTPublicKeyPath  string        `env:"JWT_PUBLIC_KEY_PATH" envDefault:"./public_key.pem"`
	JWTExpiry         time.Duration `env:"JWT_EXPIRY" envDefault:"168h"`

	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envDefault:"*" envSeparator:","` // CORS allowed origins
	// TrustProxy keys rate limits on X-Forwarded-For / X-Real-Ip. Enable only
	// behind a proxy that overwrites those headers.
	TrustProxy bool `env:"TRUST_PROXY" envDefault:"false"`
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Identities    string `env:"DYNAMO_TABLE_IDENTITIES" envDefault:"identities"`
	IdentityKeys  string `env:"DYNAMO_TABLE_IDENTITY_KEYS" envDefault:"identity_keys"`
	OTPChallenges string `env:"DYNAMO_TABLE_OTP_CHALLENGES" envDefault:"otp_challenges"`
	Addresses     string `env:"DYNAMO_TABLE_ADDRESSES" envDefault:"addresses"`
	Profiles      string `env:"DYNAMO_TABLE_PROFILES" envDefault:"profiles"`
}

// Load reads all configuration from environment variables.
func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreDriver {
	case StoreDynamo, StoreMongo:
	default:
		return fmt.Errorf("unsupported STORE_DRIVER %q", c.StoreDriver)
	}
	switch c.OTPProvider {
	case OTPProviderTwilio:
		if c.TwilioAccountSID == "" || c.TwilioAuthToken == "" || c.TwilioServiceSID == "" {
			return fmt.Errorf("OTP_PROVIDER=twilio requires TWILIO_ACCOUNT_SID, TWILIO_AUTH_TOKEN and TWILIO_SERVICE_SID")
		}
	case OTPProviderSNS:
		if c.OTPMaxAttempts < 1 {
			return fmt.Errorf("OTP_MAX_ATTEMPTS must be at least 1")
		}
	default:
		return fmt.Errorf("unsupported OTP_PROVIDER %q", c.OTPProvider)
	}
	switch c.OTPChannel {
	case OTPChannelSMS:
	case OTPChannelCall:
		if c.OTPProvider == OTPProviderSNS {
			return fmt.Errorf("OTP_CHANNEL=call is not supported by OTP_PROVIDER=sns")
		}
	default:
		return fmt.Errorf("unsupported OTP_CHANNEL %q", c.OTPChannel)
	}
	if c.VerifyRateLimit < 1 || c.VerifyRateWindow <= 0 {
		return fmt.Errorf("VERIFY_RATE_LIMIT and VERIFY_RATE_WINDOW must be positive")
	}
	return nil
}
