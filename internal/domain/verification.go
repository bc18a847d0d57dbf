package domain

// VerificationStatus is the outcome an OTP provider reports for a check.
type VerificationStatus string

const (
	StatusApproved           VerificationStatus = "approved"
	StatusPending            VerificationStatus = "pending"
	StatusCanceled           VerificationStatus = "canceled"
	StatusExpired            VerificationStatus = "expired"
	StatusMaxAttemptsReached VerificationStatus = "max_attempts_reached"
)

// Channel is the delivery channel for a one-time code.
type Channel string

const (
	ChannelSMS  Channel = "sms"
	ChannelCall Channel = "call"
)

// OTPChallenge is an outstanding code issued by the self-hosted SMS provider.
// PK: destination. ExpiresAt is a Unix timestamp used as the store TTL.
type OTPChallenge struct {
	Destination string `json:"destination" dynamodbav:"destination" bson:"_id"`
	CodeHash    string `json:"-" dynamodbav:"code_hash" bson:"codeHash"`
	Attempts    int    `json:"attempts" dynamodbav:"attempts" bson:"attempts"`
	ExpiresAt   int64  `json:"expires_at" dynamodbav:"expires_at" bson:"expiresAt"`
}
