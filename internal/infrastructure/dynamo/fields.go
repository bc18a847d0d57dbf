package dynamo

// DynamoDB attribute names used in update and condition expressions.
const (
	fieldVerified    = "verified"
	fieldUpdatedAt   = "updated_at"
	fieldVersion     = "version"
	fieldPhoneNumber = "phone_number"
	fieldEmail       = "email"
	fieldAttempts    = "attempts"
	fieldCodeHash    = "code_hash"
	fieldIsDefault   = "is_default"
	fieldUserID      = "user_id"
)
