package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^[0-9]{10}$`)
)

// IsValidEmail reports whether s looks like local@domain.tld with no whitespace.
func IsValidEmail(s string) bool { return emailPattern.MatchString(s) }

// IsValidPhone reports whether s is exactly ten ASCII digits.
func IsValidPhone(s string) bool { return phonePattern.MatchString(s) }

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// Identity is the persisted end-user record created by the OTP login flow.
// Email and PhoneNumber are each unique when present; at least one is required.
type Identity struct {
	IdentityID  string    `json:"id" dynamodbav:"identity_id" bson:"_id"`
	Email       *string   `json:"email,omitempty" dynamodbav:"email,omitempty" bson:"email,omitempty"`
	PhoneNumber *string   `json:"phoneNumber,omitempty" dynamodbav:"phone_number,omitempty" bson:"phoneNumber,omitempty"`
	Verified    bool      `json:"verified" dynamodbav:"verified" bson:"verified"`
	Version     int64     `json:"-" dynamodbav:"version" bson:"version"`
	CreatedAt   time.Time `json:"createdAt" dynamodbav:"created_at" bson:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt" dynamodbav:"updated_at" bson:"updatedAt"`
}

// Normalize trims both identifiers, lower-cases the email and drops empty values.
func (i *Identity) Normalize() {
	if i.Email != nil {
		e := NormalizeEmail(*i.Email)
		if e == "" {
			i.Email = nil
		} else {
			i.Email = &e
		}
	}
	if i.PhoneNumber != nil {
		p := strings.TrimSpace(*i.PhoneNumber)
		if p == "" {
			i.PhoneNumber = nil
		} else {
			i.PhoneNumber = &p
		}
	}
}

// Validate enforces the write-time invariants of an identity record.
func (i *Identity) Validate() error {
	if i.Email == nil && i.PhoneNumber == nil {
		return fmt.Errorf("either email or phone number must be provided: %w", ErrBadRequest)
	}
	if i.Email != nil && !IsValidEmail(*i.Email) {
		return fmt.Errorf("invalid email format: %w", ErrBadRequest)
	}
	if i.PhoneNumber != nil && !IsValidPhone(*i.PhoneNumber) {
		return fmt.Errorf("phone number must be 10 digits: %w", ErrBadRequest)
	}
	return nil
}

// EmailValue returns the email or "" when absent.
func (i *Identity) EmailValue() string {
	if i.Email == nil {
		return ""
	}
	return *i.Email
}

// PhoneValue returns the phone number or "" when absent.
func (i *Identity) PhoneValue() string {
	if i.PhoneNumber == nil {
		return ""
	}
	return *i.PhoneNumber
}
