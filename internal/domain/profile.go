package domain

import "time"

// Profile holds the personal details shown on the "My Profile" page.
type Profile struct {
	ProfileID         string     `json:"id" dynamodbav:"profile_id" bson:"_id"`
	Title             string     `json:"title,omitempty" dynamodbav:"title" bson:"title,omitempty" validate:"omitempty,oneof=Mr Mrs Miss Ms Dr Prof"`
	FirstName         string     `json:"firstName,omitempty" dynamodbav:"first_name" bson:"firstName,omitempty"`
	MiddleName        string     `json:"middleName,omitempty" dynamodbav:"middle_name" bson:"middleName,omitempty"`
	LastName          string     `json:"lastName,omitempty" dynamodbav:"last_name" bson:"lastName,omitempty"`
	Gender            string     `json:"gender,omitempty" dynamodbav:"gender" bson:"gender,omitempty" validate:"omitempty,oneof=Male Female Transgender 'Rather not say'"`
	MobileNumber      string     `json:"mobileNumber" dynamodbav:"mobile_number" bson:"mobileNumber" validate:"required"`
	EmailID           string     `json:"emailId" dynamodbav:"email_id" bson:"emailId" validate:"required,emailpattern"`
	DateOfBirth       *time.Time `json:"dateOfBirth,omitempty" dynamodbav:"date_of_birth,omitempty" bson:"dateOfBirth,omitempty"`
	DateOfAnniversary *time.Time `json:"dateOfAnniversary,omitempty" dynamodbav:"date_of_anniversary,omitempty" bson:"dateOfAnniversary,omitempty"`
	CreatedAt         time.Time  `json:"createdAt" dynamodbav:"created_at" bson:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt" dynamodbav:"updated_at" bson:"updatedAt"`
}

// ProfileInput is the create/update payload. Dates accept YYYY-MM-DD or RFC 3339.
type ProfileInput struct {
	Title             *string `json:"title"`
	FirstName         *string `json:"firstName"`
	MiddleName        *string `json:"middleName"`
	LastName          *string `json:"lastName"`
	Gender            *string `json:"gender"`
	MobileNumber      *string `json:"mobileNumber"`
	EmailID           *string `json:"emailId"`
	DateOfBirth       *string `json:"dateOfBirth"`
	DateOfAnniversary *string `json:"dateOfAnniversary"`
}
