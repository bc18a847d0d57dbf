package domain

import (
	"fmt"
	"strings"
	"time"
)

// Address types accepted by the address book.
const (
	AddressTypeHome  = "Home"
	AddressTypeWork  = "Work"
	AddressTypeOther = "Other"
)

// Address is a delivery address owned by an identity.
// At most one address per owner has IsDefault set.
type Address struct {
	AddressID    string    `json:"id" dynamodbav:"address_id" bson:"_id"`
	UserID       string    `json:"userId,omitempty" dynamodbav:"user_id,omitempty" bson:"userId,omitempty"`
	FullName     string    `json:"fullName" dynamodbav:"full_name" bson:"fullName" validate:"required"`
	MobileNumber string    `json:"mobileNumber" dynamodbav:"mobile_number" bson:"mobileNumber" validate:"required,phone10"`
	NickName     string    `json:"nickName" dynamodbav:"nick_name" bson:"nickName" validate:"required"`
	PinCode      string    `json:"pinCode" dynamodbav:"pin_code" bson:"pinCode" validate:"required,pincode"`
	AddressLine  string    `json:"addressLine" dynamodbav:"address_line" bson:"addressLine" validate:"required"`
	Landmark     string    `json:"landmark,omitempty" dynamodbav:"landmark" bson:"landmark,omitempty"`
	Locality     string    `json:"locality" dynamodbav:"locality" bson:"locality" validate:"required"`
	State        string    `json:"state" dynamodbav:"state" bson:"state" validate:"required"`
	City         string    `json:"city" dynamodbav:"city" bson:"city" validate:"required"`
	AddressType  string    `json:"addressType" dynamodbav:"address_type" bson:"addressType" validate:"oneof=Home Work Other"`
	IsDefault    bool      `json:"isDefault" dynamodbav:"is_default" bson:"isDefault"`
	MapLocation  string    `json:"mapLocation,omitempty" dynamodbav:"map_location" bson:"mapLocation,omitempty"`
	CreatedAt    time.Time `json:"createdAt" dynamodbav:"created_at" bson:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt" dynamodbav:"updated_at" bson:"updatedAt"`
}

// AddressView is the API representation of an address, including the derived full address.
type AddressView struct {
	Address
	FullAddress string `json:"fullAddress"`
}

// Normalize trims free-text fields and applies the default address type.
func (a *Address) Normalize() {
	for _, f := range []*string{&a.FullName, &a.NickName, &a.AddressLine, &a.Landmark, &a.Locality, &a.State, &a.City, &a.MapLocation, &a.MobileNumber, &a.PinCode} {
		*f = strings.TrimSpace(*f)
	}
	if a.AddressType == "" {
		a.AddressType = AddressTypeHome
	}
}

// FullAddress renders the one-line address shown to customers.
func (a *Address) FullAddress() string {
	return fmt.Sprintf("%s, %s, %s, %s, %s - %s",
		orNA(a.AddressLine), orNA(a.FullName), orNA(a.Locality), orNA(a.City), orNA(a.State), orNA(a.PinCode))
}

// View wraps the address with its derived fields.
func (a *Address) View() AddressView {
	return AddressView{Address: *a, FullAddress: a.FullAddress()}
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

// AddressInput is the create/update payload. Nil fields are left unchanged on update.
type AddressInput struct {
	FullName     *string `json:"fullName"`
	MobileNumber *string `json:"mobileNumber"`
	NickName     *string `json:"nickName"`
	PinCode      *string `json:"pinCode"`
	AddressLine  *string `json:"addressLine"`
	Landmark     *string `json:"landmark"`
	Locality     *string `json:"locality"`
	State        *string `json:"state"`
	City         *string `json:"city"`
	AddressType  *string `json:"addressType"`
	IsDefault    *bool   `json:"isDefault"`
	MapLocation  *string `json:"mapLocation"`
}

// ApplyTo copies every non-nil field of the input onto a.
func (in AddressInput) ApplyTo(a *Address) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&a.FullName, in.FullName)
	set(&a.MobileNumber, in.MobileNumber)
	set(&a.NickName, in.NickName)
	set(&a.PinCode, in.PinCode)
	set(&a.AddressLine, in.AddressLine)
	set(&a.Landmark, in.Landmark)
	set(&a.Locality, in.Locality)
	set(&a.State, in.State)
	set(&a.City, in.City)
	set(&a.AddressType, in.AddressType)
	set(&a.MapLocation, in.MapLocation)
	if in.IsDefault != nil {
		a.IsDefault = *in.IsDefault
	}
}
