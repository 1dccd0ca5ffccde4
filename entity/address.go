package entity

import (
	"fmt"
	"net/http"
	"strings"
	"swagportal/lib/validate"
)

type Address struct {
	Address1 string `json:"address1" bson:"address1" validate:"required,max=200"`
	Address2 string `json:"address2,omitempty" bson:"address2,omitempty" validate:"omitempty,max=200"`
	City     string `json:"city" bson:"city" validate:"required,max=100"`
	State    string `json:"state" bson:"state" validate:"required,max=100"`
	ZipCode  string `json:"zip_code" bson:"zip_code" validate:"required,max=20"`
	Country  string `json:"country" bson:"country" validate:"required,country"`
}

func (a *Address) Normalize() {
	a.Address1 = strings.TrimSpace(a.Address1)
	a.Address2 = strings.TrimSpace(a.Address2)
	a.City = strings.TrimSpace(a.City)
	a.State = strings.TrimSpace(a.State)
	a.ZipCode = strings.TrimSpace(a.ZipCode)
	a.Country = strings.TrimSpace(a.Country)
}

// CountryCode returns ISO alpha-2 for the stored country name or code
func (a *Address) CountryCode() string {
	return validate.CountryCode(a.Country)
}

// String renders a single-line shipping address for notifications
func (a *Address) String() string {
	line := a.Address1
	if a.Address2 != "" {
		line += ", " + a.Address2
	}
	return fmt.Sprintf("%s, %s, %s %s, %s", line, a.City, a.State, a.ZipCode, a.Country)
}

// Missing lists empty required components, using the wording shown to users
func (a *Address) Missing() []string {
	var missing []string
	if a.Address1 == "" {
		missing = append(missing, "street address")
	}
	if a.City == "" {
		missing = append(missing, "city")
	}
	if a.State == "" {
		missing = append(missing, "state/province")
	}
	if a.ZipCode == "" {
		missing = append(missing, "postal code")
	}
	if a.Country == "" {
		missing = append(missing, "country")
	}
	return missing
}

// PlaceRequest asks to resolve an autocomplete place into a shipping address
type PlaceRequest struct {
	PlaceId string `json:"place_id" validate:"required,max=512"`
}

func (p *PlaceRequest) Bind(_ *http.Request) error {
	p.PlaceId = strings.TrimSpace(p.PlaceId)
	return validate.Struct(p)
}

type ValidatedAddress struct {
	FormattedAddress string `json:"formatted_address"`
	Address
}

// AddressCheck reports which required components a resolved place lacks
type AddressCheck struct {
	IsValid           bool              `json:"is_valid"`
	MissingComponents []string          `json:"missing_components"`
	ValidatedAddress  *ValidatedAddress `json:"validated_address,omitempty"`
}

func CheckAddress(formatted string, address Address) *AddressCheck {
	address.Normalize()
	missing := address.Missing()
	if missing == nil {
		missing = []string{}
	}
	return &AddressCheck{
		IsValid:           len(missing) == 0,
		MissingComponents: missing,
		ValidatedAddress: &ValidatedAddress{
			FormattedAddress: formatted,
			Address:          address,
		},
	}
}
