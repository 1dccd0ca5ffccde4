package entity

import (
	"net/http"
	"strings"
	"swagportal/lib/validate"
)

// Invite is the provisioning payload posted by the invitation form webhook.
// A successful invite creates a User with Invited set and OrderSubmitted clear.
type Invite struct {
	FirstName   string   `json:"first_name" validate:"required,max=100"`
	LastName    string   `json:"last_name" validate:"omitempty,max=100"`
	Email       string   `json:"email" validate:"required,email"`
	PhoneNumber string   `json:"phone_number" validate:"omitempty,max=32"`
	Address     *Address `json:"shipping_address,omitempty" validate:"omitempty"`
}

func (i *Invite) Bind(_ *http.Request) error {
	i.FirstName = strings.TrimSpace(i.FirstName)
	i.LastName = strings.TrimSpace(i.LastName)
	i.Email = NormalizeEmail(i.Email)
	if i.Address != nil {
		i.Address.Normalize()
	}
	return validate.Struct(i)
}

func (i *Invite) User(id string) *User {
	user := &User{
		Id:          id,
		Email:       i.Email,
		FirstName:   i.FirstName,
		LastName:    i.LastName,
		PhoneNumber: i.PhoneNumber,
		Invited:     true,
	}
	if i.Address != nil {
		user.Address = *i.Address
	}
	return user
}
