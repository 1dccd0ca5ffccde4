package entity

import (
	"net/http"
	"swagportal/lib/validate"
)

type IneligibleReason string

const (
	ReasonNone           IneligibleReason = ""
	ReasonAlreadyOrdered IneligibleReason = "AlreadyOrdered"
	ReasonNotInvited     IneligibleReason = "NotInvited"
	ReasonNotAllowed     IneligibleReason = "DomainNotAllowed"
	ReasonUserNotFound   IneligibleReason = "UserNotFound"
)

// Eligibility is the identity gate verdict for one user
type Eligibility struct {
	Eligible bool             `json:"authorized"`
	Reason   IneligibleReason `json:"reason,omitempty"`
	User     *User            `json:"user,omitempty"`
}

func Eligible(user *User) Eligibility {
	return Eligibility{Eligible: true, User: user}
}

func Ineligible(reason IneligibleReason) Eligibility {
	return Eligibility{Reason: reason}
}

// EligibilityOf applies the gate rules in order: a prior order wins over a missing invite
func EligibilityOf(user *User) Eligibility {
	if user == nil {
		return Ineligible(ReasonUserNotFound)
	}
	if user.OrderSubmitted {
		return Ineligible(ReasonAlreadyOrdered)
	}
	if !user.Invited {
		return Ineligible(ReasonNotInvited)
	}
	return Eligible(user)
}

// EmailCheck is the login-time eligibility query
type EmailCheck struct {
	Email string `json:"email" validate:"required,email"`
}

func (e *EmailCheck) Bind(_ *http.Request) error {
	e.Email = NormalizeEmail(e.Email)
	return validate.Struct(e)
}
