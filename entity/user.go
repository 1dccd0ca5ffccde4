package entity

import (
	"strings"
	"time"
)

// User is an employee record provisioned by the invitation webhook.
// OrderSubmitted flips false -> true exactly once, by the order flow only.
type User struct {
	Id             string    `json:"id" bson:"id"`
	Email          string    `json:"email" bson:"email"`
	FirstName      string    `json:"first_name" bson:"first_name"`
	LastName       string    `json:"last_name" bson:"last_name"`
	Address        `bson:",inline"`
	PhoneNumber    string    `json:"phone_number" bson:"phone_number"`
	Invited        bool      `json:"invited" bson:"invited"`
	OrderSubmitted bool      `json:"order_submitted" bson:"order_submitted"`
	CreatedAt      time.Time `json:"created_at" bson:"created_at"`
}

func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// NormalizeEmail is the canonical form used for lookups and the unique index
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
