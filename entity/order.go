package entity

import (
	"net/http"
	"strings"
	"time"
	"swagportal/lib/validate"
)

type Size string

const (
	SizeXS  Size = "XS"
	SizeS   Size = "S"
	SizeM   Size = "M"
	SizeL   Size = "L"
	SizeXL  Size = "XL"
	Size2XL Size = "2XL"
	Size3XL Size = "3XL"
	Size4XL Size = "4XL"
)

func Sizes() []Size {
	return []Size{SizeXS, SizeS, SizeM, SizeL, SizeXL, Size2XL, Size3XL, Size4XL}
}

// OrderRequest is the body of an order submission
type OrderRequest struct {
	UserId      string `json:"user_id" validate:"required"`
	FirstName   string `json:"first_name" validate:"required,max=100"`
	LastName    string `json:"last_name" validate:"required,max=100"`
	Email       string `json:"email" validate:"required,email"`
	Size        Size   `json:"size" validate:"required,oneof=XS S M L XL 2XL 3XL 4XL"`
	Address
	PhoneNumber string `json:"phone_number" validate:"required,min=5,max=32"`
}

func (o *OrderRequest) Bind(_ *http.Request) error {
	o.Normalize()
	return validate.Struct(o)
}

func (o *OrderRequest) Normalize() {
	o.UserId = strings.TrimSpace(o.UserId)
	o.FirstName = strings.TrimSpace(o.FirstName)
	o.LastName = strings.TrimSpace(o.LastName)
	o.Email = NormalizeEmail(o.Email)
	o.Size = Size(strings.ToUpper(strings.TrimSpace(string(o.Size))))
	o.PhoneNumber = strings.TrimSpace(o.PhoneNumber)
	o.Address.Normalize()
}

func (o *OrderRequest) Validate() error {
	return validate.Struct(o)
}

// Order is an immutable redemption record; at most one per user
type Order struct {
	Id            string    `json:"id" bson:"id"`
	UserId        string    `json:"user_id" bson:"user_id"`
	FirstName     string    `json:"first_name" bson:"first_name"`
	LastName      string    `json:"last_name" bson:"last_name"`
	Email         string    `json:"email" bson:"email"`
	Size          Size      `json:"size" bson:"size"`
	Address       `bson:",inline"`
	PhoneNumber   string    `json:"phone_number" bson:"phone_number"`
	DateSubmitted time.Time `json:"date_submitted" bson:"date_submitted"`
}

func NewOrder(id string, req *OrderRequest, submitted time.Time) *Order {
	return &Order{
		Id:            id,
		UserId:        req.UserId,
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Email:         req.Email,
		Size:          req.Size,
		Address:       req.Address,
		PhoneNumber:   req.PhoneNumber,
		DateSubmitted: submitted,
	}
}

func (o *Order) FullName() string {
	return strings.TrimSpace(o.FirstName + " " + o.LastName)
}

// Confirmation is returned to the client when an order went through
type Confirmation struct {
	OrderId   string `json:"order_id"`
	Remaining int    `json:"remaining"`
	Message   string `json:"message"`
}
