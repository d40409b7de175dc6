package models

import "time"

const (
	RoleAdmin    = "ADMIN"
	RoleCustomer = "CUSTOMER"
)

// Account is a storefront user. Password and the verification/reset tokens
// are write-only: bson keeps them, json never exposes them.
type Account struct {
	AccountID     string     `json:"accountId" bson:"accountid"`
	Email         string     `json:"email" bson:"email"`
	Password      string     `json:"-" bson:"password"`
	FirstName     string     `json:"first_name" bson:"first_name"`
	LastName      string     `json:"last_name" bson:"last_name"`
	DateOfBirth   *time.Time `json:"date_of_birth,omitempty" bson:"date_of_birth,omitempty"`
	Gender        string     `json:"gender,omitempty" bson:"gender,omitempty"`
	Avatar        string     `json:"avatar,omitempty" bson:"avatar,omitempty"`
	Role          string     `json:"role" bson:"role"`
	IsActive      bool       `json:"is_active" bson:"is_active"`
	IsVerified    bool       `json:"is_verified" bson:"is_verified"`
	Phone         string     `json:"phone,omitempty" bson:"phone,omitempty"`
	Address       string     `json:"address,omitempty" bson:"address,omitempty"`
	LastLogin     time.Time  `json:"last_login,omitempty" bson:"last_login,omitempty"`
	CreatedAt     time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt" bson:"updatedAt"`
	RefreshToken  string     `json:"-" bson:"refresh_token,omitempty"`
	RefreshExpiry time.Time  `json:"-" bson:"refresh_expiry,omitempty"`

	VerificationToken        string    `json:"-" bson:"verification_token,omitempty"`
	VerificationTokenExpires time.Time `json:"-" bson:"verification_token_expires,omitempty"`
	PasswordResetToken       string    `json:"-" bson:"password_reset_token,omitempty"`
	PasswordResetExpires     time.Time `json:"-" bson:"password_reset_expires,omitempty"`
}

func (a *Account) FullName() string {
	return a.FirstName + " " + a.LastName
}
