package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is keyed by EmailOrPhone. OTP and OTPExpiry are either both set or both nil.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	EmailOrPhone string             `bson:"emailOrPhone" json:"emailOrPhone"`
	Name         string             `bson:"name" json:"name"`
	Role         string             `bson:"role" json:"role"`
	PasswordHash string             `bson:"password,omitempty" json:"-"`
	OTP          *string            `bson:"otp" json:"-"`
	OTPExpiry    *time.Time         `bson:"otpExpiry" json:"-"`
	IsVerified   bool               `bson:"isVerified" json:"isVerified"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
}

// PublicUser is the projection returned to clients.
type PublicUser struct {
	ID           string    `json:"id"`
	EmailOrPhone string    `json:"emailOrPhone"`
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	IsVerified   bool      `json:"isVerified"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (u *User) Public() PublicUser {
	return PublicUser{
		ID:           u.ID.Hex(),
		EmailOrPhone: u.EmailOrPhone,
		Name:         u.Name,
		Role:         u.Role,
		IsVerified:   u.IsVerified,
		CreatedAt:    u.CreatedAt,
	}
}

// HasActiveCode reports whether a code is pending, regardless of expiry.
func (u *User) HasActiveCode() bool {
	return u.OTP != nil && u.OTPExpiry != nil
}
