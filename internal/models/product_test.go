package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestIsProductType(t *testing.T) {
	for _, v := range ProductTypes {
		assert.True(t, IsProductType(v), v)
	}
	assert.False(t, IsProductType("foods"))
	assert.False(t, IsProductType(""))
}

func TestOwnedBy(t *testing.T) {
	owner := primitive.NewObjectID()
	p := Product{CreatedBy: owner}
	assert.True(t, p.OwnedBy(owner))
	assert.False(t, p.OwnedBy(primitive.NewObjectID()))
}

func TestUserPublicHidesSecrets(t *testing.T) {
	code := "123456"
	u := User{ID: primitive.NewObjectID(), EmailOrPhone: "a@b.c", Name: "a@b.c", Role: RoleUser, PasswordHash: "h", OTP: &code}
	pub := u.Public()
	assert.Equal(t, u.ID.Hex(), pub.ID)
	assert.Equal(t, RoleUser, pub.Role)
	assert.False(t, u.HasActiveCode())
}
