package types

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// User represents an account in the system.
type User struct {
	// ID is the unique identifier of the user.
	ID bson.ObjectID `json:"_id" bson:"_id,omitempty"`

	// Email is the user's email address. It is stored lowercased and
	// trimmed, and is unique across the users collection.
	Email string `json:"email" bson:"email"`

	// Name is the user's display or full name.
	Name string `json:"name" bson:"name"`

	// PasswordHash stores the bcrypt digest of the user's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" bson:"password"`

	// CreatedAt is the timestamp when the user account was created.
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`

	// UpdatedAt is the timestamp of the most recent update to the user account.
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}
