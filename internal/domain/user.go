package domain

import (
	"time"

	"github.com/google/uuid"
)

// InternalKeyLength is the fixed length of a generated internal key.
const InternalKeyLength = 100

// UserID is a value object for user identity.
type UserID struct{ uuid.UUID }

// NewUserID creates a new UserID from uuid.
func NewUserID(id uuid.UUID) UserID { return UserID{UUID: id} }

// ParseUserID parses the canonical string form.
func ParseUserID(s string) (UserID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return UserID{}, err
	}
	return NewUserID(id), nil
}

// String returns the canonical string form.
func (u UserID) String() string { return u.UUID.String() }

// User is a registered account. AccountKey stays nil until provisioning succeeds.
type User struct {
	ID           UserID
	Email        string
	PhoneNumber  string
	FullName     string
	PasswordHash string
	InternalKey  string
	AccountKey   *string
	Metadata     string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasAccountKey reports whether provisioning already stored an account key.
func (u *User) HasAccountKey() bool {
	return u.AccountKey != nil && *u.AccountKey != ""
}

// ListFilter narrows a listing. Nil fields are ignored; set fields, including empty strings,
// are AND-combined with exact match.
type ListFilter struct {
	Email    *string
	FullName *string
	Metadata *string
}

// Matches reports whether u satisfies every set field of f.
func (f ListFilter) Matches(u *User) bool {
	return matchField(f.Email, u.Email) && matchField(f.FullName, u.FullName) && matchField(f.Metadata, u.Metadata)
}

func matchField(want *string, got string) bool {
	return want == nil || *want == got
}
