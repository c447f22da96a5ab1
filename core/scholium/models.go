package scholium

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/scholium-app/scholium/core"
)

type Scholium struct {
	ID         int       `json:"id" db:"id"`
	Name       string    `json:"name" db:"name"`
	OwnerID    int       `json:"owner_id" db:"user_id"`
	AccessCode string    `json:"access_code,omitempty" db:"access_code"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"` // UTC
}

// Member is a user's membership in one scholium. UserName and UserEmail are
// join fields populated by member listings.
type Member struct {
	ID               int       `json:"id" db:"id"`
	ScholiumID       int       `json:"scholium_id" db:"scholium_id"`
	UserID           int       `json:"user_id" db:"user_id"`
	IsHost           bool      `json:"is_host" db:"is_host"`
	CanAddHomework   bool      `json:"can_add_homework" db:"can_add_homework"`
	CanCreateSubject bool      `json:"can_create_subject" db:"can_create_subject"`
	JoinedAt         time.Time `json:"joined_at" db:"joined_at"` // UTC

	UserName  string `json:"user_name,omitempty" db:"user_name"`
	UserEmail string `json:"user_email,omitempty" db:"user_email"`
}

// MemberState is the capability set of one (user, scholium) pair.
// Hosts hold every capability regardless of their stored flags.
type MemberState struct {
	IsHost           bool `json:"is_host"`
	CanAddHomework   bool `json:"can_add_homework"`
	CanCreateSubject bool `json:"can_create_subject"`
}

func (m Member) State() MemberState {
	if m.IsHost {
		return MemberState{IsHost: true, CanAddHomework: true, CanCreateSubject: true}
	}
	return MemberState{
		CanAddHomework:   m.CanAddHomework,
		CanCreateSubject: m.CanCreateSubject,
	}
}

// Details is a member-facing view of one scholium.
type Details struct {
	Scholium
	IsHost      bool `json:"is_host"`
	MemberCount int  `json:"member_count"`
}

type NewScholium struct {
	Name string `json:"name" validate:"required"`
}

func (ns *NewScholium) Validate(validate *validator.Validate) error {
	ns.Name = core.CleanString(ns.Name)
	return validate.Struct(ns)
}

type JoinScholium struct {
	AccessCode string `json:"access_code" validate:"required"`
}

func (js *JoinScholium) Validate(validate *validator.Validate) error {
	js.AccessCode = core.CleanString(js.AccessCode)
	return validate.Struct(js)
}

type UpdatePermissions struct {
	CanAddHomework   bool `json:"can_add_homework"`
	CanCreateSubject bool `json:"can_create_subject"`
}
