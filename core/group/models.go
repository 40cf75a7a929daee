package group

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/nkashama/duetrack/core"
)

type Group struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	MemberIDs []string  `json:"member_ids"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// HasMember reports whether the given user belongs to the group (creator included).
func (g *Group) HasMember(userID string) bool {
	if g.CreatedBy == userID {
		return true
	}
	for _, id := range g.MemberIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// Member is the public projection of a group member.
type Member struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

// Detail is a Group with its member list resolved.
type Detail struct {
	Group
	Members []Member `json:"members"`
}

// NewGroup contains information needed to create a new Group.
// Member emails must all belong to existing users.
type NewGroup struct {
	Name         string   `json:"name" validate:"required"`
	MemberEmails []string `json:"member_emails" validate:"omitempty,dive,email"`
}

func (ng *NewGroup) Validate(validate *validator.Validate) error {
	ng.Name = core.CleanString(ng.Name)
	for i, email := range ng.MemberEmails {
		ng.MemberEmails[i] = core.CleanString(email, true /* lower */)
	}
	return validate.Struct(ng)
}

// UpdateGroup defines what information may be provided to modify an existing Group.
type UpdateGroup struct {
	Name            string   `json:"name" validate:"omitempty"`
	AddMemberEmails []string `json:"add_member_emails" validate:"omitempty,dive,email"`
	RemoveMemberIDs []string `json:"remove_member_ids" validate:"omitempty,dive,objectid"`
}

func (ug *UpdateGroup) Validate(validate *validator.Validate) error {
	ug.Name = core.CleanString(ug.Name)
	for i, email := range ug.AddMemberEmails {
		ug.AddMemberEmails[i] = core.CleanString(email, true /* lower */)
	}
	return validate.Struct(ug)
}
