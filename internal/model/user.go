package model

import (
	"strings"
	"time"
)

// User roles. Students are the only reviewed role; TPO and admin accounts
// gate the review endpoints.
var (
	RoleStudent = "student"
	RoleTPO     = "tpo"
	RoleAdmin   = "admin"
)

// User is the identity row synced from the identity provider (or created by
// the local admin CLI, which fills Username/Password instead of ClerkUserID).
type User struct {
	ID          uint   `gorm:"primaryKey;autoIncrement;->" json:"id"`
	ClerkUserID string `gorm:"type:text;uniqueIndex" json:"clerk_user_id"`
	Email       string `gorm:"type:text;uniqueIndex" json:"email"`
	Username    string `gorm:"type:text" json:"-"`
	Password    string `gorm:"type:text" json:"-"`

	FirstName   string `gorm:"type:text" json:"first_name"`
	LastName    string `gorm:"type:text" json:"last_name"`
	PhoneNumber string `gorm:"type:text" json:"phone_number"`
	Role        string `gorm:"type:text;default:'student'" json:"role"`

	IsActive        bool `gorm:"default:true" json:"is_active"`
	IsApproved      bool `gorm:"default:false" json:"is_approved"`
	ProfileComplete bool `gorm:"default:false" json:"profile_complete"`

	CreatedAt time.Time `gorm:"type:timestamp;default:CURRENT_TIMESTAMP;->" json:"created_at"`
	UpdatedAt time.Time `gorm:"type:timestamp" json:"updated_at"`

	Profile *Profile `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"profile,omitempty"`
}

// EditableUserInfo is the part of a user row the user may change themselves.
// Email and role are intentionally absent.
type EditableUserInfo struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
}

// Apply overwrites only the fields present in the patch.
func (e *EditableUserInfo) Apply(dst *User) {
	if e.FirstName != nil {
		dst.FirstName = *e.FirstName
	}
	if e.LastName != nil {
		dst.LastName = *e.LastName
	}
}

// Profile holds the reviewable attributes of a student, one row per user.
type Profile struct {
	ID     uint `gorm:"primaryKey;autoIncrement;->" json:"id"`
	UserID uint `gorm:"not null;uniqueIndex" json:"user_id"`
	User   User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`

	Phone           string `gorm:"type:text" json:"phone"`
	Degree          string `gorm:"type:text" json:"degree"`
	Year            string `gorm:"type:text" json:"year"`
	Skills          string `gorm:"type:text" json:"skills"`
	About           string `gorm:"type:text" json:"about"`
	AlternateEmail  string `gorm:"type:text" json:"alternate_email"`
	ProfileImageURL string `gorm:"type:text" json:"profile_image_url"`
	PlacementStatus string `gorm:"type:text" json:"placement_status"`

	IsApproved    bool   `gorm:"default:false" json:"is_approved"`
	ApprovalNotes string `gorm:"type:text" json:"approval_notes"`

	CreatedAt time.Time `gorm:"type:timestamp;default:CURRENT_TIMESTAMP;->" json:"created_at"`
	UpdatedAt time.Time `gorm:"type:timestamp" json:"updated_at"`
}

// Complete reports whether every field required for review is filled in:
// phone, degree, year, skills, about and alternate email.
func (p *Profile) Complete() bool {
	required := []string{p.Phone, p.Degree, p.Year, p.Skills, p.About, p.AlternateEmail}
	for _, field := range required {
		if strings.TrimSpace(field) == "" {
			return false
		}
	}
	return true
}

// ProfilePatch is a partial profile update. Absent fields keep their stored
// values; approval state is never patchable from here.
type ProfilePatch struct {
	Phone           *string `json:"phone"`
	Degree          *string `json:"degree"`
	Year            *string `json:"year"`
	Skills          *string `json:"skills"`
	About           *string `json:"about"`
	AlternateEmail  *string `json:"alternate_email"`
	ProfileImageURL *string `json:"profile_image_url"`
}

// Apply overwrites only the fields present in the patch.
func (p *ProfilePatch) Apply(dst *Profile) {
	if p.Phone != nil {
		dst.Phone = *p.Phone
	}
	if p.Degree != nil {
		dst.Degree = *p.Degree
	}
	if p.Year != nil {
		dst.Year = *p.Year
	}
	if p.Skills != nil {
		dst.Skills = *p.Skills
	}
	if p.About != nil {
		dst.About = *p.About
	}
	if p.AlternateEmail != nil {
		dst.AlternateEmail = *p.AlternateEmail
	}
	if p.ProfileImageURL != nil {
		dst.ProfileImageURL = *p.ProfileImageURL
	}
}
