package models

// User is a person known to the platform; operators of the admin panel are
// users with a profile assigned.
type User struct {
	Base
	Email    string `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Name     string `gorm:"size:255" json:"name,omitempty"`
	Password string `gorm:"size:255" json:"-"` // bcrypt hash, never exposed in JSON
	// ProfileID links the user to an authorization profile.
	// A nil value means the user has no profile assigned.
	ProfileID *string  `gorm:"size:36;index" json:"profile_id,omitempty"`
	Profile   *Profile `gorm:"foreignKey:ProfileID" json:"profile,omitempty"`
}
