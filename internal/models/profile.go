package models

// Profile represents an authorization profile that groups permissions.
// A user is assigned to one profile, inheriting all its permissions.
type Profile struct {
	Base
	Name        string `gorm:"uniqueIndex;size:100;not null" json:"name"`
	Description string `gorm:"size:500" json:"description,omitempty"`
	IsSystem    bool   `gorm:"default:false" json:"is_system"`
	// Permissions holds the set of permissions this profile grants.
	// Many-to-many relationship via profile_permissions join table.
	Permissions []Permission `gorm:"many2many:profile_permissions;" json:"permissions,omitempty"`
}

// Permission represents a single action allowed on a resource type.
// ResourceType is "service.entity" (e.g. "project.senior_user") or a
// wildcard form understood by the gate.
type Permission struct {
	Base
	ResourceType string `gorm:"size:100;not null;uniqueIndex:idx_perm_resource_action" json:"resource_type"`
	Action       string `gorm:"size:50;not null;uniqueIndex:idx_perm_resource_action" json:"action"`
	Description  string `gorm:"size:200" json:"description,omitempty"`
}

// Code returns the permission in "resource:action" format for matching.
func (p Permission) Code() string {
	return p.ResourceType + ":" + p.Action
}
