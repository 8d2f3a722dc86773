package models

// SeniorUser is the record edited by the admin panel.
//
// UserID and HealthPlanID are nullable references; a null and an empty
// string are distinct states and are stored as given.
type SeniorUser struct {
	Base
	Progress     *string     `gorm:"type:text" json:"progress"`
	UserID       *string     `gorm:"size:36;index" json:"user_id"`
	HealthPlanID *string     `gorm:"size:36;index" json:"health_plan_id"`
	User         *User       `gorm:"foreignKey:UserID" json:"user,omitempty"`
	HealthPlan   *HealthPlan `gorm:"foreignKey:HealthPlanID" json:"health_plan,omitempty"`
}
