package models

type HealthPlan struct {
	Base
	Name        string `gorm:"size:255;not null;index" json:"name"`
	Description string `gorm:"size:1000" json:"description,omitempty"`
}
