package models

import "time"

// Path ist ein paralleler Content-Track (z.B. "a" = No-Code, "b" = AI-APIs).
type Path struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	CreatedAt time.Time `json:"created_at"`

	Slug           string `json:"slug" gorm:"uniqueIndex;not null"`
	Name           string `json:"name" gorm:"not null"`
	Description    string `json:"description,omitempty" gorm:"type:text"`
	TechStackFocus string `json:"tech_stack_focus"`
}

// TableName gibt den expliziten Tabellennamen für GORM an.
func (Path) TableName() string {
	return "paths"
}
