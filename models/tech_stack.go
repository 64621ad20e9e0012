package models

import (
	"time"

	"gorm.io/datatypes"
)

// SignupStatus beschreibt den Stand der Affiliate-Anmeldung für ein Tool.
type SignupStatus string

const (
	SignupPending    SignupStatus = "pending"
	SignupRegistered SignupStatus = "registered"
	SignupActive     SignupStatus = "active"
	SignupDeclined   SignupStatus = "declined"
)

// DefaultPriorityScore wird für automatisch übernommene Tools gesetzt.
const DefaultPriorityScore = 70

// TechStackEntry ist ein Eintrag im persistenten Tool-Katalog.
// (path_id, name) ist eindeutig.
type TechStackEntry struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	PathID *string `json:"path_id,omitempty" gorm:"type:varchar(36);uniqueIndex:idx_tech_stacks_path_name"`
	Name   string  `json:"name" gorm:"not null;uniqueIndex:idx_tech_stacks_path_name"`

	Category       string                      `json:"category" gorm:"index"`
	Description    string                      `json:"description" gorm:"type:text"`
	WebsiteURL     string                      `json:"website_url"`
	AffiliateURL   *string                     `json:"affiliate_url"`
	CommissionRate string                      `json:"commission_rate,omitempty"`
	PricingModel   string                      `json:"pricing_model,omitempty"`
	KeyFeatures    datatypes.JSONSlice[string] `json:"key_features"`
	AffiliateNotes string                      `json:"affiliate_notes,omitempty" gorm:"type:text"`

	ToolsDetailedSource datatypes.JSONType[ToolCard] `json:"tools_detailed_source"`

	// Affiliate-Workflow
	SignupStatus  SignupStatus `json:"signup_status" gorm:"index;not null;default:'pending'"`
	SignupDate    *time.Time   `json:"signup_date,omitempty" gorm:"type:date"`
	PriorityScore int          `json:"priority_score"`

	// Wochenplanung
	SelectedForWeek bool       `json:"selected_for_week" gorm:"not null;default:false"`
	AutoPopulated   bool       `json:"auto_populated" gorm:"not null;default:false"`
	WeekNumber      *int       `json:"week_number,omitempty"`
	LastUsedWeek    *time.Time `json:"last_used_week,omitempty" gorm:"type:date"`
}

// TableName gibt den expliziten Tabellennamen für GORM an.
func (TechStackEntry) TableName() string {
	return "tech_stacks"
}
