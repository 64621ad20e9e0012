package models

import (
	"time"

	"gorm.io/datatypes"
)

// SourceGrokAPI markiert Trends, die vom Research-Agent erzeugt wurden.
const SourceGrokAPI = "grok-api"

// ToolCard beschreibt ein von der KI gefundenes Tool im Detail.
type ToolCard struct {
	Name             string   `json:"name"`
	Description      string   `json:"description"`
	Website          string   `json:"website"`
	AffiliateProgram string   `json:"affiliate_program"`
	Pricing          string   `json:"pricing"`
	KeyFeatures      []string `json:"key_features"`
}

// BlogIdea ist eine Blog-Idee für genau eine der sieben Kategorien.
type BlogIdea struct {
	Category    Category `json:"category"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
}

// ResearchTrend ist das Ergebnis eines einzelnen Research-Zyklus.
type ResearchTrend struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`

	PathID *string `json:"path_id,omitempty" gorm:"type:varchar(36);index"`
	Path   *Path   `json:"-" gorm:"foreignKey:PathID"`

	Topic          string                        `json:"topic" gorm:"not null"`
	Summary        string                        `json:"summary" gorm:"type:text"`
	ToolsMentioned datatypes.JSONSlice[string]   `json:"tools_mentioned"`
	ToolsDetailed  datatypes.JSONSlice[ToolCard] `json:"tools_detailed"`
	KeyInsights    datatypes.JSONSlice[string]   `json:"key_insights"`
	BlogIdeas      datatypes.JSONSlice[BlogIdea] `json:"blog_ideas"`
	Source         string                        `json:"source"`

	// Wird genau einmal vom Tool-Populator gesetzt
	ToolsPopulated bool `json:"tools_populated" gorm:"not null;default:false"`
	WeekNumber     *int `json:"week_number,omitempty"`
}

// TableName gibt den expliziten Tabellennamen für GORM an.
func (ResearchTrend) TableName() string {
	return "trends"
}
