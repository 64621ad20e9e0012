package models

import (
	"time"

	"gorm.io/datatypes"
)

// AffiliateLink ist ein Affiliate-Link in einem Blogpost. Vom Copywriter
// vorgeschlagene Links haben noch keine URL.
type AffiliateLink struct {
	URL         string `json:"url"`
	Description string `json:"description"`
}

// Blog ist ein (veröffentlichter oder Entwurfs-) Blogpost.
type Blog struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Title          string                             `json:"title" gorm:"not null"`
	Category       Category                           `json:"category" gorm:"index"`
	Content        string                             `json:"content" gorm:"type:text"`
	Excerpt        string                             `json:"excerpt"`
	AffiliateLinks datatypes.JSONSlice[AffiliateLink] `json:"affiliate_links"`
	Published      bool                               `json:"published" gorm:"index;not null;default:false"`
	PublishedDate  *time.Time                         `json:"published_date,omitempty" gorm:"index"`
}

func (Blog) TableName() string { return "blogs" }

// EmailSignup ist ein Newsletter-Kontakt.
type EmailSignup struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	CreatedAt time.Time `json:"created_at"`

	Email       string `json:"email" gorm:"uniqueIndex;not null"`
	Name        string `json:"name"`
	BrevoSynced bool   `json:"brevo_synced" gorm:"index;not null;default:false"`
}

func (EmailSignup) TableName() string { return "email_signups" }

// EmailCampaign protokolliert einen versendeten Blog-Digest.
type EmailCampaign struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	CreatedAt time.Time `json:"created_at"`

	BlogID          string    `json:"blog_id" gorm:"type:varchar(36);index"`
	BrevoCampaignID string    `json:"brevo_campaign_id"`
	Subject         string    `json:"subject"`
	SentCount       int       `json:"sent_count"`
	SentAt          time.Time `json:"sent_at"`
}

func (EmailCampaign) TableName() string { return "email_campaigns" }
