package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func assignID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}

func (p *Path) BeforeCreate(*gorm.DB) error              { assignID(&p.ID); return nil }
func (t *ResearchTrend) BeforeCreate(*gorm.DB) error     { assignID(&t.ID); return nil }
func (t *TechStackEntry) BeforeCreate(*gorm.DB) error    { assignID(&t.ID); return nil }
func (c *AffiliateContract) BeforeCreate(*gorm.DB) error { assignID(&c.ID); return nil }
func (a *MonitoringAlert) BeforeCreate(*gorm.DB) error   { assignID(&a.ID); return nil }
func (b *Blog) BeforeCreate(*gorm.DB) error              { assignID(&b.ID); return nil }
func (s *EmailSignup) BeforeCreate(*gorm.DB) error       { assignID(&s.ID); return nil }
func (c *EmailCampaign) BeforeCreate(*gorm.DB) error     { assignID(&c.ID); return nil }

// All listet alle Modelle für die Auto-Migration.
func All() []any {
	return []any{
		&Path{},
		&ResearchTrend{},
		&TechStackEntry{},
		&AffiliateContract{},
		&MonitoringAlert{},
		&Blog{},
		&EmailSignup{},
		&EmailCampaign{},
	}
}
