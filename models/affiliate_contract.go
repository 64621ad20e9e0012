package models

import (
	"time"

	"gorm.io/datatypes"
)

// RiskLevel ist die KI-Risikoeinschätzung eines Vertrags.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// CommissionTier ist eine Provisionsstufe ab einem Schwellwert.
type CommissionTier struct {
	Threshold string `json:"threshold"`
	Rate      string `json:"rate"`
}

// AffiliateContract speichert einen analysierten Affiliate-Vertrag.
// Einträge werden nach dem Anlegen nicht mehr verändert; eine erneute
// Analyse erzeugt einen neuen Datensatz.
type AffiliateContract struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	CreatedAt time.Time `json:"created_at"`

	TechStackID      string  `json:"tech_stack_id" gorm:"type:varchar(36);index;not null"`
	ContractText     string  `json:"contract_text" gorm:"type:text;not null"`
	ContractURL      *string `json:"contract_url,omitempty"`
	AffiliateNetwork *string `json:"affiliate_network,omitempty"`
	TrackingID       *string `json:"tracking_id,omitempty"`

	// Provisionsstruktur
	CommissionType          string                              `json:"commission_type"`
	CommissionRatePrimary   string                              `json:"commission_rate_primary"`
	CommissionRateRecurring *string                             `json:"commission_rate_recurring,omitempty"`
	CommissionTiers         datatypes.JSONSlice[CommissionTier] `json:"commission_tiers"`
	CookieDurationDays      *int                                `json:"cookie_duration_days,omitempty"`

	// Zahlungsbedingungen
	PaymentFrequency string                      `json:"payment_frequency"`
	PaymentThreshold *float64                    `json:"payment_threshold,omitempty"`
	PaymentMethods   datatypes.JSONSlice[string] `json:"payment_methods"`
	PayoutDelayDays  *int                        `json:"payout_delay_days,omitempty"`

	// Einschränkungen
	GeographicRestrictions  datatypes.JSONSlice[string] `json:"geographic_restrictions"`
	TrafficRestrictions     datatypes.JSONSlice[string] `json:"traffic_restrictions"`
	PromotionalRestrictions datatypes.JSONSlice[string] `json:"promotional_restrictions"`
	ComplianceRequirements  datatypes.JSONSlice[string] `json:"compliance_requirements"`
	ProhibitedKeywords      datatypes.JSONSlice[string] `json:"prohibited_keywords"`

	// KI-Analyse
	AISummary         string                      `json:"ai_analysis_summary" gorm:"column:ai_analysis_summary;type:text"`
	AIRating          *float64                    `json:"ai_rating,omitempty" gorm:"column:ai_rating"`
	AIPros            datatypes.JSONSlice[string] `json:"ai_pros" gorm:"column:ai_pros"`
	AICons            datatypes.JSONSlice[string] `json:"ai_cons" gorm:"column:ai_cons"`
	AIRecommendations datatypes.JSONSlice[string] `json:"ai_recommendations" gorm:"column:ai_recommendations"`
	AIRiskLevel       RiskLevel                   `json:"ai_risk_level" gorm:"column:ai_risk_level"`

	// Monitoring
	PerformanceBenchmarks datatypes.JSONMap `json:"performance_benchmarks"`
	AlertThresholds       datatypes.JSONMap `json:"alert_thresholds"`
	MonitoringFrequency   string            `json:"monitoring_frequency" gorm:"default:'daily'"`

	AnalyzedAt     time.Time `json:"analyzed_at"`
	LastReviewedAt time.Time `json:"last_reviewed_at"`
}

// TableName gibt den expliziten Tabellennamen für GORM an.
func (AffiliateContract) TableName() string {
	return "affiliate_contracts"
}

// AlertStatus ist der Bearbeitungsstand eines Monitoring-Alerts.
type AlertStatus string

const (
	AlertOpen      AlertStatus = "open"
	AlertDismissed AlertStatus = "dismissed"
)

// MonitoringAlert wird pro Action-Item einer Vertragsanalyse angelegt.
type MonitoringAlert struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	CreatedAt time.Time `json:"created_at"`

	TechStackID string `json:"tech_stack_id" gorm:"type:varchar(36);index;not null"`
	ContractID  string `json:"contract_id" gorm:"type:varchar(36);index;not null"`

	AlertType         string                      `json:"alert_type"`
	Severity          string                      `json:"severity"`
	Status            AlertStatus                 `json:"status" gorm:"index;not null;default:'open'"`
	Title             string                      `json:"title"`
	Description       string                      `json:"description" gorm:"type:text"`
	AIRecommendations datatypes.JSONSlice[string] `json:"ai_recommendations" gorm:"column:ai_recommendations"`
	SuggestedActions  datatypes.JSONSlice[string] `json:"suggested_actions"`
}

// TableName gibt den expliziten Tabellennamen für GORM an.
func (MonitoringAlert) TableName() string {
	return "affiliate_monitoring_alerts"
}
