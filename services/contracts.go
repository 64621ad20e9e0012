package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"puzzle2profit/config"
	"puzzle2profit/models"
	"puzzle2profit/providers"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const contractTemperature = 0.3

// ContractRequest ist ein eingereichter Affiliate-Vertrag.
type ContractRequest struct {
	TechStackID      string `json:"tech_stack_id"`
	ContractText     string `json:"contract_text"`
	ContractURL      string `json:"contract_url"`
	AffiliateNetwork string `json:"affiliate_network"`
	TrackingID       string `json:"tracking_id"`
}

// ContractAnalysisSummary ist die Kurzfassung für die HTTP-Antwort.
type ContractAnalysisSummary struct {
	Summary              string           `json:"summary"`
	Rating               *float64         `json:"rating"`
	RiskLevel            models.RiskLevel `json:"risk_level"`
	ProsCount            int              `json:"pros_count"`
	ConsCount            int              `json:"cons_count"`
	RecommendationsCount int              `json:"recommendations_count"`
	ActionItemsCount     int              `json:"action_items_count"`
}

// ContractResult ist das Ergebnis einer erfolgreichen Analyse.
type ContractResult struct {
	Success    bool                    `json:"success"`
	Message    string                  `json:"message"`
	ContractID string                  `json:"contract_id"`
	Analysis   ContractAnalysisSummary `json:"analysis"`
}

// ContractAnalysis ist die typisierte Modellantwort. Sie wird nur erzeugt,
// wenn die Provisions-, Zahlungs- und Einschränkungs-Objekte vorhanden sind.
type ContractAnalysis struct {
	Contract    models.AffiliateContract
	ActionItems []string
}

// ContractService analysiert Affiliate-Verträge.
type ContractService struct {
	Config   *config.Config
	DB       *gorm.DB
	Logger   *zap.Logger
	Provider providers.Provider
	Now      func() time.Time
}

// NewContractService erstellt einen neuen ContractService.
func NewContractService(cfg *config.Config, db *gorm.DB, provider providers.Provider, logger *zap.Logger) *ContractService {
	return &ContractService{Config: cfg, DB: db, Logger: logger, Provider: provider, Now: time.Now}
}

// Analyze lässt den Vertrag vom Modell auswerten und speichert Vertrag,
// Alerts und den neuen Signup-Status des Tools in einer Transaktion.
func (s *ContractService) Analyze(ctx context.Context, req ContractRequest) (*ContractResult, error) {
	if strings.TrimSpace(req.TechStackID) == "" || strings.TrimSpace(req.ContractText) == "" {
		return nil, newError(ErrValidation, "tech_stack_id and contract_text are required")
	}
	if details, ok := s.Config.CredentialStatus(config.CredentialLLM); !ok || s.Provider == nil {
		return nil, &ConfigError{Details: details}
	}

	log := s.Logger.With(zap.String("tech_stack_id", req.TechStackID))

	var tool models.TechStackEntry
	if err := s.DB.WithContext(ctx).First(&tool, "id = ?", req.TechStackID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newError(ErrNotFound, "Tech stack not found")
		}
		return nil, err
	}

	text, err := s.Provider.Complete(ctx, providers.CompletionRequest{
		System:      "You are an elite affiliate marketing consultant specializing in contract analysis. Provide detailed, actionable insights.",
		Prompt:      buildContractPrompt(&tool, req),
		Temperature: contractTemperature,
	})
	if err != nil {
		contractAnalyses.WithLabelValues("upstream_error").Inc()
		log.Error("Vertragsanalyse beim Provider fehlgeschlagen", zap.Error(err))
		return nil, err
	}

	analysis, err := ParseContractAnalysis(text)
	if err != nil {
		contractAnalyses.WithLabelValues("invalid_output").Inc()
		log.Error("Vertragsanalyse nicht lesbar", zap.Error(err))
		return nil, err
	}

	now := s.Now().UTC()
	contract := analysis.Contract
	contract.TechStackID = tool.ID
	contract.ContractText = req.ContractText
	contract.ContractURL = optional(req.ContractURL)
	contract.AffiliateNetwork = optional(req.AffiliateNetwork)
	contract.TrackingID = optional(req.TrackingID)
	contract.AnalyzedAt = now
	contract.LastReviewedAt = now

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&contract).Error; err != nil {
			return fmt.Errorf("failed to save contract: %w", err)
		}
		if len(analysis.ActionItems) > 0 {
			alerts := make([]models.MonitoringAlert, 0, len(analysis.ActionItems))
			for _, item := range analysis.ActionItems {
				alerts = append(alerts, models.MonitoringAlert{
					TechStackID:       tool.ID,
					ContractID:        contract.ID,
					AlertType:         "optimization",
					Severity:          "info",
					Status:            models.AlertOpen,
					Title:             "Action Required",
					Description:       item,
					AIRecommendations: []string{item},
					SuggestedActions:  []string{item},
				})
			}
			if err := tx.Create(&alerts).Error; err != nil {
				return fmt.Errorf("failed to create alerts: %w", err)
			}
		}
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		return tx.Model(&models.TechStackEntry{}).Where("id = ?", tool.ID).Updates(map[string]any{
			"signup_status": models.SignupActive,
			"signup_date":   today,
		}).Error
	})
	if err != nil {
		contractAnalyses.WithLabelValues("error").Inc()
		return nil, err
	}

	contractAnalyses.WithLabelValues("success").Inc()
	log.Info("Vertrag analysiert",
		zap.String("contract_id", contract.ID),
		zap.Int("alerts", len(analysis.ActionItems)))

	return &ContractResult{
		Success:    true,
		Message:    "Contract analyzed successfully",
		ContractID: contract.ID,
		Analysis: ContractAnalysisSummary{
			Summary:              contract.AISummary,
			Rating:               contract.AIRating,
			RiskLevel:            contract.AIRiskLevel,
			ProsCount:            len(contract.AIPros),
			ConsCount:            len(contract.AICons),
			RecommendationsCount: len(contract.AIRecommendations),
			ActionItemsCount:     len(analysis.ActionItems),
		},
	}, nil
}

// ParseContractAnalysis parst die Modellantwort strikt. Fehlt das JSON-Objekt
// oder eines der Pflicht-Unterobjekte, ist das ein ErrInvalidModelOutput.
func ParseContractAnalysis(text string) (*ContractAnalysis, error) {
	obj, err := ExtractJSONObject(text)
	if err != nil {
		return nil, err
	}

	sections := make(map[string]map[string]any, 3)
	for _, key := range []string{"commission_structure", "payment_terms", "restrictions"} {
		m, ok := obj[key].(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: missing %s object", ErrInvalidModelOutput, key)
		}
		sections[key] = m
	}
	commission := sections["commission_structure"]
	payment := sections["payment_terms"]
	restrictions := sections["restrictions"]
	analysis := asMap(obj["analysis"])
	monitoring := asMap(obj["monitoring_setup"])

	frequency := asString(monitoring["recommended_frequency"])
	if frequency == "" {
		frequency = "daily"
	}

	c := models.AffiliateContract{
		CommissionType:          asString(commission["type"]),
		CommissionRatePrimary:   asString(commission["primary_rate"]),
		CommissionRateRecurring: asOptionalString(commission["recurring_rate"]),
		CommissionTiers:         parseTiers(commission["tiers"]),
		CookieDurationDays:      asInt(commission["cookie_duration_days"]),

		PaymentFrequency: asString(payment["frequency"]),
		PaymentThreshold: asFloat(payment["threshold"]),
		PaymentMethods:   asStrings(payment["methods"]),
		PayoutDelayDays:  asInt(payment["payout_delay_days"]),

		GeographicRestrictions:  asStrings(restrictions["geographic"]),
		TrafficRestrictions:     asStrings(restrictions["traffic"]),
		PromotionalRestrictions: asStrings(restrictions["promotional"]),
		ComplianceRequirements:  asStrings(restrictions["compliance"]),
		ProhibitedKeywords:      asStrings(restrictions["prohibited_keywords"]),

		AISummary:         asString(analysis["summary"]),
		AIRating:          clampRating(asFloat(analysis["rating"])),
		AIPros:            asStrings(analysis["pros"]),
		AICons:            asStrings(analysis["cons"]),
		AIRecommendations: asStrings(analysis["recommendations"]),
		AIRiskLevel:       parseRiskLevel(asString(analysis["risk_level"])),

		PerformanceBenchmarks: datatypes.JSONMap(asMap(monitoring["benchmarks"])),
		AlertThresholds:       datatypes.JSONMap(asMap(monitoring["alert_thresholds"])),
		MonitoringFrequency:   frequency,
	}

	return &ContractAnalysis{
		Contract:    c,
		ActionItems: asStrings(firstPresent(obj, "key_action_items", "keyActionItems")),
	}, nil
}

func parseTiers(v any) []models.CommissionTier {
	tiers := []models.CommissionTier{}
	items, _ := v.([]any)
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		tier := models.CommissionTier{Threshold: asString(m["threshold"]), Rate: asString(m["rate"])}
		if tier.Threshold == "" && tier.Rate == "" {
			continue
		}
		tiers = append(tiers, tier)
	}
	return tiers
}

// parseRiskLevel bildet unbekannte Werte auf "medium" ab.
func parseRiskLevel(s string) models.RiskLevel {
	switch models.RiskLevel(strings.ToLower(strings.TrimSpace(s))) {
	case models.RiskLow:
		return models.RiskLow
	case models.RiskHigh:
		return models.RiskHigh
	}
	return models.RiskMedium
}

func clampRating(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	if v < 0 {
		v = 0
	}
	if v > 10 {
		v = 10
	}
	return &v
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func buildContractPrompt(tool *models.TechStackEntry, req ContractRequest) string {
	network := req.AffiliateNetwork
	if network == "" {
		network = "Direct"
	}
	return fmt.Sprintf(`You are an elite affiliate marketing expert with 20+ years of experience analyzing affiliate contracts.
Your specialty is extracting key terms, identifying risks, and providing strategic recommendations.

ANALYZE THIS AFFILIATE CONTRACT:
Tool: %s
Category: %s
Network: %s
Website: %s

CONTRACT TEXT:
%s

PROVIDE COMPREHENSIVE ANALYSIS IN THIS EXACT JSON FORMAT:
{
  "commission_structure": {
    "type": "percentage|flat_rate|hybrid|tiered",
    "primary_rate": "e.g., 20%% or $50",
    "recurring_rate": "if applicable, or null",
    "tiers": [{"threshold": "sales count or amount", "rate": "commission at this tier"}],
    "cookie_duration_days": 30
  },
  "payment_terms": {
    "frequency": "monthly|bi-weekly|weekly|on_demand",
    "threshold": 50.00,
    "methods": ["PayPal", "Bank Transfer", "Wire"],
    "payout_delay_days": 30
  },
  "restrictions": {
    "geographic": ["US only"],
    "traffic": ["No PPC on brand terms"],
    "promotional": ["No coupon sites"],
    "compliance": ["Must disclose affiliate relationship"],
    "prohibited_keywords": ["brand name + coupon"]
  },
  "analysis": {
    "summary": "2-3 sentence executive summary of this contract",
    "rating": 8.5,
    "pros": ["..."],
    "cons": ["..."],
    "risk_level": "low|medium|high",
    "recommendations": ["..."]
  },
  "monitoring_setup": {
    "benchmarks": {"target_conversion_rate": 2.5, "target_epc": 1.50, "target_monthly_revenue": 500},
    "alert_thresholds": {"low_conversion_alert": 1.0, "high_bounce_alert": 70, "payment_due_alert": 7},
    "recommended_frequency": "daily|weekly|monthly"
  },
  "key_action_items": ["..."]
}

BE THOROUGH. Extract every relevant detail. If information is missing, note it in recommendations.`,
		tool.Name, tool.Category, network, tool.WebsiteURL, req.ContractText)
}
