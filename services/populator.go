package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"puzzle2profit/models"

	"go.uber.org/zap"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const uncategorized = "Uncategorized"

// PopulateRequest übernimmt die Tools eines Trends in den Katalog.
// WeekNumber ist optional (1-4).
type PopulateRequest struct {
	TrendID    string `json:"trend_id"`
	WeekNumber int    `json:"week_number"`
}

// PopulatedTool beschreibt das Ergebnis für ein einzelnes Tool.
type PopulatedTool struct {
	ID                   string `json:"id"`
	Name                 string `json:"name"`
	Status               string `json:"status"`
	NeedsAffiliateSignup bool   `json:"needsAffiliateSignup,omitempty"`
	HasAffiliateLink     bool   `json:"hasAffiliateLink,omitempty"`
}

// PopulateSummary zählt die Ergebnisse nach Kategorie.
type PopulateSummary struct {
	Total                int `json:"total"`
	NewTools             int `json:"newTools"`
	ReusedTools          int `json:"reusedTools"`
	NeedsAffiliateSignup int `json:"needsAffiliateSignup"`
	ReadyToUse           int `json:"readyToUse"`
	NeedsAffiliateLinks  int `json:"needsAffiliateLinks"`
}

// PopulateResult ist die Antwort des Populators.
type PopulateResult struct {
	Success    bool            `json:"success"`
	Message    string          `json:"message"`
	WeekNumber int             `json:"week_number"`
	Summary    PopulateSummary `json:"summary"`
	Tools      []PopulatedTool `json:"tools"`
	Errors     []string        `json:"errors,omitempty"`
	NextSteps  []string        `json:"nextSteps"`
}

// PopulatorService gleicht die Tools eines Trends mit dem Katalog ab.
type PopulatorService struct {
	DB     *gorm.DB
	Logger *zap.Logger
	Now    func() time.Time
}

// NewPopulatorService erstellt einen neuen PopulatorService.
func NewPopulatorService(db *gorm.DB, logger *zap.Logger) *PopulatorService {
	return &PopulatorService{DB: db, Logger: logger, Now: time.Now}
}

// WeekOfCycle leitet aus dem Tag im Monat die Woche im 4-Wochen-Zyklus ab.
func WeekOfCycle(t time.Time) int {
	week := ((t.Day() + 6) / 7) % 4
	if week == 0 {
		return 4
	}
	return week
}

// Populate übernimmt alle Tools eines Trends genau einmal. Der Trend wird
// vor der ersten Katalogänderung per bedingtem Update beansprucht, sodass ein
// zweiter Aufruf ohne Katalogänderung abgewiesen wird. Fehler einzelner Tools
// werden gesammelt und brechen den Lauf nicht ab.
func (s *PopulatorService) Populate(ctx context.Context, req PopulateRequest) (*PopulateResult, error) {
	if strings.TrimSpace(req.TrendID) == "" {
		return nil, newError(ErrValidation, "trend_id is required")
	}
	if req.WeekNumber < 0 || req.WeekNumber > 4 {
		return nil, newError(ErrValidation, "week_number must be between 1 and 4")
	}

	log := s.Logger.With(zap.String("trend_id", req.TrendID))
	db := s.DB.WithContext(ctx)

	var trend models.ResearchTrend
	if err := db.Preload("Path").First(&trend, "id = ?", req.TrendID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newError(ErrNotFound, "Trend not found")
		}
		return nil, err
	}
	if trend.ToolsPopulated {
		return nil, newError(ErrAlreadyPopulated, "Tools from this research have already been populated")
	}
	if len(trend.ToolsDetailed) == 0 {
		return nil, newError(ErrNoDetailedTools, "No detailed tools found in this research")
	}

	now := s.Now()
	week := req.WeekNumber
	if week == 0 {
		week = WeekOfCycle(now)
	}

	claim := db.Model(&models.ResearchTrend{}).
		Where("id = ? AND tools_populated = ?", trend.ID, false).
		Updates(map[string]any{"tools_populated": true, "week_number": week})
	if claim.Error != nil {
		return nil, claim.Error
	}
	if claim.RowsAffected == 0 {
		return nil, newError(ErrAlreadyPopulated, "Tools from this research have already been populated")
	}

	category := uncategorized
	if trend.Path != nil && trend.Path.TechStackFocus != "" {
		category = trend.Path.TechStackFocus
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	result := &PopulateResult{Success: true, WeekNumber: week, Tools: []PopulatedTool{}}
	for _, card := range trend.ToolsDetailed {
		name := NormalizeToolName(card.Name)
		if name == "" {
			result.Errors = append(result.Errors, "Skipped tool without a name")
			continue
		}
		card.Name = name

		tool, err := s.populateOne(ctx, trend.PathID, card, category, week, today)
		if err != nil {
			log.Warn("Tool konnte nicht übernommen werden", zap.String("tool", name), zap.Error(err))
			result.Errors = append(result.Errors, fmt.Sprintf("Error processing %s: %v", name, err))
			continue
		}
		toolsPopulated.WithLabelValues(tool.Status).Inc()
		result.Tools = append(result.Tools, *tool)
	}

	result.Summary = summarize(result.Tools)
	result.NextSteps = nextSteps(result.Summary)
	result.Message = fmt.Sprintf("Populated %d tools for Week %d", result.Summary.Total, week)

	log.Info("Tools übernommen",
		zap.Int("week", week),
		zap.Int("new", result.Summary.NewTools),
		zap.Int("reused", result.Summary.ReusedTools),
		zap.Int("errors", len(result.Errors)))
	return result, nil
}

// populateOne aktualisiert einen bestehenden Katalogeintrag (path_id, name)
// oder legt ihn neu an.
func (s *PopulatorService) populateOne(ctx context.Context, pathID *string, card models.ToolCard, category string, week int, today time.Time) (*PopulatedTool, error) {
	db := s.DB.WithContext(ctx)

	existing, err := s.findTool(ctx, pathID, card.Name)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		hasAffiliate := affiliateAvailable(card.AffiliateProgram)
		status := models.SignupDeclined
		if hasAffiliate {
			status = models.SignupPending
		}
		weekCopy := week
		entry := models.TechStackEntry{
			PathID:              pathID,
			Name:                card.Name,
			Category:            category,
			Description:         card.Description,
			WebsiteURL:          card.Website,
			PricingModel:        card.Pricing,
			KeyFeatures:         nonNil(card.KeyFeatures),
			AffiliateNotes:      card.AffiliateProgram,
			ToolsDetailedSource: newToolSource(card),
			SignupStatus:        status,
			PriorityScore:       models.DefaultPriorityScore,
			SelectedForWeek:     true,
			AutoPopulated:       true,
			WeekNumber:          &weekCopy,
			LastUsedWeek:        &today,
		}
		res := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "path_id"}, {Name: "name"}},
			DoNothing: true,
		}).Create(&entry)
		if res.Error != nil {
			return nil, fmt.Errorf("failed to create: %w", res.Error)
		}
		if res.RowsAffected > 0 {
			return &PopulatedTool{ID: entry.ID, Name: card.Name, Status: "new", NeedsAffiliateSignup: hasAffiliate}, nil
		}
		// Parallel angelegt: als bestehenden Eintrag behandeln
		if existing, err = s.findTool(ctx, pathID, card.Name); err != nil {
			return nil, err
		}
		if existing == nil {
			return nil, fmt.Errorf("failed to create: conflicting entry vanished")
		}
	}

	err = db.Model(&models.TechStackEntry{}).Where("id = ?", existing.ID).Updates(map[string]any{
		"selected_for_week":     true,
		"last_used_week":        today,
		"week_number":           week,
		"tools_detailed_source": newToolSource(card),
	}).Error
	if err != nil {
		return nil, fmt.Errorf("failed to update: %w", err)
	}
	hasLink := existing.AffiliateURL != nil && strings.TrimSpace(*existing.AffiliateURL) != ""
	return &PopulatedTool{ID: existing.ID, Name: card.Name, Status: "reused", HasAffiliateLink: hasLink}, nil
}

func (s *PopulatorService) findTool(ctx context.Context, pathID *string, name string) (*models.TechStackEntry, error) {
	query := s.DB.WithContext(ctx).Where("name = ?", name)
	if pathID == nil {
		query = query.Where("path_id IS NULL")
	} else {
		query = query.Where("path_id = ?", *pathID)
	}
	var entry models.TechStackEntry
	if err := query.Take(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

func summarize(tools []PopulatedTool) PopulateSummary {
	sum := PopulateSummary{Total: len(tools)}
	for _, t := range tools {
		switch t.Status {
		case "new":
			sum.NewTools++
			if t.NeedsAffiliateSignup {
				sum.NeedsAffiliateSignup++
			}
		case "reused":
			sum.ReusedTools++
			if t.HasAffiliateLink {
				sum.ReadyToUse++
			} else {
				sum.NeedsAffiliateLinks++
			}
		}
	}
	return sum
}

func nextSteps(sum PopulateSummary) []string {
	steps := []string{}
	if sum.NeedsAffiliateSignup > 0 {
		steps = append(steps, fmt.Sprintf("Sign up for %d new affiliate programs", sum.NeedsAffiliateSignup))
	}
	if sum.NeedsAffiliateLinks > 0 {
		steps = append(steps, fmt.Sprintf("Add affiliate links for %d existing tools", sum.NeedsAffiliateLinks))
	}
	if sum.ReadyToUse > 0 {
		steps = append(steps, fmt.Sprintf("%d tools ready with existing affiliate links", sum.ReadyToUse))
	}
	return steps
}

// affiliateAvailable wertet den Freitext locker auf "yes"/"available" aus.
func affiliateAvailable(s string) bool {
	s = strings.ToLower(s)
	return strings.Contains(s, "yes") || strings.Contains(s, "available")
}

// NormalizeToolName führt NFC-Normalisierung durch und fasst Leerraum
// zusammen, damit "Make" und "Make " denselben Katalogeintrag treffen.
func NormalizeToolName(s string) string {
	normalized, _, err := transform.String(transform.Chain(norm.NFC), s)
	if err != nil {
		normalized = s
	}
	return strings.Join(strings.Fields(normalized), " ")
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func newToolSource(card models.ToolCard) datatypes.JSONType[models.ToolCard] {
	card.KeyFeatures = nonNil(card.KeyFeatures)
	return datatypes.NewJSONType(card)
}
