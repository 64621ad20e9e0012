package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"puzzle2profit/config"
	"puzzle2profit/models"
	"puzzle2profit/providers"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const (
	researchTemperature = 0.6
	previousContextSize = 5
	genericFocus        = "AI automation tools"
)

// ResearchRequest sind die optionalen Eingaben eines Research-Laufs.
type ResearchRequest struct {
	Topic  string `json:"topic"`
	PathID string `json:"path_id"`
}

// UnitResult ist das Ergebnis eines Research-Laufs für einen Track.
type UnitResult struct {
	Path      string `json:"path"`
	PathID    string `json:"path_id,omitempty"`
	Topic     string `json:"topic"`
	ToolCount int    `json:"toolCount"`
	TrendID   string `json:"trend_id,omitempty"`
	Degraded  bool   `json:"degraded,omitempty"`
	Warning   string `json:"warning,omitempty"`
	Error     string `json:"error,omitempty"`

	Err error `json:"-"`
}

// ResearchRun fasst die Ergebnisse aller Tracks zusammen. Success ist nur
// gesetzt, wenn jeder Track erfolgreich war; Partial, wenn mindestens einer.
type ResearchRun struct {
	Success bool         `json:"success"`
	Partial bool         `json:"partial"`
	Message string       `json:"message"`
	Results []UnitResult `json:"results"`
}

// ResearchService erzeugt ResearchTrends über den LLM-Provider.
type ResearchService struct {
	Config   *config.Config
	DB       *gorm.DB
	Logger   *zap.Logger
	Provider providers.Provider
	Now      func() time.Time
}

// NewResearchService erstellt einen neuen ResearchService.
func NewResearchService(cfg *config.Config, db *gorm.DB, provider providers.Provider, logger *zap.Logger) *ResearchService {
	return &ResearchService{Config: cfg, DB: db, Logger: logger, Provider: provider, Now: time.Now}
}

func (s *ResearchService) checkCredentials() error {
	if details, ok := s.Config.CredentialStatus(config.CredentialLLM); !ok || s.Provider == nil {
		return &ConfigError{Details: details}
	}
	return nil
}

// Run führt einen Research-Zyklus aus. Mit PathID nur für diesen Track (ein
// Fehler ist dann fatal), sonst parallel für alle konfigurierten Tracks.
func (s *ResearchService) Run(ctx context.Context, req ResearchRequest) (*ResearchRun, error) {
	if err := s.checkCredentials(); err != nil {
		return nil, err
	}

	if req.PathID != "" {
		var path models.Path
		if err := s.DB.WithContext(ctx).First(&path, "id = ?", req.PathID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, newError(ErrNotFound, "Path not found")
			}
			return nil, err
		}
		unit := s.researchForPath(ctx, &path, req.Topic)
		if unit.Err != nil {
			return nil, unit.Err
		}
		return &ResearchRun{
			Success: true,
			Message: "Research completed for " + path.Name,
			Results: []UnitResult{unit},
		}, nil
	}

	var paths []models.Path
	if err := s.DB.WithContext(ctx).Order("slug").Find(&paths).Error; err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		unit := s.researchForPath(ctx, nil, req.Topic)
		if unit.Err != nil {
			return nil, unit.Err
		}
		return &ResearchRun{Success: true, Message: "Research completed", Results: []UnitResult{unit}}, nil
	}

	return s.runAll(ctx, paths, req.Topic), nil
}

// runAll startet pro Track eine unabhängige Einheit. Fehler einer Einheit
// brechen die anderen nicht ab.
func (s *ResearchService) runAll(ctx context.Context, paths []models.Path, topic string) *ResearchRun {
	results := make([]UnitResult, len(paths))
	var g errgroup.Group
	for i := range paths {
		g.Go(func() error {
			results[i] = s.researchForPath(ctx, &paths[i], topic)
			return nil
		})
	}
	_ = g.Wait()

	run := &ResearchRun{Results: results}
	succeeded := 0
	for _, r := range results {
		if r.Err == nil {
			succeeded++
		}
	}
	switch {
	case succeeded == len(results):
		run.Success = true
		run.Message = "Research completed for all paths"
	case succeeded > 0:
		run.Partial = true
		run.Message = fmt.Sprintf("Research completed for %d of %d paths", succeeded, len(results))
		s.Logger.Warn("Research nur teilweise erfolgreich",
			zap.Int("succeeded", succeeded), zap.Int("total", len(results)))
	default:
		run.Message = "Research failed for all paths"
	}
	return run
}

func (s *ResearchService) researchForPath(ctx context.Context, path *models.Path, topic string) UnitResult {
	unit := UnitResult{Path: "default"}
	var pathID *string
	if path != nil {
		unit.Path = path.Name
		unit.PathID = path.ID
		pathID = &path.ID
	}
	log := s.Logger.With(zap.String("path", unit.Path))

	fail := func(err error) UnitResult {
		unit.Err = err
		unit.Error = err.Error()
		researchRuns.WithLabelValues("error").Inc()
		log.Error("Research fehlgeschlagen", zap.Error(err))
		return unit
	}

	previous, covered, err := s.loadHistory(ctx, pathID)
	if err != nil {
		return fail(fmt.Errorf("loading previous research: %w", err))
	}

	if strings.TrimSpace(topic) == "" {
		topic = NextTopic(CurriculumTopics(), covered)
	}
	unit.Topic = topic
	log = log.With(zap.String("topic", topic))

	system, prompt := BuildResearchPrompt(path, topic, previous, s.Now().Year())
	text, err := s.Provider.Complete(ctx, providers.CompletionRequest{
		System:      system,
		Prompt:      prompt,
		Temperature: researchTemperature,
	})
	if err != nil {
		return fail(err)
	}

	res := ParseResearch(text)
	if res.Degraded {
		unit.Degraded = true
		log.Warn("Modellantwort enthielt kein gültiges JSON, speichere Fallback", zap.Error(res.ParseErr))
	} else if err := ValidateBlogIdeas(res.BlogIdeas); err != nil {
		unit.Warning = err.Error()
		log.Warn("Blog-Ideen verletzen das Kategorienschema", zap.Error(err))
	} else {
		sortBlogIdeas(res.BlogIdeas)
	}

	trend := models.ResearchTrend{
		PathID:         pathID,
		Topic:          topic,
		Summary:        res.Summary,
		ToolsMentioned: res.ToolsMentioned,
		ToolsDetailed:  res.ToolsDetailed,
		KeyInsights:    res.KeyInsights,
		BlogIdeas:      res.BlogIdeas,
		Source:         models.SourceGrokAPI,
	}
	if err := s.DB.WithContext(ctx).Create(&trend).Error; err != nil {
		return fail(fmt.Errorf("database error for %s: %w", unit.Path, err))
	}

	unit.TrendID = trend.ID
	unit.ToolCount = len(res.ToolsMentioned)
	researchRuns.WithLabelValues("success").Inc()
	log.Info("Research gespeichert", zap.String("trend_id", trend.ID), zap.Int("tools", unit.ToolCount))
	return unit
}

// loadHistory lädt die letzten Trends als Prompt-Kontext sowie alle bisher
// behandelten Themen des Tracks.
func (s *ResearchService) loadHistory(ctx context.Context, pathID *string) ([]models.ResearchTrend, []string, error) {
	scope := func(db *gorm.DB) *gorm.DB {
		if pathID == nil {
			return db.Where("path_id IS NULL")
		}
		return db.Where("path_id = ?", *pathID)
	}

	var previous []models.ResearchTrend
	err := s.DB.WithContext(ctx).Model(&models.ResearchTrend{}).Scopes(scope).
		Select("topic", "tools_mentioned", "created_at").
		Order("created_at desc").Limit(previousContextSize).
		Find(&previous).Error
	if err != nil {
		return nil, nil, err
	}

	var covered []string
	err = s.DB.WithContext(ctx).Model(&models.ResearchTrend{}).Scopes(scope).
		Pluck("topic", &covered).Error
	if err != nil {
		return nil, nil, err
	}
	return previous, covered, nil
}

// ValidateBlogIdeas prüft, dass genau sieben Ideen vorliegen und ihre
// Kategorien eine Permutation der sieben festen Kategorien sind.
func ValidateBlogIdeas(ideas []models.BlogIdea) error {
	if len(ideas) != len(models.Categories) {
		return fmt.Errorf("expected %d blog ideas, got %d", len(models.Categories), len(ideas))
	}
	seen := make(map[models.Category]bool, len(ideas))
	for _, idea := range ideas {
		if idea.Category.DayNumber() == 0 {
			return fmt.Errorf("unknown blog idea category %q", idea.Category)
		}
		if seen[idea.Category] {
			return fmt.Errorf("duplicate blog idea category %q", idea.Category)
		}
		seen[idea.Category] = true
	}
	return nil
}

func sortBlogIdeas(ideas []models.BlogIdea) {
	sort.SliceStable(ideas, func(i, j int) bool {
		return ideas[i].Category.DayNumber() < ideas[j].Category.DayNumber()
	})
}

// BuildResearchPrompt erzeugt System-Nachricht und Prompt für einen Track.
func BuildResearchPrompt(path *models.Path, topic string, previous []models.ResearchTrend, year int) (string, string) {
	name, focus := "Puzzle2Profit", genericFocus
	if path != nil {
		name = path.Name
		if path.TechStackFocus != "" {
			focus = path.TechStackFocus
		}
	}

	system := fmt.Sprintf("You are an AI research assistant specializing in %s for solopreneurs. "+
		"You MUST ONLY recommend tools that match this specific path's focus.", focus)

	var b strings.Builder
	fmt.Fprintf(&b, "You are researching for %q which is focused on %s.\n\n", name, focus)
	fmt.Fprintf(&b, "Research Topic: %s\n\n", topic)
	if c := pathConstraints(path); c != "" {
		b.WriteString(c)
		b.WriteString("\n\n")
	}
	fmt.Fprintf(&b, `Your task:
1. Provide a compelling 200-300 word summary of the TOP 3 most impactful trends happening RIGHT NOW (%d) for %s in this area.

2. Identify 4-6 specific, real tools that match %s's focus. For EACH tool provide:
   - Tool name
   - Brief description (1-2 sentences) explaining how it fits %s
   - Official website URL
   - Affiliate program information (check if they have partner/affiliate programs)
   - Pricing tier (Free/Freemium/Paid with approximate pricing)
   - Top 2-3 key features

3. Provide 3-5 actionable insights specifically for solopreneurs using %s.

4. Create EXACTLY 7 blog post ideas, one per category, in this order:
`, year, focus, name, focus, focus)
	for i, c := range models.Categories {
		fmt.Fprintf(&b, "   - Day %d (%s): %s\n", i+1, c, categoryThemes[c])
	}
	fmt.Fprintf(&b, "\nEach blog idea must reference %s tools.\n", focus)

	if len(previous) > 0 {
		fmt.Fprintf(&b, "\nPrevious research for %s:\n", name)
		for i, r := range previous {
			fmt.Fprintf(&b, "%d. %s (Tools: %s)\n", i+1, r.Topic, strings.Join(r.ToolsMentioned, ", "))
		}
		b.WriteString("\nBuild upon these topics with fresh insights.\n")
	}

	b.WriteString(`
Format as JSON:
{
  "summary": "...",
  "tools": ["Tool Name 1", "Tool Name 2"],
  "tools_detailed": [
    {
      "name": "Tool Name",
      "description": "...",
      "website": "https://...",
      "affiliate_program": "Yes - details or No or Unknown",
      "pricing": "Free tier available, Pro at $X/month",
      "key_features": ["Feature 1", "Feature 2", "Feature 3"]
    }
  ],
  "key_insights": ["Actionable insight 1", "Actionable insight 2", "Actionable insight 3"],
  "blog_ideas": [
`)
	for i, c := range models.Categories {
		sep := ","
		if i == len(models.Categories)-1 {
			sep = ""
		}
		fmt.Fprintf(&b, "    {\"category\": %q, \"title\": \"...\", \"description\": \"...\"}%s\n", string(c), sep)
	}
	b.WriteString("  ]\n}")
	return system, b.String()
}

var categoryThemes = map[models.Category]string{
	models.CategoryBuild:   "Foundation/Setup/Infrastructure",
	models.CategoryAttract: "Marketing/Outreach/Visibility",
	models.CategoryConvert: "Sales/Persuasion/Closing",
	models.CategoryDeliver: "Fulfillment/Product/Service Delivery",
	models.CategorySupport: "Customer Success/Retention",
	models.CategoryProfit:  "Revenue/Optimization/Growth",
	models.CategoryRest:    "Strategic Planning/Reflection/Recovery",
}
