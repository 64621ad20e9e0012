package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"puzzle2profit/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newPopulator(t *testing.T) (*PopulatorService, models.Path) {
	t.Helper()
	svc := NewPopulatorService(newTestDB(t), nopLogger())
	svc.Now = func() time.Time { return time.Date(2025, 7, 15, 10, 0, 0, 0, time.UTC) }
	path := DefaultPaths[0]
	require.NoError(t, svc.DB.Create(&path).Error)
	return svc, path
}

func createTrend(t *testing.T, svc *PopulatorService, pathID *string, tools ...models.ToolCard) models.ResearchTrend {
	t.Helper()
	trend := models.ResearchTrend{
		PathID:        pathID,
		Topic:         "Automation",
		ToolsDetailed: tools,
		Source:        models.SourceGrokAPI,
	}
	require.NoError(t, svc.DB.Create(&trend).Error)
	return trend
}

func catalog(t *testing.T, svc *PopulatorService) []models.TechStackEntry {
	t.Helper()
	var entries []models.TechStackEntry
	require.NoError(t, svc.DB.Order("name").Find(&entries).Error)
	return entries
}

func TestPopulate(t *testing.T) {
	svc, path := newPopulator(t)
	link := "https://zapier.com/?ref=p2p"
	existing := models.TechStackEntry{PathID: &path.ID, Name: "Zapier", Category: "Automation", AffiliateURL: &link, SignupStatus: models.SignupActive}
	require.NoError(t, svc.DB.Create(&existing).Error)

	trend := createTrend(t, svc, &path.ID,
		models.ToolCard{Name: "Zapier", Description: "Glue", AffiliateProgram: "Yes"},
		models.ToolCard{Name: "Softr", Description: "Portals", Website: "https://softr.io", AffiliateProgram: "Yes - 30% recurring", Pricing: "Freemium", KeyFeatures: []string{"Blocks"}},
		models.ToolCard{Name: "Glide", Description: "Apps", AffiliateProgram: "No"},
	)

	res, err := svc.Populate(context.Background(), PopulateRequest{TrendID: trend.ID, WeekNumber: 2})
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, 2, res.WeekNumber)
	assert.Equal(t, "Populated 3 tools for Week 2", res.Message)
	assert.Equal(t, PopulateSummary{Total: 3, NewTools: 2, ReusedTools: 1, NeedsAffiliateSignup: 1, ReadyToUse: 1}, res.Summary)
	assert.Equal(t, []string{
		"Sign up for 1 new affiliate programs",
		"1 tools ready with existing affiliate links",
	}, res.NextSteps)
	assert.Empty(t, res.Errors)
	require.Len(t, res.Tools, 3)
	assert.Equal(t, PopulatedTool{ID: existing.ID, Name: "Zapier", Status: "reused", HasAffiliateLink: true}, res.Tools[0])

	entries := catalog(t, svc)
	require.Len(t, entries, 3)
	glide, softr, zapier := entries[0], entries[1], entries[2]

	assert.Equal(t, models.SignupDeclined, glide.SignupStatus)
	assert.Equal(t, models.SignupPending, softr.SignupStatus)
	assert.Equal(t, path.TechStackFocus, softr.Category)
	assert.Equal(t, "https://softr.io", softr.WebsiteURL)
	assert.Equal(t, "Freemium", softr.PricingModel)
	assert.Equal(t, []string{"Blocks"}, []string(softr.KeyFeatures))
	assert.Equal(t, models.DefaultPriorityScore, softr.PriorityScore)
	assert.True(t, softr.AutoPopulated)
	assert.True(t, softr.SelectedForWeek)
	require.NotNil(t, softr.WeekNumber)
	assert.Equal(t, 2, *softr.WeekNumber)
	assert.Equal(t, "Softr", softr.ToolsDetailedSource.Data().Name)

	assert.Equal(t, models.SignupActive, zapier.SignupStatus, "existing workflow state is kept")
	assert.Equal(t, "Automation", zapier.Category)
	assert.True(t, zapier.SelectedForWeek)
	require.NotNil(t, zapier.WeekNumber)
	assert.Equal(t, 2, *zapier.WeekNumber)
	require.NotNil(t, zapier.LastUsedWeek)
	assert.Equal(t, "2025-07-15", zapier.LastUsedWeek.Format("2006-01-02"))
	assert.Equal(t, "Glue", zapier.ToolsDetailedSource.Data().Description)

	var stored models.ResearchTrend
	require.NoError(t, svc.DB.First(&stored, "id = ?", trend.ID).Error)
	assert.True(t, stored.ToolsPopulated)
	require.NotNil(t, stored.WeekNumber)
	assert.Equal(t, 2, *stored.WeekNumber)
}

func TestPopulate_SecondCallChangesNothing(t *testing.T) {
	svc, path := newPopulator(t)
	trend := createTrend(t, svc, &path.ID, models.ToolCard{Name: "Make", AffiliateProgram: "Yes"})

	_, err := svc.Populate(context.Background(), PopulateRequest{TrendID: trend.ID})
	require.NoError(t, err)
	before := catalog(t, svc)

	svc.Now = func() time.Time { return time.Date(2025, 8, 30, 0, 0, 0, 0, time.UTC) }
	_, err = svc.Populate(context.Background(), PopulateRequest{TrendID: trend.ID, WeekNumber: 4})

	assert.ErrorIs(t, err, ErrAlreadyPopulated)
	assert.EqualError(t, err, "Tools from this research have already been populated")
	assert.Equal(t, before, catalog(t, svc))
}

func TestPopulate_FailedToolDoesNotAbortBatch(t *testing.T) {
	svc, path := newPopulator(t)
	trend := createTrend(t, svc, &path.ID,
		models.ToolCard{Name: "Bad", AffiliateProgram: "Yes"},
		models.ToolCard{Name: "Good", AffiliateProgram: "Yes"},
	)
	require.NoError(t, svc.DB.Callback().Create().Before("gorm:create").Register("fail_bad_tool", func(tx *gorm.DB) {
		if entry, ok := tx.Statement.Dest.(*models.TechStackEntry); ok && entry.Name == "Bad" {
			_ = tx.AddError(errors.New("boom"))
		}
	}))

	res, err := svc.Populate(context.Background(), PopulateRequest{TrendID: trend.ID})
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, []string{"Error processing Bad: failed to create: boom"}, res.Errors)
	require.Len(t, res.Tools, 1)
	assert.Equal(t, "Good", res.Tools[0].Name)
	assert.Equal(t, 1, res.Summary.NewTools)

	entries := catalog(t, svc)
	require.Len(t, entries, 1)
	assert.Equal(t, "Good", entries[0].Name)
}

func TestPopulate_DeduplicatesWithinTrend(t *testing.T) {
	svc, path := newPopulator(t)
	trend := createTrend(t, svc, &path.ID,
		models.ToolCard{Name: "Make", AffiliateProgram: "Yes"},
		models.ToolCard{Name: " Make  ", AffiliateProgram: "Yes"},
	)

	res, err := svc.Populate(context.Background(), PopulateRequest{TrendID: trend.ID})
	require.NoError(t, err)

	assert.Equal(t, 1, res.Summary.NewTools)
	assert.Equal(t, 1, res.Summary.ReusedTools)
	assert.Equal(t, 1, res.Summary.NeedsAffiliateLinks)
	assert.Contains(t, res.NextSteps, "Add affiliate links for 1 existing tools")
	assert.Len(t, catalog(t, svc), 1)
}

func TestPopulate_CatalogIsScopedPerPath(t *testing.T) {
	svc, path := newPopulator(t)
	other := DefaultPaths[1]
	require.NoError(t, svc.DB.Create(&other).Error)
	require.NoError(t, svc.DB.Create(&models.TechStackEntry{PathID: &other.ID, Name: "Supabase"}).Error)

	trend := createTrend(t, svc, &path.ID, models.ToolCard{Name: "Supabase"})
	res, err := svc.Populate(context.Background(), PopulateRequest{TrendID: trend.ID})
	require.NoError(t, err)

	assert.Equal(t, 1, res.Summary.NewTools)
	assert.Len(t, catalog(t, svc), 2)
}

func TestPopulate_DefaultWeekAndUncategorized(t *testing.T) {
	svc, _ := newPopulator(t)
	trend := createTrend(t, svc, nil, models.ToolCard{Name: "Notion", AffiliateProgram: "Affiliate program available"})

	res, err := svc.Populate(context.Background(), PopulateRequest{TrendID: trend.ID})
	require.NoError(t, err)

	assert.Equal(t, 3, res.WeekNumber)
	entries := catalog(t, svc)
	require.Len(t, entries, 1)
	assert.Nil(t, entries[0].PathID)
	assert.Equal(t, "Uncategorized", entries[0].Category)
	assert.Equal(t, models.SignupPending, entries[0].SignupStatus)
}

func TestPopulate_Errors(t *testing.T) {
	svc, path := newPopulator(t)

	_, err := svc.Populate(context.Background(), PopulateRequest{})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Populate(context.Background(), PopulateRequest{TrendID: "x", WeekNumber: 5})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Populate(context.Background(), PopulateRequest{TrendID: "missing"})
	assert.ErrorIs(t, err, ErrNotFound)

	empty := createTrend(t, svc, &path.ID)
	_, err = svc.Populate(context.Background(), PopulateRequest{TrendID: empty.ID})
	assert.ErrorIs(t, err, ErrNoDetailedTools)
	assert.EqualError(t, err, "No detailed tools found in this research")

	var stored models.ResearchTrend
	require.NoError(t, svc.DB.First(&stored, "id = ?", empty.ID).Error)
	assert.False(t, stored.ToolsPopulated)
}

func TestWeekOfCycle(t *testing.T) {
	for day, want := range map[int]int{1: 1, 7: 1, 8: 2, 14: 2, 15: 3, 22: 4, 28: 4, 29: 1, 31: 1} {
		assert.Equal(t, want, WeekOfCycle(time.Date(2025, 1, day, 0, 0, 0, 0, time.UTC)), "day %d", day)
	}
}

func TestNormalizeToolName(t *testing.T) {
	assert.Equal(t, "Café Tools", NormalizeToolName("  Cafe\u0301   Tools "))
	assert.Equal(t, "", NormalizeToolName(" \t "))
}

func TestAffiliateAvailable(t *testing.T) {
	assert.True(t, affiliateAvailable("Yes - 20%"))
	assert.True(t, affiliateAvailable("Partner program available"))
	assert.False(t, affiliateAvailable("No"))
	assert.False(t, affiliateAvailable("Unknown"))
}
