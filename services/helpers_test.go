package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"puzzle2profit/config"
	"puzzle2profit/models"
	"puzzle2profit/providers"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// newTestDB öffnet eine eigene In-Memory-SQLite-Datenbank pro Test.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_", "#", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

func testConfig() *config.Config {
	return &config.Config{
		LLMProvider: "xai",
		XAIAPIKey:   "xai-test",
		JWTSecret:   "jwt-test-secret",
		BrevoAPIKey: "brevo-test",
		SiteURL:     "https://example.com",
	}
}

// fakeProvider beantwortet Completions über eine Funktion und merkt sich die Anfragen.
type fakeProvider struct {
	mu       sync.Mutex
	respond  func(req providers.CompletionRequest) (string, error)
	requests []providers.CompletionRequest
}

func staticProvider(text string) *fakeProvider {
	return &fakeProvider{respond: func(providers.CompletionRequest) (string, error) { return text, nil }}
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Complete(_ context.Context, req providers.CompletionRequest) (string, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	return f.respond(req)
}

func (f *fakeProvider) calls() []providers.CompletionRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]providers.CompletionRequest(nil), f.requests...)
}

func seedPaths(t *testing.T, db *gorm.DB) []models.Path {
	t.Helper()
	paths := make([]models.Path, len(DefaultPaths))
	copy(paths, DefaultPaths)
	for i := range paths {
		require.NoError(t, db.Create(&paths[i]).Error)
	}
	return paths
}

// researchResponse baut eine gültige Research-Antwort mit Prosa davor und
// Blog-Ideen in vertauschter Reihenfolge.
func researchResponse(tools ...string) string {
	var names, detailed []string
	for _, tool := range tools {
		names = append(names, fmt.Sprintf("%q", tool))
		detailed = append(detailed, fmt.Sprintf(`{"name": %q, "description": "Useful tool", "website": "https://%s.example", "affiliate_program": "Yes - 30%% recurring", "pricing": "Freemium", "key_features": ["Fast", "Simple"]}`,
			tool, strings.ToLower(tool)))
	}
	return `Sure! Here is the research you asked for:

{
  "summary": "Automation keeps getting cheaper.",
  "tools": [` + strings.Join(names, ", ") + `],
  "tools_detailed": [` + strings.Join(detailed, ",\n") + `],
  "key_insights": ["Start small", "Automate onboarding first"],
  "blog_ideas": [
    {"category": "Rest", "title": "Plan the quarter", "description": "Reflect"},
    {"category": "Build", "title": "Set up the stack", "description": "Foundations"},
    {"category": "Attract", "title": "Grow the list", "description": "Outreach"},
    {"category": "Convert", "title": "Close more", "description": "Sales"},
    {"category": "Deliver", "title": "Ship it", "description": "Delivery"},
    {"category": "Support", "title": "Keep them", "description": "Retention"},
    {"category": "Profit", "title": "Raise prices", "description": "Revenue"}
  ]
}

Let me know if you need anything else.`
}

func nopLogger() *zap.Logger { return zap.NewNop() }
