package services

import (
	"context"
	"regexp"
	"strings"

	"puzzle2profit/config"
	"puzzle2profit/models"
	"puzzle2profit/providers"

	"go.uber.org/zap"
)

const (
	copyTemperature = 0.7
	excerptRunes    = 150
	defaultTopic    = "AI automation tools for solopreneurs"
)

var (
	mdTitleRE = regexp.MustCompile(`^\s*#\s+[^\n]*\n`)

	// Drei Varianten für den Excerpt, in dieser Reihenfolge versucht
	excerptSameLineRE = regexp.MustCompile(`(?i)excerpt\s*:\s*(?:\*\*|</(?:strong|b)>)?[ \t]*([^\s<*][^\n<]*)`)
	excerptHTMLRE     = regexp.MustCompile(`(?is)excerpt\s*:?\s*(?:</[a-z0-9]+>\s*)+(?:<p[^>]*>)(.*?)</p>`)
	excerptNextLineRE = regexp.MustCompile(`(?is)excerpt\s*:?[^\n]*\n\s*([^\n]*\S[^\n]*)`)

	affiliateHeadingRE = regexp.MustCompile(`(?im)^[ \t]*(?:<h[1-6][^>]*>|<p[^>]*>|<strong>|<b>|#{1,6}[ \t]*|\*\*)?[ \t]*affiliate[^\n]*$`)
	numberedItemRE     = regexp.MustCompile(`(?m)^[ \t]*(?:<li[^>]*>)?[ \t]*\d+[.)][ \t]+(.+)$`)
	listItemRE         = regexp.MustCompile(`(?is)<li[^>]*>(.*?)</li>`)
)

// CopyRequest sind die Eingaben des Copywriters.
type CopyRequest struct {
	Category string `json:"category"`
	Topic    string `json:"topic"`
}

// CopyResult ist ein generierter Blogentwurf. Affiliate-Vorschläge haben
// noch keine URL und müssen vor dem Veröffentlichen ergänzt werden.
type CopyResult struct {
	Content              string                 `json:"content"`
	Excerpt              string                 `json:"excerpt"`
	AffiliateSuggestions []models.AffiliateLink `json:"affiliate_suggestions"`
}

// CopyService erzeugt Blogentwürfe.
type CopyService struct {
	Config   *config.Config
	Logger   *zap.Logger
	Provider providers.Provider
}

// NewCopyService erstellt einen neuen CopyService.
func NewCopyService(cfg *config.Config, provider providers.Provider, logger *zap.Logger) *CopyService {
	return &CopyService{Config: cfg, Logger: logger, Provider: provider}
}

// Generate prüft die Kategorie, ruft das Modell auf und bereitet die Antwort auf.
func (s *CopyService) Generate(ctx context.Context, req CopyRequest) (*CopyResult, error) {
	category, ok := models.ParseCategory(req.Category)
	if !ok {
		return nil, newError(ErrValidation, "Invalid category. Must be one of: %s", categoryList())
	}
	topic := strings.TrimSpace(req.Topic)
	if topic == "" {
		topic = defaultTopic
	}
	if details, ok := s.Config.CredentialStatus(config.CredentialLLM); !ok || s.Provider == nil {
		return nil, &ConfigError{Details: details}
	}

	log := s.Logger.With(zap.String("category", string(category)), zap.String("topic", topic))
	text, err := s.Provider.Complete(ctx, providers.CompletionRequest{
		System:      "You are an expert content writer for solopreneurs. You write practical, engaging blog posts in clean HTML.",
		Prompt:      buildCopyPrompt(category, topic),
		Temperature: copyTemperature,
	})
	if err != nil {
		copyGenerations.WithLabelValues("error").Inc()
		log.Error("Copywriter-Anfrage fehlgeschlagen", zap.Error(err))
		return nil, err
	}

	result := ProcessCopy(text)
	copyGenerations.WithLabelValues("success").Inc()
	log.Info("Blogentwurf erzeugt",
		zap.Int("content_length", len(result.Content)),
		zap.Int("affiliate_suggestions", len(result.AffiliateSuggestions)))
	return &result, nil
}

func buildCopyPrompt(category models.Category, topic string) string {
	return `Write an engaging, actionable blog post for solopreneurs about ` + topic + ` in the "` + string(category) + `" phase of business development.

The post should:
- Be 800-1200 words
- Include practical, hands-on advice
- Mention 2-3 specific AI tools relevant to this topic
- Use a friendly, direct tone
- Include actionable takeaways
- Format in HTML with proper headings, paragraphs, and lists
- Do not include an <h1> title, the page renders the title separately

After the article, provide:
Excerpt: a compelling 150-character excerpt on one line

Affiliate Suggestions:
1. Tool name - why readers should use it
2. Tool name - why readers should use it`
}

// ProcessCopy zerlegt eine Modellantwort in Artikel-HTML, Excerpt und
// Affiliate-Vorschläge. Die Funktion scheitert nie.
func ProcessCopy(raw string) CopyResult {
	content := cleanArticleHTML(ExtractHTMLBody(raw))
	return CopyResult{
		Content:              content,
		Excerpt:              ExtractExcerpt(raw, content),
		AffiliateSuggestions: ParseAffiliateSuggestions(raw),
	}
}

// cleanArticleHTML entfernt Vorspann, Dokument-Hülle und Titel. Reiner Text
// wird als Markdown gerendert.
func cleanArticleHTML(body string) string {
	if !containsHTML(body) {
		body = mdTitleRE.ReplaceAllString(body, "")
		if strings.TrimSpace(body) == "" {
			return ""
		}
		return renderMarkdown(body)
	}
	if i := strings.Index(body, "<"); i > 0 {
		body = body[i:]
	}
	return cleanFragment(body)
}

// ExtractExcerpt sucht einen vom Modell markierten Excerpt; sonst wird der
// erste Absatz des Artikels auf 150 Zeichen gekürzt.
func ExtractExcerpt(raw, content string) string {
	for _, re := range []*regexp.Regexp{excerptSameLineRE, excerptHTMLRE, excerptNextLineRE} {
		if m := re.FindStringSubmatch(raw); m != nil {
			if e := cleanExcerpt(m[1]); e != "" {
				return e
			}
		}
	}

	return truncateRunes(firstParagraphText(content), excerptRunes)
}

func cleanExcerpt(s string) string {
	s = stripTags(s)
	s = strings.Trim(s, " \t\"'“”*")
	return s
}

// ParseAffiliateSuggestions liest nummerierte Einträge nach der ersten
// "Affiliate"-Überschrift. Ohne Treffer ist das Ergebnis eine leere Liste.
func ParseAffiliateSuggestions(raw string) []models.AffiliateLink {
	suggestions := []models.AffiliateLink{}
	loc := affiliateHeadingRE.FindStringIndex(raw)
	if loc == nil {
		return suggestions
	}
	section := raw[loc[1]:]
	if m := excerptSameLineRE.FindStringIndex(section); m != nil {
		section = section[:m[0]]
	}

	var items []string
	for _, m := range numberedItemRE.FindAllStringSubmatch(section, -1) {
		items = append(items, m[1])
	}
	if len(items) == 0 {
		for _, m := range listItemRE.FindAllStringSubmatch(section, -1) {
			items = append(items, m[1])
		}
	}
	for _, item := range items {
		if desc := stripTags(item); desc != "" {
			suggestions = append(suggestions, models.AffiliateLink{URL: "", Description: desc})
		}
	}
	return suggestions
}

func categoryList() string {
	names := make([]string, len(models.Categories))
	for i, c := range models.Categories {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}
