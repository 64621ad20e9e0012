package services

import (
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strings"

	"puzzle2profit/models"
)

// FallbackSummaryRunes begrenzt die Zusammenfassung, wenn keine JSON-Antwort erkannt wurde.
const FallbackSummaryRunes = 500

var (
	ErrNoJSONObject  = fmt.Errorf("%w: no JSON object found in response", ErrInvalidModelOutput)
	ErrMalformedJSON = fmt.Errorf("%w: malformed JSON object", ErrInvalidModelOutput)
)

var (
	htmlFenceRE = regexp.MustCompile("(?is)```html[ \t]*\r?\n?(.*?)```")
	bodyRE      = regexp.MustCompile(`(?is)<body[^>]*>(.*?)</body>`)
	articleRE   = regexp.MustCompile(`(?is)<article[^>]*>(.*?)</article>`)

	// Überschrift oder Zeilenanfang mit "Excerpt:" bzw. "Affiliate..."
	trailingMarkerRE = regexp.MustCompile(`(?im)^[ \t]*(?:<h[1-6][^>]*>|<p[^>]*>|<strong>|<b>|#{1,6}[ \t]*|\*\*)?[ \t]*(?:excerpt[ \t]*:|affiliate)`)
)

// ExtractJSONObject sucht das erste '{' und das letzte '}' im Text und parst
// den Bereich dazwischen strikt als JSON-Objekt. Zahlen bleiben json.Number.
func ExtractJSONObject(text string) (map[string]any, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, ErrNoJSONObject
	}

	dec := json.NewDecoder(strings.NewReader(text[start : end+1]))
	dec.UseNumber()
	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedJSON, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("%w: trailing content after object", ErrMalformedJSON)
	}
	return obj, nil
}

// ResearchResult ist die typisierte Form einer Research-Antwort.
type ResearchResult struct {
	Summary        string
	ToolsMentioned []string
	ToolsDetailed  []models.ToolCard
	KeyInsights    []string
	BlogIdeas      []models.BlogIdea

	// Degraded ist gesetzt, wenn kein JSON erkannt wurde und nur der Rohtext übernommen ist.
	Degraded bool
	ParseErr error
}

// ParseResearch wandelt eine Modellantwort in ein ResearchResult um. Schlägt
// das Parsen fehl, wird ein Fallback mit gekürztem Rohtext und leeren Listen
// zurückgegeben; die Funktion scheitert nie.
func ParseResearch(text string) ResearchResult {
	obj, err := ExtractJSONObject(text)
	if err != nil {
		return fallbackResearch(text, err)
	}

	res := ResearchResult{
		Summary:        asString(obj["summary"]),
		ToolsMentioned: asStrings(firstPresent(obj, "tools", "tools_mentioned")),
		ToolsDetailed:  parseToolCards(firstPresent(obj, "tools_detailed", "toolsDetailed")),
		KeyInsights:    asStrings(firstPresent(obj, "key_insights", "keyInsights", "insights")),
		BlogIdeas:      parseBlogIdeas(firstPresent(obj, "blog_ideas", "blogIdeas")),
	}
	if strings.TrimSpace(res.Summary) == "" {
		res.Summary = truncateRunes(strings.TrimSpace(text), FallbackSummaryRunes)
	}
	if len(res.ToolsMentioned) == 0 {
		for _, tc := range res.ToolsDetailed {
			res.ToolsMentioned = append(res.ToolsMentioned, tc.Name)
		}
	}
	return res
}

func fallbackResearch(text string, err error) ResearchResult {
	return ResearchResult{
		Summary:        truncateRunes(strings.TrimSpace(text), FallbackSummaryRunes),
		ToolsMentioned: []string{},
		ToolsDetailed:  []models.ToolCard{},
		KeyInsights:    []string{},
		BlogIdeas:      []models.BlogIdea{},
		Degraded:       true,
		ParseErr:       err,
	}
}

func parseToolCards(v any) []models.ToolCard {
	cards := []models.ToolCard{}
	items, _ := v.([]any)
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			if name := asString(item); name != "" {
				cards = append(cards, models.ToolCard{Name: name, KeyFeatures: []string{}})
			}
			continue
		}
		card := models.ToolCard{
			Name:             asString(m["name"]),
			Description:      asString(m["description"]),
			Website:          firstString(m, "website", "url", "website_url"),
			AffiliateProgram: firstString(m, "affiliate_program", "affiliateProgram", "affiliate"),
			Pricing:          asString(m["pricing"]),
			KeyFeatures:      asStrings(firstPresent(m, "key_features", "keyFeatures", "features")),
		}
		if card.Name == "" {
			continue
		}
		cards = append(cards, card)
	}
	return cards
}

// parseBlogIdeas akzeptiert "category" oder (ältere Prompts) "day" als Kategorie-Key.
// Unbekannte Kategorien bleiben erhalten, damit ValidateBlogIdeas sie meldet.
func parseBlogIdeas(v any) []models.BlogIdea {
	ideas := []models.BlogIdea{}
	items, _ := v.([]any)
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		raw := firstString(m, "category", "day")
		cat, ok := models.ParseCategory(raw)
		if !ok {
			cat = models.Category(raw)
		}
		ideas = append(ideas, models.BlogIdea{
			Category:    cat,
			Title:       asString(m["title"]),
			Description: asString(m["description"]),
		})
	}
	return ideas
}

// ExtractHTMLFence gibt den Inhalt des ersten ```html-Blocks zurück.
func ExtractHTMLFence(text string) (string, bool) {
	m := htmlFenceRE.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}

// ExtractHTMLBody isoliert den Artikel-Body aus einer Modellantwort:
// erst ein ```html-Block, dann <body>, dann <article>, sonst wird vor dem
// ersten "Excerpt:"/"Affiliate"-Marker abgeschnitten. Die Marker-Heuristik
// schneidet auch dann, wenn der Marker Teil des Fließtexts ist.
func ExtractHTMLBody(text string) string {
	if fenced, ok := ExtractHTMLFence(text); ok {
		text = fenced
	}
	if m := bodyRE.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := articleRE.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(trimTrailingSections(text))
}

// trimTrailingSections schneidet am ersten Marker ab, vor dem schon Artikeltext
// steht. Eine führende Excerpt-Zeile wird übersprungen.
func trimTrailingSections(text string) string {
	start := 0
	for _, loc := range trailingMarkerRE.FindAllStringIndex(text, -1) {
		if loc[0] < start {
			continue
		}
		if strings.TrimSpace(text[start:loc[0]]) != "" {
			return text[start:loc[0]]
		}
		if strings.HasSuffix(strings.ToLower(text[loc[0]:loc[1]]), "affiliate") {
			continue
		}
		if nl := strings.IndexByte(text[loc[1]:], '\n'); nl >= 0 {
			start = loc[1] + nl + 1
		} else {
			start = len(text)
		}
	}
	return text[start:]
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
