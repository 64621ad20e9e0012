package services

import (
	"strings"

	"puzzle2profit/models"
)

// CurriculumWeek ist eine Woche des strategischen Themenplans.
type CurriculumWeek struct {
	Title  string
	Topics []string
}

// StrategicCurriculum ist der feste 4-Wochen-Plan mit 7 Themen pro Woche.
var StrategicCurriculum = []CurriculumWeek{
	{
		Title: "Week 1: Foundation Building",
		Topics: []string{
			"AI-powered no-code development platforms for rapid MVP creation",
			"Automated business infrastructure setup (legal, accounting, compliance)",
			"AI tools for market research and competitor analysis",
			"Intelligent product roadmap planning and feature prioritization",
			"Automated tech stack selection and integration planning",
			"AI-driven brand identity and positioning tools",
			"Smart business model validation and pivot detection",
		},
	},
	{
		Title: "Week 2: Audience Attraction",
		Topics: []string{
			"AI automation for social media outreach and engagement",
			"Advanced SEO automation and content optimization tools",
			"AI-powered influencer discovery and partnership automation",
			"Intelligent paid advertising optimization and budget allocation",
			"Automated email list building and lead magnet creation",
			"AI-driven content distribution and cross-platform syndication",
			"Smart community building and engagement automation",
		},
	},
	{
		Title: "Week 3: Conversion & Delivery",
		Topics: []string{
			"AI sales funnel optimization and A/B testing automation",
			"Intelligent pricing strategy and dynamic pricing tools",
			"Automated onboarding and user activation sequences",
			"AI-powered product recommendation engines",
			"Smart checkout optimization and cart abandonment recovery",
			"Automated course and digital product delivery systems",
			"AI-driven upsell and cross-sell automation",
		},
	},
	{
		Title: "Week 4: Support, Profit & Growth",
		Topics: []string{
			"AI customer support automation and chatbot intelligence",
			"Automated financial forecasting and profit optimization",
			"Intelligent churn prediction and retention automation",
			"AI-powered analytics dashboards and insight generation",
			"Automated referral programs and viral growth loops",
			"Smart resource allocation and burnout prevention tools",
			"AI-driven strategic planning and goal tracking systems",
		},
	},
}

// CurriculumTopics gibt alle Themen in Planreihenfolge zurück.
func CurriculumTopics() []string {
	var topics []string
	for _, w := range StrategicCurriculum {
		topics = append(topics, w.Topics...)
	}
	return topics
}

// NextTopic wählt das erste Thema des Plans, das am seltensten behandelt wurde.
// Ohne Historie ist das das erste Thema; sind alle Themen einmal behandelt,
// beginnt der Zyklus wieder von vorn. covered darf Duplikate und Themen
// außerhalb des Plans enthalten.
func NextTopic(curriculum, covered []string) string {
	if len(curriculum) == 0 {
		return ""
	}
	counts := make(map[string]int, len(covered))
	for _, t := range covered {
		counts[strings.TrimSpace(t)]++
	}

	best := curriculum[0]
	bestCount := counts[best]
	for _, t := range curriculum[1:] {
		if c := counts[t]; c < bestCount {
			best, bestCount = t, c
		}
	}
	return best
}

// DefaultPaths sind die beiden Content-Tracks, die beim Start angelegt werden.
var DefaultPaths = []models.Path{
	{
		Slug:           "a",
		Name:           "Path A: No-Code Builder",
		Description:    "Launch and run the business with visual builders and automation platforms.",
		TechStackFocus: "no-code and low-code automation tools",
	},
	{
		Slug:           "b",
		Name:           "Path B: AI Developer",
		Description:    "Build custom products on top of AI APIs and developer platforms.",
		TechStackFocus: "AI APIs and developer tools",
	},
}

// pathConstraints liefert die erlaubten bzw. verbotenen Tool-Klassen je Track.
func pathConstraints(p *models.Path) string {
	if p == nil {
		return ""
	}
	switch p.Slug {
	case "a":
		return "CRITICAL: " + p.Name + " focuses on " + p.TechStackFocus + `.

ONLY recommend NO-CODE and LOW-CODE tools such as:
- Visual builders: Bubble, Webflow, Framer, Softr, Glide
- Automation: Zapier, Make (Integromat), n8n, Tray.io
- Databases: Airtable, NocoDB, Baserow
- Forms: Typeform, Jotform, Tally
- Landing pages: Carrd, Unbounce, Instapage
- Email: Brevo, Mailchimp, ConvertKit
- Payment: Stripe (no-code), Gumroad, Lemon Squeezy
- Auth: Memberstack, Outseta

DO NOT include: Code-based solutions, AI APIs requiring programming, developer tools`
	case "b":
		return "CRITICAL: " + p.Name + " focuses on " + p.TechStackFocus + `.

ONLY recommend AI API and DEVELOPER tools such as:
- AI APIs: OpenAI, Anthropic (Claude), Groq, Cohere, Replicate
- AI Platforms: HuggingFace, LangChain, LlamaIndex
- Development: Vercel, Railway, Render, Fly.io
- Databases: Supabase, Firebase, PlanetScale, Neon
- Vector DBs: Pinecone, Weaviate, Qdrant, Chroma
- Monitoring: Sentry, PostHog, LogRocket
- APIs: RapidAPI, Apify
- Backend: FastAPI, Express, Next.js API routes

DO NOT include: No-code builders, visual tools without APIs, drag-and-drop solutions`
	}
	return "CRITICAL: " + p.Name + " focuses on " + p.TechStackFocus + ". ONLY recommend tools that match this focus."
}
