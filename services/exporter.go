package services

import (
	"bytes"
	"context"
	"embed"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"html/template"
	"strconv"
	"strings"
	"time"

	"puzzle2profit/config"
	"puzzle2profit/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed templates/research_print.html
var templateFS embed.FS

var printTemplate = template.Must(template.New("research_print.html").Funcs(template.FuncMap{
	"inc":           func(i int) int { return i + 1 },
	"markdown":      func(s string) template.HTML { return template.HTML(renderMarkdown(s)) }, //nolint:gosec // goldmark lässt kein Roh-HTML durch
	"hasAffiliate":  func(s string) bool { return strings.Contains(strings.ToLower(s), "yes") },
	"categoryClass": func(c models.Category) string { return "category-" + strings.ToLower(string(c)) },
}).ParseFS(templateFS, "templates/research_print.html"))

// ExportFormat ist eines der unterstützten Exportformate.
type ExportFormat string

const (
	FormatJSON     ExportFormat = "json"
	FormatMarkdown ExportFormat = "markdown"
	FormatCSV      ExportFormat = "csv"
	FormatPDF      ExportFormat = "pdf"
)

// ParseExportFormat akzeptiert die Formatnamen; leer bedeutet JSON.
func ParseExportFormat(s string) (ExportFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "csv":
		return FormatCSV, nil
	case "pdf", "html":
		return FormatPDF, nil
	}
	return "", newError(ErrValidation, "Unsupported format %q. Must be one of: json, markdown, csv, pdf", s)
}

// ExportRequest beschreibt einen Export. Leere IDs bedeutet: alle Trends.
type ExportRequest struct {
	Format  ExportFormat
	IDs     []string
	Archive bool
}

// Document ist ein gerendertes Exportdokument.
type Document struct {
	ContentType string
	Filename    string
	Body        []byte
	Entries     int
	ArchiveURL  string
}

// ArchiveStore legt gerenderte Exporte dauerhaft ab (z.B. in S3).
type ArchiveStore interface {
	Upload(ctx context.Context, key, contentType string, data []byte) (string, error)
}

// ExportService rendert gespeicherte Research-Trends in verschiedene Formate.
type ExportService struct {
	Config  *config.Config
	DB      *gorm.DB
	Logger  *zap.Logger
	Archive ArchiveStore
	Now     func() time.Time
}

// NewExportService erstellt einen neuen ExportService. archive darf nil sein.
func NewExportService(cfg *config.Config, db *gorm.DB, archive ArchiveStore, logger *zap.Logger) *ExportService {
	return &ExportService{Config: cfg, DB: db, Logger: logger, Archive: archive, Now: time.Now}
}

// ParseIDs zerlegt eine kommagetrennte ID-Liste und verwirft leere Einträge.
func ParseIDs(s string) []string {
	var ids []string
	for _, id := range strings.Split(s, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// LoadTrends lädt die Trends, neueste zuerst, optional gefiltert auf ids.
func (s *ExportService) LoadTrends(ctx context.Context, ids []string) ([]models.ResearchTrend, error) {
	query := s.DB.WithContext(ctx).Model(&models.ResearchTrend{}).Order("created_at desc")
	if len(ids) > 0 {
		query = query.Where("id IN ?", ids)
	}
	trends := []models.ResearchTrend{}
	if err := query.Find(&trends).Error; err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	return trends, nil
}

// Export lädt, rendert und archiviert auf Wunsch das Dokument.
func (s *ExportService) Export(ctx context.Context, req ExportRequest) (*Document, error) {
	log := s.Logger.With(zap.String("format", string(req.Format)))
	if req.Archive && s.Archive == nil {
		details, _ := s.Config.CredentialStatus(config.CredentialArchive)
		return nil, &ConfigError{Details: details}
	}

	trends, err := s.LoadTrends(ctx, req.IDs)
	if err != nil {
		return nil, err
	}

	now := s.Now().UTC()
	doc, err := Render(req.Format, trends, now)
	if err != nil {
		return nil, err
	}

	if req.Archive {
		key := ArchiveKey(req.Format, now)
		link, err := s.Archive.Upload(ctx, key, doc.ContentType, doc.Body)
		if err != nil {
			log.Error("Archivierung des Exports fehlgeschlagen", zap.String("key", key), zap.Error(err))
			return nil, fmt.Errorf("archive upload failed: %w", err)
		}
		doc.ArchiveURL = link
		log.Info("Export archiviert", zap.String("key", key))
	}

	researchExports.WithLabelValues(string(req.Format)).Inc()
	log.Info("Research exportiert", zap.Int("entries", doc.Entries), zap.Int("bytes", len(doc.Body)))
	return doc, nil
}

// ArchiveKey bildet den Objektschlüssel für ein archiviertes Exportdokument.
func ArchiveKey(format ExportFormat, at time.Time) string {
	return fmt.Sprintf("exports/research-%s.%s", at.UTC().Format("20060102-150405"), format.Extension())
}

// Extension ist die Dateiendung des Formats.
func (f ExportFormat) Extension() string {
	switch f {
	case FormatMarkdown:
		return "md"
	case FormatCSV:
		return "csv"
	case FormatPDF:
		return "html"
	}
	return "json"
}

// Render erzeugt das Dokument im gewünschten Format.
func Render(format ExportFormat, trends []models.ResearchTrend, generatedAt time.Time) (*Document, error) {
	var (
		body []byte
		err  error
		doc  = &Document{Entries: len(trends)}
	)
	switch format {
	case FormatMarkdown:
		body = RenderMarkdown(trends, generatedAt)
		doc.ContentType = "text/markdown"
		doc.Filename = "research-export.md"
	case FormatCSV:
		body, err = RenderCSV(trends)
		doc.ContentType = "text/csv"
		doc.Filename = "research-export.csv"
	case FormatPDF:
		body, err = RenderPrintHTML(trends, generatedAt)
		doc.ContentType = "text/html"
	default:
		body, err = RenderJSON(trends, generatedAt)
		doc.ContentType = "application/json"
	}
	if err != nil {
		return nil, err
	}
	doc.Body = body
	return doc, nil
}

type jsonExport struct {
	GeneratedAt  time.Time              `json:"generated_at"`
	TotalEntries int                    `json:"total_entries"`
	Research     []models.ResearchTrend `json:"research"`
}

// RenderJSON gibt alle Felder aller Trends eingerückt aus.
func RenderJSON(trends []models.ResearchTrend, generatedAt time.Time) ([]byte, error) {
	if trends == nil {
		trends = []models.ResearchTrend{}
	}
	return json.MarshalIndent(jsonExport{
		GeneratedAt:  generatedAt,
		TotalEntries: len(trends),
		Research:     trends,
	}, "", "  ")
}

// RenderMarkdown erzeugt pro Trend einen "##"-Abschnitt. Freitext wird nicht escaped.
func RenderMarkdown(trends []models.ResearchTrend, generatedAt time.Time) []byte {
	var b strings.Builder
	b.WriteString("# AI Automation Research Export\n\n")
	fmt.Fprintf(&b, "Generated: %s\n\n", generatedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "Total Research Entries: %d\n\n", len(trends))
	b.WriteString("---\n\n")

	for i, t := range trends {
		fmt.Fprintf(&b, "## %d. %s\n\n", i+1, t.Topic)
		fmt.Fprintf(&b, "**Date:** %s\n\n", t.CreatedAt.Format("2006-01-02"))
		fmt.Fprintf(&b, "### Summary\n%s\n\n", t.Summary)
		if len(t.ToolsMentioned) > 0 {
			b.WriteString("### Tools Mentioned\n")
			for _, tool := range t.ToolsMentioned {
				fmt.Fprintf(&b, "- %s\n", tool)
			}
			b.WriteString("\n")
		}
		if len(t.BlogIdeas) > 0 {
			fmt.Fprintf(&b, "### Blog Ideas (%d)\n\n", len(t.BlogIdeas))
			for _, idea := range t.BlogIdeas {
				fmt.Fprintf(&b, "#### %s: %s\n", idea.Category, idea.Title)
				fmt.Fprintf(&b, "%s\n\n", idea.Description)
			}
		}
		b.WriteString("---\n\n")
	}
	return []byte(b.String())
}

// RenderCSV schreibt eine Zeile pro Trend. Insights, Tool-Details und
// Ideenbeschreibungen fallen weg, von den Ideen bleibt nur die Anzahl.
func RenderCSV(trends []models.ResearchTrend) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"Date", "Topic", "Summary", "Tools", "Blog Ideas Count"}); err != nil {
		return nil, err
	}
	for _, t := range trends {
		record := []string{
			t.CreatedAt.UTC().Format("2006-01-02T15:04:05.000Z"),
			t.Topic,
			t.Summary,
			strings.Join(t.ToolsMentioned, ", "),
			strconv.Itoa(len(t.BlogIdeas)),
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RenderPrintHTML erzeugt ein druckoptimiertes HTML-Dokument ("Drucken als PDF").
func RenderPrintHTML(trends []models.ResearchTrend, generatedAt time.Time) ([]byte, error) {
	var buf bytes.Buffer
	err := printTemplate.Execute(&buf, struct {
		GeneratedAt time.Time
		Research    []models.ResearchTrend
	}{generatedAt, trends})
	if err != nil {
		return nil, fmt.Errorf("rendering print export: %w", err)
	}
	return buf.Bytes(), nil
}
