package services

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/mail"
	"strings"
	"time"

	"puzzle2profit/config"
	"puzzle2profit/models"
	"puzzle2profit/providers/brevo"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:embed templates/digest_email.html
var digestFS embed.FS

var digestTemplate = template.Must(template.ParseFS(digestFS, "templates/digest_email.html"))

// Brevo ersetzt den Platzhalter beim Versand; html/template würde ihn im href escapen.
const unsubscribeLink = template.HTML(`<a href="{{unsubscribe}}" style="color: #6b7280; text-decoration: underline;">Unsubscribe</a>`)

// digestSendConcurrency begrenzt parallele Einzelmails beim Digest.
const digestSendConcurrency = 4

// EmailSender ist der Teil des E-Mail-Providers, den der Newsletter braucht.
type EmailSender interface {
	CreateContact(ctx context.Context, contact brevo.Contact) error
	SendEmail(ctx context.Context, email brevo.Email) (string, error)
}

// SignupRequest ist eine Newsletter-Anmeldung.
type SignupRequest struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	ListIDs []int  `json:"listIds"`
}

// DigestResult ist das Ergebnis eines Digest-Versands.
type DigestResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	BlogID  string `json:"blog_id,omitempty"`
	SentTo  int    `json:"sent_to"`
	Failed  int    `json:"failed,omitempty"`
}

// NewsletterService verwaltet Newsletter-Kontakte und den Blog-Digest.
type NewsletterService struct {
	Config *config.Config
	DB     *gorm.DB
	Logger *zap.Logger
	Email  EmailSender
	Now    func() time.Time
}

// NewNewsletterService erstellt einen neuen NewsletterService.
func NewNewsletterService(cfg *config.Config, db *gorm.DB, sender EmailSender, logger *zap.Logger) *NewsletterService {
	return &NewsletterService{Config: cfg, DB: db, Logger: logger, Email: sender, Now: time.Now}
}

func (s *NewsletterService) checkCredentials() error {
	if details, ok := s.Config.CredentialStatus(config.CredentialBrevo); !ok || s.Email == nil {
		return &ConfigError{Details: details}
	}
	return nil
}

// Signup speichert den Kontakt lokal und legt ihn beim E-Mail-Provider an.
// Scheitert der Provider, bleibt der Kontakt mit brevo_synced=false gespeichert.
func (s *NewsletterService) Signup(ctx context.Context, req SignupRequest) error {
	addr, err := mail.ParseAddress(strings.TrimSpace(req.Email))
	if err != nil || len(req.ListIDs) == 0 {
		return newError(ErrValidation, "Missing required fields")
	}
	if err := s.checkCredentials(); err != nil {
		return err
	}

	email := strings.ToLower(addr.Address)
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = strings.SplitN(email, "@", 2)[0]
	}

	signup := models.EmailSignup{Email: email, Name: name}
	err = s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoUpdates: clause.AssignmentColumns([]string{"name"}),
	}).Create(&signup).Error
	if err != nil {
		return err
	}

	log := s.Logger.With(zap.String("email", email))
	if err := s.Email.CreateContact(ctx, brevo.Contact{Email: email, FirstName: name, ListIDs: req.ListIDs}); err != nil {
		log.Error("Kontakt konnte nicht synchronisiert werden", zap.Error(err))
		return err
	}
	if err := s.DB.WithContext(ctx).Model(&models.EmailSignup{}).
		Where("email = ?", email).Update("brevo_synced", true).Error; err != nil {
		return err
	}

	newsletterSignups.Inc()
	log.Info("Newsletter-Anmeldung synchronisiert")
	return nil
}

// DigestSubject bildet die Betreffzeile eines Blog-Digests.
func DigestSubject(blog *models.Blog) string {
	day := blog.Category.DayNumber()
	if day == 0 {
		day = 1
	}
	return fmt.Sprintf("Day %d: %s Puzzle – %s", day, blog.Category, blog.Title)
}

// PublishDigest verschickt den zuletzt veröffentlichten Blogpost an alle
// synchronisierten Kontakte und protokolliert die Kampagne.
func (s *NewsletterService) PublishDigest(ctx context.Context) (*DigestResult, error) {
	if err := s.checkCredentials(); err != nil {
		return nil, err
	}
	db := s.DB.WithContext(ctx)

	var blog models.Blog
	err := db.Where("published = ?", true).Order("published_date IS NULL, published_date desc").Take(&blog).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &DigestResult{Message: "No published blog found"}, nil
	}
	if err != nil {
		return nil, err
	}

	var recipients []string
	if err := db.Model(&models.EmailSignup{}).Where("brevo_synced = ?", true).Pluck("email", &recipients).Error; err != nil {
		return nil, err
	}
	if len(recipients) == 0 {
		return &DigestResult{Message: "No email contacts found", BlogID: blog.ID}, nil
	}

	html, err := s.renderDigest(&blog)
	if err != nil {
		return nil, err
	}
	subject := DigestSubject(&blog)
	log := s.Logger.With(zap.String("blog_id", blog.ID))

	// Eine Mail pro Empfänger, damit niemand die anderen Adressen sieht.
	messageIDs := make([]string, len(recipients))
	sendErrs := make([]error, len(recipients))
	var g errgroup.Group
	g.SetLimit(digestSendConcurrency)
	for i, r := range recipients {
		g.Go(func() error {
			id, err := s.Email.SendEmail(ctx, brevo.Email{To: []brevo.Recipient{{Email: r}}, Subject: subject, HTMLContent: html})
			if err != nil {
				log.Warn("Digest an Empfänger fehlgeschlagen", zap.String("email", r), zap.Error(err))
				sendErrs[i] = err
				return nil
			}
			messageIDs[i] = id
			return nil
		})
	}
	_ = g.Wait()

	sent, failed := 0, 0
	var firstErr error
	messageID := ""
	for i := range recipients {
		if sendErrs[i] != nil {
			failed++
			if firstErr == nil {
				firstErr = sendErrs[i]
			}
			continue
		}
		sent++
		if messageID == "" {
			messageID = messageIDs[i]
		}
	}
	if sent == 0 {
		log.Error("Digest-Versand fehlgeschlagen", zap.Int("recipients", len(recipients)), zap.Error(firstErr))
		return nil, firstErr
	}

	campaign := models.EmailCampaign{
		BlogID:          blog.ID,
		BrevoCampaignID: messageID,
		Subject:         subject,
		SentCount:       sent,
		SentAt:          s.Now().UTC(),
	}
	if err := db.Create(&campaign).Error; err != nil {
		log.Warn("Kampagne konnte nicht protokolliert werden", zap.Error(err))
	}

	log.Info("Digest verschickt", zap.Int("recipients", sent), zap.Int("failed", failed))
	return &DigestResult{Success: true, BlogID: blog.ID, SentTo: sent, Failed: failed}, nil
}

func (s *NewsletterService) renderDigest(blog *models.Blog) (string, error) {
	var links []models.AffiliateLink
	for _, l := range blog.AffiliateLinks {
		if strings.TrimSpace(l.URL) != "" {
			links = append(links, l)
		}
	}
	var buf bytes.Buffer
	err := digestTemplate.Execute(&buf, struct {
		Blog        *models.Blog
		PostURL     string
		Links       []models.AffiliateLink
		Unsubscribe template.HTML
	}{blog, strings.TrimRight(s.Config.SiteURL, "/") + "/blog/" + blog.ID, links, unsubscribeLink})
	if err != nil {
		return "", fmt.Errorf("rendering digest: %w", err)
	}
	return buf.String(), nil
}
