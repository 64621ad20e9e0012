package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"puzzle2profit/models"
	"puzzle2profit/providers/brevo"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	mu         sync.Mutex
	contacts   []brevo.Contact
	emails     []brevo.Email
	contactErr error
	failFor    map[string]error
}

func (f *fakeSender) CreateContact(_ context.Context, c brevo.Contact) error {
	if f.contactErr != nil {
		return f.contactErr
	}
	f.contacts = append(f.contacts, c)
	return nil
}

func (f *fakeSender) SendEmail(_ context.Context, e brevo.Email) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range e.To {
		if err := f.failFor[r.Email]; err != nil {
			return "", err
		}
	}
	f.emails = append(f.emails, e)
	return "<msg-1@brevo>", nil
}

func newNewsletter(t *testing.T) (*NewsletterService, *fakeSender) {
	t.Helper()
	sender := &fakeSender{}
	svc := NewNewsletterService(testConfig(), newTestDB(t), sender, nopLogger())
	svc.Now = func() time.Time { return time.Date(2025, 2, 3, 7, 0, 0, 0, time.UTC) }
	return svc, sender
}

func TestSignup(t *testing.T) {
	svc, sender := newNewsletter(t)

	require.NoError(t, svc.Signup(context.Background(), SignupRequest{Email: "Jane.Doe@Example.com", ListIDs: []int{3}}))

	require.Len(t, sender.contacts, 1)
	assert.Equal(t, brevo.Contact{Email: "jane.doe@example.com", FirstName: "jane.doe", ListIDs: []int{3}}, sender.contacts[0])

	var signup models.EmailSignup
	require.NoError(t, svc.DB.First(&signup, "email = ?", "jane.doe@example.com").Error)
	assert.True(t, signup.BrevoSynced)

	// Erneute Anmeldung aktualisiert nur den Namen.
	require.NoError(t, svc.Signup(context.Background(), SignupRequest{Email: "jane.doe@example.com", Name: "Jane", ListIDs: []int{3}}))
	var count int64
	require.NoError(t, svc.DB.Model(&models.EmailSignup{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
	require.NoError(t, svc.DB.First(&signup, "email = ?", "jane.doe@example.com").Error)
	assert.Equal(t, "Jane", signup.Name)
}

func TestSignup_Validation(t *testing.T) {
	svc, sender := newNewsletter(t)

	assert.ErrorIs(t, svc.Signup(context.Background(), SignupRequest{Email: "not-an-email", ListIDs: []int{1}}), ErrValidation)
	assert.ErrorIs(t, svc.Signup(context.Background(), SignupRequest{Email: "a@b.co"}), ErrValidation)
	assert.Empty(t, sender.contacts)
}

func TestSignup_ProviderFailureKeepsUnsyncedContact(t *testing.T) {
	svc, sender := newNewsletter(t)
	sender.contactErr = errors.New("brevo down")

	err := svc.Signup(context.Background(), SignupRequest{Email: "a@b.co", ListIDs: []int{1}})
	assert.EqualError(t, err, "brevo down")

	var signup models.EmailSignup
	require.NoError(t, svc.DB.First(&signup, "email = ?", "a@b.co").Error)
	assert.False(t, signup.BrevoSynced)
}

func TestSignup_MissingKey(t *testing.T) {
	svc, _ := newNewsletter(t)
	svc.Config.BrevoAPIKey = ""

	err := svc.Signup(context.Background(), SignupRequest{Email: "a@b.co", ListIDs: []int{1}})

	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, map[string]bool{"hasBrevoKey": false}, cfgErr.Details)
}

func TestPublishDigest_NothingToSend(t *testing.T) {
	svc, sender := newNewsletter(t)

	res, err := svc.PublishDigest(context.Background())
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "No published blog found", res.Message)

	require.NoError(t, svc.DB.Create(&models.Blog{Title: "Draft", Category: models.CategoryBuild, Published: true}).Error)
	res, err = svc.PublishDigest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "No email contacts found", res.Message)
	assert.Empty(t, sender.emails)
}

func TestPublishDigest(t *testing.T) {
	svc, sender := newNewsletter(t)
	older := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := older.Add(48 * time.Hour)
	require.NoError(t, svc.DB.Create(&models.Blog{Title: "Old post", Category: models.CategoryBuild, Published: true, PublishedDate: &older}).Error)
	blog := models.Blog{
		Title:         "Close the sale",
		Category:      models.CategoryConvert,
		Excerpt:       "Checkout tips & tricks",
		Published:     true,
		PublishedDate: &newer,
		AffiliateLinks: []models.AffiliateLink{
			{URL: "https://stripe.com/?ref=p2p", Description: "Stripe"},
			{URL: "", Description: "Not yet linked"},
		},
	}
	require.NoError(t, svc.DB.Create(&blog).Error)
	require.NoError(t, svc.DB.Create(&models.Blog{Title: "Unpublished", Category: models.CategoryRest}).Error)
	for _, s := range []models.EmailSignup{{Email: "a@b.co", BrevoSynced: true}, {Email: "c@d.co", BrevoSynced: true}, {Email: "e@f.co"}} {
		require.NoError(t, svc.DB.Create(&s).Error)
	}

	res, err := svc.PublishDigest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &DigestResult{Success: true, BlogID: blog.ID, SentTo: 2}, res)

	require.Len(t, sender.emails, 2)
	var to []brevo.Recipient
	for _, e := range sender.emails {
		require.Len(t, e.To, 1, "each recipient gets a separate message")
		to = append(to, e.To...)
	}
	assert.ElementsMatch(t, []brevo.Recipient{{Email: "a@b.co"}, {Email: "c@d.co"}}, to)
	email := sender.emails[0]
	assert.Equal(t, "Day 3: Convert Puzzle – Close the sale", email.Subject)
	assert.Contains(t, email.HTMLContent, `href="https://example.com/blog/`+blog.ID+`"`)
	assert.Contains(t, email.HTMLContent, `href="{{unsubscribe}}"`)
	assert.Contains(t, email.HTMLContent, "Checkout tips &amp; tricks")
	assert.Contains(t, email.HTMLContent, "https://stripe.com/?ref=p2p")
	assert.NotContains(t, email.HTMLContent, "Not yet linked")

	var campaign models.EmailCampaign
	require.NoError(t, svc.DB.First(&campaign).Error)
	assert.Equal(t, blog.ID, campaign.BlogID)
	assert.Equal(t, "<msg-1@brevo>", campaign.BrevoCampaignID)
	assert.Equal(t, 2, campaign.SentCount)
}

func TestPublishDigest_PartialFailure(t *testing.T) {
	svc, sender := newNewsletter(t)
	require.NoError(t, svc.DB.Create(&models.Blog{Title: "Post", Category: models.CategoryBuild, Published: true}).Error)
	for _, s := range []models.EmailSignup{{Email: "a@b.co", BrevoSynced: true}, {Email: "bounce@b.co", BrevoSynced: true}} {
		require.NoError(t, svc.DB.Create(&s).Error)
	}
	sender.failFor = map[string]error{"bounce@b.co": errors.New("invalid recipient")}

	res, err := svc.PublishDigest(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 1, res.SentTo)
	assert.Equal(t, 1, res.Failed)

	var campaign models.EmailCampaign
	require.NoError(t, svc.DB.First(&campaign).Error)
	assert.Equal(t, 1, campaign.SentCount)

	sender.failFor["a@b.co"] = errors.New("brevo down")
	_, err = svc.PublishDigest(context.Background())
	assert.Error(t, err)
}

func TestDigestSubject_UnknownCategory(t *testing.T) {
	assert.Equal(t, "Day 1: Misc Puzzle – T", DigestSubject(&models.Blog{Category: "Misc", Title: "T"}))
}
