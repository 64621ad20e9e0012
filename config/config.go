package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config enthält alle Konfigurationsparameter aus Umgebungsvariablen.
type Config struct {
	DBHost     string `envconfig:"DB_HOST" required:"true"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" required:"true"`
	DBPassword string `envconfig:"DB_PASSWORD" required:"true"`
	DBName     string `envconfig:"DB_NAME" required:"true"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`

	HTTPPort     string `envconfig:"HTTP_PORT" default:"4242"`
	APISecretKey string `envconfig:"API_SECRET_KEY"`
	SiteURL      string `envconfig:"SITE_URL" default:"https://www.puzzle2profit.com"`

	// LLM-Provider: "xai" (Grok, OpenAI-kompatibel) oder "gemini"
	LLMProvider       string        `envconfig:"LLM_PROVIDER" default:"xai"`
	XAIAPIKey         string        `envconfig:"XAI_API_KEY"`
	XAIBaseURL        string        `envconfig:"XAI_BASE_URL" default:"https://api.x.ai/v1"`
	XAIModel          string        `envconfig:"XAI_MODEL" default:"grok-2-latest"`
	GeminiAPIKey      string        `envconfig:"GEMINI_API_KEY"`
	GeminiModel       string        `envconfig:"GEMINI_MODEL" default:"gemini-2.0-flash"`
	GeminiBaseURL     string        `envconfig:"GEMINI_BASE_URL"` // leer: SDK-Standard
	LLMTimeout        time.Duration `envconfig:"LLM_TIMEOUT" default:"120s"`
	LLMMaxAttempts    int           `envconfig:"LLM_MAX_ATTEMPTS" default:"1"`
	LLMBackoffInitial time.Duration `envconfig:"LLM_BACKOFF_INITIAL" default:"1s"`
	LLMBackoffMax     time.Duration `envconfig:"LLM_BACKOFF_MAX" default:"8s"`

	// Secret, mit dem Access-Tokens des Auth-Dienstes signiert sind (HS256)
	JWTSecret string `envconfig:"SUPABASE_JWT_SECRET"`

	BrevoAPIKey      string `envconfig:"BREVO_API_KEY"`
	BrevoBaseURL     string `envconfig:"BREVO_BASE_URL" default:"https://api.brevo.com/v3"`
	BrevoSenderEmail string `envconfig:"BREVO_SENDER_EMAIL" default:"noreply@puzzle2profit.com"`
	BrevoSenderName  string `envconfig:"BREVO_SENDER_NAME" default:"Puzzle2Profit"`

	ResearchCronEnabled bool   `envconfig:"RESEARCH_CRON_ENABLED" default:"false"`
	CronSchedule        string `envconfig:"CRON_SCHEDULE" default:"0 6 * * *"`

	// Export-Archive (S3-kompatibel), optional
	S3Key    string `envconfig:"S3_KEY"`
	S3Secret string `envconfig:"S3_SECRET"`
	S3URL    string `envconfig:"S3_URL"`
	S3Region string `envconfig:"S3_REGION" default:"eu-central-1"`
	S3Bucket string `envconfig:"S3_BUCKET"`
}

// Credential benennt ein Secret, das ein Handler zur Laufzeit benötigt.
type Credential string

const (
	CredentialLLM      Credential = "llm"
	CredentialJWT      Credential = "jwt"
	CredentialBrevo    Credential = "brevo"
	CredentialArchive  Credential = "archive"
	CredentialDatabase Credential = "database"
)

// DSN gibt den Data Source Name für die PostgreSQL-Verbindung zurück.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode)
}

// ArchiveEnabled meldet, ob ein S3-Ziel für Export-Archive konfiguriert ist.
func (c *Config) ArchiveEnabled() bool {
	return c.S3Key != "" && c.S3Secret != "" && c.S3URL != "" && c.S3Bucket != ""
}

// CredentialStatus liefert für die angefragten Credentials eine Presence-Map
// (z.B. {"hasXaiKey": false}) und ob alle vorhanden sind. Die Map wird
// unverändert als "details" an den Aufrufer zurückgegeben.
func (c *Config) CredentialStatus(required ...Credential) (map[string]bool, bool) {
	details := make(map[string]bool)
	for _, cred := range required {
		switch cred {
		case CredentialLLM:
			if strings.EqualFold(c.LLMProvider, "gemini") {
				details["hasGeminiKey"] = c.GeminiAPIKey != ""
			} else {
				details["hasXaiKey"] = c.XAIAPIKey != ""
			}
		case CredentialJWT:
			details["hasJwtSecret"] = c.JWTSecret != ""
		case CredentialBrevo:
			details["hasBrevoKey"] = c.BrevoAPIKey != ""
		case CredentialArchive:
			details["hasS3Key"] = c.S3Key != ""
			details["hasS3Secret"] = c.S3Secret != ""
			details["hasS3Url"] = c.S3URL != ""
			details["hasS3Bucket"] = c.S3Bucket != ""
		case CredentialDatabase:
			details["hasDatabaseHost"] = c.DBHost != ""
			details["hasDatabaseUser"] = c.DBUser != ""
		}
	}
	for _, ok := range details {
		if !ok {
			return details, false
		}
	}
	return details, true
}

// Load lädt die Konfiguration aus den Umgebungsvariablen.
func Load() (*Config, error) {
	_ = godotenv.Load()
	var c Config
	err := envconfig.Process("", &c)
	return &c, err
}
