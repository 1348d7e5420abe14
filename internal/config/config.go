// Package config provides configuration loading, validation, and defaults
// for the check-in bot and the community API.
package config

import (
	"time"

	"github.com/go-telegram/bot/models"
)

// Config holds every setting used by the two binaries. Sections that only
// one binary needs are tagged `validate:"-"` and checked by ValidateBot or
// ValidateAPI.
type Config struct {
	Logger    LoggerConfig    `mapstructure:"logger"    validate:"required"`
	AI        AIConfig        `mapstructure:"ai"        validate:"-"`
	Database  DatabaseConfig  `mapstructure:"database"  validate:"-"`
	Telegram  TelegramConfig  `mapstructure:"telegram"  validate:"-"`
	Scheduler SchedulerConfig `mapstructure:"scheduler" validate:"-"`
	Checkin   CheckinConfig   `mapstructure:"checkin"   validate:"-"`
	Messages  MessagesConfig  `mapstructure:"messages"  validate:"-"`
	HTTP      HTTPConfig      `mapstructure:"http"      validate:"required"`
	API       APIConfig       `mapstructure:"api"       validate:"-"`
	Mongo     MongoConfig     `mapstructure:"mongo"     validate:"-"`
	Redis     RedisConfig     `mapstructure:"redis"     validate:"-"`
	Auth      AuthConfig      `mapstructure:"auth"      validate:"-"`
	SMTP      SMTPConfig      `mapstructure:"smtp"      validate:"-"`
	Metrics   MetricsConfig   `mapstructure:"metrics"   validate:"required"`
}

// LoggerConfig controls the slog handler.
type LoggerConfig struct {
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// Telegram update delivery modes.
const (
	TelegramModePolling = "polling"
	TelegramModeWebhook = "webhook"
)

// TelegramConfig holds the bot token and update delivery mode.
type TelegramConfig struct {
	Token         string `mapstructure:"token"          validate:"required"`
	Mode          string `mapstructure:"mode"           validate:"required,oneof=polling webhook"`
	WebhookURL    string `mapstructure:"webhook_url"    validate:"required_if=Mode webhook,omitempty,url"`
	WebhookSecret string `mapstructure:"webhook_secret"`

	// BotInfo is filled at startup from getMe.
	BotInfo *models.User `mapstructure:"-" validate:"-"`
}

// AIConfig selects and tunes the LLM backend.
type AIConfig struct {
	Backend     string        `mapstructure:"backend"      validate:"required,oneof=openai gemini"`
	APIKey      string        `mapstructure:"api_key"      validate:"required"`
	BaseURL     string        `mapstructure:"base_url"     validate:"omitempty,url"`
	Model       string        `mapstructure:"model"        validate:"required"`
	Temperature float32       `mapstructure:"temperature"  validate:"min=0,max=2"`
	Timeout     time.Duration `mapstructure:"timeout"      validate:"min=1s,max=10m"`

	FollowUpPrompt      string `mapstructure:"follow_up_prompt"      validate:"required"`
	FollowUpMaxTokens   int    `mapstructure:"follow_up_max_tokens"  validate:"min=1"`
	EvaluationPrompt    string `mapstructure:"evaluation_prompt"     validate:"required"`
	EvaluationMaxTokens int    `mapstructure:"evaluation_max_tokens" validate:"min=1"`

	BreakerMaxFailures int           `mapstructure:"breaker_max_failures" validate:"min=1"`
	BreakerCooldown    time.Duration `mapstructure:"breaker_cooldown"     validate:"min=1s"`
}

// DatabaseConfig points at the bot's sqlite file.
type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// SchedulerConfig holds the timezone used for "today" and the cron tasks.
type SchedulerConfig struct {
	Timezone string                `mapstructure:"timezone" validate:"required,timezone"`
	Tasks    map[string]TaskConfig `mapstructure:"tasks"    validate:"dive"`
}

// TaskConfig enables a registered task and sets its cron expression.
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule" validate:"required_if=Enabled true"`
}

// CheckinConfig carries the conversation phrase pools and evaluation thresholds.
type CheckinConfig struct {
	Epoch                  string   `mapstructure:"epoch"                    validate:"required,datetime=2006-01-02"`
	DefaultQuestion        string   `mapstructure:"default_question"         validate:"required"`
	OpeningQuestions       []string `mapstructure:"opening_questions"        validate:"min=1,dive,required"`
	WeekendQuestions       []string `mapstructure:"weekend_questions"        validate:"dive,required"`
	Farewells              []string `mapstructure:"farewells"                validate:"min=1,dive,required"`
	GoodbyePhrases         []string `mapstructure:"goodbye_phrases"          validate:"min=1,dive,required"`
	MissedQuestion         string   `mapstructure:"missed_question"          validate:"required"`
	MissedAnswer           string   `mapstructure:"missed_answer"            validate:"required"`
	MinEvaluationDays      int      `mapstructure:"min_evaluation_days"      validate:"min=1"`
	MinEvaluationResponses int      `mapstructure:"min_evaluation_responses" validate:"min=1"`
}

// MessagesConfig holds user-facing bot texts.
type MessagesConfig struct {
	Welcome          string `mapstructure:"welcome"           validate:"required"`
	Help             string `mapstructure:"help"              validate:"required"`
	FollowUpError    string `mapstructure:"follow_up_error"   validate:"required"`
	FollowUpFallback string `mapstructure:"follow_up_fallback" validate:"required"`
	EvaluationError  string `mapstructure:"evaluation_error"  validate:"required"`
	UserNotFound     string `mapstructure:"user_not_found"    validate:"required"`
	NoResponses      string `mapstructure:"no_responses"      validate:"required"`
	NotEnoughData    string `mapstructure:"not_enough_data"   validate:"required"`
	InvalidRange     string `mapstructure:"invalid_range"     validate:"required"`
	Fetching         string `mapstructure:"fetching"          validate:"required"`
	SummaryTemplate  string `mapstructure:"summary_template"  validate:"required"`
	MissedNotice     string `mapstructure:"missed_notice"     validate:"required"`
}

// HTTPConfig configures the bot's health/webhook server and keep-alive target.
type HTTPConfig struct {
	Addr            string        `mapstructure:"addr"             validate:"required"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"min=1s"`
	BackendURL      string        `mapstructure:"backend_url"      validate:"omitempty,url"`
}

// APIConfig configures the community web API server.
type APIConfig struct {
	Addr           string        `mapstructure:"addr"            validate:"required"`
	AllowedOrigins []string      `mapstructure:"allowed_origins" validate:"min=1"`
	CookieSecure   bool          `mapstructure:"cookie_secure"`
	PageSize       int           `mapstructure:"page_size"       validate:"min=1,max=200"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" validate:"min=1s"`
}

// MongoConfig points at the document store used by the API.
type MongoConfig struct {
	URI            string        `mapstructure:"uri"             validate:"required"`
	Database       string        `mapstructure:"database"        validate:"required"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout" validate:"min=1s"`
}

// RedisConfig holds connection parameters for the OTP and token cache.
type RedisConfig struct {
	Addr          string        `mapstructure:"addr"           validate:"required"`
	Password      string        `mapstructure:"password"`
	DB            int           `mapstructure:"db"             validate:"min=0"`
	UseTLS        bool          `mapstructure:"use_tls"`
	RetryInterval time.Duration `mapstructure:"retry_interval" validate:"min=1s"`
}

// AuthConfig holds JWT secrets, token lifetimes and OTP settings.
type AuthConfig struct {
	AccessSecret  string        `mapstructure:"access_secret"  validate:"required,min=16"`
	RefreshSecret string        `mapstructure:"refresh_secret" validate:"required,min=16,nefield=AccessSecret"`
	AccessTTL     time.Duration `mapstructure:"access_ttl"     validate:"min=1m"`
	RefreshTTL    time.Duration `mapstructure:"refresh_ttl"    validate:"gtfield=AccessTTL"`
	OTPTTL        time.Duration `mapstructure:"otp_ttl"        validate:"min=30s"`
	BcryptCost    int           `mapstructure:"bcrypt_cost"    validate:"min=4,max=31"`
}

// SMTPConfig configures the outbound mailer.
type SMTPConfig struct {
	Host     string `mapstructure:"host"     validate:"required"`
	Port     int    `mapstructure:"port"     validate:"min=1,max=65535"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"     validate:"required,email"`
	TLS      string `mapstructure:"tls"      validate:"oneof=mandatory opportunistic none"`
}

// MetricsConfig sets the Prometheus namespace.
type MetricsConfig struct {
	Namespace string `mapstructure:"namespace" validate:"required"`
}
