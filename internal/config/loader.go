package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// ErrConfiguration wraps every loading or validation failure.
var ErrConfiguration = errors.New("configuration error")

// EnvPrefix is prepended to every environment override, e.g. VIREVO_TELEGRAM_TOKEN.
const EnvPrefix = "VIREVO"

// legacyEnv maps config keys to the bare environment names used by older deployments.
var legacyEnv = map[string]string{
	"telegram.token":      "TELEGRAM_BOT_TOKEN",
	"ai.api_key":          "GROQ_API_KEY",
	"http.backend_url":    "BACKEND_URL",
	"mongo.uri":           "MONGO_URI",
	"redis.password":      "REDIS_PASSWORD",
	"auth.access_secret":  "JWT_ACCESS_SECRET",
	"auth.refresh_secret": "JWT_REFRESH_SECRET",
	"smtp.username":       "EMAIL_USER",
	"smtp.password":       "EMAIL_PASS",
}

// LoadConfig loads configuration in this order:
// 1. Default values
// 2. The YAML file at path (optional, skipped when missing)
// 3. VIREVO_* and legacy environment variables
//
// Only sections shared by both binaries are validated here; call
// ValidateBot or ValidateAPI for the rest.
func LoadConfig(path string) (*Config, error) {
	v := newViper()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("%w: failed to read config file %s: %w", ErrConfiguration, path, err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %w", ErrConfiguration, err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	return cfg, nil
}

// Default returns the built-in configuration without reading files or the environment.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		panic(fmt.Sprintf("invalid built-in defaults: %v", err))
	}
	return cfg
}

// ValidateBot checks the sections the Telegram bot needs.
func (c *Config) ValidateBot() error {
	return validateSections(c.Telegram, c.AI, c.Database, c.Scheduler, c.Checkin, c.Messages)
}

// ValidateAPI checks the sections the web API needs.
func (c *Config) ValidateAPI() error {
	return validateSections(c.API, c.Mongo, c.Redis, c.Auth, c.SMTP)
}

// Location returns the scheduler timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Scheduler.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func validateSections(sections ...any) error {
	validate := validator.New()
	for _, s := range sections {
		if err := validate.Struct(s); err != nil {
			return fmt.Errorf("%w: %w", ErrConfiguration, err)
		}
	}
	return nil
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, env := range legacyEnv {
		// BindEnv only errors when called without a key.
		_ = v.BindEnv(key, EnvPrefix+"_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env)
	}
	return v
}

// setDefaults registers every key so AutomaticEnv can override it during Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", DefaultLogLevel)
	v.SetDefault("logger.json", true)

	v.SetDefault("ai.backend", DefaultAIBackend)
	v.SetDefault("ai.api_key", "")
	v.SetDefault("ai.base_url", DefaultAIBaseURL)
	v.SetDefault("ai.model", DefaultAIModel)
	v.SetDefault("ai.temperature", DefaultAITemperature)
	v.SetDefault("ai.timeout", DefaultAITimeout)
	v.SetDefault("ai.follow_up_prompt", DefaultFollowUpPrompt)
	v.SetDefault("ai.follow_up_max_tokens", DefaultAIFollowUpMaxTokens)
	v.SetDefault("ai.evaluation_prompt", DefaultEvaluationPrompt)
	v.SetDefault("ai.evaluation_max_tokens", DefaultAIEvaluationMaxTokens)
	v.SetDefault("ai.breaker_max_failures", DefaultAIBreakerMaxFailures)
	v.SetDefault("ai.breaker_cooldown", DefaultAIBreakerCooldown)

	v.SetDefault("database.path", DefaultDBPath)

	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.mode", DefaultTelegramMode)
	v.SetDefault("telegram.webhook_url", "")
	v.SetDefault("telegram.webhook_secret", "")

	v.SetDefault("scheduler.timezone", DefaultTimezone)
	for name, task := range DefaultTasks {
		v.SetDefault("scheduler.tasks."+name+".enabled", task.Enabled)
		v.SetDefault("scheduler.tasks."+name+".schedule", task.Schedule)
	}

	v.SetDefault("checkin.epoch", DefaultCheckinEpoch)
	v.SetDefault("checkin.default_question", DefaultQuestion)
	v.SetDefault("checkin.opening_questions", DefaultOpeningQuestions)
	v.SetDefault("checkin.weekend_questions", DefaultWeekendQuestions)
	v.SetDefault("checkin.farewells", DefaultFarewells)
	v.SetDefault("checkin.goodbye_phrases", DefaultGoodbyePhrases)
	v.SetDefault("checkin.missed_question", DefaultMissedQuestion)
	v.SetDefault("checkin.missed_answer", DefaultMissedAnswer)
	v.SetDefault("checkin.min_evaluation_days", DefaultMinEvaluationDays)
	v.SetDefault("checkin.min_evaluation_responses", DefaultMinEvaluationResponses)

	v.SetDefault("messages.welcome", DefaultMessages.Welcome)
	v.SetDefault("messages.help", DefaultMessages.Help)
	v.SetDefault("messages.follow_up_error", DefaultMessages.FollowUpError)
	v.SetDefault("messages.follow_up_fallback", DefaultMessages.FollowUpFallback)
	v.SetDefault("messages.evaluation_error", DefaultMessages.EvaluationError)
	v.SetDefault("messages.user_not_found", DefaultMessages.UserNotFound)
	v.SetDefault("messages.no_responses", DefaultMessages.NoResponses)
	v.SetDefault("messages.not_enough_data", DefaultMessages.NotEnoughData)
	v.SetDefault("messages.invalid_range", DefaultMessages.InvalidRange)
	v.SetDefault("messages.fetching", DefaultMessages.Fetching)
	v.SetDefault("messages.summary_template", DefaultMessages.SummaryTemplate)
	v.SetDefault("messages.missed_notice", DefaultMessages.MissedNotice)

	v.SetDefault("http.addr", DefaultHTTPAddr)
	v.SetDefault("http.shutdown_timeout", DefaultShutdownTimeout)
	v.SetDefault("http.backend_url", "")

	v.SetDefault("api.addr", DefaultAPIAddr)
	v.SetDefault("api.allowed_origins", []string{"http://localhost:5173"})
	v.SetDefault("api.cookie_secure", false)
	v.SetDefault("api.page_size", DefaultAPIPageSize)
	v.SetDefault("api.request_timeout", DefaultAPIRequestTimeout)

	v.SetDefault("mongo.uri", "")
	v.SetDefault("mongo.database", DefaultMongoDatabase)
	v.SetDefault("mongo.connect_timeout", DefaultMongoConnectTimeout)

	v.SetDefault("redis.addr", DefaultRedisAddr)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.use_tls", false)
	v.SetDefault("redis.retry_interval", DefaultRedisRetryInterval)

	v.SetDefault("auth.access_secret", "")
	v.SetDefault("auth.refresh_secret", "")
	v.SetDefault("auth.access_ttl", DefaultAccessTTL)
	v.SetDefault("auth.refresh_ttl", DefaultRefreshTTL)
	v.SetDefault("auth.otp_ttl", DefaultOTPTTL)
	v.SetDefault("auth.bcrypt_cost", DefaultBcryptCost)

	v.SetDefault("smtp.host", "")
	v.SetDefault("smtp.port", DefaultSMTPPort)
	v.SetDefault("smtp.username", "")
	v.SetDefault("smtp.password", "")
	v.SetDefault("smtp.from", "")
	v.SetDefault("smtp.tls", DefaultSMTPTLS)

	v.SetDefault("metrics.namespace", DefaultMetricsNamespace)
}
