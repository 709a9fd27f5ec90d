package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// TelegramConfig holds Telegram bot related settings.
type TelegramConfig struct {
	Token   string `yaml:"token" envconfig:"BOT_TOKEN"`
	AdminID int64  `yaml:"admin_id" envconfig:"TELEGRAM_ADMIN_ID"`
	RunMode string `yaml:"run_mode" envconfig:"TELEGRAM_RUN_MODE"`
	// LongPollTimeoutSeconds defines long polling timeout; 0 -> default
	LongPollTimeoutSeconds int `yaml:"longpoll_timeout_seconds" envconfig:"TELEGRAM_LONGPOLL_TIMEOUT_SECONDS"`
}

// WebhookConfig specifies webhook settings.
type WebhookConfig struct {
	URL    string `yaml:"url" envconfig:"WEBHOOK_URL"`
	Listen string `yaml:"listen" envconfig:"WEBHOOK_LISTEN"`
	Port   int    `yaml:"port" envconfig:"WEBHOOK_PORT"`
}

// LoggingConfig defines logging related configuration.
type LoggingConfig struct {
	Level       string `yaml:"level"`
	Format      string `yaml:"format"`
	KeysOrder   string `yaml:"keys_order"`
	DebugSample string `yaml:"debug_sample"`
	Dir         string `yaml:"dir"`
	BotFile     string `yaml:"bot_file"`
	// Profile indicates environment profile such as "debug" or "prod".
	Profile string `yaml:"profile"`
}

// SubmissionConfig controls the submission pipeline: destination channel,
// session expiry, collection ceilings, and the per-deployment mode policy.
type SubmissionConfig struct {
	// ChannelID is the destination channel, either "@username" or a -100… id.
	ChannelID            string `yaml:"channel_id" envconfig:"CHANNEL_ID"`
	TimeoutSeconds       int    `yaml:"timeout_seconds" envconfig:"SESSION_TIMEOUT_SECONDS"`
	SweepIntervalSeconds int    `yaml:"sweep_interval_seconds" envconfig:"SESSION_SWEEP_INTERVAL_SECONDS"`
	MaxTags              int    `yaml:"max_tags" envconfig:"MAX_TAGS"`
	MediaLimit           int    `yaml:"media_limit" envconfig:"MEDIA_LIMIT"`
	DocumentLimit        int    `yaml:"document_limit" envconfig:"DOCUMENT_LIMIT"`
	AttachedMediaLimit   int    `yaml:"attached_media_limit" envconfig:"ATTACHED_MEDIA_LIMIT"`
	// Mode fixes the submission kind per deployment: media, document or mixed
	// (mixed lets each user pick at the start of a session).
	Mode          string `yaml:"mode" envconfig:"SUBMISSION_MODE"`
	ShowSubmitter bool   `yaml:"show_submitter" envconfig:"SHOW_SUBMITTER"`
	NotifyOwner   bool   `yaml:"notify_owner" envconfig:"NOTIFY_OWNER"`
}

const (
	// RunModeWebhook selects webhook mode for Telegram updates.
	RunModeWebhook = "webhook"
	// RunModeLongpoll selects long-polling mode for Telegram updates.
	RunModeLongpoll = "longpoll"
)

const (
	// ModeMedia fixes every session to media collection.
	ModeMedia = "media"
	// ModeDocument fixes every session to document collection.
	ModeDocument = "document"
	// ModeMixed lets the user choose media or document per session.
	ModeMixed = "mixed"
)

const (
	// UpdateCallback identifies callback updates for rate limit exclusions.
	UpdateCallback = "callback"
	// UpdateMessage identifies message updates for rate limit exclusions.
	UpdateMessage = "message"
)

// RateLimitConfig holds settings for rate limiting.
// ExcludeUpdates accepts update types to bypass limiting:
// - "callback": Telegram callback button presses
// - "message": standard text messages
type RateLimitConfig struct {
	IntervalMS     int      `yaml:"interval_ms" envconfig:"RATE_LIMIT_INTERVAL_MS"`
	ExcludeUpdates []string `yaml:"exclude_updates" envconfig:"RATE_LIMIT_EXCLUDE_UPDATES"`
}

// Config aggregates the application configuration.
type Config struct {
	Telegram   TelegramConfig   `yaml:"telegram"`
	Webhook    WebhookConfig    `yaml:"webhook"`
	Logging    LoggingConfig    `yaml:"logging"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit"`
	Submission SubmissionConfig `yaml:"submission"`
}

// Load reads configuration from a YAML file and environment variables.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize performs basic validation of required configuration fields and adjusts defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}

	if cfg.Telegram.Token == "" {
		return fmt.Errorf("telegram token is required")
	}

	rm := strings.ToLower(strings.TrimSpace(cfg.Telegram.RunMode))
	if rm == "" {
		rm = RunModeLongpoll
	}
	if rm == "polling" { // accept alias
		rm = RunModeLongpoll
	}
	switch rm {
	case RunModeWebhook:
		if strings.TrimSpace(cfg.Webhook.URL) == "" {
			return fmt.Errorf("webhook.url is required when telegram.run_mode is 'webhook'")
		}
		if strings.TrimSpace(cfg.Webhook.Listen) == "" {
			return fmt.Errorf("webhook.listen is required when telegram.run_mode is 'webhook'")
		}
		if cfg.Webhook.Port <= 0 {
			return fmt.Errorf("webhook.port must be > 0 when telegram.run_mode is 'webhook'")
		}
	case RunModeLongpoll:
		if cfg.Telegram.LongPollTimeoutSeconds < 0 {
			return fmt.Errorf("telegram.longpoll_timeout_seconds must be >= 0")
		}
	default:
		return fmt.Errorf("invalid telegram.run_mode %q; allowed: webhook, longpoll", cfg.Telegram.RunMode)
	}
	cfg.Telegram.RunMode = rm

	if err := normalizeSubmission(&cfg.Submission); err != nil {
		return err
	}

	allowed := map[string]struct{}{
		UpdateCallback: {},
		UpdateMessage:  {},
	}
	for i, v := range cfg.RateLimit.ExcludeUpdates {
		key := strings.ToLower(strings.TrimSpace(v))
		if key == "" {
			continue
		}
		if _, ok := allowed[key]; !ok {
			return fmt.Errorf("invalid rate_limit.exclude_updates value %q; allowed: callback, message", v)
		}
		cfg.RateLimit.ExcludeUpdates[i] = key
	}
	return nil
}

func normalizeSubmission(sub *SubmissionConfig) error {
	if strings.TrimSpace(sub.ChannelID) == "" {
		return fmt.Errorf("submission.channel_id is required")
	}
	if sub.TimeoutSeconds <= 0 {
		sub.TimeoutSeconds = 300
	}
	if sub.SweepIntervalSeconds <= 0 {
		sub.SweepIntervalSeconds = 60
	}
	if sub.MaxTags <= 0 {
		sub.MaxTags = 30
	}
	if sub.MediaLimit <= 0 {
		sub.MediaLimit = 50
	}
	if sub.DocumentLimit <= 0 {
		sub.DocumentLimit = 10
	}
	if sub.AttachedMediaLimit <= 0 {
		sub.AttachedMediaLimit = 10
	}

	mode := strings.ToLower(strings.TrimSpace(sub.Mode))
	if mode == "" {
		mode = ModeMixed
	}
	switch mode {
	case ModeMedia, ModeDocument, ModeMixed:
	default:
		return fmt.Errorf("invalid submission.mode %q; allowed: media, document, mixed", sub.Mode)
	}
	sub.Mode = mode
	return nil
}
