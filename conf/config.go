package conf

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"

	"github.com/go-playground/validator/v10"
)

var (
	configValidator = newConfigValidator()
	numberRegex     = regexp.MustCompile(`^\d+$`)
)

type Config struct {
	HTTPServConf HttpServConf `json:"httpServer" validate:"required"`
	GitHubConf   GitHubConf   `json:"github" validate:"required"`
	SlackConf    SlackConf    `json:"slack" validate:"required"`
	CacheConf    CacheConf    `json:"cache" validate:"required"`
	TradeConf    TradeConf    `json:"trade" validate:"required"`
}

type HttpServConf struct {
	Host    string `json:"host" validate:"required"`
	Port    string `json:"port" validate:"required,is-number"`
	BaseURL string `json:"baseURL"`
}

// GetAddress возвращает строку host:port для запуска HTTP-сервера.
func (s *HttpServConf) GetAddress() string {
	return fmt.Sprintf("%s:%s", s.Host, s.Port)
}

type GitHubConf struct {
	Token         string `json:"token" validate:"required"`
	WebhookSecret string `json:"webhookSecret" validate:"required"`
}

type SlackConf struct {
	Token     string `json:"token" validate:"required"`
	BotName   string `json:"botName"`
	IconEmoji string `json:"iconEmoji"`
}

type CacheConf struct {
	// Backend выбирает хранилище снапшота: memory либо postgres.
	Backend  string `json:"backend" validate:"required,oneof=memory postgres"`
	Postgres DbConf `json:"postgres"`
}

type DbConf struct {
	Host     string `json:"host"`
	Port     string `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type TradeConf struct {
	// ReviewLabel — метка, делающая Pull Request обмениваемым.
	ReviewLabel string `json:"reviewLabel" validate:"required"`
	// DefaultOwner — организация, для которой строится холодный кеш.
	DefaultOwner   string `json:"defaultOwner" validate:"required"`
	MaxSuggestions int    `json:"maxSuggestions" validate:"min=1"`
}

// MustLoad читает файл конфигурации, применяет значения из окружения и валидирует структуру.
func MustLoad(path string) *Config {
	data, err := os.ReadFile(path)
	if err != nil {
		panic("could not read config file: " + err.Error())
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		panic("could not parse config file: " + err.Error())
	}

	applyEnvOverrides(&cfg)

	if cfg.TradeConf.MaxSuggestions == 0 {
		cfg.TradeConf.MaxSuggestions = 5
	}

	if err := configValidator.Struct(cfg); err != nil {
		panic("invalid config: " + err.Error())
	}

	if cfg.CacheConf.Backend == "postgres" {
		if err := validatePostgresConf(&cfg.CacheConf.Postgres); err != nil {
			panic("invalid config: " + err.Error())
		}
	}

	return &cfg
}

// applyEnvOverrides подменяет поля конфигурации значениями из переменных окружения.
func applyEnvOverrides(cfg *Config) {
	override := func(key string, target *string) {
		if val := os.Getenv(key); val != "" {
			*target = val
		}
	}

	override("HTTP_HOST", &cfg.HTTPServConf.Host)
	override("HTTP_PORT", &cfg.HTTPServConf.Port)
	override("HTTP_BASE_URL", &cfg.HTTPServConf.BaseURL)

	override("GITHUB_API_TOKEN", &cfg.GitHubConf.Token)
	override("GITHUB_WEBHOOK_SECRET", &cfg.GitHubConf.WebhookSecret)

	override("SLACK_API_TOKEN", &cfg.SlackConf.Token)
	override("SLACK_BOT_NAME", &cfg.SlackConf.BotName)
	override("SLACK_ICON_EMOJI", &cfg.SlackConf.IconEmoji)

	override("CACHE_BACKEND", &cfg.CacheConf.Backend)
	override("DB_HOST", &cfg.CacheConf.Postgres.Host)
	override("DB_PORT", &cfg.CacheConf.Postgres.Port)
	override("DB_USER", &cfg.CacheConf.Postgres.User)
	override("DB_PASSWORD", &cfg.CacheConf.Postgres.Password)
	override("DB_NAME", &cfg.CacheConf.Postgres.Name)

	override("REVIEW_LABEL", &cfg.TradeConf.ReviewLabel)
	override("DEFAULT_OWNER", &cfg.TradeConf.DefaultOwner)
}

// validatePostgresConf проверяет поля подключения, когда выбран backend postgres.
func validatePostgresConf(db *DbConf) error {
	if db.Host == "" || db.User == "" || db.Password == "" || db.Name == "" {
		return fmt.Errorf("postgres backend requires host, user, password and name")
	}
	if !numberRegex.MatchString(db.Port) {
		return fmt.Errorf("postgres port must be numeric, got %q", db.Port)
	}
	return nil
}

// newConfigValidator настраивает валидатор и регистрирует пользовательские проверки.
func newConfigValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("is-number", func(fl validator.FieldLevel) bool {
		return numberRegex.MatchString(fl.Field().String())
	}); err != nil {
		panic("failed to register is-number validation: " + err.Error())
	}
	return v
}
