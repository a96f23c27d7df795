package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/ykvlv/feedback-bot/internal/domain"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	BotToken      string        `envconfig:"BOT_TOKEN" required:"true" validate:"required"`
	ManagerChatID int64         `envconfig:"MANAGER_CHAT_ID" default:"0"` // 0 disables forwarding
	StorageURL    string        `envconfig:"STORAGE_URL" default:"sqlite://./data/feedback.db" validate:"required"`
	ScheduleTZ    string        `envconfig:"SCHEDULE_TZ" default:"Europe/Moscow" validate:"required,timezone"`
	WeekdayTime   string        `envconfig:"WEEKDAY_TIME" default:"20:00" validate:"clock"`
	WeekendTime   string        `envconfig:"WEEKEND_TIME" default:"18:00" validate:"clock"`
	RunMode       string        `envconfig:"RUN_MODE" default:"polling" validate:"oneof=polling webhook"`
	WebhookURL    string        `envconfig:"WEBHOOK_URL" validate:"required_if=RunMode webhook,omitempty,url"`
	HTTPAddr      string        `envconfig:"HTTP_ADDR" default:":8080" validate:"required"` // healthz + webhook
	SendTimeout   time.Duration `envconfig:"SEND_TIMEOUT" default:"10s" validate:"gt=0"`
	LogLevel      string        `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`
	LogFormat     string        `envconfig:"LOG_FORMAT" default:"json" validate:"oneof=json console"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("clock", func(fl validator.FieldLevel) bool {
		_, err := domain.ParseClock(fl.Field().String())
		return err == nil
	})
	return v
}

// Load reads environment variables into Config. Variables from the given dotenv
// files (".env" when none are given) are applied first if the files exist;
// the real environment wins over file values.
func Load(files ...string) (Config, error) {
	var cfg Config
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return cfg, fmt.Errorf("load %s: %w", f, err)
		}
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, err
	}
	if err := validate.Struct(cfg); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Location resolves ScheduleTZ.
func (c Config) Location() (*time.Location, error) {
	return domain.ValidateTZ(c.ScheduleTZ)
}

// Rules builds the weekday and weekend prompt rules from the configured times.
func (c Config) Rules() ([]domain.Rule, error) {
	wd, err := domain.ParseClock(c.WeekdayTime)
	if err != nil {
		return nil, fmt.Errorf("WEEKDAY_TIME: %w", err)
	}
	we, err := domain.ParseClock(c.WeekendTime)
	if err != nil {
		return nil, fmt.Errorf("WEEKEND_TIME: %w", err)
	}
	return []domain.Rule{domain.WeekdayRule(wd), domain.WeekendRule(we)}, nil
}
