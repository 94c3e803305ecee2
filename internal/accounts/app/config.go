package app

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is populated from the environment. BaseURL is what mailed links
// are built on and has no sane default outside development.
type Config struct {
	DatabaseFile string `env:"ACCOUNTS_DATABASE_FILE" envDefault:"accounts.db"`
	BaseURL      string `env:"ACCOUNTS_BASE_URL" envDefault:"http://localhost:8080"`

	SessionTTL time.Duration `env:"ACCOUNTS_SESSION_TTL" envDefault:"720h"`
	ResetTTL   time.Duration `env:"ACCOUNTS_RESET_TTL" envDefault:"10m"`
	InviteTTL  time.Duration `env:"ACCOUNTS_INVITE_TTL" envDefault:"168h"`

	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"465"`
	SMTPSender   string `env:"SMTP_SENDER"`
	SMTPPassword string `env:"SMTP_PASSWORD"`

	Env                 string        `env:"ENV" envDefault:"dev"`
	LogLevel            string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat           string        `env:"LOG_FORMAT" envDefault:"json"`
	Port                int           `env:"PORT" envDefault:"8080"`
	ShutdownGracePeriod time.Duration `env:"SHUTDOWN_GRACE_PERIOD" envDefault:"10s"`
}

// MailConfigured reports whether SMTP delivery can be used. Without it the
// service logs outgoing mail instead, which is the development default.
func (c Config) MailConfigured() bool {
	return c.SMTPHost != "" && c.SMTPSender != ""
}

func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse environment: %w", err)
	}
	return cfg, nil
}
