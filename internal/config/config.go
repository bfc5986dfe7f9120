package config

import (
	"time"

	"github.com/seedplatform/control-interface/internal/logger"
)

// ServiceConfig locates one backing seed service.
type ServiceConfig struct {
	URL   string `mapstructure:"url" validate:"required,url"`
	Token string `mapstructure:"token"`
}

type AppConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port" validate:"required,min=1,max=65535"`
}

// ServicesConfig names every backing service the console talks to. The
// auth service issues tokens rather than requiring one, so its token
// field stays empty.
type ServicesConfig struct {
	Auth                ServiceConfig `mapstructure:"auth"`
	IdentityStore       ServiceConfig `mapstructure:"identity_store"`
	Hub                 ServiceConfig `mapstructure:"hub"`
	StageBasedMessaging ServiceConfig `mapstructure:"stage_based_messaging"`
	MessageSender       ServiceConfig `mapstructure:"message_sender"`
	Metrics             ServiceConfig `mapstructure:"metrics"`
}

type EmailConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

type SessionsConfig struct {
	Path string        `mapstructure:"path"`
	TTL  time.Duration `mapstructure:"ttl"`
}

type PagingConfig struct {
	PageSize int `mapstructure:"page_size" validate:"min=1"`
}

// Config is the whole application configuration. The logger section is
// validated by logger.New after its own defaults are applied, not here.
type Config struct {
	App      AppConfig           `mapstructure:"app"`
	Logger   logger.LoggerConfig `mapstructure:"logger" validate:"-"`
	Services ServicesConfig      `mapstructure:"services"`
	Email    EmailConfig         `mapstructure:"email"`
	Sessions SessionsConfig      `mapstructure:"sessions"`
	Paging   PagingConfig        `mapstructure:"paging"`
}

func (c *Config) setDefaults() {
	if c.App.Port == 0 {
		c.App.Port = 8000
	}
	if c.Sessions.Path == "" {
		c.Sessions.Path = "sessions.db"
	}
	if c.Sessions.TTL == 0 {
		c.Sessions.TTL = 12 * time.Hour
	}
	if c.Paging.PageSize == 0 {
		c.Paging.PageSize = 30
	}
	if c.Email.Port == 0 {
		c.Email.Port = 25
	}
}
