package config

import (
	"playlink/internal/repository"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Repo repository.Config `envPrefix:"REPO_"`

	DiscordToken string `env:"DISCORD_TOKEN" envDefault:""`
	GuildID      string `env:"DISCORD_GUILD_ID" envDefault:""`

	OwnerUserID    string   `env:"OWNER_USER_ID" envDefault:""`
	SupportUserIDs []string `env:"SUPPORT_USER_IDS" envSeparator:"," envDefault:""`

	AuditWebhookURL string `env:"AUDIT_WEBHOOK_URL" envDefault:""`

	IngressAddr   string `env:"INGRESS_ADDR" envDefault:":8080"`
	IngressAPIKey string `env:"INGRESS_API_KEY" envDefault:""`

	StoreBackend string `env:"STORE_BACKEND" envDefault:"postgres"`
	StoreFile    string `env:"STORE_FILE" envDefault:"links.json"`

	LogLevel string `env:"LOGGER_LEVEL" envDefault:"debug"`
}

func ReadEnvConfig(cfg *Config) error {
	return env.Parse(cfg)
}
