package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/Veraticus/sentinel/internal/common"
	"github.com/Veraticus/sentinel/internal/ledger"
	"github.com/Veraticus/sentinel/internal/mail"
)

// Default values for keys that are commonly left unset.
const (
	DefaultDatabasePath = "$HOME/.local/share/sentinel/sentinel.db"
	DefaultFetchTimeout = 25 * time.Second
	DefaultLookback     = 7 * 24 * time.Hour
)

// Config is the full application configuration.
type Config struct {
	Database struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"database"`
	Logging struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"logging"`
	Classifier struct {
		TablesFile string `mapstructure:"tables_file"`
	} `mapstructure:"classifier"`
	SMTP     mail.SMTPConfig      `mapstructure:"smtp"`
	Mail     MailConfig           `mapstructure:"mail"`
	Channels []mail.ChannelConfig `mapstructure:"channels"`
	Ledger   struct {
		Capacity int `mapstructure:"capacity"`
	} `mapstructure:"ledger"`
}

// MailConfig holds the recipient and fetch settings.
type MailConfig struct {
	Recipient    string        `mapstructure:"recipient"`
	OwnAddresses []string      `mapstructure:"own_addresses"`
	FetchTimeout time.Duration `mapstructure:"fetch_timeout"`
	Lookback     time.Duration `mapstructure:"lookback"`
	FetchLimit   int           `mapstructure:"fetch_limit"`
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("database.path", DefaultDatabasePath)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("mail.fetch_timeout", DefaultFetchTimeout)
	v.SetDefault("mail.lookback", DefaultLookback)
	v.SetDefault("mail.fetch_limit", 200)
	v.SetDefault("ledger.capacity", ledger.DefaultCapacity)
}

// Load decodes v into a Config and expands paths.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrInvalidConfig, err)
	}

	cfg.Database.Path = ExpandPath(cfg.Database.Path)
	cfg.Classifier.TablesFile = ExpandPath(cfg.Classifier.TablesFile)
	cfg.Mail.Recipient = strings.ToLower(strings.TrimSpace(cfg.Mail.Recipient))

	if cfg.Ledger.Capacity <= 0 {
		return nil, fmt.Errorf("%w: ledger.capacity must be positive", common.ErrInvalidConfig)
	}
	if cfg.Mail.FetchTimeout <= 0 {
		cfg.Mail.FetchTimeout = DefaultFetchTimeout
	}

	return &cfg, nil
}

// ExcludedSenders returns the addresses whose mail is never a receipt: the
// human recipient and the system's own outbound addresses.
func (c *Config) ExcludedSenders() []string {
	var out []string
	if c.Mail.Recipient != "" {
		out = append(out, c.Mail.Recipient)
	}
	for _, a := range c.Mail.OwnAddresses {
		if a = strings.ToLower(strings.TrimSpace(a)); a != "" {
			out = append(out, a)
		}
	}
	if from := strings.ToLower(strings.TrimSpace(c.SMTP.From)); from != "" {
		out = append(out, from)
	}
	return out
}

// RequireMail checks the settings needed to fetch and forward mail.
func (c *Config) RequireMail() error {
	if c.Mail.Recipient == "" {
		return fmt.Errorf("%w: mail.recipient", common.ErrMissingConfig)
	}
	if len(c.Channels) == 0 {
		return fmt.Errorf("%w: at least one entry in channels", common.ErrMissingConfig)
	}
	return nil
}

// SecretLookup resolves a password by keyring key.
type SecretLookup func(key string) (string, error)

// ResolveSecrets fills in empty channel and SMTP passwords from lookup.
func (c *Config) ResolveSecrets(lookup SecretLookup, imapKey, smtpKey func(string) string) error {
	for i := range c.Channels {
		ch := &c.Channels[i]
		if ch.Password != "" || ch.Username == "" {
			continue
		}
		secret, err := lookup(imapKey(ch.Username))
		if err != nil {
			return fmt.Errorf("password for channel %q: %w", ch.Name, err)
		}
		ch.Password = secret
	}

	if c.SMTP.Password == "" && c.SMTP.Username != "" {
		secret, err := lookup(smtpKey(c.SMTP.Username))
		if err != nil {
			return fmt.Errorf("password for smtp: %w", err)
		}
		c.SMTP.Password = secret
	}
	return nil
}

// LoadEnvFile loads KEY=value pairs from path into the environment. A
// missing file is not an error.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(ExpandPath(path)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}
