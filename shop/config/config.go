// Package config is the skinshop configuration: the reusable core sections
// plus database, session, provider, payment and shop settings.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"

	coreconfig "github.com/m3rciful/skinshop/core/config"
	coredatabase "github.com/m3rciful/skinshop/core/database"
	"github.com/m3rciful/skinshop/shop/pricing"
)

// RedisConfig selects the session backend. An empty URL keeps sessions in memory.
type RedisConfig struct {
	URL    string        `yaml:"url" envconfig:"REDIS_URL" validate:"omitempty,url"`
	Prefix string        `yaml:"prefix" envconfig:"REDIS_PREFIX"`
	TTL    time.Duration `yaml:"ttl" envconfig:"REDIS_SESSION_TTL" validate:"gte=0"`
}

// Enabled reports whether a Redis URL is configured.
func (r RedisConfig) Enabled() bool { return strings.TrimSpace(r.URL) != "" }

// Options parses URL into go-redis options.
func (r RedisConfig) Options() (*redis.Options, error) {
	if !r.Enabled() {
		return nil, nil
	}
	return redis.ParseURL(r.URL)
}

// PaymentMethod is one payment provider.
type PaymentMethod struct {
	Name  string `yaml:"name" validate:"required,alphanum"`
	Label string `yaml:"label" validate:"required"`
	Token string `yaml:"token" validate:"required"`
}

// PaymentsConfig lists payment methods in display order.
type PaymentsConfig struct {
	Currency string          `yaml:"currency" envconfig:"PAYMENT_CURRENCY" validate:"required,len=3"`
	Methods  []PaymentMethod `yaml:"methods" ignored:"true" validate:"required,min=1,dive"`
	// Tokens overrides method tokens by name, e.g. PAYMENT_TOKENS=sber:xxx,paymaster:yyy.
	Tokens map[string]string `yaml:"-" envconfig:"PAYMENT_TOKENS"`
}

// ShopConfig holds texts and data sources of the shop.
type ShopConfig struct {
	SupportContact     string `yaml:"support_contact" envconfig:"SHOP_SUPPORT_CONTACT"`
	InvoiceDescription string `yaml:"invoice_description"`
	StartParameter     string `yaml:"start_parameter"`
	// SeedFile loads the catalog into an empty database when set.
	SeedFile string `yaml:"seed_file" envconfig:"SHOP_SEED_FILE"`
}

// MetricsConfig enables the Prometheus listener when Listen is set.
type MetricsConfig struct {
	Listen string `yaml:"listen" envconfig:"METRICS_LISTEN" validate:"omitempty,hostname_port"`
}

// Config is the full application configuration.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Database coredatabase.Config `yaml:"database"`
	Redis    RedisConfig         `yaml:"redis"`
	Pricing  pricing.Config      `yaml:"pricing"`
	Payments PaymentsConfig      `yaml:"payments"`
	Shop     ShopConfig          `yaml:"shop"`
	Metrics  MetricsConfig       `yaml:"metrics"`
}

// CoreConfig exposes the embedded core section.
func (c *Config) CoreConfig() *coreconfig.Config { return &c.Config }

// Load reads path, overlays the environment and validates the result.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.LoadInto(path, &cfg); err != nil {
		return nil, err
	}
	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize fills defaults, applies token overrides and validates cfg.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return errors.New("nil config")
	}
	if err := coreconfig.Normalize(&cfg.Config); err != nil {
		return err
	}

	cfg.Payments.Currency = strings.ToUpper(strings.TrimSpace(cfg.Payments.Currency))
	if cfg.Payments.Currency == "" {
		cfg.Payments.Currency = "RUB"
	}
	for i, m := range cfg.Payments.Methods {
		m.Name = strings.ToLower(strings.TrimSpace(m.Name))
		if tok, ok := cfg.Payments.Tokens[m.Name]; ok && tok != "" {
			m.Token = tok
		}
		cfg.Payments.Methods[i] = m
	}
	if cfg.Redis.Prefix == "" {
		cfg.Redis.Prefix = "skinshop:session:"
	}
	return validate(cfg)
}

// MethodNames returns payment method names in display order.
func (c *Config) MethodNames() []string {
	names := make([]string, len(c.Payments.Methods))
	for i, m := range c.Payments.Methods {
		names[i] = m.Name
	}
	return names
}

var validate = func() func(any) error {
	v := validator.New(validator.WithRequiredStructEnabled())
	return func(s any) error {
		err := v.Struct(s)
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fmt.Sprintf("%s: failed %q", strings.TrimPrefix(fe.Namespace(), "Config."), fe.Tag()))
		}
		return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
	}
}()
