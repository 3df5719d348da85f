package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sample = `
telegram:
  token: "123:abc"
  admin_ids: [1, 2]
logging:
  level: info
database:
  host: localhost
  port: "5432"
  user: shop
  name: skinshop
redis:
  url: redis://localhost:6379/0
pricing:
  graphql_url: https://wiki.cs.money/api/graphql
  image_base_url: https://img.example.com/data/images
  rate_url: https://www.amdoren.com/api/currency.php
  rate_api_key: key
  timeout: 5s
payments:
  currency: rub
  methods:
    - name: Sber
      label: "💳 Sber"
      token: yaml-sber
    - name: paymaster
      label: "💰 Paymaster"
      token: yaml-pm
shop:
  support_contact: "@support"
metrics:
  listen: ":9090"
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	t.Setenv("PAYMENT_TOKENS", "paymaster:env-pm")
	cfg, err := Load(writeConfig(t, sample))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.CoreConfig().Telegram.Token != "123:abc" || cfg.Telegram.RunMode != "longpoll" {
		t.Fatalf("core = %+v", cfg.Telegram)
	}
	if cfg.Payments.Currency != "RUB" {
		t.Fatalf("currency = %q", cfg.Payments.Currency)
	}
	if got := cfg.MethodNames(); len(got) != 2 || got[0] != "sber" || got[1] != "paymaster" {
		t.Fatalf("methods = %v", got)
	}
	if cfg.Payments.Methods[0].Token != "yaml-sber" || cfg.Payments.Methods[1].Token != "env-pm" {
		t.Fatalf("tokens = %+v", cfg.Payments.Methods)
	}
	if cfg.Pricing.Timeout.Seconds() != 5 {
		t.Fatalf("timeout = %v", cfg.Pricing.Timeout)
	}
	if cfg.Redis.Prefix != "skinshop:session:" || !cfg.Redis.Enabled() {
		t.Fatalf("redis = %+v", cfg.Redis)
	}
	opts, err := cfg.Redis.Options()
	if err != nil || opts.Addr != "localhost:6379" {
		t.Fatalf("redis options = %+v, %v", opts, err)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]struct {
		from, to string
		want     string
	}{
		"missing token":   {from: `token: yaml-pm`, to: `token: ""`, want: "Token"},
		"bad currency":    {from: `currency: rub`, to: `currency: rubles`, want: "Currency"},
		"bad graphql url": {from: `graphql_url: https://wiki.cs.money/api/graphql`, to: `graphql_url: not a url`, want: "GraphQLURL"},
		"no rate key":     {from: `rate_api_key: key`, to: `rate_api_key: ""`, want: "RateAPIKey"},
		"no db host":      {from: `host: localhost`, to: `host: ""`, want: "Host"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			body := strings.Replace(sample, tc.from, tc.to, 1)
			_, err := Load(writeConfig(t, body))
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("err = %v, want mention of %s", err, tc.want)
			}
		})
	}
}

func TestRedisDisabled(t *testing.T) {
	opts, err := RedisConfig{}.Options()
	if opts != nil || err != nil {
		t.Fatalf("Options = %v, %v", opts, err)
	}
}
