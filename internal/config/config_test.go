package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
env: dev
storage:
  driver: mysql
auth:
  secret: s3cret
  token_ttl: 2h
access:
  domains: ["acme.com", "acme.io"]
  emails: ["contractor@gmail.com"]
product:
  id: bundle
  initial_quantity: 250
telegram:
  operators: [1001, 1002]
redis:
  lock_ttl: 5s
`

func load(t *testing.T, body string) *Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))
	var conf Config
	require.NoError(t, cleanenv.ReadConfig(path, &conf))
	return &conf
}

func TestReadConfig(t *testing.T) {
	conf := load(t, sample)

	assert.Equal(t, "dev", conf.Env)
	assert.Equal(t, DriverMySQL, conf.Storage.Driver)
	assert.Equal(t, 2*time.Hour, conf.Auth.TokenTTL)
	assert.Equal(t, []string{"acme.com", "acme.io"}, conf.Access.Domains)
	assert.Equal(t, []int64{1001, 1002}, conf.Telegram.Operators)
	assert.Equal(t, 250, conf.Product.InitialQuantity)
	assert.Equal(t, 5*time.Second, conf.Redis.LockTTL)

	// defaults
	assert.Equal(t, "8080", conf.Listen.Port)
	assert.Equal(t, "warn", conf.Telegram.MinLevel)
	assert.Equal(t, "swagportal.orders", conf.Kafka.Topic)
	assert.NoError(t, conf.Validate())
}

func TestValidate(t *testing.T) {
	tests := map[string]func(c *Config){
		"unknown driver": func(c *Config) { c.Storage.Driver = "sqlite" },
		"no secret":      func(c *Config) { c.Auth.Secret = "" },
		"no product":     func(c *Config) { c.Product.Id = "" },
		"negative stock": func(c *Config) { c.Product.InitialQuantity = -1 },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			conf := load(t, sample)
			mutate(conf)
			assert.Error(t, conf.Validate())
		})
	}
}
