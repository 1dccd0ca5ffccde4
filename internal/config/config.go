package config

import (
	"fmt"
	"github.com/ilyakaznacheev/cleanenv"
	"log"
	"sync"
	"time"
)

const (
	DriverMongo = "mongo"
	DriverMySQL = "mysql"
	DriverBolt  = "bolt"
)

type Listen struct {
	BindIp string `yaml:"bind_ip" env-default:"0.0.0.0"`
	Port   string `yaml:"port" env-default:"8080"`
}

type StorageConfig struct {
	Driver string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"bolt"`
}

type MongoConfig struct {
	Host     string `yaml:"host" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env-default:"27017"`
	User     string `yaml:"user" env-default:""`
	Password string `yaml:"password" env:"MONGO_PASSWORD" env-default:""`
	Database string `yaml:"database" env-default:"swagportal"`
}

type MySQLConfig struct {
	HostName string `yaml:"hostname" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env-default:"3306"`
	UserName string `yaml:"username" env-default:""`
	Password string `yaml:"password" env:"MYSQL_PASSWORD" env-default:""`
	Database string `yaml:"database" env-default:"swagportal"`
	Prefix   string `yaml:"prefix" env-default:""`
}

type BoltConfig struct {
	Path string `yaml:"path" env-default:"swagportal.db"`
}

type RedisConfig struct {
	URL     string        `yaml:"url" env:"REDIS_URL" env-default:""`
	LockTTL time.Duration `yaml:"lock_ttl" env-default:"30s"`
}

type AuthConfig struct {
	Secret   string        `yaml:"secret" env:"AUTH_SECRET" env-default:""`
	Issuer   string        `yaml:"issuer" env-default:"swagportal"`
	Audience string        `yaml:"audience" env-default:"swagportal-web"`
	TokenTTL time.Duration `yaml:"token_ttl" env-default:"24h"`
}

// AccessConfig is the login allow-list: any address in Domains, plus the explicit Emails
type AccessConfig struct {
	Domains []string `yaml:"domains" env-separator:","`
	Emails  []string `yaml:"emails" env-separator:","`
}

type ProductConfig struct {
	Id              string `yaml:"id" env-default:"new-hire-bundle"`
	Sku             string `yaml:"sku" env-default:"NHB-001"`
	Name            string `yaml:"name" env-default:"New Hire Bundle"`
	InitialQuantity int    `yaml:"initial_quantity" env-default:"0"`
}

type WebhookConfig struct {
	Secret string `yaml:"secret" env:"WEBHOOK_SECRET" env-default:""`
}

type SMTPConfig struct {
	Enabled    bool   `yaml:"enabled" env-default:"false"`
	Host       string `yaml:"host" env-default:""`
	Port       int    `yaml:"port" env-default:"587"`
	User       string `yaml:"user" env-default:""`
	Password   string `yaml:"password" env:"SMTP_PASSWORD" env-default:""`
	From       string `yaml:"from" env-default:""`
	AdminEmail string `yaml:"admin_email" env-default:""`
}

type TelegramConfig struct {
	Enabled   bool    `yaml:"enabled" env-default:"false"`
	ApiKey    string  `yaml:"api_key" env:"TELEGRAM_API_KEY" env-default:""`
	Operators []int64 `yaml:"operators"`
	MinLevel  string  `yaml:"min_level" env-default:"warn"`
}

type KafkaConfig struct {
	Enabled bool     `yaml:"enabled" env-default:"false"`
	Brokers []string `yaml:"brokers" env-separator:","`
	Topic   string   `yaml:"topic" env-default:"swagportal.orders"`
}

type PlacesConfig struct {
	ApiKey string `yaml:"api_key" env:"GOOGLE_MAPS_API_KEY" env-default:""`
}

type TracingConfig struct {
	Endpoint string `yaml:"endpoint" env:"OTEL_ENDPOINT" env-default:""`
}

type Config struct {
	Env      string         `yaml:"env" env-default:"local"`
	Listen   Listen         `yaml:"listen"`
	Storage  StorageConfig  `yaml:"storage"`
	Mongo    MongoConfig    `yaml:"mongo"`
	MySQL    MySQLConfig    `yaml:"mysql"`
	Bolt     BoltConfig     `yaml:"bolt"`
	Redis    RedisConfig    `yaml:"redis"`
	Auth     AuthConfig     `yaml:"auth"`
	Access   AccessConfig   `yaml:"access"`
	Product  ProductConfig  `yaml:"product"`
	Webhook  WebhookConfig  `yaml:"webhook"`
	SMTP     SMTPConfig     `yaml:"smtp"`
	Telegram TelegramConfig `yaml:"telegram"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Places   PlacesConfig   `yaml:"places"`
	Tracing  TracingConfig  `yaml:"tracing"`
}

var instance *Config
var once sync.Once

func MustLoad(path string) *Config {
	var err error
	once.Do(func() {
		instance = &Config{}
		if err = cleanenv.ReadConfig(path, instance); err != nil {
			desc, _ := cleanenv.GetDescription(instance, nil)
			err = fmt.Errorf("config: %s; %s", err, desc)
			instance = nil
			log.Fatal(err)
		}
		if err = instance.Validate(); err != nil {
			log.Fatal(err)
		}
	})
	return instance
}

// Validate rejects combinations the server cannot start with
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverMongo, DriverMySQL, DriverBolt:
	default:
		return fmt.Errorf("config: unknown storage driver %q", c.Storage.Driver)
	}
	if c.Auth.Secret == "" {
		return fmt.Errorf("config: auth.secret is required")
	}
	if c.Product.Id == "" {
		return fmt.Errorf("config: product.id is required")
	}
	if c.Product.InitialQuantity < 0 {
		return fmt.Errorf("config: product.initial_quantity must not be negative")
	}
	return nil
}
