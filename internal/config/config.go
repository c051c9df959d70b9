// Package config описывает настройки сервиса и загружает их из YAML-файла
// с возможностью переопределения через переменные окружения.
package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config общая структура для хранения настроек
type Config struct {
	Env                     string          `yaml:"env" env:"ENV" env-default:"local"`
	StorageConnectionString string          `yaml:"storage_connection_string" env:"STORAGE_CONNECTION_STRING" env-required:"true"`
	MigrationsPath          string          `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"./migrations"`
	HTTPServer              HTTPServer      `yaml:"http_server"`
	RedisConnection         RedisConnection `yaml:"redis_connection"`
	Session                 Session         `yaml:"session"`
	PaymentGateway          PaymentGateway  `yaml:"payment_gateway"`
	RabbitMQ                RabbitMQ        `yaml:"rabbitmq"`
	RateLimit               RateLimit       `yaml:"rate_limit"`
	SMTP                    SMTP            `yaml:"smtp"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	Address     string        `yaml:"address" env:"HTTP_ADDRESS" env-default:":8080"`
	Timeout     time.Duration `yaml:"timeout" env-default:"10s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

// RedisConnection структура для настройки подключения к redis
type RedisConnection struct {
	Address     string        `yaml:"address" env:"REDIS_ADDRESS" env-default:"localhost:6379"`
	Password    string        `yaml:"password" env:"REDIS_PASSWORD"`
	User        string        `yaml:"user"`
	DB          int           `yaml:"db"`
	MaxRetries  int           `yaml:"max_retries"`
	DialTimeout time.Duration `yaml:"dial_timeout"`
	Timeout     time.Duration `yaml:"timeout"`
}

// Session настройки пользовательской сессии.
type Session struct {
	SecretKey  string        `yaml:"secret_key" env:"SESSION_SECRET_KEY" env-required:"true"`
	TTL        time.Duration `yaml:"ttl" env-default:"24h"`
	CookieName string        `yaml:"cookie_name" env-default:"session"`
	Secure     bool          `yaml:"secure"`
}

// PaymentGateway настройки REST API платёжного шлюза.
type PaymentGateway struct {
	BaseURL      string        `yaml:"base_url" env:"PAYMENT_GATEWAY_URL" env-default:"https://api-m.sandbox.paypal.com"`
	ClientID     string        `yaml:"client_id" env:"PAYMENT_GATEWAY_CLIENT_ID"`
	ClientSecret string        `yaml:"client_secret" env:"PAYMENT_GATEWAY_CLIENT_SECRET"`
	Currency     string        `yaml:"currency" env-default:"USD"`
	Timeout      time.Duration `yaml:"timeout" env-default:"15s"`
}

// RabbitMQ настройки публикации событий о покупках. Пустой URL отключает публикацию.
type RabbitMQ struct {
	URL        string        `yaml:"url" env:"RABBITMQ_URL"`
	Exchange   string        `yaml:"exchange" env-default:"course-market"`
	RoutingKey string        `yaml:"routing_key" env-default:"purchase.captured"`
	Queue      string        `yaml:"queue" env-default:"purchase.receipts"`
	Retries    int           `yaml:"retries" env-default:"5"`
	RetryDelay time.Duration `yaml:"retry_delay" env-default:"2s"`
}

// RateLimit ограничение частоты запросов к /login и /register.
type RateLimit struct {
	RPS   float64 `yaml:"rps" env-default:"1"`
	Burst int     `yaml:"burst" env-default:"5"`
}

// SMTP почтовый сервер для отправки чеков о покупке.
type SMTP struct {
	Host     string `yaml:"host" env:"SMTP_HOST"`
	Port     string `yaml:"port" env:"SMTP_PORT" env-default:"587"`
	User     string `yaml:"user" env:"SMTP_USER"`
	Password string `yaml:"password" env:"SMTP_PASSWORD"`
	From     string `yaml:"from" env:"SMTP_FROM"`
}

// Load читает конфиг по указанному пути.
func Load(configPath string) (*Config, error) {
	const op = "config.Load"

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s: file %s does not exist", op, configPath)
	}
	var cfg Config
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &cfg, nil
}

// MustLoad загружает конфиг из файла, указанного в CONFIG_PATH, и завершает процесс при ошибке.
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return cfg
}

// String печатает конфиг без секретов.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"HTTPServer:\n"+
			"  Address: %s\n"+
			"  Timeout: %s\n"+
			"  IdleTimeout: %s\n"+
			"Redis:\n"+
			"  Addr: %s\n"+
			"  DB: %d\n"+
			"Session:\n"+
			"  TTL: %s\n"+
			"  CookieName: %s\n"+
			"PaymentGateway:\n"+
			"  BaseURL: %s\n"+
			"  Currency: %s\n"+
			"RabbitMQ enabled: %t\n",
		c.Env,
		c.HTTPServer.Address,
		c.HTTPServer.Timeout,
		c.HTTPServer.IdleTimeout,
		c.RedisConnection.Address,
		c.RedisConnection.DB,
		c.Session.TTL,
		c.Session.CookieName,
		c.PaymentGateway.BaseURL,
		c.PaymentGateway.Currency,
		c.RabbitMQ.URL != "",
	)
}
