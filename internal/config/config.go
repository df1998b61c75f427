// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type ServerConfig struct {
	Port         int           `yaml:"port" env:"PORT"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

type LogConfig struct {
	Level    string `yaml:"level" env:"LOG_LEVEL"` // trace|debug|info|warn|error
	Format   string `yaml:"format"`                // json|console
	Sampling bool   `yaml:"sampling"`              // enable sampling in prod
}

type AdminConfig struct {
	APIKey       string        `yaml:"api_key" env:"ADMIN_API_KEY"`
	JWTSecret    string        `yaml:"jwt_secret" env:"ADMIN_JWT_SECRET"` // empty disables cookie login
	SessionTTL   time.Duration `yaml:"session_ttl"`
	SecureCookie bool          `yaml:"secure_cookie"`
}

type RedisConfig struct {
	URL        string        `yaml:"url" env:"REDIS_URL"`
	Password   string        `yaml:"password" env:"REDIS_PASSWORD"`
	DB         int           `yaml:"db"`
	SessionTTL time.Duration `yaml:"session_ttl"` // 0 keeps sessions until deleted
}

type RateLimitConfig struct {
	TurnsPerMinute int `yaml:"turns_per_minute"` // 0 disables
}

type ConversationConfig struct {
	Language       string `yaml:"language"`
	ResetOnFailure bool   `yaml:"reset_on_failure"`
}

type ProvisioningConfig struct {
	Timeout       time.Duration `yaml:"timeout"`        // 0 waits for the cloud API indefinitely
	MaxConcurrent int           `yaml:"max_concurrent"` // 0 runs every chain inline
	QueueSize     int           `yaml:"queue_size"`     // chains allowed to wait for a worker
}

type AzureConfig struct {
	TenantID       string `yaml:"tenant_id" env:"AZURE_TENANT_ID"`
	ClientID       string `yaml:"client_id" env:"AZURE_CLIENT_ID"`
	ClientSecret   string `yaml:"client_secret" env:"AZURE_CLIENT_SECRET"`
	SubscriptionID string `yaml:"subscription_id" env:"AZURE_SUBSCRIPTION_ID"`
}

type ImageConfig struct {
	Publisher string `yaml:"publisher"`
	Offer     string `yaml:"offer"`
	SKU       string `yaml:"sku"`
	Version   string `yaml:"version"`
}

type VMConfig struct {
	Size          string      `yaml:"size"`
	Image         ImageConfig `yaml:"image"`
	AdminUsername string      `yaml:"admin_username" env:"VM_ADMIN_USERNAME"`
	AdminPassword string      `yaml:"admin_password" env:"VM_ADMIN_PASSWORD"`
}

type CloudConfig struct {
	Provider     string      `yaml:"provider" env:"CLOUD_PROVIDER"` // azure | noop
	Location     string      `yaml:"location"`
	AddressSpace string      `yaml:"address_space"`
	SubnetName   string      `yaml:"subnet_name"`
	SubnetPrefix string      `yaml:"subnet_prefix"`
	VM           VMConfig    `yaml:"vm"`
	Azure        AzureConfig `yaml:"azure"`
}

type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Log          LogConfig          `yaml:"log"`
	Admin        AdminConfig        `yaml:"admin"`
	Redis        RedisConfig        `yaml:"redis"`
	RateLimit    RateLimitConfig    `yaml:"rate_limit"`
	Conversation ConversationConfig `yaml:"conversation"`
	Provisioning ProvisioningConfig `yaml:"provisioning"`
	Cloud        CloudConfig        `yaml:"cloud"`

	Runtime RuntimeConfig `yaml:"-"`
}

// LoadConfig reads the YAML file at path, applies environment overrides,
// fills defaults and validates the result. A missing file is allowed so the
// service can be configured from the environment alone.
func LoadConfig(path string, dev bool) (*Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.Runtime.Dev = dev
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 3978
	}
	if c.Server.ReadTimeout <= 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Admin.SessionTTL <= 0 {
		c.Admin.SessionTTL = 30 * time.Minute
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Conversation.Language == "" {
		c.Conversation.Language = "es"
	}
	if c.Provisioning.Timeout < 0 {
		c.Provisioning.Timeout = 0
	}
	if c.Provisioning.MaxConcurrent < 0 {
		c.Provisioning.MaxConcurrent = 0
	}
	if c.Cloud.Provider == "" {
		c.Cloud.Provider = "azure"
	}
	c.Cloud.Provider = strings.ToLower(c.Cloud.Provider)
	if c.Cloud.Location == "" {
		c.Cloud.Location = "eastus"
	}
	if c.Cloud.AddressSpace == "" {
		c.Cloud.AddressSpace = "10.0.0.0/16"
	}
	if c.Cloud.SubnetName == "" {
		c.Cloud.SubnetName = "default"
	}
	if c.Cloud.SubnetPrefix == "" {
		c.Cloud.SubnetPrefix = "10.0.0.0/24"
	}
	if c.Cloud.VM.Size == "" {
		c.Cloud.VM.Size = "Standard_DS1_v2"
	}
	if c.Cloud.VM.Image == (ImageConfig{}) {
		c.Cloud.VM.Image = ImageConfig{
			Publisher: "Canonical",
			Offer:     "UbuntuServer",
			SKU:       "18.04-LTS",
			Version:   "latest",
		}
	}
	if c.Cloud.VM.AdminUsername == "" {
		c.Cloud.VM.AdminUsername = "azureuser"
	}
}

// Validate checks the settings without which the service cannot start.
func (c *Config) Validate() error {
	if c.Redis.URL == "" {
		return errors.New("redis.url is required")
	}
	switch c.Cloud.Provider {
	case "noop":
		return nil
	case "azure":
	default:
		return fmt.Errorf("cloud.provider %q is not supported", c.Cloud.Provider)
	}
	az := c.Cloud.Azure
	if az.TenantID == "" || az.ClientID == "" || az.ClientSecret == "" {
		return errors.New("cloud.azure tenant_id, client_id and client_secret are required")
	}
	if az.SubscriptionID == "" {
		return errors.New("cloud.azure.subscription_id is required")
	}
	if c.Cloud.VM.AdminPassword == "" {
		return errors.New("cloud.vm.admin_password is required")
	}
	return nil
}
