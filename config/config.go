// Package config provides configuration management for the Robokassa
// gateway integration. Configuration can be loaded from YAML files and
// overridden by environment variables.
package config

import (
	"fmt"
	"sync"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for the gateway client and the merchant
// notification server. Values can be set via YAML configuration file or
// environment variables. Environment variables take precedence over YAML
// values.
type Config struct {
	IsDebug    bool  `yaml:"is_debug" env:"DEBUG" env-default:"false"`
	LogRecords int64 `yaml:"log_records" env:"LOG_RECORDS" env-default:"0"`
	Listen     struct {
		BindIP   string `yaml:"bind_ip" env:"BIND_IP" env-default:"0.0.0.0"`
		Port     string `yaml:"port" env:"PORT" env-default:"5200"`
		TLS      bool   `yaml:"tls_enabled" env:"TLS_ENABLED" env-default:"false"`
		CertFile string `yaml:"cert_file" env:"TLS_CERT_FILE" env-default:""`
		KeyFile  string `yaml:"key_file" env:"TLS_KEY_FILE" env-default:""`
	} `yaml:"listen"`
	Mongo struct {
		Enabled  bool   `yaml:"enabled" env:"MONGO_ENABLED" env-default:"false"`
		Host     string `yaml:"host" env:"MONGO_HOST" env-default:"127.0.0.1"`
		Port     string `yaml:"port" env:"MONGO_PORT" env-default:"27017"`
		User     string `yaml:"user" env:"MONGO_USER" env-default:"admin"`
		Password string `yaml:"password" env:"MONGO_PASSWORD" env-default:"pass"`
		Database string `yaml:"database" env:"MONGO_DATABASE" env-default:""`
	} `yaml:"mongo"`
	Merchant struct {
		// Merchant identifier assigned by the gateway
		Login string `yaml:"login" env:"MERCHANT_LOGIN" env-default:""`
		// Password #1 signs outbound requests and SuccessURL redirects
		Password1 string `yaml:"password1" env:"MERCHANT_PASSWORD1" env-default:""`
		// Password #2 verifies ResultURL notifications
		Password2 string `yaml:"password2" env:"MERCHANT_PASSWORD2" env-default:""`
		// Password #3 is required only for the token-based refund API
		Password3 string `yaml:"password3" env:"MERCHANT_PASSWORD3" env-default:""`
		// Default digest algorithm: MD5, SHA256 or SHA512
		Algorithm string `yaml:"algorithm" env:"MERCHANT_ALGORITHM" env-default:"MD5"`
		// Test mode adds IsTest=1 to payment links
		IsTest bool `yaml:"is_test" env:"MERCHANT_IS_TEST" env-default:"false"`
		// Per-call timeout for gateway requests, seconds
		RequestTimeout int `yaml:"request_timeout" env:"MERCHANT_REQUEST_TIMEOUT" env-default:"30"`

		PaymentURL  string `yaml:"payment_url" env:"MERCHANT_PAYMENT_URL" env-default:"https://auth.robokassa.ru/Merchant/Index.aspx"`
		InvoiceURL  string `yaml:"invoice_url" env:"MERCHANT_INVOICE_URL" env-default:"https://auth.robokassa.ru/Merchant/Invoice/Create"`
		RefundURL   string `yaml:"refund_url" env:"MERCHANT_REFUND_URL" env-default:"https://auth.robokassa.ru/Merchant/Refund"`
		RefundV2URL string `yaml:"refund_v2_url" env:"MERCHANT_REFUND_V2_URL" env-default:"https://services.robokassa.ru/RefundService"`
	} `yaml:"merchant"`
}

var instance *Config
var once sync.Once

// GetConfig loads configuration from the specified YAML file path.
// Configuration values can be overridden by environment variables.
// This function uses a singleton pattern and only loads the config once.
//
// Example:
//
//	cfg, err := config.GetConfig("config.yml")
//	if err != nil {
//	    log.Fatal(err)
//	}
func GetConfig(path string) (*Config, error) {
	var err error
	once.Do(func() {
		instance = &Config{}
		if err = cleanenv.ReadConfig(path, instance); err != nil {
			desc, _ := cleanenv.GetDescription(instance, nil)
			err = fmt.Errorf("load config: %w; %s", err, desc)
			instance = nil
		}
	})
	return instance, err
}
