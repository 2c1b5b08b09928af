package config

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/CodyM0RGAN/berrys-resilience/cache"
	"github.com/CodyM0RGAN/berrys-resilience/guard"
	"github.com/CodyM0RGAN/berrys-resilience/logger"
	"github.com/CodyM0RGAN/berrys-resilience/ratelimit"
	"github.com/CodyM0RGAN/berrys-resilience/redis"
	"github.com/CodyM0RGAN/berrys-resilience/resilience"
)

// Config is the full toolkit configuration. Services embed or load it
// alongside their own settings.
type Config struct {
	Name        string `yaml:"name" mapstructure:"name" validate:"required"`
	Environment string `yaml:"environment" mapstructure:"environment" validate:"oneof=development staging production"`
	Debug       bool   `yaml:"debug" mapstructure:"debug"`

	Logging logger.Config `yaml:"logging" mapstructure:"logging"`
	Redis   redis.Config  `yaml:"redis" mapstructure:"redis"`

	Retry     resilience.Policy        `yaml:"retry" mapstructure:"retry"`
	Breaker   resilience.BreakerConfig `yaml:"breaker" mapstructure:"breaker"`
	RateLimit ratelimit.Config         `yaml:"rate_limit" mapstructure:"rate_limit"`
	Cache     cache.Config             `yaml:"cache" mapstructure:"cache"`

	// Guards holds per-dependency overrides keyed by dependency name.
	// Dependencies without an entry use the top-level Retry and Breaker.
	Guards map[string]guard.Config `yaml:"guards" mapstructure:"guards"`
}

// ApplyDefaults applies defaults to every section.
func (c *Config) ApplyDefaults() {
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Environment == "development" {
		c.Debug = true
	}
	if c.Logging.ServiceName == "" && c.Name != "" {
		c.Logging.ServiceName = c.Name
	}
	c.Logging.ApplyDefaults()
	c.Redis.ApplyDefaults()
	c.Retry.ApplyDefaults()
	c.Breaker.ApplyDefaults()
	c.RateLimit.ApplyDefaults()
	c.Cache.ApplyDefaults()
}

// Validate checks the configuration. Call ApplyDefaults first.
func (c *Config) Validate() error {
	if err := ValidateStruct(c); err != nil {
		return err
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("config.logging: %w", err)
	}
	if err := c.Redis.Validate(); err != nil {
		return fmt.Errorf("config.redis: %w", err)
	}
	if err := c.Cache.Validate(); err != nil {
		return fmt.Errorf("config.cache: %w", err)
	}
	return nil
}

// GuardConfig resolves the guard settings for a dependency, filling
// unset fields from the top-level Retry and Breaker sections.
func (c *Config) GuardConfig(dependency string) guard.Config {
	gc := c.Guards[dependency]
	if gc.Retry == nil {
		retry := c.Retry
		gc.Retry = &retry
	}
	if gc.Breaker == nil {
		breaker := c.Breaker
		gc.Breaker = &breaker
	}
	if gc.Tier == "" {
		gc.Tier = ratelimit.TierDefault
	}
	return gc
}

var (
	structValidator *validator.Validate
	validatorOnce   sync.Once
)

func getValidator() *validator.Validate {
	validatorOnce.Do(func() {
		structValidator = validator.New(validator.WithRequiredStructEnabled())
		// Report mapstructure key names so messages match the file.
		structValidator.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("mapstructure"), ",", 2)[0]
			if name == "" || name == "-" {
				return fld.Name
			}
			return name
		})
	})
	return structValidator
}

// ValidateStruct validates a struct using its validate tags.
func ValidateStruct(s any) error {
	err := getValidator().Struct(s)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	fields := make([]string, 0, len(verrs))
	for _, e := range verrs {
		fields = append(fields, fmt.Sprintf("%s (%s)", e.Field(), e.Tag()))
	}
	return fmt.Errorf("config: invalid fields: %s", strings.Join(fields, ", "))
}
