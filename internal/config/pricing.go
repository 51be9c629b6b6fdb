package config

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	DemandSourceConstant = "constant"
	DemandSourceRedis    = "redis"
)

// PricingConfig holds the tunables of the pricing engine and its signal sources.
type PricingConfig struct {
	Pricing   PricingSection   `mapstructure:"pricing"`
	Demand    DemandSection    `mapstructure:"demand"`
	RateLimit RateLimitSection `mapstructure:"rateLimit"`
}

type PricingSection struct {
	RoundingPlaces int32 `mapstructure:"roundingPlaces"`
}

type DemandSection struct {
	Source        string        `mapstructure:"source"`
	Window        time.Duration `mapstructure:"window"`
	ConstantScore float64       `mapstructure:"constantScore"`
}

type RateLimitSection struct {
	Enabled bool    `mapstructure:"enabled"`
	Rate    float64 `mapstructure:"rate"`
	Burst   int     `mapstructure:"burst"`
}

func DefaultPricingConfig() PricingConfig {
	return PricingConfig{
		Pricing: PricingSection{RoundingPlaces: 2},
		Demand: DemandSection{
			Source: DemandSourceConstant,
			Window: time.Hour,
		},
		RateLimit: RateLimitSection{
			Enabled: true,
			Rate:    20,
			Burst:   40,
		},
	}
}

type PricingConfigHolder struct {
	current atomic.Value // holds PricingConfig
}

// NewPricingConfigHolder loads pricing.yml from the standard locations and keeps it hot-reloaded.
func NewPricingConfigHolder() (*PricingConfigHolder, error) {
	return NewPricingConfigHolderFromPaths("/etc/ticketprice", ".")
}

func NewPricingConfigHolderFromPaths(paths ...string) (*PricingConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("pricing")
	v.SetConfigType("yml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	v.SetEnvPrefix("TICKETPRICE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultPricingConfig()
	v.SetDefault("pricing.roundingPlaces", defaults.Pricing.RoundingPlaces)
	v.SetDefault("demand.source", defaults.Demand.Source)
	v.SetDefault("demand.window", defaults.Demand.Window)
	v.SetDefault("demand.constantScore", defaults.Demand.ConstantScore)
	v.SetDefault("rateLimit.enabled", defaults.RateLimit.Enabled)
	v.SetDefault("rateLimit.rate", defaults.RateLimit.Rate)
	v.SetDefault("rateLimit.burst", defaults.RateLimit.Burst)

	fileLoaded := true
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		fileLoaded = false
	}

	cfg, err := decodePricingConfig(v)
	if err != nil {
		return nil, err
	}

	holder := &PricingConfigHolder{}
	holder.current.Store(cfg)

	if fileLoaded {
		v.WatchConfig()
		v.OnConfigChange(func(e fsnotify.Event) {
			updated, err := decodePricingConfig(v)
			if err != nil {
				zap.L().Warn("pricing config reload ignored", zap.String("file", e.Name), zap.Error(err))
				return
			}
			holder.current.Store(updated)
			zap.L().Info("pricing config reloaded", zap.String("file", e.Name))
		})
	}

	return holder, nil
}

// NewStaticPricingConfigHolder wraps a fixed config, mainly for tests and batch jobs.
func NewStaticPricingConfigHolder(cfg PricingConfig) *PricingConfigHolder {
	holder := &PricingConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func (h *PricingConfigHolder) Get() PricingConfig {
	return h.current.Load().(PricingConfig)
}

func decodePricingConfig(v *viper.Viper) (PricingConfig, error) {
	var cfg PricingConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return PricingConfig{}, err
	}
	cfg.Demand.Source = strings.ToLower(strings.TrimSpace(cfg.Demand.Source))
	if err := validatePricingConfig(cfg); err != nil {
		return PricingConfig{}, err
	}
	return cfg, nil
}

func validatePricingConfig(cfg PricingConfig) error {
	if cfg.Pricing.RoundingPlaces < 0 || cfg.Pricing.RoundingPlaces > 6 {
		return fmt.Errorf("pricing.roundingPlaces must be between 0 and 6, got %d", cfg.Pricing.RoundingPlaces)
	}
	switch cfg.Demand.Source {
	case DemandSourceConstant, DemandSourceRedis:
	default:
		return fmt.Errorf("demand.source %q is not supported", cfg.Demand.Source)
	}
	if cfg.Demand.Window <= 0 {
		return errors.New("demand.window must be positive")
	}
	if cfg.Demand.ConstantScore < 0 {
		return errors.New("demand.constantScore cannot be negative")
	}
	if cfg.RateLimit.Enabled && (cfg.RateLimit.Rate <= 0 || cfg.RateLimit.Burst <= 0) {
		return errors.New("rateLimit.rate and rateLimit.burst must be positive when enabled")
	}
	return nil
}
