package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// FinanceConfig is the tunable finance policy. The VAT rate is intentionally
// not part of it: 20% is a business rule, not a knob.
type FinanceConfig struct {
	// HoursPerDay converts logged hours into consumed days.
	HoursPerDay float64 `mapstructure:"hoursPerDay"`
	// ConsumptionWarnPercent marks a project as at-risk on dashboards.
	ConsumptionWarnPercent float64 `mapstructure:"consumptionWarnPercent"`
	// ConsumptionCriticalPercent marks a project as over budget.
	ConsumptionCriticalPercent float64 `mapstructure:"consumptionCriticalPercent"`
}

func DefaultFinanceConfig() FinanceConfig {
	return FinanceConfig{
		HoursPerDay:                8,
		ConsumptionWarnPercent:     80,
		ConsumptionCriticalPercent: 100,
	}
}

// FinanceConfigHolder exposes an atomically swappable FinanceConfig with
// hot reload from finance.yml.
type FinanceConfigHolder struct {
	current atomic.Value // holds FinanceConfig
}

func NewFinanceConfigHolder() (*FinanceConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("finance")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/devisio/config")
	v.AddConfigPath("/etc/devisio")
	v.AddConfigPath(".")

	v.SetEnvPrefix("DEVISIO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultFinanceConfig()
	v.SetDefault("finance.hoursPerDay", defaults.HoursPerDay)
	v.SetDefault("finance.consumptionWarnPercent", defaults.ConsumptionWarnPercent)
	v.SetDefault("finance.consumptionCriticalPercent", defaults.ConsumptionCriticalPercent)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg FinanceConfig
	if err := v.UnmarshalKey("finance", &cfg); err != nil {
		return nil, err
	}
	if err := validateFinanceConfig(cfg); err != nil {
		return nil, err
	}

	holder := &FinanceConfigHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated FinanceConfig
		if err := v.UnmarshalKey("finance", &updated); err != nil {
			log.Printf("[finance-config] reload failed: %v", err)
			return
		}
		if err := validateFinanceConfig(updated); err != nil {
			log.Printf("[finance-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[finance-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

func (h *FinanceConfigHolder) Get() FinanceConfig {
	return h.current.Load().(FinanceConfig)
}

// NewStaticFinanceConfigHolder returns a holder pinned to cfg, for tests.
func NewStaticFinanceConfigHolder(cfg FinanceConfig) *FinanceConfigHolder {
	holder := &FinanceConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func validateFinanceConfig(cfg FinanceConfig) error {
	if cfg.HoursPerDay <= 0 {
		return errors.New("finance.hoursPerDay must be positive")
	}
	if cfg.ConsumptionWarnPercent < 0 || cfg.ConsumptionCriticalPercent < cfg.ConsumptionWarnPercent {
		return errors.New("finance consumption thresholds must be ordered")
	}
	return nil
}
