package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/alejandrodnm/tradeguard/internal/domain"
)

// Config is the complete engine configuration.
type Config struct {
	Engine      EngineConfig                `yaml:"engine"`
	Risk        RiskConfig                  `yaml:"risk"`
	Instruments map[string]InstrumentConfig `yaml:"instruments"`
	Signals     SignalsConfig               `yaml:"signals"`
	Storage     StorageConfig               `yaml:"storage"`
	Alerts      AlertsConfig                `yaml:"alerts"`
	Metrics     MetricsConfig               `yaml:"metrics"`
	Log         LogConfig                   `yaml:"log"`
}

// EngineConfig controls the control loop.
type EngineConfig struct {
	IntervalSeconds    int      `yaml:"interval_seconds"`
	Symbols            []string `yaml:"symbols"`
	MonitorWorkers     int      `yaml:"monitor_workers"`
	CallTimeoutSeconds int      `yaml:"call_timeout_seconds"`
	PaperBalance       float64  `yaml:"paper_balance"` // starting balance for the simulated terminal
}

// RiskConfig holds the account-level risk limits.
type RiskConfig struct {
	MaxRiskPercent      float64 `yaml:"max_risk_percent"`
	MinRiskReward       float64 `yaml:"min_risk_reward"`
	MaxPositions        int     `yaml:"max_positions"`
	MaxDailyLossPercent float64 `yaml:"max_daily_loss_percent"`
	MinConfidence       float64 `yaml:"min_confidence"`
	DefaultVolume       float64 `yaml:"default_volume"`
}

// InstrumentConfig is the broker contract metadata for one symbol.
type InstrumentConfig struct {
	Point          float64 `yaml:"point"`
	PipValue       float64 `yaml:"pip_value"` // per point per 1.0 lot
	MinLot         float64 `yaml:"min_lot"`
	MaxLot         float64 `yaml:"max_lot"`
	LotStep        float64 `yaml:"lot_step"`
	MarginPerLot   float64 `yaml:"margin_per_lot"`
	ReferencePrice float64 `yaml:"reference_price"` // seeds the simulated terminal's quote
}

// SignalsConfig points at the signal-generation service.
type SignalsConfig struct {
	BaseURL        string `yaml:"base_url"`
	APIKey         string `yaml:"api_key"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// StorageConfig selects and configures the persistence backend.
type StorageConfig struct {
	Driver string `yaml:"driver"` // sqlite | postgres
	DSN    string `yaml:"dsn"`
}

// AlertsConfig configures the Kafka alert topic. Empty brokers fall back to
// log-only alerts.
type AlertsConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// LogConfig controls logging format and level.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load reads the YAML file and the .env file if present. Env values override
// the YAML for the keys that map to them. An invalid risk section is a fatal
// configuration error: the engine refuses to start without safe limits.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := cfg.RiskParams().Validate(); err != nil {
		return nil, fmt.Errorf("config.Load: invalid risk config: %w", err)
	}
	if len(cfg.Instruments) == 0 {
		return nil, fmt.Errorf("config.Load: no instruments configured")
	}

	return &cfg, nil
}

// CycleInterval returns the loop interval as a time.Duration.
func (c *Config) CycleInterval() time.Duration {
	return time.Duration(c.Engine.IntervalSeconds) * time.Second
}

// CallTimeout returns the per-call timeout for external services.
func (c *Config) CallTimeout() time.Duration {
	return time.Duration(c.Engine.CallTimeoutSeconds) * time.Second
}

// SignalsTimeout returns the signal feed HTTP timeout.
func (c *Config) SignalsTimeout() time.Duration {
	return time.Duration(c.Signals.TimeoutSeconds) * time.Second
}

// RiskParams maps the risk section onto the domain value.
func (c *Config) RiskParams() domain.RiskParams {
	return domain.RiskParams{
		MaxRiskPercent:      c.Risk.MaxRiskPercent,
		MinRiskReward:       c.Risk.MinRiskReward,
		MaxPositions:        c.Risk.MaxPositions,
		MaxDailyLossPercent: c.Risk.MaxDailyLossPercent,
		MinConfidence:       c.Risk.MinConfidence,
		DefaultVolume:       c.Risk.DefaultVolume,
	}
}

// Catalog builds the instrument metadata lookup from the config.
func (c *Config) Catalog() map[string]domain.InstrumentInfo {
	catalog := make(map[string]domain.InstrumentInfo, len(c.Instruments))
	for symbol, ic := range c.Instruments {
		catalog[symbol] = domain.InstrumentInfo{
			Symbol:       symbol,
			Point:        ic.Point,
			PipValue:     ic.PipValue,
			MinLot:       ic.MinLot,
			MaxLot:       ic.MaxLot,
			LotStep:      ic.LotStep,
			MarginPerLot: ic.MarginPerLot,
		}
	}
	return catalog
}

// applyEnvOverrides overwrites values with environment variables when set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("SIGNAL_API_KEY"); v != "" {
		cfg.Signals.APIKey = v
	}
	if v := os.Getenv("STORAGE_DSN"); v != "" {
		cfg.Storage.DSN = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.Alerts.Brokers = splitList(v)
	}
}

// setDefaults fills required values with sensible defaults. Risk defaults
// are conservative: 2% per trade, 3 positions, 5% daily loss cap.
func setDefaults(cfg *Config) {
	if cfg.Engine.IntervalSeconds <= 0 {
		cfg.Engine.IntervalSeconds = 60
	}
	if cfg.Engine.CallTimeoutSeconds <= 0 {
		cfg.Engine.CallTimeoutSeconds = 10
	}
	if cfg.Engine.PaperBalance <= 0 {
		cfg.Engine.PaperBalance = 10000
	}
	if cfg.Risk.MaxRiskPercent == 0 {
		cfg.Risk.MaxRiskPercent = 2.0
	}
	if cfg.Risk.MinRiskReward == 0 {
		cfg.Risk.MinRiskReward = 1.5
	}
	if cfg.Risk.MaxPositions == 0 {
		cfg.Risk.MaxPositions = 3
	}
	if cfg.Risk.MaxDailyLossPercent == 0 {
		cfg.Risk.MaxDailyLossPercent = 5.0
	}
	if cfg.Risk.MinConfidence == 0 {
		cfg.Risk.MinConfidence = 0.7
	}
	if cfg.Risk.DefaultVolume == 0 {
		cfg.Risk.DefaultVolume = 0.01
	}
	if cfg.Signals.TimeoutSeconds <= 0 {
		cfg.Signals.TimeoutSeconds = 10
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = "sqlite"
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "tradeguard.db"
	}
	if cfg.Alerts.Topic == "" {
		cfg.Alerts.Topic = "tradeguard.alerts"
	}
	if cfg.Metrics.Addr == "" {
		cfg.Metrics.Addr = ":9108"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
