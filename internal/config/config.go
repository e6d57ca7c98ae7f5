// Package config loads application configuration and initializes logging.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/retaillab/markdown-cli/internal/optimize"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Warehouse WarehouseConfig `yaml:"warehouse" mapstructure:"warehouse"`
	Planner   PlannerConfig   `yaml:"planner" mapstructure:"planner"`
	Optimizer OptimizerConfig `yaml:"optimizer" mapstructure:"optimizer"`
	Cluster   ClusterConfig   `yaml:"cluster" mapstructure:"cluster"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the local plan-history database.
type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// WarehouseConfig configures the optional Postgres sales warehouse.
type WarehouseConfig struct {
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// PlannerConfig holds the markdown scenario defaults. All of these can
// be overridden per run with flags.
type PlannerConfig struct {
	Horizon     int     `yaml:"horizon" mapstructure:"horizon"`
	LowerBound  float64 `yaml:"lower_bound" mapstructure:"lower_bound"`
	UpperBound  float64 `yaml:"upper_bound" mapstructure:"upper_bound"`
	Liquidation float64 `yaml:"liquidation_discount" mapstructure:"liquidation_discount"`
	CutoffYear  int     `yaml:"cutoff_year" mapstructure:"cutoff_year"`
	CutoffWeek  int     `yaml:"cutoff_week" mapstructure:"cutoff_week"`
}

// OptimizerConfig configures the numerical search.
type OptimizerConfig struct {
	Method        string  `yaml:"method" mapstructure:"method"`
	MaxIterations int     `yaml:"max_iterations" mapstructure:"max_iterations"`
	Tolerance     float64 `yaml:"tolerance" mapstructure:"tolerance"`
	Parallel      bool    `yaml:"parallel" mapstructure:"parallel"`
}

// Options converts the config section into optimizer options.
func (c OptimizerConfig) Options() optimize.Options {
	return optimize.Options{
		Method:        c.Method,
		MaxIterations: c.MaxIterations,
		Tolerance:     c.Tolerance,
		Parallel:      c.Parallel,
	}
}

// ClusterConfig configures store segmentation.
type ClusterConfig struct {
	Segments int `yaml:"segments" mapstructure:"segments"`
	SkipRows int `yaml:"skip_rows" mapstructure:"skip_rows"`
}

// ServerConfig configures the API server.
type ServerConfig struct {
	Port       int     `yaml:"port" mapstructure:"port"`
	RatePerSec float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	Burst      int     `yaml:"burst" mapstructure:"burst"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("MARKDOWN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.path", "markdown.db")
	v.SetDefault("planner.horizon", 4)
	v.SetDefault("planner.lower_bound", 0.10)
	v.SetDefault("planner.upper_bound", 0.60)
	v.SetDefault("planner.liquidation_discount", 0.60)
	v.SetDefault("planner.cutoff_year", 2014)
	v.SetDefault("planner.cutoff_week", 51)
	v.SetDefault("optimizer.method", optimize.MethodProjectedGradient)
	v.SetDefault("optimizer.max_iterations", optimize.DefaultMaxIterations)
	v.SetDefault("optimizer.tolerance", optimize.DefaultTolerance)
	v.SetDefault("cluster.segments", 3)
	v.SetDefault("cluster.skip_rows", 4)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.rate_per_sec", 5)
	v.SetDefault("server.burst", 10)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
