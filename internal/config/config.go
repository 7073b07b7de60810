package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	apperrors "github.com/ZanzyTHEbar/credit-risk-o-meter/internal/errors"
	"github.com/ZanzyTHEbar/credit-risk-o-meter/internal/scoring"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. RISK_MODEL_SCHEMA
const EnvPrefix = "RISK"

type Config struct {
	Environment string          `mapstructure:"environment"`
	Server      ServerConfig    `mapstructure:"server"`
	Model       ModelConfig     `mapstructure:"model"`
	Scoring     ScoringConfig   `mapstructure:"scoring"`
	RateLimit   RateLimitConfig `mapstructure:"ratelimit"`
	Redis       RedisConfig     `mapstructure:"redis"`
	Logging     LoggingConfig   `mapstructure:"logging"`
}

type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	MaxBodyBytes   int64         `mapstructure:"max_body_bytes"`
	EnableHSTS     bool          `mapstructure:"enable_hsts"`
	CSPReportURI   string        `mapstructure:"csp_report_uri"`
}

type ModelConfig struct {
	Path   string `mapstructure:"path"`
	Schema string `mapstructure:"schema"`
}

type ScoringConfig struct {
	Policy         string `mapstructure:"policy"`
	CalibrationDir string `mapstructure:"calibration_dir"`
}

type RateLimitConfig struct {
	IPPerMinute     int     `mapstructure:"ip_per_minute"`
	BurstMultiplier float64 `mapstructure:"burst_multiplier"`
}

// RedisConfig points at the shared rate limit store. An empty Addr keeps
// rate limiting in process.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// FeatureSchema returns the schema value in canonical form. An unknown value
// is passed through unchanged so the scorer reports it.
func (c *Config) FeatureSchema() scoring.FeatureSchema {
	schema, err := scoring.ParseSchema(c.Model.Schema)
	if err != nil {
		return scoring.FeatureSchema(c.Model.Schema)
	}
	return schema
}

// Policy returns the policy value in canonical form, passing unknown values
// through like FeatureSchema.
func (c *Config) Policy() scoring.Policy {
	policy, err := scoring.ParsePolicy(c.Scoring.Policy)
	if err != nil {
		return scoring.Policy(c.Scoring.Policy)
	}
	return policy
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.request_timeout", 30*time.Second)
	v.SetDefault("server.allowed_origins", []string{"http://localhost:5173", "http://localhost:8080"})
	v.SetDefault("server.max_body_bytes", 8<<10)
	v.SetDefault("server.enable_hsts", false)
	v.SetDefault("server.csp_report_uri", "")

	v.SetDefault("model.path", "models/credit_score_model.json")
	v.SetDefault("model.schema", string(scoring.SchemaRetired))

	v.SetDefault("scoring.policy", string(scoring.PolicyClip))
	v.SetDefault("scoring.calibration_dir", "data/calibration")

	v.SetDefault("ratelimit.ip_per_minute", 60)
	v.SetDefault("ratelimit.burst_multiplier", 1.5)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Load reads config.yaml from the given directories (./configs and . when
// none are given), then applies RISK_* environment overrides. A .env file
// in the working directory is loaded first; it never overrides variables
// already set.
func Load(searchPaths ...string) (*Config, error) {
	if err := loadEnvFile(".env"); err != nil {
		return nil, apperrors.NewConfigurationError("failed to load .env file", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if len(searchPaths) == 0 {
		searchPaths = []string{"./configs", "."}
	}
	for _, p := range searchPaths {
		v.AddConfigPath(p)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	// Hosting platforms hand the listen port over as PORT.
	_ = v.BindEnv("server.port", EnvPrefix+"_SERVER_PORT", "PORT")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, apperrors.NewConfigurationError("error reading config file", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, apperrors.NewConfigurationError("failed to unmarshal config", err)
	}

	// Comma separated origins arrive from the environment as one string.
	if len(cfg.Server.AllowedOrigins) == 1 && strings.Contains(cfg.Server.AllowedOrigins[0], ",") {
		cfg.Server.AllowedOrigins = splitList(cfg.Server.AllowedOrigins[0])
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadEnvFile(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	return godotenv.Load(path)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate checks enum values and limits
func (c *Config) Validate() error {
	var problems []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		problems = append(problems, fmt.Sprintf("server.port %d out of range", c.Server.Port))
	}
	if c.Server.RequestTimeout <= 0 {
		problems = append(problems, "server.request_timeout must be positive")
	}
	if c.Server.MaxBodyBytes <= 0 {
		problems = append(problems, "server.max_body_bytes must be positive")
	}
	if strings.TrimSpace(c.Model.Path) == "" {
		problems = append(problems, "model.path is required")
	}
	if _, err := scoring.ParseSchema(c.Model.Schema); err != nil {
		problems = append(problems, "model.schema: "+err.Error())
	}
	if _, err := scoring.ParsePolicy(c.Scoring.Policy); err != nil {
		problems = append(problems, "scoring.policy: "+err.Error())
	}
	if c.RateLimit.IPPerMinute <= 0 {
		problems = append(problems, "ratelimit.ip_per_minute must be positive")
	}
	if c.RateLimit.BurstMultiplier < 1 {
		problems = append(problems, "ratelimit.burst_multiplier must be at least 1")
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "text":
	default:
		problems = append(problems, fmt.Sprintf("logging.format %q must be json or text", c.Logging.Format))
	}

	if len(problems) > 0 {
		return apperrors.NewConfigurationError("invalid configuration: "+strings.Join(problems, "; "), nil)
	}
	return nil
}
