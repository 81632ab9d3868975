package shared

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

type Config struct {
	AppEnv      string `yaml:"app_env"`
	LogLevel    string `yaml:"log_level"`
	HTTPAddr    string `yaml:"http_addr"`
	MetricsAddr string `yaml:"metrics_addr"`
	MySQLDSN    string `yaml:"mysql_dsn"`
	RedisAddr   string `yaml:"redis_addr"`
	RedisDB     int    `yaml:"redis_db"`
	RedisPass   string `yaml:"redis_password"`

	LLMProvider    string `yaml:"llm_provider"`
	GeminiKey      string `yaml:"gemini_api_key"`
	GeminiModel    string `yaml:"gemini_model"`
	AnthropicKey   string `yaml:"anthropic_api_key"`
	AnthropicModel string `yaml:"anthropic_model"`
	LLMBaseURL     string `yaml:"llm_base_url"`
	LLMRPS         int    `yaml:"llm_rps"`
	LLMMaxRetries  int    `yaml:"llm_max_retries"`

	AnalysisConcurrency int    `yaml:"analysis_concurrency"`
	AnalysisMaxReviews  int    `yaml:"analysis_max_reviews"`
	ReanalyzeWorkers    int    `yaml:"reanalyze_workers"`
	ReanalyzeSchedule   string `yaml:"reanalyze_schedule"`
	Timezone            string `yaml:"timezone"`

	LLMTimeout  time.Duration  `yaml:"-"`
	HTTPTimeout time.Duration  `yaml:"-"`
	CacheTTL    time.Duration  `yaml:"-"`
	AnalysisTTL time.Duration  `yaml:"-"`
	Location    *time.Location `yaml:"-"` // computed from Timezone
}

// Load reads .env (if present), then an optional YAML file (CONFIG_PATH,
// default config.yaml), then environment variables, which win.
func Load() Config {
	_ = godotenv.Load()

	c := Config{
		AppEnv:              "prod",
		LogLevel:            "info",
		HTTPAddr:            ":8080",
		MetricsAddr:         "",
		MySQLDSN:            "root:root@tcp(localhost:3306)/skillswap?parseTime=true&charset=utf8mb4,utf8&loc=UTC",
		RedisAddr:           "localhost:6379",
		LLMProvider:         "gemini",
		LLMRPS:              5,
		LLMMaxRetries:       2,
		AnalysisConcurrency: 8,
		AnalysisMaxReviews:  50,
		ReanalyzeWorkers:    4,
		Timezone:            "UTC",
	}

	path := env("CONFIG_PATH", "config.yaml")
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, &c); err != nil {
			log.Fatal().Err(err).Str("path", path).Msg("parse config file failed")
		}
		log.Info().Str("path", path).Msg("loaded config file")
	}

	envOverride(&c.AppEnv, "APP_ENV")
	envOverride(&c.LogLevel, "LOG_LEVEL")
	envOverride(&c.HTTPAddr, "HTTP_ADDR")
	envOverride(&c.MetricsAddr, "METRICS_ADDR")
	envOverride(&c.MySQLDSN, "MYSQL_DSN")
	envOverrideAllowEmpty(&c.RedisAddr, "REDIS_ADDR")
	envOverride(&c.RedisPass, "REDIS_PASSWORD")
	envOverride(&c.LLMProvider, "LLM_PROVIDER")
	envOverride(&c.GeminiKey, "GOOGLE_API_KEY")
	envOverride(&c.GeminiKey, "GEMINI_API_KEY")
	envOverride(&c.GeminiModel, "GEMINI_MODEL")
	envOverride(&c.AnthropicKey, "ANTHROPIC_API_KEY")
	envOverride(&c.AnthropicModel, "ANTHROPIC_MODEL")
	envOverride(&c.LLMBaseURL, "LLM_BASE_URL")
	envOverride(&c.ReanalyzeSchedule, "REANALYZE_SCHEDULE")
	envOverride(&c.Timezone, "TIMEZONE")

	c.RedisDB = atoi("REDIS_DB", c.RedisDB)
	c.LLMRPS = atoi("LLM_RPS", c.LLMRPS)
	c.LLMMaxRetries = atoi("LLM_MAX_RETRIES", c.LLMMaxRetries)
	c.AnalysisConcurrency = atoi("ANALYSIS_CONCURRENCY", c.AnalysisConcurrency)
	c.AnalysisMaxReviews = atoi("ANALYSIS_MAX_REVIEWS", c.AnalysisMaxReviews)
	c.ReanalyzeWorkers = atoi("REANALYZE_WORKERS", c.ReanalyzeWorkers)

	c.LLMTimeout = seconds("LLM_TIMEOUT_SECONDS", 45)
	c.HTTPTimeout = seconds("HTTP_TIMEOUT_SECONDS", 60)
	c.CacheTTL = seconds("CACHE_TTL_SECONDS", 900)
	c.AnalysisTTL = seconds("ANALYSIS_CACHE_TTL_SECONDS", 3600)

	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		log.Warn().Err(err).Str("timezone", c.Timezone).Msg("invalid timezone, using UTC")
		loc = time.UTC
	}
	c.Location = loc

	if c.activeKey() == "" {
		log.Warn().Str("provider", c.LLMProvider).Msg("LLM API key is empty; review analysis disabled")
	}
	return c
}

func (c Config) activeKey() string {
	if strings.EqualFold(c.LLMProvider, "anthropic") {
		return c.AnthropicKey
	}
	return c.GeminiKey
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envOverride(dst *string, k string) {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		*dst = v
	}
}

// envOverrideAllowEmpty lets an explicitly empty variable clear the value (REDIS_ADDR= disables Redis).
func envOverrideAllowEmpty(dst *string, k string) {
	if v, ok := os.LookupEnv(k); ok {
		*dst = strings.TrimSpace(v)
	}
}

func atoi(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func seconds(k string, def int) time.Duration {
	return time.Duration(atoi(k, def)) * time.Second
}
