package shared

import (
	"context"

	"github.com/rs/zerolog/log"

	"skillswap/internal/adapters/llm"
	"skillswap/internal/adapters/memcache"
	redisad "skillswap/internal/adapters/redis"
	"skillswap/internal/domain"
)

// LLMSettings projects the generator-related keys onto llm.Config.
func (c Config) LLMSettings() llm.Config {
	return llm.Config{
		Provider:       c.LLMProvider,
		GeminiKey:      c.GeminiKey,
		GeminiModel:    c.GeminiModel,
		AnthropicKey:   c.AnthropicKey,
		AnthropicModel: c.AnthropicModel,
		BaseURL:        c.LLMBaseURL,
		RPS:            c.LLMRPS,
		MaxRetries:     c.LLMMaxRetries,
		Timeout:        c.LLMTimeout,
	}
}

// NewCache returns the Redis cache when REDIS_ADDR is set and reachable,
// otherwise an in-process LRU.
func NewCache(ctx context.Context, c Config) domain.Cache {
	if c.RedisAddr != "" {
		rc := redisad.New(c.RedisAddr, c.RedisPass, c.RedisDB)
		err := rc.Ping(ctx)
		if err == nil {
			log.Info().Str("addr", c.RedisAddr).Msg("redis cache enabled")
			return rc
		}
		log.Warn().Err(err).Str("addr", c.RedisAddr).Msg("redis unavailable, using in-memory cache")
		_ = rc.Close()
	}
	// upper bound only; each key expires on the ttl passed to Set
	ttl := c.AnalysisTTL
	if c.CacheTTL > ttl {
		ttl = c.CacheTTL
	}
	return memcache.New(4096, ttl)
}
