package config

import (
	"sync"
	"time"
)

var (
	redisOnce   sync.Once
	redisConfig *RedisConfig
)

// RedisConfig holds the queue backend settings shared by the server
// (enqueue side) and the worker (consume side).
type RedisConfig struct {
	Addr           string
	DB             int
	MaxRetries     int
	RetryDelay     time.Duration
	ProcessTimeout time.Duration
	Concurrency    int
}

// GetRedisConfig loads the Redis/queue configuration from the environment.
func GetRedisConfig() *RedisConfig {
	redisOnce.Do(func() {
		redisConfig = &RedisConfig{
			Addr:           getEnv("REDIS_ADDR", "localhost:6379"),
			DB:             getEnvInt("REDIS_DB", 0),
			MaxRetries:     getEnvInt("QUEUE_MAX_RETRIES", 3),
			RetryDelay:     getEnvDuration("QUEUE_RETRY_DELAY", time.Minute),
			ProcessTimeout: getEnvDuration("QUEUE_PROCESS_TIMEOUT", 5*time.Minute),
			Concurrency:    getEnvInt("QUEUE_CONCURRENCY", 5),
		}
	})
	return redisConfig
}
