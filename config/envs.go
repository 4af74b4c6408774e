package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds the application's configuration values.
type Config struct {
	HostIP           string // Host IP the servers bind to
	TCPPort          int    // Port for the labyrinth socket server
	RESTPort         int    // Port for the REST API; 0 disables it
	MazeMaxDimension int    // Largest accepted interior width or height
	MazeSeed         *int64 // Seed for reproducible labyrinths; nil draws a fresh seed per labyrinth
	RedisAddr        string // Address of the Redis connection index; empty disables it
	RedisKeyTTL      int    // Expiration of the Redis connection index in seconds
	LogFile          string // File the logs are copied to; empty logs to stdout only
	GinMode          string // Mode for the Gin framework (e.g., release, debug, test)
}

// Envs holds the application's configuration loaded from environment variables.
var Envs = initConfig()

// initConfig initializes and returns the application configuration.
// It loads environment variables from a .env file.
func initConfig() Config {
	// Load .env file if available
	if err := godotenv.Load(); err != nil {
		log.Printf("[APP] [INFO] .env file not found or could not be loaded: %v", err)
	}

	return Config{
		HostIP:           getEnvWithDefault("HOST_IP", "0.0.0.0"),
		TCPPort:          getEnvAsIntWithDefault("TCP_PORT", 4444),
		RESTPort:         getEnvAsIntWithDefault("REST_PORT", 0),
		MazeMaxDimension: getEnvAsIntWithDefault("MAZE_MAX_DIMENSION", 500),
		MazeSeed:         getEnvAsOptionalInt64("MAZE_SEED"),
		RedisAddr:        getEnvWithDefault("REDIS_ADDR", ""),
		RedisKeyTTL:      getEnvAsIntWithDefault("REDIS_KEY_TTL", 3600),
		LogFile:          getEnvWithDefault("LOG_FILE", ""),
		GinMode:          getEnvWithDefault("GIN_MODE", "release"),
	}
}

// mustGetEnv retrieves the value of an environment variable or logs a fatal error if not set.
func mustGetEnv(key string) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		log.Fatalf("[APP] [FATAL] Environment variable %s is not set", key)
	}
	return value
}

// mustGetEnvAsInt retrieves the value of an environment variable as an integer or logs a fatal error if not set or cannot be parsed.
func mustGetEnvAsInt(key string) int {
	valueStr := mustGetEnv(key)
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Fatalf("[APP] [FATAL] Environment variable %s must be an integer: %v", key, err)
	}
	return value
}

// getEnvWithDefault retrieves the value of an environment variable or returns a default value if not set.
func getEnvWithDefault(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsIntWithDefault is getEnvWithDefault for integers. A value that cannot be
// parsed is fatal.
func getEnvAsIntWithDefault(key string, defaultValue int) int {
	if _, exists := os.LookupEnv(key); !exists {
		return defaultValue
	}
	return mustGetEnvAsInt(key)
}

// getEnvAsOptionalInt64 returns nil when key is not set.
func getEnvAsOptionalInt64(key string) *int64 {
	valueStr, exists := os.LookupEnv(key)
	if !exists || valueStr == "" {
		return nil
	}
	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		log.Fatalf("[APP] [FATAL] Environment variable %s must be an integer: %v", key, err)
	}
	return &value
}
