package config

// GameSettings holds the round timing and stake limits.
// round_duration_seconds and betting_window_seconds are the recognized
// timer options; the betting window must not exceed the round duration.
type GameSettings struct {
	RoundDurationSeconds int
	BettingWindowSeconds int
	RestSeconds          int
	MinStake             float64
	MaxStake             float64
	SettleWorkers        int
}

// PC28Config holds configuration for the PC28 game core
type PC28Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	RepoType   string // memory, redis
	EngineAuto bool   // run the round engine automatically
	Settings   GameSettings
}

// LoadPC28Config loads configuration for the PC28 game core
func LoadPC28Config() *PC28Config {
	dbConfig := DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnv("DB_PORT", "5432"),
		User:     getEnv("DB_USER", "pc28_user"),
		Password: getEnv("DB_PASSWORD", "pc28_pass"),
		Name:     getEnv("DB_NAME", "pc28_db"),
	}

	redisConfig := RedisConfig{
		Host: getEnv("REDIS_HOST", "localhost"),
		Port: getEnv("REDIS_PORT", "6379"),
	}

	settings := GameSettings{
		RoundDurationSeconds: getEnvInt("PC28_ROUND_DURATION_SECONDS", 60),
		BettingWindowSeconds: getEnvInt("PC28_BETTING_WINDOW_SECONDS", 55),
		RestSeconds:          getEnvInt("PC28_REST_SECONDS", 3),
		MinStake:             getEnvFloat("PC28_MIN_STAKE", 1),
		MaxStake:             getEnvFloat("PC28_MAX_STAKE", 10000),
		SettleWorkers:        getEnvInt("PC28_SETTLE_WORKERS", 8),
	}
	if settings.BettingWindowSeconds > settings.RoundDurationSeconds {
		settings.BettingWindowSeconds = settings.RoundDurationSeconds
	}

	return &PC28Config{
		Server: ServerConfig{
			Port:     getEnv("PC28_SERVER_PORT", "8080"),
			LogLevel: getEnv("LOG_LEVEL", "info"),
		},
		Database:   dbConfig,
		Redis:      redisConfig,
		RepoType:   getEnv("PC28_REPO_TYPE", "memory"),
		EngineAuto: getEnvBool("PC28_ENGINE_AUTO", true),
		Settings:   settings,
	}
}
