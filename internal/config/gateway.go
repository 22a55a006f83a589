package config

// GatewayConfig holds configuration for the HTTP/WebSocket gateway
type GatewayConfig struct {
	Server        ServerConfig
	JWT           JWTConfig
	ClientBufSize int // per-subscriber send queue length
}

// LoadGatewayConfig loads configuration for the gateway
func LoadGatewayConfig() *GatewayConfig {
	return &GatewayConfig{
		Server: ServerConfig{
			Port:     getEnv("GATEWAY_PORT", "8081"),
			LogLevel: getEnv("LOG_LEVEL", "info"),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", "dev-secret-change-me"),
		},
		ClientBufSize: getEnvInt("GATEWAY_CLIENT_BUF", 256),
	}
}
