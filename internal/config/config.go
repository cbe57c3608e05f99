package config

import "time"

type Config interface {
	EnvConfig
	CorsConfig
	APIConfig
	CredentialsConfig
}

type EnvConfig interface {
	GetHost() string
	GetPort() string
	GetAddr() string
	IsLoopback() bool
	GetAppName() string
	GetDataFolder() string
	GetEnv() string
	GetLogLevel() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

// APIConfig describes how to reach the remote Auth API.
type APIConfig interface {
	GetAPIBaseURL() string
	GetAPITimeout() time.Duration
}

// CredentialsConfig selects and parameterises the credential store backend.
type CredentialsConfig interface {
	GetCredentialsBackend() string
	GetCredentialsSlot() string
	GetCredentialsPath() string
	GetCredentialsKey() string
	GetRedisAddr() string
	GetRedisPassword() string
	GetRedisDB() int
}

type mainConfig struct {
	EnvVars
	Cors
	API
	Credentials
}

// New returns a configuration backed by environment variables and defaults only.
func New() Config {
	return newConfig(&FileValues{})
}

func newConfig(file *FileValues) Config {
	return mainConfig{
		EnvVars:     EnvVars{file: file},
		Cors:        Cors{file: file},
		API:         API{file: file},
		Credentials: Credentials{file: file},
	}
}
