package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
)

const (
	hostEnvVar     = "HOST"
	portEnvVar     = "PORT"
	appNameVar     = "APP_NAME"
	folderEnvVar   = "FOLDER"
	envEnvVar      = "ENV"
	logLevelEnvVar = "LOG_LEVEL"
)

type EnvVars struct {
	file *FileValues
}

var _ EnvConfig = EnvVars{}

func (e EnvVars) GetPort() string {
	port := lookup(portEnvVar, e.file.Port, "8080")
	if !strings.HasPrefix(port, ":") {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

// GetHost is the interface the dashboard binds to. The session belongs to
// the process, so anything that can reach the port acts as the signed-in
// user; the default keeps it on loopback.
func (e EnvVars) GetHost() string {
	return lookup(hostEnvVar, e.file.Host, "127.0.0.1")
}

// GetAddr is the listen address built from GetHost and GetPort.
func (e EnvVars) GetAddr() string {
	return net.JoinHostPort(e.GetHost(), strings.TrimPrefix(e.GetPort(), ":"))
}

// IsLoopback reports whether GetHost only accepts local connections.
func (e EnvVars) IsLoopback() bool {
	host := e.GetHost()
	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func (e EnvVars) GetAppName() string {
	return lookup(appNameVar, e.file.AppName, "Media Scan")
}

func (e EnvVars) GetDataFolder() string {
	return lookup(folderEnvVar, e.file.DataFolder, "./data")
}

func (e EnvVars) GetEnv() string {
	return strings.ToUpper(lookup(envEnvVar, e.file.Env, "DEV"))
}

func (e EnvVars) GetLogLevel() string {
	return lookup(logLevelEnvVar, e.file.LogLevel, "info")
}

// lookup resolves a setting: environment variable, then file value, then default.
func lookup(envVar, fileValue, defaultValue string) string {
	if value := os.Getenv(envVar); value != "" {
		return value
	}
	if fileValue != "" {
		return fileValue
	}
	return defaultValue
}

func lookupInt(envVar string, fileValue, defaultValue int) int {
	if value := os.Getenv(envVar); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	if fileValue != 0 {
		return fileValue
	}
	return defaultValue
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
