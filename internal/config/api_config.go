package config

import "time"

const defaultAPITimeout = 10 * time.Second

type API struct {
	file *FileValues
}

var _ APIConfig = API{}

// GetAPIBaseURL returns the Auth API root, e.g. "http://localhost:8000/api/v1".
func (a API) GetAPIBaseURL() string {
	return lookup("API_BASE_URL", a.file.API.BaseURL, "http://localhost:8000/api/v1")
}

// GetAPITimeout bounds every Auth API call. Unparseable values fall back to 10s.
func (a API) GetAPITimeout() time.Duration {
	raw := lookup("AUTH_API_TIMEOUT", a.file.API.Timeout, "")
	if raw == "" {
		return defaultAPITimeout
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return defaultAPITimeout
	}
	return d
}
