package config

import "path/filepath"

type Credentials struct {
	file *FileValues
}

var _ CredentialsConfig = Credentials{}

func (c Credentials) GetCredentialsBackend() string {
	return lookup("CREDENTIALS_BACKEND", c.file.Credentials.Backend, "file")
}

// GetCredentialsSlot names the single slot holding the bearer token.
func (c Credentials) GetCredentialsSlot() string {
	return lookup("CREDENTIALS_SLOT", c.file.Credentials.Slot, "access_token")
}

// GetCredentialsPath is the file (or SQLite database) backing the slot.
// Defaults to a file inside the data folder.
func (c Credentials) GetCredentialsPath() string {
	dataFolder := EnvVars{file: c.file}.GetDataFolder()
	return lookup("CREDENTIALS_PATH", c.file.Credentials.Path, filepath.Join(dataFolder, "credentials"))
}

// GetCredentialsKey is the optional passphrase used to seal the credential file.
func (c Credentials) GetCredentialsKey() string {
	return lookup("CREDENTIALS_KEY", c.file.Credentials.Key, "")
}

func (c Credentials) GetRedisAddr() string {
	return lookup("REDIS_ADDR", c.file.Redis.Addr, "localhost:6379")
}

func (c Credentials) GetRedisPassword() string {
	return lookup("REDIS_PASSWORD", c.file.Redis.Password, "")
}

func (c Credentials) GetRedisDB() int {
	return lookupInt("REDIS_DB", c.file.Redis.DB, 0)
}
