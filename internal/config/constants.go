package config

const (
	// DefaultDatabasePath is the default path for the main application database
	DefaultDatabasePath = "./marked.db"

	// DefaultMaxUploadBytes caps bookmark file uploads at 10 MiB.
	DefaultMaxUploadBytes = 10 << 20

	// DefaultDotEnvPath is read by every command before NewConfig.
	DefaultDotEnvPath = ".env"
)
