package config

type DatabaseConfig struct {
	// DSN is either a postgres URL or a sqlite path.
	DSN string `yaml:"dsn"`

	AutoMigrate bool `yaml:"autoMigrate"`
}

func NewDatabaseConfig() *DatabaseConfig {
	return &DatabaseConfig{
		DSN:         "file::memory:?cache=shared",
		AutoMigrate: true,
	}
}
