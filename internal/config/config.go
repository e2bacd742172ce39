package config

import (
	"os"
	"path/filepath"
	"strconv"

	"maileditor/internal/domain"
)

type Config struct {
	DataDir string
	// Store selects the template backend: sqlite (local, default),
	// postgres, mysql or mongodb.
	Store      string
	DBHost     string
	DBPort     int
	DBName     string
	DBUser     string
	DBPassword string
	DBSSLMode  string

	HistoryLimit  int
	RevisionLimit int
	// Autosave is a cron spec; empty disables autosave.
	Autosave  string
	ImportDir string

	LogLevel string
	LogFile  string
}

func Load() Config {
	return Config{
		DataDir:       getenv("MAILEDITOR_DATA_DIR", defaultDataDir()),
		Store:         getenv("MAILEDITOR_STORE", string(domain.DatabaseDriverSQLite)),
		DBHost:        getenv("MAILEDITOR_DB_HOST", "localhost"),
		DBPort:        getenvInt("MAILEDITOR_DB_PORT", 0),
		DBName:        getenv("MAILEDITOR_DB_NAME", "maileditor"),
		DBUser:        getenv("MAILEDITOR_DB_USER", ""),
		DBPassword:    getenv("MAILEDITOR_DB_PASSWORD", ""),
		DBSSLMode:     getenv("MAILEDITOR_DB_SSLMODE", ""),
		HistoryLimit:  getenvInt("MAILEDITOR_HISTORY_LIMIT", 50),
		RevisionLimit: getenvInt("MAILEDITOR_REVISION_LIMIT", 40),
		Autosave:      lookup("MAILEDITOR_AUTOSAVE", "@every 30s"),
		ImportDir:     getenv("MAILEDITOR_IMPORT_DIR", ""),
		LogLevel:      getenv("MAILEDITOR_LOG_LEVEL", "info"),
		LogFile:       getenv("MAILEDITOR_LOG_FILE", ""),
	}
}

// DBPath is the local SQLite file for templates and revisions.
func (c Config) DBPath() string {
	return filepath.Join(c.DataDir, "maileditor.db")
}

// Remote reports whether templates live in an external database.
func (c Config) Remote() bool {
	return c.Store != "" && c.Store != string(domain.DatabaseDriverSQLite)
}

// Connection describes the remote template database.
func (c Config) Connection() *domain.DatabaseConnection {
	return &domain.DatabaseConnection{
		Name:     "templates",
		Driver:   domain.DatabaseDriver(c.Store),
		Host:     c.DBHost,
		Port:     c.DBPort,
		Database: c.DBName,
		Username: c.DBUser,
		SSLMode:  c.DBSSLMode,
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "data")
	}
	return filepath.Join(home, ".local", "share", "maileditor")
}

func getenv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

// lookup is getenv that keeps an explicitly empty value.
func lookup(key, fallback string) string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	return value
}

func getenvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
