// Package config loads application configuration from environment
// variables, optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the settings every process needs.
type Config struct {
	Env  string // dev, test or prod
	Port string

	DB DBConfig

	JWTSecret  string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	BcryptCost int
}

// DBConfig describes the MySQL connection.
type DBConfig struct {
	User string
	Pass string
	Host string
	Port string
	Name string
	// LockWaitTimeout bounds how long a statement waits for a row lock
	// before MySQL fails it with error 1205.
	LockWaitTimeout time.Duration
}

// LoadDotEnv loads .env from the working directory if it exists.  Values
// already present in the environment win.
func LoadDotEnv() error {
	err := godotenv.Load()
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Load reads the process configuration.  All missing or malformed
// variables are reported in one error.
func Load() (Config, error) {
	var r reader
	cfg := Config{
		Env:  r.must("APP_ENV"),
		Port: r.must("APP_PORT"),
		DB:   r.db(),

		JWTSecret:  r.must("JWT_SECRET"),
		AccessTTL:  time.Duration(r.mustInt("ACCESS_TOKEN_TTL_MIN")) * time.Minute,
		RefreshTTL: time.Duration(r.mustInt("REFRESH_TOKEN_TTL_DAYS")) * 24 * time.Hour,
		BcryptCost: r.mustInt("BCRYPT_COST"),
	}
	return cfg, r.err()
}

// LoadDB reads only the database settings.  The migration command uses it.
func LoadDB() (DBConfig, error) {
	var r reader
	db := r.db()
	return db, r.err()
}

// IsDev reports whether the process runs in development mode.
func (c Config) IsDev() bool { return c.Env == "dev" }

// reader accumulates problems while required variables are read.
type reader struct{ problems []string }

func (r *reader) db() DBConfig {
	return DBConfig{
		User:            r.must("DB_USER"),
		Pass:            os.Getenv("DB_PASS"),
		Host:            r.must("DB_HOST"),
		Port:            r.must("DB_PORT"),
		Name:            r.must("DB_NAME"),
		LockWaitTimeout: time.Duration(envInt("DB_LOCK_WAIT_TIMEOUT_SEC", 5)) * time.Second,
	}
}

func (r *reader) must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		r.problems = append(r.problems, "missing "+key)
	}
	return v
}

func (r *reader) mustInt(key string) int {
	s := r.must(key)
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		r.problems = append(r.problems, fmt.Sprintf("invalid int for %s: %q", key, s))
	}
	return n
}

func (r *reader) err() error {
	if len(r.problems) == 0 {
		return nil
	}
	return fmt.Errorf("config: %s", strings.Join(r.problems, "; "))
}
