// Package config provides functionality for managing configuration options
// for the client shell and the sandbox backend using command-line flags,
// an optional JSON config file, a .env file and environment variables.
package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Options holds the configuration values for the application.
type Options struct {
	// BaseURL is the API origin every relative path is appended to.
	BaseURL string `json:"base_url"`

	// Store selects the persistent key-value backend: file, postgres, redis or memory.
	Store string `json:"store"`

	// StorePath is the JSON file used by the file backend.
	StorePath string `json:"store_path"`

	// DatabaseDSN holds the PostgreSQL connection string for the postgres backend.
	DatabaseDSN string `json:"database_dsn"`

	// RedisAddr is the host:port of the redis backend.
	RedisAddr string `json:"redis_addr"`

	// RedisPrefix namespaces keys written by the redis backend.
	RedisPrefix string `json:"redis_prefix"`

	// Timeout bounds every outgoing HTTP request.
	Timeout time.Duration `json:"timeout"`

	// RateLimit caps outgoing requests per second. Zero disables limiting.
	RateLimit float64 `json:"rate_limit"`

	// CAFile, CertFile and KeyFile configure an optional custom TLS transport.
	CAFile   string `json:"ca_file"`
	CertFile string `json:"cert_file"`
	KeyFile  string `json:"key_file"`

	// Port defines the sandbox server's listening address (ip:port).
	Port string `json:"port"`

	// JWTSecret signs tokens issued by the sandbox server.
	JWTSecret string `json:"jwt_secret"`

	// LogLevel is passed to logger.Init.
	LogLevel string `json:"log_level"`

	// Config is the path to the Config file.
	Config string `json:"-"`

	// EnvFile is the path to an optional .env file.
	EnvFile string `json:"-"`
}

// options holds the current configuration values.
var options = &Options{}

// init initializes command-line flags and sets default values.
func init() {
	flag.StringVar(&options.BaseURL, "url", "http://localhost:8080", "API base URL")
	flag.StringVar(&options.Store, "store", "file", "key-value backend: file | postgres | redis | memory")
	flag.StringVar(&options.StorePath, "store-path", "session.json", "path of the file backend")
	flag.StringVar(&options.DatabaseDSN, "d", "", "db address")
	flag.StringVar(&options.RedisAddr, "redis", "localhost:6379", "redis address")
	flag.StringVar(&options.RedisPrefix, "redis-prefix", "bizops:", "redis key prefix")
	flag.DurationVar(&options.Timeout, "timeout", 15*time.Second, "HTTP request timeout")
	flag.Float64Var(&options.RateLimit, "rate", 0, "max outgoing requests per second (0 = unlimited)")
	flag.StringVar(&options.CAFile, "ca", "", "path to CA cert")
	flag.StringVar(&options.CertFile, "cert", "", "path to client cert")
	flag.StringVar(&options.KeyFile, "key", "", "path to client key")
	flag.StringVar(&options.Port, "a", "localhost:8080", "run on ip:port server")
	flag.StringVar(&options.JWTSecret, "jwt-secret", "sandbox-secret", "sandbox JWT signing secret")
	flag.StringVar(&options.LogLevel, "log-level", "info", "log level")
	flag.StringVar(&options.Config, "config", "config.json", "path to config file")
	flag.StringVar(&options.Config, "c", "config.json", "path to config file (shorthand)")
	flag.StringVar(&options.EnvFile, "env", ".env", "path to .env file")
}

// Parse parses the command-line flags, the config file and environment
// variables to set configuration values. It returns a pointer to the Options
// struct containing the parsed configuration values.
func Parse() *Options {
	flag.Parse()

	// A missing .env is normal outside development.
	if options.EnvFile != "" {
		if _, err := os.Stat(options.EnvFile); err == nil {
			if err := godotenv.Load(options.EnvFile); err != nil {
				log.Fatalf("error while loading env file: %v", err)
			}
		}
	}

	if configPath := os.Getenv("CONFIG"); configPath != "" {
		options.Config = configPath
	}

	if err := LoadFile(options.Config, options); err != nil {
		log.Fatalf("%v", err)
	}

	if err := ApplyEnv(options, os.Getenv); err != nil {
		log.Fatalf("%v", err)
	}

	return options
}

// LoadFile merges the JSON config file at path into opts. A missing file is
// not an error.
func LoadFile(path string, opts *Options) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("error while reading config file: %w", err)
	}
	if err := json.Unmarshal(data, opts); err != nil {
		return fmt.Errorf("error while parsing config file: %w", err)
	}
	return nil
}

// ApplyEnv overrides opts with the environment variables returned by getenv.
func ApplyEnv(opts *Options, getenv func(string) string) error {
	if v := getenv("BIZOPS_BASE_URL"); v != "" {
		opts.BaseURL = v
	}
	if v := getenv("BIZOPS_STORE"); v != "" {
		opts.Store = v
	}
	if v := getenv("DATABASE_DSN"); v != "" {
		opts.DatabaseDSN = v
	}
	if v := getenv("REDIS_ADDR"); v != "" {
		opts.RedisAddr = v
	}
	if v := getenv("SERVER_ADDRESS"); v != "" {
		opts.Port = v
	}
	if v := getenv("JWT_SECRET"); v != "" {
		opts.JWTSecret = v
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		opts.LogLevel = v
	}
	if v := getenv("BIZOPS_RATE_LIMIT"); v != "" {
		rate, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid BIZOPS_RATE_LIMIT %q: %w", v, err)
		}
		opts.RateLimit = rate
	}
	return nil
}
