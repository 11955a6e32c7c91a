package agent

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/caarlos0/env"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/sbilibin2017/gophrt/internal/configs/db"
	"github.com/sbilibin2017/gophrt/internal/models"
)

// Config validation errors.
var (
	ErrMissingKey       = errors.New("api key is required")
	ErrMissingServiceID = errors.New("service id is required")
	ErrUnknownKind      = errors.New("unknown resource kind")
	ErrNoKinds          = errors.New("at least one resource kind is required")
	ErrBadInterval      = errors.New("intervals must be positive")
	ErrUnknownDriver    = errors.New("unsupported database driver")
	ErrBadSubnet        = errors.New("invalid trusted subnet")
)

// Config holds every setting of the real-time agent.
//
// Values are resolved in order: defaults, JSON config file, environment
// (a .env file is loaded first when present), explicitly set flags.
type Config struct {
	Key       string   `json:"key" env:"FASTLY_KEY"`               // API token sent as Fastly-Key
	ServiceID string   `json:"service_id" env:"SERVICE_ID"`        // Service to poll
	Kinds     []string `json:"kinds" env:"KINDS" envSeparator:","` // Resource kinds to poll

	PollInterval   int `json:"poll_interval" env:"POLL_INTERVAL"`     // Seconds between polls
	ReportInterval int `json:"report_interval" env:"REPORT_INTERVAL"` // Seconds between storage flushes
	Retention      int `json:"retention" env:"RETENTION"`             // Seconds of samples to keep, 0 keeps everything

	Address       string `json:"address" env:"ADDRESS"`               // HTTP API listen address, empty disables the API
	TrustedSubnet string `json:"trusted_subnet" env:"TRUSTED_SUBNET"` // CIDR allowed to call the API
	SignKey       string `json:"sign_key" env:"SIGN_KEY"`             // HMAC key for response signatures

	DatabaseDSN     string `json:"database_dsn" env:"DATABASE_DSN"`
	DatabaseDriver  string `json:"database_driver" env:"DATABASE_DRIVER"`
	MigrationsDir   string `json:"migrations_dir" env:"MIGRATIONS_DIR"`
	RedisAddr       string `json:"redis_addr" env:"REDIS_ADDR"`
	RedisPassword   string `json:"redis_password" env:"REDIS_PASSWORD"`
	FileStoragePath string `json:"file_storage_path" env:"FILE_STORAGE_PATH"`

	EndpointBase   string `json:"endpoint_base" env:"ENDPOINT_BASE"`     // Overrides https://rt.fastly.com/v1
	RequestTimeout int    `json:"request_timeout" env:"REQUEST_TIMEOUT"` // Seconds, 0 waits for the context
	RetryCount     int    `json:"retry_count" env:"RETRY_COUNT"`         // Transport retries, 0 disables them
	Proxy          string `json:"proxy" env:"PROXY"`
	CACert         string `json:"ca_cert" env:"CA_CERT"`
	ClientCert     string `json:"client_cert" env:"CLIENT_CERT"`
	ClientKey      string `json:"client_key" env:"CLIENT_KEY"`

	LogLevel string `json:"log_level" env:"LOG_LEVEL"`
}

// DefaultConfig returns the configuration used when nothing else is set.
func DefaultConfig() *Config {
	return &Config{
		Kinds:          []string{models.KindService, models.KindOrigin},
		PollInterval:   1,
		ReportInterval: 10,
		Retention:      24 * 60 * 60,
		Address:        ":8080",
		DatabaseDriver: db.DriverPostgres,
		MigrationsDir:  "migrations",
		LogLevel:       "info",
	}
}

// NewConfig resolves the configuration from args and the environment.
func NewConfig(args []string) (*Config, error) {
	cfg := DefaultConfig()

	fs := pflag.NewFlagSet("rtagent", pflag.ContinueOnError)
	flags := bindFlags(fs, cfg)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if len(fs.Args()) > 0 {
		return nil, errors.New("unknown flags or arguments are provided")
	}

	configPath := flags.configPath
	if env := os.Getenv("CONFIG"); env != "" && configPath == "" {
		configPath = env
	}
	if configPath != "" {
		if err := cfg.loadFile(configPath); err != nil {
			return nil, err
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env: %w", err)
	}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("error parsing environment: %w", err)
	}

	fs.Visit(func(f *pflag.Flag) {
		if apply, ok := flags.setters[f.Name]; ok {
			apply()
		}
	})

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFile merges the JSON file at path into cfg.
func (cfg *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("error parsing config JSON: %w", err)
	}
	return nil
}

// Validate checks that the configuration is usable.
func (cfg *Config) Validate() error {
	if strings.TrimSpace(cfg.Key) == "" {
		return ErrMissingKey
	}
	if strings.TrimSpace(cfg.ServiceID) == "" {
		return ErrMissingServiceID
	}
	if len(cfg.Kinds) == 0 {
		return ErrNoKinds
	}
	for _, kind := range cfg.Kinds {
		if kind != models.KindService && kind != models.KindOrigin {
			return fmt.Errorf("%w: %q", ErrUnknownKind, kind)
		}
	}
	if cfg.PollInterval <= 0 || cfg.ReportInterval <= 0 {
		return ErrBadInterval
	}
	if cfg.DatabaseDSN != "" && cfg.DatabaseDriver != db.DriverPostgres && cfg.DatabaseDriver != db.DriverSQLite {
		return fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.DatabaseDriver)
	}
	if _, err := cfg.Subnet(); err != nil {
		return err
	}
	return nil
}

// Subnet parses TrustedSubnet. An empty value yields nil.
func (cfg *Config) Subnet() (*net.IPNet, error) {
	if cfg.TrustedSubnet == "" {
		return nil, nil
	}
	_, subnet, err := net.ParseCIDR(cfg.TrustedSubnet)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadSubnet, err)
	}
	return subnet, nil
}

// HasKind reports whether kind is polled.
func (cfg *Config) HasKind(kind string) bool {
	return slices.Contains(cfg.Kinds, kind)
}

// Seconds converts a config value in seconds to a duration.
func Seconds(s int) time.Duration {
	return time.Duration(s) * time.Second
}

// flagValues holds raw flag values. Only flags set on the command line
// are copied into the config.
type flagValues struct {
	configPath string
	setters    map[string]func()
}

func bindFlags(fs *pflag.FlagSet, cfg *Config) *flagValues {
	var (
		key, serviceID, address, trustedSubnet, signKey string
		dsn, driver, migrations, redisAddr, filePath    string
		endpointBase, proxy, caCert, clientCert         string
		clientKey, logLevel                             string
		kinds                                           []string
		poll, report, retention, timeout, retries       int
	)

	fv := &flagValues{}

	fs.StringVarP(&fv.configPath, "config", "c", "", "path to JSON config file")
	fs.StringVarP(&key, "key", "k", "", "API token")
	fs.StringVarP(&serviceID, "service-id", "s", "", "service to poll")
	fs.StringSliceVar(&kinds, "kinds", cfg.Kinds, "resource kinds to poll (service, origin)")
	fs.IntVarP(&poll, "poll-interval", "p", cfg.PollInterval, "poll interval in seconds")
	fs.IntVarP(&report, "report-interval", "r", cfg.ReportInterval, "report interval in seconds")
	fs.IntVar(&retention, "retention", cfg.Retention, "seconds of samples to keep (0 keeps everything)")
	fs.StringVarP(&address, "address", "a", cfg.Address, "HTTP API listen address (empty disables the API)")
	fs.StringVarP(&trustedSubnet, "trusted-subnet", "t", "", "CIDR allowed to call the HTTP API")
	fs.StringVar(&signKey, "sign-key", "", "HMAC key for response signatures")
	fs.StringVarP(&dsn, "database-dsn", "d", "", "database DSN")
	fs.StringVar(&driver, "database-driver", cfg.DatabaseDriver, "database driver (pgx, sqlite)")
	fs.StringVar(&migrations, "migrations-dir", cfg.MigrationsDir, "directory with goose migrations")
	fs.StringVar(&redisAddr, "redis-addr", "", "Redis address")
	fs.StringVarP(&filePath, "file", "f", "", "file to store samples in")
	fs.StringVar(&endpointBase, "endpoint-base", "", "real-time API root")
	fs.IntVar(&timeout, "request-timeout", 0, "request timeout in seconds")
	fs.IntVar(&retries, "retry-count", 0, "transport retries")
	fs.StringVar(&proxy, "proxy", "", "HTTP proxy URL")
	fs.StringVar(&caCert, "ca-cert", "", "PEM file with extra root certificates")
	fs.StringVar(&clientCert, "client-cert", "", "PEM client certificate")
	fs.StringVar(&clientKey, "client-key", "", "PEM client key")
	fs.StringVarP(&logLevel, "log-level", "l", cfg.LogLevel, "log level")

	fv.setters = map[string]func(){
		"key":             func() { cfg.Key = key },
		"service-id":      func() { cfg.ServiceID = serviceID },
		"kinds":           func() { cfg.Kinds = kinds },
		"poll-interval":   func() { cfg.PollInterval = poll },
		"report-interval": func() { cfg.ReportInterval = report },
		"retention":       func() { cfg.Retention = retention },
		"address":         func() { cfg.Address = address },
		"trusted-subnet":  func() { cfg.TrustedSubnet = trustedSubnet },
		"sign-key":        func() { cfg.SignKey = signKey },
		"database-dsn":    func() { cfg.DatabaseDSN = dsn },
		"database-driver": func() { cfg.DatabaseDriver = driver },
		"migrations-dir":  func() { cfg.MigrationsDir = migrations },
		"redis-addr":      func() { cfg.RedisAddr = redisAddr },
		"file":            func() { cfg.FileStoragePath = filePath },
		"endpoint-base":   func() { cfg.EndpointBase = endpointBase },
		"request-timeout": func() { cfg.RequestTimeout = timeout },
		"retry-count":     func() { cfg.RetryCount = retries },
		"proxy":           func() { cfg.Proxy = proxy },
		"ca-cert":         func() { cfg.CACert = caCert },
		"client-cert":     func() { cfg.ClientCert = clientCert },
		"client-key":      func() { cfg.ClientKey = clientKey },
		"log-level":       func() { cfg.LogLevel = logLevel },
	}

	return fv
}
