// Package config loads the server configuration from a YAML file and
// INTROSPECT_* environment variables.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/luikyv/go-introspect/internal/logs"
	"github.com/luikyv/go-introspect/internal/tracing"
	"github.com/spf13/viper"
)

const EnvPrefix = "INTROSPECT"

const (
	StorageMemory  = "memory"
	StorageBolt    = "bolt"
	StorageMongoDB = "mongodb"
	StorageMySQL   = "mysql"
)

type Config struct {
	Issuer     string `mapstructure:"issuer"`
	Addr       string `mapstructure:"addr"`
	PathPrefix string `mapstructure:"path_prefix"`
	// IntrospectionEndpoint overrides the default introspection path.
	IntrospectionEndpoint    string `mapstructure:"introspection_endpoint"`
	RejectMissingCredentials bool   `mapstructure:"reject_missing_credentials"`
	ClientsFile              string `mapstructure:"clients_file"`
	JWKSFile                 string `mapstructure:"jwks_file"`
	MetricsEnabled           bool   `mapstructure:"metrics_enabled"`

	Storage Storage        `mapstructure:"storage"`
	Log     logs.Config    `mapstructure:"log"`
	Tracing tracing.Config `mapstructure:"tracing"`
}

type Storage struct {
	Driver   string  `mapstructure:"driver"`
	BoltPath string  `mapstructure:"bolt_path"`
	MongoDB  MongoDB `mapstructure:"mongodb"`
	MySQL    MySQL   `mapstructure:"mysql"`
}

type MongoDB struct {
	URI      string `mapstructure:"uri"`
	Database string `mapstructure:"database"`
}

type MySQL struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Addr     string `mapstructure:"addr"`
	Database string `mapstructure:"database"`
	TLS      string `mapstructure:"tls"` // false, true, skip-verify or preferred
	CAFile   string `mapstructure:"ca_file"`
}

var defaults = map[string]any{
	"issuer":                     "",
	"addr":                       ":8080",
	"path_prefix":                "",
	"introspection_endpoint":     "",
	"reject_missing_credentials": false,
	"clients_file":               "",
	"jwks_file":                  "",
	"metrics_enabled":            true,
	"storage.driver":             StorageMemory,
	"storage.bolt_path":          "introspect.db",
	"storage.mongodb.uri":        "mongodb://localhost:27017",
	"storage.mongodb.database":   "introspect",
	"storage.mysql.username":     "",
	"storage.mysql.password":     "",
	"storage.mysql.addr":         "localhost:3306",
	"storage.mysql.database":     "introspect",
	"storage.mysql.tls":          "false",
	"storage.mysql.ca_file":      "",
	"log.level":                  "info",
	"log.format":                 logs.FormatConsole,
	"log.file":                   "",
	"log.max_size_mb":            10,
	"log.max_backups":            5,
	"log.max_age_days":           30,
	"tracing.enabled":            false,
	"tracing.endpoint":           "localhost:4318",
	"tracing.insecure":           true,
	"tracing.sample_rate":        1.0,
}

// Load reads the configuration file at path, if any, and applies environment
// overrides such as INTROSPECT_STORAGE_DRIVER.
func Load(path string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var nf viper.ConfigFileNotFoundError
			if !errors.As(err, &nf) {
				return nil, fmt.Errorf("could not read the config file: %w", err)
			}
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("could not decode the config: %w", err)
	}
	// An unquoted yaml boolean would otherwise be decoded as "1" or "0".
	config.Storage.MySQL.TLS = v.GetString("storage.mysql.tls")

	if err := config.validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c Config) validate() error {
	if c.Issuer == "" {
		return errors.New("issuer is required")
	}
	if u, err := url.Parse(c.Issuer); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("issuer %q must be an absolute url", c.Issuer)
	}

	if c.PathPrefix != "" && !strings.HasPrefix(c.PathPrefix, "/") {
		return fmt.Errorf("path prefix %q must start with '/'", c.PathPrefix)
	}
	if c.IntrospectionEndpoint != "" && !strings.HasPrefix(c.IntrospectionEndpoint, "/") {
		return fmt.Errorf("introspection endpoint %q must start with '/'", c.IntrospectionEndpoint)
	}

	switch c.Storage.Driver {
	case StorageMemory:
	case StorageBolt:
		if c.Storage.BoltPath == "" {
			return errors.New("storage.bolt_path is required for the bolt driver")
		}
	case StorageMongoDB:
		if c.Storage.MongoDB.URI == "" || c.Storage.MongoDB.Database == "" {
			return errors.New("storage.mongodb.uri and storage.mongodb.database are required for the mongodb driver")
		}
	case StorageMySQL:
		if c.Storage.MySQL.Addr == "" || c.Storage.MySQL.Database == "" {
			return errors.New("storage.mysql.addr and storage.mysql.database are required for the mysql driver")
		}
		switch c.Storage.MySQL.TLS {
		case "false", "skip-verify", "preferred":
			if c.Storage.MySQL.CAFile != "" {
				return errors.New("storage.mysql.ca_file requires storage.mysql.tls to be true")
			}
		case "true":
		default:
			return fmt.Errorf("unknown storage.mysql.tls mode %q", c.Storage.MySQL.TLS)
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}

	if c.Tracing.Enabled && (c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1) {
		return fmt.Errorf("tracing.sample_rate must be between 0 and 1, got %v", c.Tracing.SampleRate)
	}

	return nil
}
