package core

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config contains all of the configuration options available to any of wowcore's
// server components.
type Config struct {
	// Hostname or IP address on which the servers will listen for connections.
	Hostname string `mapstructure:"hostname"`
	// Maximum number of concurrent connections the server will allow. Zero disables the cap.
	MaxConnections int `mapstructure:"max_connections"`

	Logging struct {
		// Full path to file to which logs will be written. Blank will write to stdout.
		LogFilePath string `mapstructure:"log_file_path"`
		// Minimum level of a log required to be written. Options: debug, info, warn, error
		LogLevel string `mapstructure:"log_level"`
		// Include the calling function in every log line.
		IncludeCaller bool `mapstructure:"include_caller"`
	} `mapstructure:"logging"`

	Database struct {
		// Either "sqlite" or "postgres".
		Engine string `mapstructure:"engine"`
		// Database file used by the sqlite engine.
		Filename string `mapstructure:"filename"`
		// Hostname of the Postgres database instance.
		Host string `mapstructure:"host"`
		// Port on db_host on which the Postgres instance is accepting connections.
		Port int `mapstructure:"port"`
		// Name of the database in Postgres for wowcore.
		Name string `mapstructure:"name"`
		// Username and password of a user with full RW privileges to ${db_name}.
		Username string `mapstructure:"username"`
		Password string `mapstructure:"password"`
		// Set to verify-full if the Postgres instance supports SSL.
		SSLMode string `mapstructure:"sslmode"`
	} `mapstructure:"database"`

	AuthServer struct {
		// Port on which the AUTH server will listen.
		Port int `mapstructure:"port"`
		// Size of the buffer each receive loop reads into.
		ReceiveBufferSize int `mapstructure:"receive_buffer_size"`
		// Client builds allowed to log in (5875 is 1.12.1).
		AcceptedBuilds []uint16 `mapstructure:"accepted_builds"`
		// How long an accepted logon challenge is remembered for the proof step.
		SessionTTL time.Duration `mapstructure:"session_ttl"`
	} `mapstructure:"auth_server"`

	Debugging struct {
		// Enable the pprof HTTP server.
		PprofEnabled bool `mapstructure:"pprof_enabled"`
		// Port on which a pprof server will be started if enabled.
		PprofPort int `mapstructure:"pprof_port"`
		// Dump every packet at debug level.
		PacketLoggingEnabled bool `mapstructure:"packet_logging_enabled"`
		// Enable database-level query logging.
		DatabaseLoggingEnabled bool `mapstructure:"database_logging_enabled"`
	} `mapstructure:"debugging"`
}

const envVarPrefix = "WOWCORE"

var defaults = map[string]interface{}{
	"hostname":                           "0.0.0.0",
	"max_connections":                    1000,
	"logging.log_file_path":              "",
	"logging.log_level":                  "info",
	"logging.include_caller":             false,
	"database.engine":                    "sqlite",
	"database.filename":                  "wowcore.db",
	"database.host":                      "localhost",
	"database.port":                      5432,
	"database.name":                      "wowcore",
	"database.username":                  "wowcore",
	"database.password":                  "",
	"database.sslmode":                   "disable",
	"auth_server.port":                   3724,
	"auth_server.receive_buffer_size":    1024,
	"auth_server.accepted_builds":        []uint16{5875},
	"auth_server.session_ttl":            "2m",
	"debugging.pprof_enabled":            false,
	"debugging.pprof_port":               4000,
	"debugging.packet_logging_enabled":   false,
	"debugging.database_logging_enabled": false,
}

// LoadConfig reads config.yaml from configPath on top of the built-in defaults.
// Every option can be overridden with an environment variable, e.g. auth_server.port
// is set by WOWCORE_AUTH_SERVER_PORT.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	v.AddConfigPath(configPath)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	v.SetEnvPrefix(envVarPrefix)
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: no config file in path %s", configPath)
		}
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// This allows us to set nested yaml config options through environment
	// variables. For example, database.host can be set using: <envVarPrefix>_DATABASE_HOST
	for _, k := range v.AllKeys() {
		envVar := envVarPrefix + "_" + strings.ReplaceAll(strings.ToUpper(k), ".", "_")
		if err := v.BindEnv(k, envVar); err != nil {
			return nil, fmt.Errorf("error binding %s to %s: %w", k, envVar, err)
		}
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config object: %w", err)
	}
	return config, nil
}

const databaseURITemplate = "host=%s port=%d dbname=%s user=%s password=%s sslmode=%s"

// DatabaseURL returns a database URL generated from the provided config values.
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf(
		databaseURITemplate,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.Username,
		c.Database.Password,
		c.Database.SSLMode,
	)
}

// AuthAddress is the address the AUTH server listens on.
func (c *Config) AuthAddress() string {
	return net.JoinHostPort(c.Hostname, strconv.Itoa(c.AuthServer.Port))
}

// BuildAccepted reports whether clients with the given build number may log in.
func (c *Config) BuildAccepted(build uint16) bool {
	for _, b := range c.AuthServer.AcceptedBuilds {
		if b == build {
			return true
		}
	}
	return false
}
