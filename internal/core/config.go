package core

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config contains all of the configuration options available to any of
// parlor's components. Capacities are fixed at startup and treated as
// immutable for the lifetime of the process.
type Config struct {
	// Hostname or IP address on which the server will listen for connections.
	Hostname string `mapstructure:"hostname"`
	// Port on which the lobby server will listen.
	Port int `mapstructure:"port"`

	// Maximum number of sessions the server will admit into the lobby flow.
	MaxSessions int `mapstructure:"max_sessions"`
	// Extra session slots beyond max_sessions so that over-capacity clients
	// can be turned away at login rather than at accept.
	ExtraSessions int `mapstructure:"extra_sessions"`

	// Per-session receive/send buffer capacities (application level).
	RecvBufferSize int `mapstructure:"recv_buffer_size"`
	SendBufferSize int `mapstructure:"send_buffer_size"`
	// Kernel socket buffer sizes applied to accepted connections.
	SockOptRecvBufferSize int `mapstructure:"sockopt_recv_buffer_size"`
	SockOptSendBufferSize int `mapstructure:"sockopt_send_buffer_size"`

	Login struct {
		// Force-close sessions that have not authenticated within the timeout.
		CheckEnabled bool `mapstructure:"check_enabled"`
		// Seconds a session may remain connected without logging in.
		TimeoutSeconds int `mapstructure:"timeout_seconds"`
	} `mapstructure:"login"`

	Lobby struct {
		// Number of lobbies created at startup.
		MaxLobbies int `mapstructure:"max_lobbies"`
		// Maximum concurrent users per lobby.
		MaxLobbyUsers int `mapstructure:"max_lobby_users"`
		// Rooms owned by each lobby.
		MaxRoomsPerLobby int `mapstructure:"max_rooms_per_lobby"`
		// Players per room. The game currently requires exactly two.
		MaxRoomUsers int `mapstructure:"max_room_users"`
	} `mapstructure:"lobby"`

	Game struct {
		// Seconds a player has to pick a hand once a round is underway.
		SelectTimeoutSeconds int `mapstructure:"select_timeout_seconds"`
	} `mapstructure:"game"`

	Logging struct {
		// Minimum level of a log required to be written. Options: debug, info, warn, error
		LogLevel string `mapstructure:"log_level"`
		// Full path to file to which logs will be written. Blank will write to stdout.
		LogFilePath string `mapstructure:"log_file_path"`
	} `mapstructure:"logging"`

	Debugging struct {
		// Enable the pprof server.
		PprofEnabled bool `mapstructure:"pprof_enabled"`
		// Port on which the pprof server will be started if enabled.
		PprofPort int `mapstructure:"pprof_port"`
		// Dump decoded frames to the log.
		PacketLoggingEnabled bool `mapstructure:"packet_logging_enabled"`
	} `mapstructure:"debugging"`
}

const envVarPrefix = "PARLOR"

// LoadConfig initializes Viper with the contents of the config file under configPath.
func LoadConfig(configPath string) *Config {
	viper.AddConfigPath(configPath)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetEnvPrefix(envVarPrefix)
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			fmt.Printf("error reading config file: no config file in path %s", configPath)
		} else {
			fmt.Printf("error reading config file: %v", err)
		}
		os.Exit(1)
	}

	// This allows us to set nested yaml config options through environment
	// variables. For example, lobby.max_lobbies can be set using: <envVarPrefix>_LOBBY_MAX_LOBBIES
	for _, k := range viper.AllKeys() {
		envVar := strings.ReplaceAll(strings.ToUpper(k), ".", "_")
		if err := viper.BindEnv(k, envVarPrefix+"_"+envVar); err != nil {
			fmt.Printf("error binding %s to %s", k, envVarPrefix+"_"+envVar)
			os.Exit(1)
		}
	}

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		fmt.Printf("error unmarshaling config object: %v", err)
		os.Exit(1)
	}
	return config
}

// ListenAddress returns the address on which the lobby server accepts connections.
func (c *Config) ListenAddress() string {
	return fmt.Sprintf("%s:%v", c.Hostname, c.Port)
}

// SessionPoolSize returns the total number of session slots to allocate.
func (c *Config) SessionPoolSize() int {
	return c.MaxSessions + c.ExtraSessions
}

// LoginTimeout returns the login deadline as a duration.
func (c *Config) LoginTimeout() time.Duration {
	return time.Duration(c.Login.TimeoutSeconds) * time.Second
}

// SelectTimeout returns the per-round selection deadline as a duration.
func (c *Config) SelectTimeout() time.Duration {
	return time.Duration(c.Game.SelectTimeoutSeconds) * time.Second
}
