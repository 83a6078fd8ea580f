package server

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/pokerroom/holdem/internal/room"
)

// Config is the complete server configuration.
type Config struct {
	Server ServerSettings `hcl:"server,block"`
	Store  StoreSettings  `hcl:"store,block"`
	Rooms  RoomSettings   `hcl:"rooms,block"`
}

// ServerSettings contains the listener configuration.
type ServerSettings struct {
	Address  string `hcl:"address,optional"`
	Port     int    `hcl:"port,optional"`
	LogLevel string `hcl:"log_level,optional"`
}

// StoreSettings selects the persistence backend.
type StoreSettings struct {
	Driver string `hcl:"driver,optional"` // "bolt" or "mem"
	Path   string `hcl:"path,optional"`
}

// RoomSettings tunes per-room behavior.
type RoomSettings struct {
	TurnTimeoutSeconds  int `hcl:"turn_timeout_seconds,optional"`
	GraceTimeoutSeconds int `hcl:"grace_timeout_seconds,optional"`
	QueueSize           int `hcl:"queue_size,optional"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerSettings{
			Address:  "localhost",
			Port:     8080,
			LogLevel: "info",
		},
		Store: StoreSettings{
			Driver: "bolt",
			Path:   "holdem.db",
		},
		Rooms: RoomSettings{
			TurnTimeoutSeconds:  int(room.DefaultTurnTimeout / time.Second),
			GraceTimeoutSeconds: int(room.DefaultGraceTimeout / time.Second),
			QueueSize:           room.DefaultQueueSize,
		},
	}
}

// LoadConfig reads an HCL configuration file, filling omitted fields from
// the defaults. A missing file is not an error; the defaults are used.
func LoadConfig(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parsing config: %s", diags.Error())
	}

	config := DefaultConfig()
	if diags := gohcl.DecodeBody(file.Body, nil, config); diags.HasErrors() {
		return nil, fmt.Errorf("decoding config: %s", diags.Error())
	}
	applyDefaults(config)
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// applyDefaults backfills fields the file left zero. gohcl decodes blocks
// into fresh structs, so defaults do not survive decoding on their own.
func applyDefaults(c *Config) {
	d := DefaultConfig()
	if c.Server.Address == "" {
		c.Server.Address = d.Server.Address
	}
	if c.Server.Port == 0 {
		c.Server.Port = d.Server.Port
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = d.Server.LogLevel
	}
	if c.Store.Driver == "" {
		c.Store.Driver = d.Store.Driver
	}
	if c.Store.Path == "" {
		c.Store.Path = d.Store.Path
	}
	if c.Rooms.TurnTimeoutSeconds == 0 {
		c.Rooms.TurnTimeoutSeconds = d.Rooms.TurnTimeoutSeconds
	}
	if c.Rooms.GraceTimeoutSeconds == 0 {
		c.Rooms.GraceTimeoutSeconds = d.Rooms.GraceTimeoutSeconds
	}
	if c.Rooms.QueueSize == 0 {
		c.Rooms.QueueSize = d.Rooms.QueueSize
	}
}

// Validate checks the configuration for usable values.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	switch c.Store.Driver {
	case "bolt", "mem":
	default:
		return fmt.Errorf("unknown store driver: %q", c.Store.Driver)
	}
	if c.Store.Driver == "bolt" && c.Store.Path == "" {
		return fmt.Errorf("bolt store requires a path")
	}
	if c.Rooms.TurnTimeoutSeconds < 1 {
		return fmt.Errorf("turn timeout must be positive")
	}
	if c.Rooms.GraceTimeoutSeconds < 1 {
		return fmt.Errorf("grace timeout must be positive")
	}
	return nil
}

// ListenAddr returns the address:port string for the HTTP listener.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}

// RoomOptions converts the rooms block into coordinator options.
func (c *Config) RoomOptions() room.Options {
	return room.Options{
		TurnTimeout:  time.Duration(c.Rooms.TurnTimeoutSeconds) * time.Second,
		GraceTimeout: time.Duration(c.Rooms.GraceTimeoutSeconds) * time.Second,
		QueueSize:    c.Rooms.QueueSize,
	}
}
