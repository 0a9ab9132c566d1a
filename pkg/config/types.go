package config

import (
	"fmt"
	"strconv"
	"time"
)

// Config represents the persistent finchat configuration stored as config.toml
// in the .finchat/ directory. The TOML layout uses sections for logical grouping.
type Config struct {
	Version int           `toml:"version"`
	Service ServiceConfig `toml:"service"`
	Client  ClientConfig  `toml:"client"`
	Stream  StreamConfig  `toml:"stream"`
}

// ServiceConfig holds advisor service settings.
type ServiceConfig struct {
	Listen  string `toml:"listen,omitempty"`
	LogFile string `toml:"log_file,omitempty"`
}

// ClientConfig holds settings for CLI commands that connect to a running
// advisor service (e.g. finchat chat, finchat ask). Target is a full URL
// (scheme + host + port).
type ClientConfig struct {
	Target           string `toml:"target,omitempty"`
	User             string `toml:"user,omitempty"`
	ConnectTimeoutMS uint   `toml:"connect_timeout_ms,omitempty"`
}

// StreamConfig holds chunk pacing settings shared by the service's SSE
// endpoint and the simulated transport.
type StreamConfig struct {
	ChunkDelayMS uint `toml:"chunk_delay_ms,omitempty"`
}

// ConnectTimeout returns the connect timeout as a time.Duration.
func (c ClientConfig) ConnectTimeout() time.Duration {
	return time.Duration(c.ConnectTimeoutMS) * time.Millisecond
}

// ChunkDelay returns the inter-chunk delay as a time.Duration.
func (s StreamConfig) ChunkDelay() time.Duration {
	return time.Duration(s.ChunkDelayMS) * time.Millisecond
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"service.listen": {
		get: func(c *Config) string { return c.Service.Listen },
		set: func(c *Config, v string) error { c.Service.Listen = v; return nil },
	},
	"service.log_file": {
		get: func(c *Config) string { return c.Service.LogFile },
		set: func(c *Config, v string) error { c.Service.LogFile = v; return nil },
	},
	"client.target": {
		get: func(c *Config) string { return c.Client.Target },
		set: func(c *Config, v string) error { c.Client.Target = v; return nil },
	},
	"client.user": {
		get: func(c *Config) string { return c.Client.User },
		set: func(c *Config, v string) error { c.Client.User = v; return nil },
	},
	"client.connect_timeout_ms": {
		get: func(c *Config) string {
			if c.Client.ConnectTimeoutMS == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(c.Client.ConnectTimeoutMS), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for client.connect_timeout_ms: %w", err)
			}
			c.Client.ConnectTimeoutMS = uint(n)
			return nil
		},
	},
	"stream.chunk_delay_ms": {
		get: func(c *Config) string {
			if c.Stream.ChunkDelayMS == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(c.Stream.ChunkDelayMS), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for stream.chunk_delay_ms: %w", err)
			}
			c.Stream.ChunkDelayMS = uint(n)
			return nil
		},
	},
}
