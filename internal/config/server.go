package config

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

const (
	EnvServerHost              = "VERIDID_SERVER_HOST"
	EnvServerPort              = "VERIDID_SERVER_PORT"
	EnvServerReadTimeout       = "VERIDID_SERVER_READ_TIMEOUT"
	EnvServerReadHeaderTimeout = "VERIDID_SERVER_READ_HEADER_TIMEOUT"
	EnvServerWriteTimeout      = "VERIDID_SERVER_WRITE_TIMEOUT"
	EnvServerIdleTimeout       = "VERIDID_SERVER_IDLE_TIMEOUT"
	EnvServerShutdownTimeout   = "VERIDID_SERVER_SHUTDOWN_TIMEOUT"
)

// ServerConfig holds HTTP listener parameters. Timeouts are duration strings.
type ServerConfig struct {
	Host              string `toml:"host"`
	Port              int    `toml:"port"`
	ReadTimeout       string `toml:"read_timeout"`
	ReadHeaderTimeout string `toml:"read_header_timeout"`
	WriteTimeout      string `toml:"write_timeout"`
	IdleTimeout       string `toml:"idle_timeout"`
	ShutdownTimeout   string `toml:"shutdown_timeout"`
}

// ServerTimeouts are the parsed ServerConfig durations.
type ServerTimeouts struct {
	Read       time.Duration
	ReadHeader time.Duration
	Write      time.Duration
	Idle       time.Duration
	Shutdown   time.Duration
}

// Addr returns the host:port listen address.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Timeouts parses the configured durations. Finalize has validated them.
func (c *ServerConfig) Timeouts() ServerTimeouts {
	return ServerTimeouts{
		Read:       duration(c.ReadTimeout),
		ReadHeader: duration(c.ReadHeaderTimeout),
		Write:      duration(c.WriteTimeout),
		Idle:       duration(c.IdleTimeout),
		Shutdown:   duration(c.ShutdownTimeout),
	}
}

// Finalize applies defaults, environment overrides, and validation.
func (c *ServerConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *ServerConfig) Merge(overlay *ServerConfig) {
	mergeString(&c.Host, overlay.Host)
	if overlay.Port != 0 {
		c.Port = overlay.Port
	}
	mergeString(&c.ReadTimeout, overlay.ReadTimeout)
	mergeString(&c.ReadHeaderTimeout, overlay.ReadHeaderTimeout)
	mergeString(&c.WriteTimeout, overlay.WriteTimeout)
	mergeString(&c.IdleTimeout, overlay.IdleTimeout)
	mergeString(&c.ShutdownTimeout, overlay.ShutdownTimeout)
}

func (c *ServerConfig) loadDefaults() {
	if c.Host == "" {
		c.Host = "0.0.0.0"
	}
	if c.Port == 0 {
		c.Port = 8080
	}
	defaultDuration(&c.ReadTimeout, time.Minute)
	defaultDuration(&c.ReadHeaderTimeout, 10*time.Second)
	defaultDuration(&c.WriteTimeout, 2*time.Minute)
	defaultDuration(&c.IdleTimeout, 2*time.Minute)
	defaultDuration(&c.ShutdownTimeout, 15*time.Second)
}

func (c *ServerConfig) loadEnv() {
	envString(EnvServerHost, &c.Host)
	envInt(EnvServerPort, &c.Port)
	envString(EnvServerReadTimeout, &c.ReadTimeout)
	envString(EnvServerReadHeaderTimeout, &c.ReadHeaderTimeout)
	envString(EnvServerWriteTimeout, &c.WriteTimeout)
	envString(EnvServerIdleTimeout, &c.IdleTimeout)
	envString(EnvServerShutdownTimeout, &c.ShutdownTimeout)
}

func (c *ServerConfig) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	return validDurations(map[string]string{
		"read_timeout":        c.ReadTimeout,
		"read_header_timeout": c.ReadHeaderTimeout,
		"write_timeout":       c.WriteTimeout,
		"idle_timeout":        c.IdleTimeout,
		"shutdown_timeout":    c.ShutdownTimeout,
	})
}
