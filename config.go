package monknet

import (
	"io/ioutil"
	"strings"
	"time"

	"gopkg.in/yaml.v2"
)

// DefaultConfigPath is where the executable looks for its configuration
const DefaultConfigPath = "config/monknet.yml"

// Config holds the parsed configuration file
// A nil *Config is valid and makes every lookup return its default
type Config struct {
	m map[interface{}]interface{}
}

// LoadConfig loads the configuration file at path
func LoadConfig(path string) (*Config, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return ParseConfig(data)
}

// ParseConfig parses YAML configuration data
func ParseConfig(data []byte) (*Config, error) {
	c := &Config{m: make(map[interface{}]interface{})}

	err := yaml.Unmarshal(data, &c.m)
	if err != nil {
		return nil, err
	}

	return c, nil
}

// Key returns a key in the configuration
// Nested keys are separated by colons, e.g. "ack:timeout"
func (c *Config) Key(key string) interface{} {
	if c == nil {
		return nil
	}

	keys := strings.Split(key, ":")
	m := c.m
	for i := 0; i < len(keys)-1; i++ {
		sub, ok := m[keys[i]].(map[interface{}]interface{})
		if !ok {
			return nil
		}
		m = sub
	}

	return m[keys[len(keys)-1]]
}

// String returns a string key or def
func (c *Config) String(key, def string) string {
	v, ok := c.Key(key).(string)
	if !ok {
		return def
	}

	return v
}

// Int returns an integer key or def
func (c *Config) Int(key string, def int) int {
	v, ok := c.Key(key).(int)
	if !ok {
		return def
	}

	return v
}

// Bool returns a boolean key or def
func (c *Config) Bool(key string, def bool) bool {
	v, ok := c.Key(key).(bool)
	if !ok {
		return def
	}

	return v
}

// Duration returns a duration key or def
// Strings are parsed with time.ParseDuration, integers are milliseconds
func (c *Config) Duration(key string, def time.Duration) time.Duration {
	switch v := c.Key(key).(type) {
	case string:
		d, err := time.ParseDuration(v)
		if err != nil {
			return def
		}
		return d
	case int:
		return time.Duration(v) * time.Millisecond
	}

	return def
}

// settings are the values a Session reads from its Config
type settings struct {
	host       string
	clientHost string
	serverPort int

	ackTimeout    time.Duration
	maxRetries    int
	sweepInterval time.Duration
	peerTimeout   time.Duration
	keepalive     time.Duration

	eagerConnect     bool
	handshakeTimeout time.Duration

	dscp   int
	buffer int
}

func (c *Config) settings() settings {
	peerTimeout := c.Duration("peer_timeout", 30*time.Second)

	return settings{
		host:       c.String("host", "0.0.0.0:19000"),
		clientHost: c.String("client_host", "0.0.0.0:19001"),
		serverPort: c.Int("server_port", ServerPort),

		ackTimeout:    c.Duration("ack:timeout", time.Second),
		maxRetries:    c.Int("ack:max_retries", 5),
		sweepInterval: c.Duration("ack:sweep_interval", 250*time.Millisecond),
		peerTimeout:   peerTimeout,
		keepalive:     c.Duration("keepalive", peerTimeout/3),

		eagerConnect:     c.Bool("handshake:eager", true),
		handshakeTimeout: c.Duration("handshake:timeout", 5*time.Second),

		dscp:   c.Int("dscp", 0),
		buffer: c.Int("inbound_buffer", 64),
	}
}
