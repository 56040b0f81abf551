package core

import (
	"encoding/json"
	"errors"
)

// Where frames are published to the host
const (
	PublishFromReceiver = "receiver" // As soon as a frame is received
	PublishFromRender   = "render"   // After the strip has been written
	PublishOff          = "off"
)

// MaxLEDCount bounds the strip length
const MaxLEDCount = 1024

var ErrConfig = errors.New("invalid configuration")

// Config holds the build-time settings of the bridge
type Config struct {
	LEDCount      int    `json:"led_count"`
	PublishFrom   string `json:"publish_from"`
	StartCode     bool   `json:"start_code"`
	StatusLED     bool   `json:"status_led"`
	Debug         bool   `json:"debug"`
	IdleTimeoutMS uint32 `json:"idle_timeout_ms"`
}

// DefaultConfig returns the configuration used when no file is embedded
func DefaultConfig() *Config {
	return &Config{
		LEDCount:      170,
		PublishFrom:   PublishFromReceiver,
		StartCode:     true,
		StatusLED:     true,
		IdleTimeoutMS: 1000,
	}
}

// LoadConfig parses a JSON configuration. Missing fields keep their defaults.
func LoadConfig(jsonData []byte) (*Config, error) {
	config := DefaultConfig()

	err := json.Unmarshal(jsonData, config)
	if err != nil {
		return nil, err
	}

	// Apply defaults
	applyDefaults(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// applyDefaults fills values an explicit zero or empty string would disable
func applyDefaults(config *Config) {
	if config.LEDCount == 0 {
		config.LEDCount = 170 // One full universe of RGB pixels
	}
	if config.PublishFrom == "" {
		config.PublishFrom = PublishFromReceiver
	}
	if config.IdleTimeoutMS == 0 {
		config.IdleTimeoutMS = 1000
	}
}

// Validate checks the configuration for values the bridge cannot run with
func (c *Config) Validate() error {
	if c.LEDCount < 1 || c.LEDCount > MaxLEDCount {
		return ErrConfig
	}
	switch c.PublishFrom {
	case PublishFromReceiver, PublishFromRender, PublishOff:
	default:
		return ErrConfig
	}
	return nil
}
