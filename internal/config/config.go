package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration accepts "5s"-style values in the YAML file; yaml.v3 has no
// native time.Duration support.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(v)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }

type Config struct {
	Serial    SerialConfig    `yaml:"serial"`
	Monitor   MonitorConfig   `yaml:"monitor"`
	Web       WebConfig       `yaml:"web"`
	Indicator IndicatorConfig `yaml:"indicator"`
}

type SerialConfig struct {
	// Source selects ingest: "serial" (live hardware) or "replay"
	// (recorded TSIP capture). Empty defaults to "serial".
	Source string       `yaml:"source"`
	Device string       `yaml:"device"`
	Baud   int          `yaml:"baud"`
	Replay ReplayConfig `yaml:"replay"`
}

type ReplayConfig struct {
	Path string `yaml:"path"`
	Loop bool   `yaml:"loop"`
}

type MonitorConfig struct {
	// StaleAfter is how long without a decoded report before the status
	// reads disconnected.
	StaleAfter Duration `yaml:"stale_after"`
}

type WebConfig struct {
	Listen string `yaml:"listen"`
}

type IndicatorConfig struct {
	Enable         bool     `yaml:"enable"`
	DisciplinedPin int      `yaml:"disciplined_pin"`
	ConnectedPin   int      `yaml:"connected_pin"`
	Period         Duration `yaml:"period"`
}

func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, err
	}
	if err := DefaultAndValidate(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Default is the configuration used when no file is present: live serial
// with auto-detected device, web on :8080, indicators off.
func Default() Config {
	var cfg Config
	_ = DefaultAndValidate(&cfg)
	return cfg
}

// DefaultAndValidate fills zero fields with defaults and rejects
// combinations the services cannot run with.
func DefaultAndValidate(cfg *Config) error {
	switch cfg.Serial.Source {
	case "", "serial", "replay":
	default:
		return fmt.Errorf("serial.source must be \"serial\" or \"replay\"")
	}
	if cfg.Serial.Source == "replay" && cfg.Serial.Replay.Path == "" {
		return fmt.Errorf("serial.replay.path is required when serial.source is replay")
	}
	if cfg.Serial.Baud == 0 {
		cfg.Serial.Baud = 9600
	}
	switch cfg.Serial.Baud {
	case 4800, 9600, 19200, 38400, 57600, 115200:
	default:
		return fmt.Errorf("serial.baud %d is not a supported rate", cfg.Serial.Baud)
	}

	if cfg.Monitor.StaleAfter <= 0 {
		cfg.Monitor.StaleAfter = Duration(5 * time.Second)
	}

	if cfg.Web.Listen == "" {
		cfg.Web.Listen = ":8080"
	}

	if cfg.Indicator.Enable {
		if cfg.Indicator.DisciplinedPin <= 0 || cfg.Indicator.ConnectedPin <= 0 {
			return fmt.Errorf("indicator pins are required when indicator.enable is true")
		}
		if cfg.Indicator.DisciplinedPin == cfg.Indicator.ConnectedPin {
			return fmt.Errorf("indicator pins must differ")
		}
	}
	if cfg.Indicator.Period <= 0 {
		cfg.Indicator.Period = Duration(1 * time.Second)
	}

	return nil
}
