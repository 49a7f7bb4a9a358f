// Package config loads run settings from defaults, an optional YAML file and
// COMPOSECERT_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/google/shlex"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. COMPOSECERT_TARGET_IMAGE.
const EnvPrefix = "COMPOSECERT"

// Config is the full set of run settings.
type Config struct {
	Policy  string        `yaml:"policy" mapstructure:"policy"` // strict or lenient
	Runtime RuntimeConfig `yaml:"runtime" mapstructure:"runtime"`
	Compose ComposeConfig `yaml:"compose" mapstructure:"compose"`
	Target  TargetConfig  `yaml:"target" mapstructure:"target"`
	Process ProcessConfig `yaml:"process" mapstructure:"process"`
	Daemon  DaemonConfig  `yaml:"daemon" mapstructure:"daemon"`
	Report  ReportConfig  `yaml:"report" mapstructure:"report"`
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`
}

// RuntimeConfig selects the container daemon.
type RuntimeConfig struct {
	Host string `yaml:"host" mapstructure:"host"` // empty uses DOCKER_HOST or the platform default
}

// ComposeConfig controls environment provisioning.
type ComposeConfig struct {
	Command string        `yaml:"command" mapstructure:"command"` // empty detects docker-compose or docker compose
	File    string        `yaml:"file" mapstructure:"file"`
	Project string        `yaml:"project" mapstructure:"project"`
	Settle  time.Duration `yaml:"settle" mapstructure:"settle"`
	Keep    bool          `yaml:"keep" mapstructure:"keep"` // skip teardown
}

// TargetConfig names what the checks expect to find.
type TargetConfig struct {
	Image     string `yaml:"image" mapstructure:"image"`
	Container string `yaml:"container" mapstructure:"container"`
	Network   string `yaml:"network" mapstructure:"network"`
	LogMarker string `yaml:"log_marker" mapstructure:"log_marker"`
}

// ProcessConfig controls the process-list marker check.
type ProcessConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Command string `yaml:"command" mapstructure:"command"`
	Marker  string `yaml:"marker" mapstructure:"marker"`
}

// DaemonConfig constrains the daemon.
type DaemonConfig struct {
	MinVersion string `yaml:"min_version" mapstructure:"min_version"`
}

// ReportConfig selects the machine-readable report file.
type ReportConfig struct {
	Path   string `yaml:"path" mapstructure:"path"` // empty writes no file
	Format string `yaml:"format" mapstructure:"format"`
}

// LoggingConfig controls diagnostic logging.
type LoggingConfig struct {
	Format  string `yaml:"format" mapstructure:"format"` // text or json
	Verbose bool   `yaml:"verbose" mapstructure:"verbose"`
	File    string `yaml:"file" mapstructure:"file"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("policy", "lenient")
	v.SetDefault("runtime.host", "")
	v.SetDefault("compose.command", "")
	v.SetDefault("compose.file", "")
	v.SetDefault("compose.project", "")
	v.SetDefault("compose.settle", "5s")
	v.SetDefault("compose.keep", false)
	v.SetDefault("target.image", "hello-world")
	v.SetDefault("target.container", "hello_test_container")
	v.SetDefault("target.network", "test_net")
	v.SetDefault("target.log_marker", "Hello from Docker!")
	v.SetDefault("process.enabled", false)
	v.SetDefault("process.command", "docker ps")
	v.SetDefault("process.marker", "yaksha")
	v.SetDefault("daemon.min_version", "")
	v.SetDefault("report.path", "")
	v.SetDefault("report.format", "json")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.verbose", false)
	v.SetDefault("logging.file", "")
}

// bindEnvVars binds every known key to COMPOSECERT_<SECTION>_<KEY>.
// AutomaticEnv alone does not reach nested keys during Unmarshal.
func bindEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		env := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		_ = v.BindEnv(key, env)
	}
}

// Load reads configuration. An explicit configPath must exist; otherwise
// ./composecert.yaml (or .yml) is used when present.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	bindEnvVars(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Leave the config type unset; with one set viper also reads a bare
		// "composecert" file, i.e. the built binary.
		v.AddConfigPath(".")
		v.SetConfigName("composecert")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for invalid values and returns a
// descriptive error if any field is incorrect.
func (c *Config) Validate() error {
	var errs []string

	switch strings.ToLower(c.Policy) {
	case "strict", "lenient":
	default:
		errs = append(errs, fmt.Sprintf("invalid policy %q: must be \"strict\" or \"lenient\"", c.Policy))
	}

	if c.Compose.Settle < 0 {
		errs = append(errs, fmt.Sprintf("compose.settle must not be negative, got %s", c.Compose.Settle))
	}
	if c.Compose.Command != "" {
		if _, err := shlex.Split(c.Compose.Command); err != nil {
			errs = append(errs, fmt.Sprintf("invalid compose.command %q: %v", c.Compose.Command, err))
		}
	}

	for _, f := range []struct{ key, val string }{
		{"target.image", c.Target.Image},
		{"target.container", c.Target.Container},
		{"target.network", c.Target.Network},
		{"target.log_marker", c.Target.LogMarker},
	} {
		if strings.TrimSpace(f.val) == "" {
			errs = append(errs, f.key+" must not be empty")
		}
	}

	if c.Process.Enabled {
		if strings.TrimSpace(c.Process.Marker) == "" {
			errs = append(errs, "process.marker must not be empty when process.enabled is set")
		}
		if args, err := c.ProcessCommand(); err != nil {
			errs = append(errs, err.Error())
		} else if len(args) == 0 {
			errs = append(errs, "process.command must not be empty when process.enabled is set")
		}
	}

	if c.Daemon.MinVersion != "" {
		if _, err := semver.NewVersion(c.Daemon.MinVersion); err != nil {
			errs = append(errs, fmt.Sprintf("invalid daemon.min_version %q: %v", c.Daemon.MinVersion, err))
		}
	}

	switch strings.ToLower(c.Report.Format) {
	case "", "json", "yaml", "yml":
	default:
		errs = append(errs, fmt.Sprintf("invalid report.format %q: must be \"json\" or \"yaml\"", c.Report.Format))
	}

	switch c.Logging.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Sprintf("invalid logging.format %q: must be \"text\" or \"json\"", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  %s", strings.Join(errs, "\n  "))
	}
	return nil
}

// ProcessCommand splits process.command into argv.
func (c *Config) ProcessCommand() ([]string, error) {
	args, err := shlex.Split(c.Process.Command)
	if err != nil {
		return nil, fmt.Errorf("invalid process.command %q: %w", c.Process.Command, err)
	}
	return args, nil
}

// MinDaemonVersion returns the parsed daemon.min_version, or nil when unset
// or invalid.
func (c *Config) MinDaemonVersion() *semver.Version {
	if c.Daemon.MinVersion == "" {
		return nil
	}
	v, err := semver.NewVersion(c.Daemon.MinVersion)
	if err != nil {
		return nil
	}
	return v
}
