package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"codeberg.org/mutker/atkctl/internal/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultInterval      = 2
	DefaultFanMaxRPM     = 6600
	DefaultDevicePath    = `\\.\ATKACPI`
	DefaultPlatform      = PlatformAuto
	DefaultCacheBackend  = CacheBackendFile
	DefaultLogMaxSizeMB  = 10
	DefaultLogMaxBackups = 5

	configName   = "atkctl"
	configType   = "toml"
	configEnvVar = "ATKCTL_CONFIG"
	envPrefix    = "ATKCTL"
	cacheDirName = "atkctl"
)

// Platform selection values for the platform key.
const (
	PlatformAuto   = "auto"
	PlatformVendor = "vendor"
	PlatformNative = "native"
)

// Mode cache backends.
const (
	CacheBackendFile   = "file"
	CacheBackendSQLite = "sqlite"
)

type Config struct {
	Interval    int    `mapstructure:"interval"`
	Monitor     bool   `mapstructure:"monitor"`
	Debug       bool   `mapstructure:"debug"`
	Verbose     bool   `mapstructure:"verbose"`
	JSON        bool   `mapstructure:"json"`
	DumpSensors bool   `mapstructure:"dump_sensors"`
	CPUMode     string `mapstructure:"cpu_mode"`
	GPUMode     string `mapstructure:"gpu_mode"`

	Platform   string `mapstructure:"platform"`
	DevicePath string `mapstructure:"device_path"`
	FanMaxRPM  int    `mapstructure:"fan_max_rpm"`

	ModeCache        string `mapstructure:"mode_cache"`
	ModeCacheBackend string `mapstructure:"mode_cache_backend"`

	LogFile       string `mapstructure:"log_file"`
	LogMaxSizeMB  int    `mapstructure:"log_max_size_mb"`
	LogMaxBackups int    `mapstructure:"log_max_backups"`
}

// Load reads configuration from the config file, ATKCTL_* environment
// variables and the given command line arguments, in increasing priority.
func Load(args []string, opts ...Option) (*Config, error) {
	errFactory := errors.New()

	o := &options{envPrefix: envPrefix}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
		}
	}

	v := viper.New()
	setDefaults(v)

	flags := newFlagSet()
	if err := flags.Parse(args); err != nil {
		return nil, errFactory.Wrap(errors.ErrBindFlags, err)
	}

	// Flags use dashes, config keys use underscores
	var bindErr error
	flags.VisitAll(func(f *pflag.Flag) {
		if f.Name == "config" {
			return
		}
		if err := v.BindPFlag(strings.ReplaceAll(f.Name, "-", "_"), f); err != nil && bindErr == nil {
			bindErr = err
		}
	})
	if bindErr != nil {
		return nil, errFactory.Wrap(errors.ErrBindFlags, bindErr)
	}

	v.SetEnvPrefix(o.envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	configPath := o.configPath
	if flagPath, _ := flags.GetString("config"); flagPath != "" {
		configPath = flagPath
	}
	if configPath == "" {
		configPath = os.Getenv(configEnvVar)
	}

	if err := readConfigFile(v, configPath); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
	}

	if cfg.ModeCache == "" {
		cfg.ModeCache = DefaultModeCachePath(cfg.ModeCacheBackend)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func newFlagSet() *pflag.FlagSet {
	flags := pflag.NewFlagSet("atkctl", pflag.ContinueOnError)

	flags.String("config", "", "Path to a TOML configuration file")
	flags.Int("interval", DefaultInterval, "Interval between snapshots in monitor mode (seconds)")
	flags.Bool("monitor", false, "Log a thermal snapshot every interval until interrupted")
	flags.Bool("debug", false, "Enable debugging mode")
	flags.Bool("verbose", false, "Enable verbose logging")
	flags.Bool("json", false, "Print results as JSON")
	flags.Bool("dump-sensors", false, "List every sensor reported by the hardware monitor library")
	flags.String("cpu-mode", "", "Set CPU mode: silent, balanced, turbo or performance")
	flags.String("gpu-mode", "", "Set GPU mode: eco or standard")
	flags.String("platform", DefaultPlatform, "Sensor platform: auto, vendor or native")
	flags.String("device-path", DefaultDevicePath, "ATK ACPI device path")
	flags.Int("fan-max-rpm", DefaultFanMaxRPM, "Fan speed reported as 100%")
	flags.String("mode-cache", "", "Path of the persisted mode cache")
	flags.String("mode-cache-backend", DefaultCacheBackend, "Mode cache backend: file or sqlite")
	flags.String("log-file", "", "Also write logs to this rotating file")

	return flags
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("interval", DefaultInterval)
	v.SetDefault("platform", DefaultPlatform)
	v.SetDefault("device_path", DefaultDevicePath)
	v.SetDefault("fan_max_rpm", DefaultFanMaxRPM)
	v.SetDefault("mode_cache_backend", DefaultCacheBackend)
	v.SetDefault("log_max_size_mb", DefaultLogMaxSizeMB)
	v.SetDefault("log_max_backups", DefaultLogMaxBackups)
}

func readConfigFile(v *viper.Viper, path string) error {
	errFactory := errors.New()

	v.SetConfigType(configType)
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(configName)
		v.AddConfigPath("/etc")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, cacheDirName))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		// Only the searched locations are optional; a named file must exist
		var notFound viper.ConfigFileNotFoundError
		if path == "" && errors.As(err, &notFound) {
			return nil
		}
		return errFactory.Wrap(errors.ErrReadConfig, err)
	}

	return nil
}

// DefaultModeCachePath returns where the mode cache lives when none is configured.
func DefaultModeCachePath(backend string) string {
	name := "mode_cache.json"
	if backend == CacheBackendSQLite {
		name = "mode_cache.db"
	}

	if runtime.GOOS != "windows" {
		return filepath.Join("/var/lib", cacheDirName, name)
	}

	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, cacheDirName, name)
	}

	return filepath.Join(os.TempDir(), cacheDirName, name)
}

// Validate checks the loaded values.
func (c *Config) Validate() error {
	errFactory := errors.New()

	if c.Interval <= 0 {
		return errFactory.WithData(errors.ErrInvalidInterval, c.Interval)
	}

	switch c.Platform {
	case PlatformAuto, PlatformVendor, PlatformNative:
	default:
		return errFactory.WithData(errors.ErrInvalidConfig, "unknown platform "+c.Platform)
	}

	switch c.ModeCacheBackend {
	case CacheBackendFile, CacheBackendSQLite:
	default:
		return errFactory.WithData(errors.ErrInvalidConfig, "unknown mode cache backend "+c.ModeCacheBackend)
	}

	if c.FanMaxRPM <= 0 {
		return errFactory.WithData(errors.ErrInvalidConfig, "fan_max_rpm must be positive")
	}

	if c.DevicePath == "" {
		return errFactory.WithData(errors.ErrInvalidConfig, "device_path is empty")
	}

	return nil
}
