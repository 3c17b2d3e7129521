package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/danieljhkim/workbench/internal/fsops"
)

// EnvPrefix is the prefix for settings read from the environment,
// e.g. WORKBENCH_LAYOUT_FILES_DIR or WORKBENCH_LOGGING_LEVEL.
const EnvPrefix = "WORKBENCH"

// Settings holds per-workspace configuration.
type Settings struct {
	Layout      LayoutSettings      `mapstructure:"layout"`
	Code        CodeSettings        `mapstructure:"code"`
	Environment EnvironmentSettings `mapstructure:"environment"`
	Logging     LoggingSettings     `mapstructure:"logging"`
}

// LayoutSettings names the facet directories relative to the workspace root.
type LayoutSettings struct {
	EnvironmentDir string `mapstructure:"environment_dir"`
	FilesDir       string `mapstructure:"files_dir"`
}

// CodeSettings configures the code facet.
type CodeSettings struct {
	// Ignore holds extra doublestar patterns excluded from the code facet,
	// in addition to the patterns in .workbenchignore.
	Ignore []string `mapstructure:"ignore"`
}

// EnvironmentSettings configures the default environment definition.
type EnvironmentSettings struct {
	BaseImage string `mapstructure:"base_image"`
	GPU       bool   `mapstructure:"gpu"`
}

// LoggingSettings configures the zerolog logger.
type LoggingSettings struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Default returns the built-in settings.
func Default() *Settings {
	return &Settings{
		Layout: LayoutSettings{
			EnvironmentDir: "workbench_environment",
			FilesDir:       "workbench_files",
		},
		Code: CodeSettings{Ignore: []string{}},
		Environment: EnvironmentSettings{
			BaseImage: "workbench/python-base",
			GPU:       false,
		},
		Logging: LoggingSettings{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads settings for the workspace at root.
// The config file <root>/.workbench/config.yaml is optional; environment
// variables with the WORKBENCH_ prefix override both file and defaults.
func Load(root string) (*Settings, error) {
	v := viper.New()

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	configPath := filepath.Join(root, StateDirName, "config.yaml")
	if _, err := os.Stat(configPath); err == nil {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configPath, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	if err := Validate(&s); err != nil {
		return nil, err
	}
	return &s, nil
}

// setDefaults registers every key so that AutomaticEnv applies to Unmarshal.
func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("layout.environment_dir", d.Layout.EnvironmentDir)
	v.SetDefault("layout.files_dir", d.Layout.FilesDir)

	v.SetDefault("code.ignore", d.Code.Ignore)

	v.SetDefault("environment.base_image", d.Environment.BaseImage)
	v.SetDefault("environment.gpu", d.Environment.GPU)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
}

// Validate checks settings for consistency.
func Validate(s *Settings) error {
	var errs []string

	envDir := filepath.Clean(s.Layout.EnvironmentDir)
	filesDir := filepath.Clean(s.Layout.FilesDir)

	if err := fsops.ValidateRelPath(s.Layout.EnvironmentDir); err != nil {
		errs = append(errs, fmt.Sprintf("layout.environment_dir: %v", err))
	}
	if err := fsops.ValidateRelPath(s.Layout.FilesDir); err != nil {
		errs = append(errs, fmt.Sprintf("layout.files_dir: %v", err))
	}
	if overlaps(envDir, filesDir) {
		errs = append(errs, "layout.environment_dir and layout.files_dir must not overlap")
	}
	for key, dir := range map[string]string{"layout.environment_dir": envDir, "layout.files_dir": filesDir} {
		if overlaps(dir, StateDirName) {
			errs = append(errs, fmt.Sprintf("%s must not overlap %s", key, StateDirName))
		}
	}

	for _, pattern := range s.Code.Ignore {
		if !doublestar.ValidatePattern(pattern) {
			errs = append(errs, fmt.Sprintf("code.ignore: invalid pattern %q", pattern))
		}
	}

	if s.Environment.BaseImage == "" {
		errs = append(errs, "environment.base_image must not be empty")
	}

	if _, err := zerolog.ParseLevel(s.Logging.Level); err != nil {
		errs = append(errs, fmt.Sprintf("logging.level: unknown level %q", s.Logging.Level))
	}
	switch s.Logging.Format {
	case "console", "json":
	default:
		errs = append(errs, fmt.Sprintf("logging.format: must be console or json, got %q", s.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}
	return nil
}

// overlaps reports whether one relative path equals or contains the other.
func overlaps(a, b string) bool {
	a = filepath.ToSlash(a)
	b = filepath.ToSlash(b)
	return a == b || strings.HasPrefix(a, b+"/") || strings.HasPrefix(b, a+"/")
}
