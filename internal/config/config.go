// Package config loads assetdeploy settings.
//
// Settings are layered, lowest to highest precedence:
//
//	defaults < config file (JSONC) < ASSETDEPLOY_* env vars < command-line flags
//
// The config file is JSON with comments, the same dialect devcontainer.json
// uses. Comments and trailing commas are stripped with
// github.com/tidwall/jsonc before the result is handed to viper.
//
// Example assetdeploy.jsonc:
//
//	{
//	  // Where the host keeps per-installation data.
//	  "storage_root": "/var/lib/engine",
//	  "policy": "collect",
//	  "recursive": true,
//	}
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/tidwall/jsonc"

	"github.com/shinji-kodama/assetdeploy/internal/deploy"
	"github.com/shinji-kodama/assetdeploy/internal/destination"
	"github.com/shinji-kodama/assetdeploy/internal/model"
)

// AppName is used for the default storage root and the env prefix.
const AppName = "assetdeploy"

// DefaultConfigFile is looked up in the working directory when no
// --config flag is given. A missing default file is not an error.
const DefaultConfigFile = "assetdeploy.jsonc"

// EnvPrefix prefixes every environment override (ASSETDEPLOY_STORAGE_ROOT).
const EnvPrefix = "ASSETDEPLOY"

// Config keys. Flags use the same names with dashes instead of underscores.
const (
	KeyStorageRoot   = "storage_root"
	KeyDirName       = "dir_name"
	KeySourceFolder  = "source_folder"
	KeyBundle        = "bundle"
	KeyBufferSize    = "buffer_size"
	KeyPolicy        = "policy"
	KeyRecursive     = "recursive"
	KeyContainer     = "push.container"
	KeyContainerRoot = "push.container_root"
)

// Config holds the resolved settings for one invocation.
type Config struct {
	// StorageRoot is the per-installation writable root. Assets are
	// deployed into <StorageRoot>/<DirName>.
	StorageRoot string `mapstructure:"storage_root" json:"storageRoot" yaml:"storageRoot"`

	// DirName is the child directory under StorageRoot (default "assets").
	DirName string `mapstructure:"dir_name" json:"dirName" yaml:"dirName"`

	// SourceFolder is the folder listed inside the packaged container
	// (default "resourcepack").
	SourceFolder string `mapstructure:"source_folder" json:"sourceFolder" yaml:"sourceFolder"`

	// Bundle is an optional .tar.zst packaged container. When empty, the
	// pack embedded in the binary is used.
	Bundle string `mapstructure:"bundle" json:"bundle,omitempty" yaml:"bundle,omitempty"`

	// BufferSize is the copy buffer size in bytes (default 4096).
	BufferSize int `mapstructure:"buffer_size" json:"bufferSize" yaml:"bufferSize"`

	// Policy is the per-entry failure policy: "abort" or "collect".
	Policy model.FailurePolicy `mapstructure:"policy" json:"policy" yaml:"policy"`

	// Recursive enables subdirectory support.
	Recursive bool `mapstructure:"recursive" json:"recursive" yaml:"recursive"`

	// Push configures the container push command.
	Push PushConfig `mapstructure:"push" json:"push" yaml:"push"`
}

// PushConfig configures pushing deployed assets into consumer containers.
type PushConfig struct {
	// Container is an explicit container ID or name. When empty, every
	// container labelled as an asset consumer receives the assets.
	Container string `mapstructure:"container" json:"container,omitempty" yaml:"container,omitempty"`

	// ContainerRoot is the storage root inside an explicit container.
	// Labelled consumers carry their own root in a label.
	ContainerRoot string `mapstructure:"container_root" json:"containerRoot,omitempty" yaml:"containerRoot,omitempty"`
}

// LoadOptions controls where Load looks for settings.
type LoadOptions struct {
	// ConfigFile is an explicit config file path. It must exist.
	ConfigFile string

	// WorkDir is searched for DefaultConfigFile when ConfigFile is empty.
	// Empty means the process working directory.
	WorkDir string

	// Flags are bound on top of every other layer. Only flags the user
	// actually set override lower layers.
	Flags *pflag.FlagSet
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		StorageRoot:  DefaultStorageRoot(),
		DirName:      destination.DefaultDirName,
		SourceFolder: deploy.DefaultSourceFolder,
		BufferSize:   deploy.DefaultBufferSize,
		Policy:       model.PolicyAbort,
	}
}

// DefaultStorageRoot returns the platform data directory for assetdeploy.
//
//   - Linux and others: $XDG_DATA_HOME/assetdeploy, or ~/.local/share/assetdeploy
//   - macOS and Windows: os.UserConfigDir()/assetdeploy
//
// If no home directory can be determined, a relative ".assetdeploy" is used.
func DefaultStorageRoot() string {
	switch runtime.GOOS {
	case "darwin", "windows":
		if dir, err := os.UserConfigDir(); err == nil {
			return filepath.Join(dir, AppName)
		}
	default:
		if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
			return filepath.Join(dir, AppName)
		}
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, ".local", "share", AppName)
		}
	}
	return "." + AppName
}

// Load resolves the layered configuration and validates it.
func Load(opts LoadOptions) (*Config, error) {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault(KeyStorageRoot, defaults.StorageRoot)
	v.SetDefault(KeyDirName, defaults.DirName)
	v.SetDefault(KeySourceFolder, defaults.SourceFolder)
	v.SetDefault(KeyBundle, defaults.Bundle)
	v.SetDefault(KeyBufferSize, defaults.BufferSize)
	v.SetDefault(KeyPolicy, string(defaults.Policy))
	v.SetDefault(KeyRecursive, defaults.Recursive)
	v.SetDefault(KeyContainer, defaults.Push.Container)
	v.SetDefault(KeyContainerRoot, defaults.Push.ContainerRoot)

	path, err := configFilePath(opts)
	if err != nil {
		return nil, err
	}
	if path != "" {
		if err := loadJSONCIntoViper(v, path); err != nil {
			return nil, err
		}
	}

	// ASSETDEPLOY_STORAGE_ROOT, ASSETDEPLOY_PUSH_CONTAINER_ROOT, ...
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if opts.Flags != nil {
		if err := bindFlags(v, opts.Flags); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate normalizes and checks the configuration values.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.StorageRoot) == "" {
		return fmt.Errorf("storage root must not be empty")
	}

	policy, err := model.ParseFailurePolicy(string(c.Policy))
	if err != nil {
		return err
	}
	c.Policy = policy

	if c.BufferSize <= 0 {
		return fmt.Errorf("buffer size must be positive, got %d", c.BufferSize)
	}

	if c.DirName == "" || c.DirName == "." || c.DirName == ".." || strings.ContainsAny(c.DirName, `/\`) {
		return fmt.Errorf("invalid dir name %q: must be a single directory name", c.DirName)
	}

	if c.SourceFolder == "" {
		return fmt.Errorf("source folder must not be empty")
	}
	return nil
}

// TargetDir returns <StorageRoot>/<DirName>.
func (c *Config) TargetDir() string {
	return destination.Path(c.StorageRoot, c.DirName)
}

// configFilePath returns the config file to load, or "" if none applies.
func configFilePath(opts LoadOptions) (string, error) {
	if opts.ConfigFile != "" {
		if _, err := os.Stat(opts.ConfigFile); err != nil {
			return "", fmt.Errorf("config file not found: %s: %w", opts.ConfigFile, err)
		}
		return opts.ConfigFile, nil
	}

	dir := opts.WorkDir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", nil
		}
		dir = wd
	}

	candidate := filepath.Join(dir, DefaultConfigFile)
	if _, err := os.Stat(candidate); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("failed to stat %s: %w", candidate, err)
	}
	return candidate, nil
}

// loadJSONCIntoViper strips JSONC comments and trailing commas, then merges
// the result into v as a JSON config.
func loadJSONCIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	clean := jsonc.ToJSON(data)

	v.SetConfigType("json")
	if err := v.ReadConfig(bytes.NewReader(clean)); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// bindFlags binds every flag whose name maps onto a known key. The flag
// name is the key with dashes ("storage-root" → storage_root); push flags
// drop the "push." prefix ("container-root" → push.container_root).
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	keys := []string{
		KeyStorageRoot, KeyDirName, KeySourceFolder, KeyBundle,
		KeyBufferSize, KeyPolicy, KeyRecursive, KeyContainer, KeyContainerRoot,
	}
	for _, key := range keys {
		name := strings.ReplaceAll(strings.TrimPrefix(key, "push."), "_", "-")
		flag := flags.Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("failed to bind flag --%s: %w", name, err)
		}
	}
	return nil
}
