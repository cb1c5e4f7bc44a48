// Package config loads the threadfit CLI settings from TOML files and keeps
// the saved session next to them.
package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
)

var configDir string
var configFilePath string
var credentialsPath string

// getConfigDir returns platform-specific config directory
func getConfigDir() (string, error) {
	if runtime.GOOS == "windows" {
		// Windows: %LOCALAPPDATA%\threadfit
		appData := os.Getenv("LOCALAPPDATA")
		if appData == "" {
			appData = os.Getenv("APPDATA")
		}
		if appData == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			appData = home
		}
		return filepath.Join(appData, "threadfit"), nil
	}

	// Unix-like (macOS, Linux): ~/.config/threadfit
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "threadfit"), nil
}

// systemConfigPath is read before the user config, which overrides it.
func systemConfigPath() string {
	if runtime.GOOS == "windows" {
		return filepath.Join(os.Getenv("ProgramFiles"), "ThreadFit", "config.toml")
	}
	return "/etc/threadfit/config.toml"
}

// Init initializes the configuration. An empty configPath uses the
// per-user default location.
func Init(configPath string) error {
	var err error
	if configPath != "" {
		configDir = filepath.Dir(configPath)
		configFilePath = configPath
	} else {
		configDir, err = getConfigDir()
		if err != nil {
			return err
		}
		configFilePath = filepath.Join(configDir, "config.toml")
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return err
	}
	credentialsPath = filepath.Join(configDir, "credentials.json")

	viper.Reset()
	viper.SetConfigType("toml")
	viper.SetEnvPrefix("THREADFIT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	setDefaults()

	if _, err := os.Stat(systemConfigPath()); err == nil {
		viper.SetConfigFile(systemConfigPath())
		_ = viper.ReadInConfig()
	}

	viper.SetConfigFile(configFilePath)
	if _, err := os.Stat(configFilePath); err == nil {
		return viper.MergeInConfig()
	}
	return nil
}

func setDefaults() {
	viper.SetDefault("api.base_url", "http://localhost:8000")
	viper.SetDefault("api.timeout", 30)
	viper.SetDefault("api.cookie_name", "threadfit_cookie")
	viper.SetDefault("output.format", "text")
	viper.SetDefault("generate.speed", 1.0)
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.file", filepath.Join(configDir, "threadfit.log"))
}

// expandPath expands ~ to home directory
func expandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// GetString returns a string configuration value
func GetString(key string) string {
	value := viper.GetString(key)
	if key == "log.file" {
		return expandPath(value)
	}
	return value
}

func GetInt(key string) int {
	return viper.GetInt(key)
}

func GetFloat(key string) float64 {
	return viper.GetFloat64(key)
}

// Timeout is the HTTP timeout, configured in seconds.
func Timeout() time.Duration {
	return time.Duration(viper.GetInt("api.timeout")) * time.Second
}

// Set overrides a value for this process without touching the file.
func Set(key string, value any) {
	viper.Set(key, value)
}

// Save writes the current settings to the user config file.
func Save() error {
	return viper.WriteConfigAs(configFilePath)
}

// GetConfigDir returns the configuration directory path
func GetConfigDir() string {
	return configDir
}

// GetCredentialsPath returns the path to the credentials file
func GetCredentialsPath() string {
	return credentialsPath
}
