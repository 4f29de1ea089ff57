package config

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/spf13/viper"

	"github.com/beanbocchi/tubeup/pkg/validator"
)

const (
	envPrefix     = "TUBEUP"
	envConfigPath = "TUBEUP_CONFIG"
	defaultPath   = "config/config.yaml"
)

var (
	once   sync.Once
	global *Config
)

// GetConfig returns the process configuration, loading it on first use from
// $TUBEUP_CONFIG or config/config.yaml. It panics when the file is invalid.
func GetConfig() *Config {
	once.Do(func() {
		path := os.Getenv(envConfigPath)
		if path == "" {
			path = defaultPath
		}

		cfg, err := Load(path)
		if err != nil {
			panic(fmt.Sprintf("load config: %v", err))
		}
		global = cfg
	})
	return global
}

// Load reads the YAML file at path, applies TUBEUP_* environment overrides
// (TUBEUP_APP_ADDRESS overrides app.address) and validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := validator.Validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	if err := cfg.Objectstore.check(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "development")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.addSource", false)
	v.SetDefault("app.name", "tubeup")
	v.SetDefault("app.address", ":8080")
	v.SetDefault("app.publicUrl", "http://localhost:8080")
	v.SetDefault("upload.partSize", 5*1024*1024)
	v.SetDefault("upload.maxParts", 10000)
	v.SetDefault("upload.keyPrefix", "videos/video")
	v.SetDefault("upload.requestTimeout", "30s")
	v.SetDefault("objectstore.type", "local")
	v.SetDefault("objectstore.local.root", "./data")
	v.SetDefault("objectstore.storj.accessGrant", "")
	v.SetDefault("objectstore.storj.bucket", "")
}

func (o Objectstore) check() error {
	switch o.Type {
	case "local":
		if o.Local.Root == "" {
			return fmt.Errorf("objectstore.local.root is required for the local store")
		}
	case "storj":
		if o.Storj.AccessGrant == "" || o.Storj.Bucket == "" {
			return fmt.Errorf("objectstore.storj.accessGrant and bucket are required for the storj store")
		}
	}
	return nil
}
