package common

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "embed"

	"github.com/go-viper/mapstructure/v2"
	kjson "github.com/knadh/koanf/parsers/json"
	kyaml "github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

//go:embed config.default.yaml
var defaultConfig []byte

const configPathEnv = "CONFIG_PATH"

// ConfigManager loads layered configuration: embedded defaults first, then
// an optional file pointed at by CONFIG_PATH (yaml or json). Struct fields
// are bound by their `key` tags.
type ConfigManager[T any] struct {
	k      *koanf.Koanf
	config T
}

// NewConfigManager creates a config manager and loads all layers.
func NewConfigManager[T any]() (*ConfigManager[T], error) {
	k := koanf.New(".")

	if err := k.Load(rawbytes.Provider(defaultConfig), kyaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load default config: %w", err)
	}

	if path := os.Getenv(configPathEnv); path != "" {
		parser, err := parserForPath(path)
		if err != nil {
			return nil, err
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	cm := &ConfigManager[T]{k: k}
	if err := cm.unmarshal(); err != nil {
		return nil, err
	}

	return cm, nil
}

// NewConfigManagerFromBytes builds a manager from raw yaml, layered over the
// embedded defaults. Used by tests.
func NewConfigManagerFromBytes[T any](data []byte) (*ConfigManager[T], error) {
	k := koanf.New(".")

	if err := k.Load(rawbytes.Provider(defaultConfig), kyaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load default config: %w", err)
	}
	if err := k.Load(rawbytes.Provider(data), kyaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load config bytes: %w", err)
	}

	cm := &ConfigManager[T]{k: k}
	if err := cm.unmarshal(); err != nil {
		return nil, err
	}

	return cm, nil
}

func parserForPath(path string) (koanf.Parser, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return kyaml.Parser(), nil
	case ".json":
		return kjson.Parser(), nil
	}
	return nil, fmt.Errorf("unsupported config format: %s", path)
}

func (cm *ConfigManager[T]) unmarshal() error {
	err := cm.k.UnmarshalWithConf("", &cm.config, koanf.UnmarshalConf{
		Tag: "key",
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
			Result:           &cm.config,
			WeaklyTypedInput: true,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return nil
}

// GetConfig returns the resolved configuration.
func (cm *ConfigManager[T]) GetConfig() T {
	return cm.config
}
