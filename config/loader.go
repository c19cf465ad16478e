package config

import (
	"bytes"
	"fmt"
	"os"
	"regexp"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// envPattern matches "${VAR}" and "${VAR:-default}" placeholders. A
// placeholder with no default whose variable is unset, notably template
// placeholders like "${question}" consumed later by prompt rendering, is
// left untouched.
var envPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(:-([^}]*))?\}`)

// interpolateEnv replaces "${VAR}" / "${VAR:-default}" occurrences in raw
// with values from os.LookupEnv, falling back to the default when unset. An
// unset "${VAR}" with no default is left verbatim.
func interpolateEnv(raw []byte) []byte {
	return envPattern.ReplaceAllFunc(raw, func(match []byte) []byte {
		groups := envPattern.FindSubmatch(match)
		name := string(groups[1])
		def := string(groups[3])
		if val, ok := os.LookupEnv(name); ok {
			return []byte(val)
		}
		if len(groups[2]) == 0 {
			return match
		}
		return []byte(def)
	})
}

var structValidator = validator.New(validator.WithRequiredStructEnabled())

// LoadBenchmarkConfig reads a YAML benchmark config file from path,
// interpolates environment variables, and validates the result.
func LoadBenchmarkConfig(path string) (*BenchmarkConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, newConfigError("LoadBenchmarkConfig", ErrCodeFileNotFound, path, err)
	}
	var cfg BenchmarkConfig
	if err := decodeYAML(raw, &cfg); err != nil {
		return nil, newConfigError("LoadBenchmarkConfig", ErrCodeParseFailed, path, err)
	}
	if err := structValidator.Struct(&cfg); err != nil {
		return nil, newConfigError("LoadBenchmarkConfig", ErrCodeValidationFailed, err.Error(), err)
	}
	return &cfg, nil
}

// LoadProviderConfig reads a YAML provider config file from path,
// interpolates environment variables, and validates the result.
func LoadProviderConfig(path string) (*ProviderConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, newConfigError("LoadProviderConfig", ErrCodeFileNotFound, path, err)
	}
	var cfg ProviderConfig
	if err := decodeYAML(raw, &cfg); err != nil {
		return nil, newConfigError("LoadProviderConfig", ErrCodeParseFailed, path, err)
	}
	if err := structValidator.Struct(&cfg); err != nil {
		return nil, newConfigError("LoadProviderConfig", ErrCodeValidationFailed, err.Error(), err)
	}
	return &cfg, nil
}

// decodeYAML interpolates env vars in raw then unmarshals it via viper, so
// both configs share one codec and one env-interpolation pass regardless of
// caller.
func decodeYAML(raw []byte, out interface{}) error {
	interpolated := interpolateEnv(raw)

	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(interpolated)); err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := v.Unmarshal(out); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}
	return nil
}
