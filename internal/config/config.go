package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	configName = ".ecopolicy"
	envPrefix  = "ECOPOLICY"
)

// validate is a single Validate instance; it caches struct info.
var validate = validator.New()

// AppConfig is the resolved engine configuration.
type AppConfig struct {
	Rules struct {
		Dir     string `mapstructure:"dir" validate:"required"`
		Package string `mapstructure:"package" validate:"required"`
		Watch   bool   `mapstructure:"watch"`
	} `mapstructure:"rules"`

	Model struct {
		Path string `mapstructure:"path" validate:"required"`
	} `mapstructure:"model"`

	Data struct {
		Dir string `mapstructure:"dir" validate:"required"`
	} `mapstructure:"data"`

	Policy struct {
		// Tiers lists extended ladder tiers to enable beyond the default
		// eco_minimum and eco_standard.
		Tiers []string `mapstructure:"tiers"`
	} `mapstructure:"policy"`

	Praxis struct {
		UpdateThreshold int `mapstructure:"update_threshold" validate:"min=1"`
	} `mapstructure:"praxis"`

	Verbose bool `mapstructure:"verbose"`
}

// setDefaults registers every default with viper before config resolution.
func setDefaults(v *viper.Viper) {
	v.SetDefault("rules.dir", DefaultRulesDir)
	v.SetDefault("rules.package", DefaultRulePackage)
	v.SetDefault("rules.watch", false)
	v.SetDefault("model.path", DefaultModelPath)
	v.SetDefault("data.dir", DefaultDataDir)
	v.SetDefault("policy.tiers", []string{})
	v.SetDefault("praxis.update_threshold", DefaultUpdateThreshold)
	v.SetDefault("verbose", false)
}

// Load resolves configuration from defaults, an optional .ecopolicy.yaml
// config file, a .env file, and ECOPOLICY_* environment variables, in
// ascending precedence.
func Load(cfgFile string) (*AppConfig, error) {
	// A missing .env file is fine.
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(configName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}
