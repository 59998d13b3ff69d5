package cmd

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/cv-search/internal/candidates"
	"github.com/spigell/cv-search/internal/cvsearch"
	"github.com/spigell/cv-search/internal/session"
)

const (
	app       = "cv-search"
	envPrefix = "CV_SEARCH"
)

type Config struct {
	CVSearch *CVSearchConfig `mapstructure:"cvsearch"`
	Mapping  *MappingConfig  `mapstructure:"mapping"`
	Search   *SearchConfig   `mapstructure:"search"`
	AI       *AIConfig       `mapstructure:"ai"`
	Relay    *RelayConfig    `mapstructure:"relay"`
}

type CVSearchConfig struct {
	URL               string `mapstructure:"url"`
	Session           string `mapstructure:"session"`
	SessionFile       string `mapstructure:"session-file"`
	UserAgent         string `mapstructure:"user-agent"`
	Limit             int    `mapstructure:"limit"`
	EnrichMetadata    bool   `mapstructure:"enrich-metadata"`
	EnrichConcurrency int    `mapstructure:"enrich-concurrency"`
}

type MappingConfig struct {
	// Malformed is "abort" or "skip".
	Malformed string `mapstructure:"malformed"`
}

type SearchConfig struct {
	MinScore    int           `mapstructure:"min-score"`
	ExcludeFile string        `mapstructure:"exclude-file"`
	Debounce    time.Duration `mapstructure:"debounce"`
}

type AIConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	Provider       string        `mapstructure:"provider"`
	FallbackToText bool          `mapstructure:"fallback-to-text"`
	Gemini         *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKey       string  `mapstructure:"api-key"`
	APIKeyFile   string  `mapstructure:"api-key-file"`
	Model        string  `mapstructure:"model"`
	Temperature  float32 `mapstructure:"temperature"`
	MaxTokens    int32   `mapstructure:"max-tokens"`
	MaxLogLength int     `mapstructure:"max-log-length"`
}

type RelayConfig struct {
	Listen string `mapstructure:"listen"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "cv-search is a cli for searching and ranking candidate CVs",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is cv-search.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))

	setDefaults(viper.GetViper())
}

// setDefaults registers every key so environment variables are picked up
// by Unmarshal, e.g. CV_SEARCH_CVSEARCH_SESSION for cvsearch.session.
func setDefaults(v *viper.Viper) {
	v.SetDefault("cvsearch.url", "")
	v.SetDefault("cvsearch.session", "")
	v.SetDefault("cvsearch.session-file", "")
	v.SetDefault("cvsearch.user-agent", "")
	v.SetDefault("cvsearch.limit", cvsearch.DefaultLimit)
	v.SetDefault("cvsearch.enrich-metadata", false)
	v.SetDefault("cvsearch.enrich-concurrency", cvsearch.DefaultEnrichConcurrency)
	v.SetDefault("mapping.malformed", string(candidates.AbortOnMalformed))
	v.SetDefault("search.min-score", 0)
	v.SetDefault("search.exclude-file", "")
	v.SetDefault("search.debounce", session.DefaultDebounce)
	v.SetDefault("ai.enabled", false)
	v.SetDefault("ai.provider", "gemini")
	v.SetDefault("ai.fallback-to-text", true)
	v.SetDefault("ai.gemini.api-key", "")
	v.SetDefault("ai.gemini.api-key-file", "")
	v.SetDefault("ai.gemini.model", "")
	v.SetDefault("ai.gemini.temperature", 0.3)
	v.SetDefault("ai.gemini.max-tokens", 1000)
	v.SetDefault("ai.gemini.max-log-length", 200)
	v.SetDefault("relay.listen", ":8080")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
}

func initConfig() {
	if versionCmd.CalledAs() != "" {
		return
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// The default config file is optional, an explicit one is not.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	return loadConfig(viper.GetViper())
}

func loadConfig(v *viper.Viper) (*Config, error) {
	var config *Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}
	if config == nil {
		config = &Config{}
	}
	if config.CVSearch == nil {
		config.CVSearch = &CVSearchConfig{}
	}
	if config.Mapping == nil {
		config.Mapping = &MappingConfig{}
	}
	if config.Search == nil {
		config.Search = &SearchConfig{}
	}
	if config.AI == nil {
		config.AI = &AIConfig{}
	}
	if config.AI.Gemini == nil {
		config.AI.Gemini = &GeminiConfig{}
	}
	if config.Relay == nil {
		config.Relay = &RelayConfig{}
	}

	return config, nil
}
