package cmd

import (
	"errors"
	"io/fs"
	"log"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app       = "skillmatrix"
	envPrefix = "SKILLMATRIX"
)

type Config struct {
	Strategy string          `mapstructure:"strategy" validate:"omitempty,oneof=auto remote heuristic"`
	AI       *AIConfig       `mapstructure:"ai"`
	Server   *ServerConfig   `mapstructure:"server"`
	Keywords *KeywordsConfig `mapstructure:"keywords"`
}

type AIConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Provider string        `mapstructure:"provider" validate:"omitempty,oneof=gemini"`
	Gemini   *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKey       string        `mapstructure:"api-key"`
	APIKeyFile   string        `mapstructure:"api-key-file"`
	Model        string        `mapstructure:"model"`
	MaxRetries   int           `mapstructure:"max-retries" validate:"gte=0"`
	MaxAttempts  int           `mapstructure:"max-attempts" validate:"gte=0,lte=5"`
	MaxLogLength int           `mapstructure:"max-log-length" validate:"gte=0"`
	Timeout      time.Duration `mapstructure:"timeout" validate:"gte=0"`
}

type ServerConfig struct {
	Listen       string        `mapstructure:"listen"`
	ReadTimeout  time.Duration `mapstructure:"read-timeout" validate:"gte=0"`
	WriteTimeout time.Duration `mapstructure:"write-timeout" validate:"gte=0"`
	MaxBodyBytes int64         `mapstructure:"max-body-bytes" validate:"gte=0"`
}

// KeywordsConfig extends the built-in keyword tables.
type KeywordsConfig struct {
	Frontend     []string `mapstructure:"frontend"`
	Backend      []string `mapstructure:"backend"`
	Devops       []string `mapstructure:"devops"`
	Web3         []string `mapstructure:"web3"`
	Technologies []string `mapstructure:"technologies"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "skillmatrix turns job descriptions into a structured skill matrix",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is skillmatrix.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")
	rootCmd.PersistentFlags().StringP("strategy", "s", "", "extraction strategy: auto, remote or heuristic")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	viper.BindPFlag("strategy", rootCmd.PersistentFlags().Lookup("strategy"))
}

func initConfig() {
	// A missing .env file is fine; a broken one is not.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("loading .env file: %v", err)
	}

	if err := setupViper(viper.GetViper(), cfgFile); err != nil {
		log.Fatal(err)
	}
}

// setupViper wires defaults, environment variables and the optional config file.
func setupViper(v *viper.Viper, file string) error {
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.BindEnv("ai.gemini.api-key", envPrefix+"_AI_GEMINI_API_KEY", "GEMINI_API_KEY"); err != nil {
		return err
	}
	if err := v.BindEnv("ai.gemini.api-key-file", envPrefix+"_AI_GEMINI_API_KEY_FILE", "GEMINI_API_KEY_FILE"); err != nil {
		return err
	}

	if file != "" {
		v.SetConfigFile(file)
		return v.ReadInConfig()
	}

	v.AddConfigPath(".")
	v.SetConfigName(app)
	v.SetConfigType("yaml")

	var notFound viper.ConfigFileNotFoundError
	if err := v.ReadInConfig(); err != nil && !errors.As(err, &notFound) {
		return err
	}
	return nil
}

// setDefaults registers every key so that AutomaticEnv can override it on Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("strategy", "auto")

	v.SetDefault("ai.enabled", false)
	v.SetDefault("ai.provider", "gemini")
	v.SetDefault("ai.gemini.api-key", "")
	v.SetDefault("ai.gemini.api-key-file", "")
	v.SetDefault("ai.gemini.model", "gemini-2.5-flash")
	v.SetDefault("ai.gemini.max-retries", 3)
	v.SetDefault("ai.gemini.max-attempts", 2)
	v.SetDefault("ai.gemini.max-log-length", 200)
	v.SetDefault("ai.gemini.timeout", "60s")

	v.SetDefault("server.listen", ":8080")
	v.SetDefault("server.read-timeout", "30s")
	v.SetDefault("server.write-timeout", "120s")
	v.SetDefault("server.max-body-bytes", 1<<20)

	v.SetDefault("keywords.frontend", []string{})
	v.SetDefault("keywords.backend", []string{})
	v.SetDefault("keywords.devops", []string{})
	v.SetDefault("keywords.web3", []string{})
	v.SetDefault("keywords.technologies", []string{})
}

func getConfig() (*Config, error) {
	return decodeConfig(viper.GetViper())
}

func decodeConfig(v *viper.Viper) (*Config, error) {
	var config *Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}
	if config == nil {
		config = &Config{}
	}

	if err := validator.New().Struct(config); err != nil {
		return nil, err
	}

	return config, nil
}
