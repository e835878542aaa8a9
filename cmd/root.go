// Package cmd wires the registrar CLI.
package cmd

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/vofmun/registrar/internal/config"
)

var (
	version   = "dev"
	cfgFile   string
	debugFlag bool
	cfg       config.Config
)

var rootCmd = &cobra.Command{
	Use:     "registrar",
	Short:   "Conference registration intake service",
	Long:    `Registrar accepts conference registration submissions over HTTP: referral code validation with typo suggestions, payment proof upload to object storage, durable persistence, and notification email.`,
	Version: version,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ~/.config/registrar/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false,
		"enable debug logging")
}

func initConfig() {
	defaults := config.Defaults()
	viper.SetDefault("listen", defaults.Listen)
	viper.SetDefault("database.path", defaults.Database.Path)
	viper.SetDefault("storage.url", defaults.Storage.URL)
	viper.SetDefault("storage.bucket", defaults.Storage.Bucket)
	viper.SetDefault("storage.timeout", defaults.Storage.Timeout)
	viper.SetDefault("mail.enabled", defaults.Mail.Enabled)
	viper.SetDefault("mail.url", defaults.Mail.URL)
	viper.SetDefault("mail.from", defaults.Mail.From)
	viper.SetDefault("referral.max_suggestions", defaults.Referral.MaxSuggestions)
	viper.SetDefault("referral.max_distance", defaults.Referral.MaxDistance)
	viper.SetDefault("referral.auto_reload", defaults.Referral.AutoReload)
	viper.SetDefault("referral.reload_debounce", defaults.Referral.ReloadDebounce)
	viper.SetDefault("tracing.enabled", defaults.Tracing.Enabled)
	viper.SetDefault("tracing.exporter", defaults.Tracing.Exporter)
	viper.SetDefault("tracing.file_path", defaults.Tracing.FilePath)
	viper.SetDefault("tracing.otlp_endpoint", defaults.Tracing.OTLPEndpoint)
	viper.SetDefault("tracing.sample_rate", defaults.Tracing.SampleRate)

	// Secrets come from the environment, never the config file.
	_ = viper.BindEnv("storage.service_key", "REGISTRAR_STORAGE_KEY")
	_ = viper.BindEnv("mail.api_key", "REGISTRAR_MAIL_KEY")

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Config lookup order:
		// 1. .registrar/config.yaml (current directory)
		// 2. ~/.config/registrar/config.yaml (user config)
		if _, err := os.Stat(".registrar/config.yaml"); err == nil {
			viper.SetConfigFile(".registrar/config.yaml")
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(filepath.Join(home, ".config", "registrar"))
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		// No config file found anywhere - create default at .registrar/config.yaml
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			defaultPath := ".registrar/config.yaml"
			if writeErr := config.WriteDefaultConfig(defaultPath); writeErr == nil {
				viper.SetConfigFile(defaultPath)
				_ = viper.ReadInConfig()
			}
			// If write fails, just continue with defaults (no config file)
		}
	}

	_ = viper.Unmarshal(&cfg)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags).
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
