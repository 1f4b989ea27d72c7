package config

import (
	"log"

	"github.com/spf13/viper"
)

// Config holds runtime configuration, loaded from the environment with an
// optional .env file.
type Config struct {
	HTTPAddr string
	DataDir  string
	LogLevel string
}

// LoadConfig reads configuration from .env and the environment.
func LoadConfig() *Config {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	viper.SetDefault("HTTP_ADDR", ":8080")
	viper.SetDefault("DATA_DIR", "./data")
	viper.SetDefault("LOG_LEVEL", "info")

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("No config file found: %v", err)
	}

	return &Config{
		HTTPAddr: viper.GetString("HTTP_ADDR"),
		DataDir:  viper.GetString("DATA_DIR"),
		LogLevel: viper.GetString("LOG_LEVEL"),
	}
}
