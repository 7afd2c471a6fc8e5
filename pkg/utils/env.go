package utils

import (
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// LoadConfig reads an optional .env file from path and merges it with the
// process environment. Viper keys are the lower-cased env var names.
func LoadConfig(path string) {
	if err := godotenv.Load(filepath.Join(path, ".env")); err != nil {
		logrus.Debugf("[CONFIG] no .env file loaded: %v", err)
	}

	viper.AddConfigPath(path)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		logrus.Debugf("[CONFIG] viper config not read: %v", err)
	}
}
