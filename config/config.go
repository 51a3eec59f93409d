package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds the runtime settings for the POS server.
type Config struct {
	ServerAddr       string
	GinMode          string
	DBPath           string
	TransactionLimit int
}

// Load reads configuration from the optional file at path, with POS_*
// environment variables overriding file values and built-in defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetDefault("server.addr", ":8081")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.path", "./pos.db")
	v.SetDefault("transactions.list_limit", 50)

	v.SetEnvPrefix("POS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
		}
	}

	return &Config{
		ServerAddr:       v.GetString("server.addr"),
		GinMode:          v.GetString("server.mode"),
		DBPath:           v.GetString("database.path"),
		TransactionLimit: v.GetInt("transactions.list_limit"),
	}, nil
}
