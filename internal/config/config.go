// Package config loads server configuration via flag + environment
// variable + default, the way viper is used elsewhere in the corpus
// (bound per-key rather than unmarshalled from a config file, since
// this server has no YAML config surface of its own).
package config

import (
	"flag"

	"github.com/spf13/viper"
)

// Config holds every server-wide setting outside a single room's
// GameSettings.
type Config struct {
	Port     int
	MongoURI string
	LogLevel string
}

// Load binds flags, environment variables and defaults with viper and
// returns the resolved Config. Flags take precedence over environment
// variables, which take precedence over the documented defaults.
func Load() *Config {
	v := viper.New()
	v.SetDefault("port", 3000)
	v.SetDefault("mongo_uri", "mongodb://localhost:27017/bullpen")
	v.SetDefault("log_level", "info")
	v.AutomaticEnv()
	v.BindEnv("port", "PORT")
	v.BindEnv("mongo_uri", "MONGO_URI")
	v.BindEnv("log_level", "LOG_LEVEL")

	port := flag.Int("port", v.GetInt("port"), "HTTP/WebSocket listen port")
	mongoURI := flag.String("mongo-uri", v.GetString("mongo_uri"), "MongoDB connection URI for the history sink")
	logLevel := flag.String("log-level", v.GetString("log_level"), "logrus level (debug, info, warn, error)")
	flag.Parse()

	return &Config{Port: *port, MongoURI: *mongoURI, LogLevel: *logLevel}
}
