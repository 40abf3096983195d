// Package config resolves flapjackd's runtime configuration from flags and
// the FLAPJACK_* environment variables, flag > env > default.
package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config is the resolved runtime configuration.
type Config struct {
	DataDir      string
	BindAddr     string
	AdminKey     string
	Env          string
	MaxBatchSize int
	GeoIPDB      string

	OpenSearchNodes    []string
	OpenSearchUser     string
	OpenSearchPassword string
	OpenSearchInsecure bool

	// RedisAddr switches the key store to the Redis backend when set.
	RedisAddr string
}

// Keys viper binds; the env var for each is FLAPJACK_<upper snake>.
const (
	KeyDataDir            = "data_dir"
	KeyBindAddr           = "bind_addr"
	KeyAdminKey           = "admin_key"
	KeyEnv                = "env"
	KeyMaxBatchSize       = "max_batch_size"
	KeyGeoIPDB            = "geoip_db"
	KeyOpenSearchNodes    = "opensearch_nodes"
	KeyOpenSearchUser     = "opensearch_user"
	KeyOpenSearchPassword = "opensearch_password"
	KeyOpenSearchInsecure = "opensearch_insecure"
	KeyRedisAddr          = "redis_addr"
)

// NewViper builds a viper instance with the FLAPJACK_ env prefix and
// defaults installed; the command layer binds its flags on top.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("FLAPJACK")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyDataDir, "./data")
	v.SetDefault(KeyBindAddr, ":7700")
	v.SetDefault(KeyEnv, "development")
	v.SetDefault(KeyMaxBatchSize, 10_000)
	v.SetDefault(KeyOpenSearchNodes, []string{})

	return v
}

// FromViper materializes the Config.
func FromViper(v *viper.Viper) Config {
	return Config{
		DataDir:            v.GetString(KeyDataDir),
		BindAddr:           v.GetString(KeyBindAddr),
		AdminKey:           v.GetString(KeyAdminKey),
		Env:                v.GetString(KeyEnv),
		MaxBatchSize:       v.GetInt(KeyMaxBatchSize),
		GeoIPDB:            v.GetString(KeyGeoIPDB),
		OpenSearchNodes:    v.GetStringSlice(KeyOpenSearchNodes),
		OpenSearchUser:     v.GetString(KeyOpenSearchUser),
		OpenSearchPassword: v.GetString(KeyOpenSearchPassword),
		OpenSearchInsecure: v.GetBool(KeyOpenSearchInsecure),
		RedisAddr:          v.GetString(KeyRedisAddr),
	}
}
