package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/scorekeeper/internal/flagx"
	"github.com/dmitrijs2005/scorekeeper/internal/timex"
)

// JsonConfig is the on-disk shape of the optional JSON config file.
// Pointer fields distinguish "absent" from zero values so that a partial
// file only overrides what it names. Durations accept "72h" or nanoseconds.
type JsonConfig struct {
	EndpointAddrHTTP            *string         `json:"endpoint_addr_http"`
	SecretKey                   *string         `json:"secret_key"`
	AccessTokenValidityDuration *timex.Duration `json:"access_token_validity_duration"`
	StoreBackend                *string         `json:"store_backend"`
	RedisAddr                   *string         `json:"redis_addr"`
	RedisUser                   *string         `json:"redis_user"`
	RedisPassword               *string         `json:"redis_password"`
	RedisDB                     *int            `json:"redis_db"`
	RedisKeyPrefix              *string         `json:"redis_key_prefix"`
	DatabaseDSN                 *string         `json:"database_dsn"`
	LeaderboardSize             *int            `json:"leaderboard_size"`
	LogFormat                   *string         `json:"log_format"`
	LogLevel                    *string         `json:"log_level"`
	CORSAllowedOrigin           *string         `json:"cors_allowed_origin"`
	ReadTimeout                 *timex.Duration `json:"read_timeout"`
	WriteTimeout                *timex.Duration `json:"write_timeout"`
	ShutdownTimeout             *timex.Duration `json:"shutdown_timeout"`
}

// parseJson overlays values from the JSON file named by -c/-config (or the
// CONFIG variable). Nothing happens when no file is requested.
func parseJson(config *Config) error {
	path := flagx.ConfigFilePath()
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return err
	}

	c.apply(config)
	return nil
}

func (c *JsonConfig) apply(config *Config) {
	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.SecretKey, c.SecretKey)
	setDuration(&config.AccessTokenValidityDuration, c.AccessTokenValidityDuration)
	setString(&config.StoreBackend, c.StoreBackend)
	setString(&config.RedisAddr, c.RedisAddr)
	setString(&config.RedisUser, c.RedisUser)
	setString(&config.RedisPassword, c.RedisPassword)
	if c.RedisDB != nil {
		config.RedisDB = *c.RedisDB
	}
	setString(&config.RedisKeyPrefix, c.RedisKeyPrefix)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	if c.LeaderboardSize != nil {
		config.LeaderboardSize = *c.LeaderboardSize
	}
	setString(&config.LogFormat, c.LogFormat)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.CORSAllowedOrigin, c.CORSAllowedOrigin)
	setDuration(&config.ReadTimeout, c.ReadTimeout)
	setDuration(&config.WriteTimeout, c.WriteTimeout)
	setDuration(&config.ShutdownTimeout, c.ShutdownTimeout)
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func setDuration(dst *time.Duration, src *timex.Duration) {
	if src != nil {
		*dst = src.Duration
	}
}
