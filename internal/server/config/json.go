package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/gophauth/internal/flagx"
	"github.com/dmitrijs2005/gophauth/internal/timex"
)

// JsonConfig is the on-disk shape of the optional JSON config file.
// Durations use timex.Duration, so both "1m" and integer nanoseconds parse.
// Absent or zero fields keep the value already in Config.
type JsonConfig struct {
	Env                          string         `json:"env"`
	LogFormat                    string         `json:"log_format"`
	EndpointAddrHTTP             string         `json:"endpoint_addr_http"`
	EndpointAddrGRPC             string         `json:"endpoint_addr_grpc"`
	DatabaseDSN                  string         `json:"database_dsn"`
	SecretKey                    string         `json:"secret_key"`
	Issuer                       string         `json:"issuer"`
	AccessTokenValidityDuration  timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration timex.Duration `json:"refresh_token_validity_duration"`
	BcryptCost                   int            `json:"bcrypt_cost"`
	SweepInterval                timex.Duration `json:"sweep_interval"`
	RateLimitRPS                 float64        `json:"rate_limit_rps"`
	RateLimitBurst               int            `json:"rate_limit_burst"`
	RedisAddr                    string         `json:"redis_addr"`
	MaxLoginAttempts             int            `json:"max_login_attempts"`
	LoginCooldown                timex.Duration `json:"login_cooldown"`
	S3RootUser                   string         `json:"s3_root_user"`
	S3RootPassword               string         `json:"s3_root_password"`
	S3Bucket                     string         `json:"s3_bucket"`
	S3Region                     string         `json:"s3_region"`
	S3BaseEndpoint               string         `json:"s3_base_endpoint"`
	S3SecretKeyObject            string         `json:"s3_secret_key_object"`
}

// parseJson loads the file named by -c / -config, if any, into config.
func parseJson(config *Config) error {
	path := flagx.ConfigFileFlag()
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	setString(&config.Env, c.Env)
	setString(&config.LogFormat, c.LogFormat)
	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.Issuer, c.Issuer)
	setString(&config.RedisAddr, c.RedisAddr)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.S3SecretKeyObject, c.S3SecretKeyObject)

	if c.AccessTokenValidityDuration.Duration != 0 {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.RefreshTokenValidityDuration.Duration != 0 {
		config.RefreshTokenValidityDuration = c.RefreshTokenValidityDuration.Duration
	}
	if c.SweepInterval.Duration != 0 {
		config.SweepInterval = c.SweepInterval.Duration
	}
	if c.LoginCooldown.Duration != 0 {
		config.LoginCooldown = c.LoginCooldown.Duration
	}
	if c.BcryptCost != 0 {
		config.BcryptCost = c.BcryptCost
	}
	if c.RateLimitRPS != 0 {
		config.RateLimitRPS = c.RateLimitRPS
	}
	if c.RateLimitBurst != 0 {
		config.RateLimitBurst = c.RateLimitBurst
	}
	if c.MaxLoginAttempts != 0 {
		config.MaxLoginAttempts = c.MaxLoginAttempts
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
