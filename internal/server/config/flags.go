package config

import (
	"flag"
	"fmt"
	"os"

	"github.com/dmitrijs2005/gophauth/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags:
//
//	-a string     HTTP bind address (e.g., ":8080")
//	-g string     gRPC bind address (e.g., ":50051")
//	-d string     PostgreSQL DSN
//	-k string     token signing secret
//	-i string     token issuer
//	-t duration   access token validity (e.g., "5m")
//	-r duration   refresh token validity (e.g., "168h")
//	-e string     environment: local, dev or prod
//	-l string     log backend: slog or zap
//	-redis string Redis address for the failed-login throttle
//
// Args are filtered with flagx.FilterArgs first, so flags meant for other
// components do not cause parse errors.
func parseFlags(config *Config) error {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-g", "-d", "-k", "-i", "-t", "-r", "-e", "-l", "-redis"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "HTTP address and port to run server")
	fs.StringVar(&config.EndpointAddrGRPC, "g", config.EndpointAddrGRPC, "gRPC address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "k", config.SecretKey, "token signing secret")
	fs.StringVar(&config.Issuer, "i", config.Issuer, "token issuer")
	fs.DurationVar(&config.AccessTokenValidityDuration, "t", config.AccessTokenValidityDuration, "access token validity")
	fs.DurationVar(&config.RefreshTokenValidityDuration, "r", config.RefreshTokenValidityDuration, "refresh token validity")
	fs.StringVar(&config.Env, "e", config.Env, "environment (local, dev, prod)")
	fs.StringVar(&config.LogFormat, "l", config.LogFormat, "log backend (slog, zap)")
	fs.StringVar(&config.RedisAddr, "redis", config.RedisAddr, "redis address")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}
	return nil
}
